package main

import "github.com/jfmyers9/mpdrpc/cmd"

func main() {
	cmd.Execute()
}
