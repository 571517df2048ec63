/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// configPath is the --config flag shared by every command
var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mpdrpc",
	Short: "Discord rich presence for MPD",
	Long: `mpdrpc mirrors what MPD is playing onto your Discord profile.

It runs as a background daemon that finds the first playing MPD server
from a configured list, follows its player and queue changes, and pushes
a rich presence built from your format templates, with cover art looked
up on MusicBrainz and the Cover Art Archive.

It also provides a CLI command to print the rendered presence, useful
for displaying in tmux status lines or other status bars.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/mpdrpc/config.toml)")
}

// userAgent identifies mpdrpc to MusicBrainz, which rejects anonymous clients
func userAgent() string {
	return fmt.Sprintf("mpdrpc/%s ( https://github.com/jfmyers9/mpdrpc )", version)
}
