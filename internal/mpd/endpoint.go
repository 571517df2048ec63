package mpd

import (
	"net"
	"os"
)

// DefaultPort is used for network endpoints given without a port.
const DefaultPort = "6600"

// EndpointKind distinguishes how an endpoint is dialed
type EndpointKind int

const (
	EndpointNetwork EndpointKind = iota // host:port over TCP
	EndpointLocal                       // UNIX domain socket path
)

// String returns a human-readable representation of the EndpointKind
func (k EndpointKind) String() string {
	switch k {
	case EndpointNetwork:
		return "network"
	case EndpointLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Endpoint is one candidate address for reaching an MPD server.
// The kind is decided once, when the endpoint is parsed.
type Endpoint struct {
	Kind EndpointKind
	Path string // set for EndpointLocal
	Host string // set for EndpointNetwork
	Port string // set for EndpointNetwork
}

// ParseEndpoint classifies addr as a local socket when it names an
// existing socket file, and as host:port otherwise.
func ParseEndpoint(addr string) Endpoint {
	if info, err := os.Stat(addr); err == nil && info.Mode()&os.ModeSocket != 0 {
		return Endpoint{Kind: EndpointLocal, Path: addr}
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		// No port given (or unparseable); treat the whole string as a host
		return Endpoint{Kind: EndpointNetwork, Host: addr, Port: DefaultPort}
	}
	if port == "" {
		port = DefaultPort
	}
	return Endpoint{Kind: EndpointNetwork, Host: host, Port: port}
}

// ParseEndpoints classifies every address, preserving order
func ParseEndpoints(addrs []string) []Endpoint {
	endpoints := make([]Endpoint, 0, len(addrs))
	for _, addr := range addrs {
		endpoints = append(endpoints, ParseEndpoint(addr))
	}
	return endpoints
}

// Network returns the network name understood by net.Dial
func (e Endpoint) Network() string {
	if e.Kind == EndpointLocal {
		return "unix"
	}
	return "tcp"
}

// Address returns the dial address for the endpoint
func (e Endpoint) Address() string {
	if e.Kind == EndpointLocal {
		return e.Path
	}
	return net.JoinHostPort(e.Host, e.Port)
}

func (e Endpoint) String() string {
	return e.Address()
}
