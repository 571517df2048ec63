package mpd

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want Endpoint
	}{
		{
			name: "host and port",
			addr: "localhost:6600",
			want: Endpoint{Kind: EndpointNetwork, Host: "localhost", Port: "6600"},
		},
		{
			name: "host without port",
			addr: "music.lan",
			want: Endpoint{Kind: EndpointNetwork, Host: "music.lan", Port: DefaultPort},
		},
		{
			name: "ipv6 with port",
			addr: "[::1]:6601",
			want: Endpoint{Kind: EndpointNetwork, Host: "::1", Port: "6601"},
		},
		{
			name: "missing path is not a socket",
			addr: "/nonexistent/mpd/socket",
			want: Endpoint{Kind: EndpointNetwork, Host: "/nonexistent/mpd/socket", Port: DefaultPort},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseEndpoint(tt.addr))
		})
	}
}

func TestParseEndpoint_Socket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpd.sock")
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	ep := ParseEndpoint(path)
	require.Equal(t, EndpointLocal, ep.Kind)
	require.Equal(t, path, ep.Path)
	require.Equal(t, "unix", ep.Network())
	require.Equal(t, path, ep.Address())
}

func TestParseEndpoint_RegularFileIsNotSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-socket")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	ep := ParseEndpoint(path)
	require.Equal(t, EndpointNetwork, ep.Kind)
}

func TestEndpointAddress(t *testing.T) {
	ep := Endpoint{Kind: EndpointNetwork, Host: "::1", Port: "6600"}
	require.Equal(t, "tcp", ep.Network())
	require.Equal(t, "[::1]:6600", ep.Address())
	require.Equal(t, "[::1]:6600", ep.String())
}

func TestParseEndpoints_PreservesOrder(t *testing.T) {
	eps := ParseEndpoints([]string{"b:1", "a:2"})
	require.Len(t, eps, 2)
	require.Equal(t, "b", eps[0].Host)
	require.Equal(t, "a", eps[1].Host)
}
