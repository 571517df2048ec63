package daemon

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateUnit(t *testing.T) {
	unit, err := GenerateUnit(UnitConfig{
		BinaryPath:       "/usr/local/bin/mpdrpc",
		LogPath:          "/home/me/.local/state/mpdrpc",
		WorkingDirectory: "/home/me",
	})
	if err != nil {
		t.Fatalf("GenerateUnit: %v", err)
	}

	for _, want := range []string{
		"ExecStart=/usr/local/bin/mpdrpc daemon --log-file /home/me/.local/state/mpdrpc/mpdrpc.log\n",
		"WorkingDirectory=/home/me\n",
		"Restart=on-failure\n",
		"WantedBy=default.target\n",
	} {
		if !strings.Contains(unit, want) {
			t.Errorf("unit missing %q:\n%s", want, unit)
		}
	}
}

func TestGenerateUnitWithConfig(t *testing.T) {
	unit, err := GenerateUnit(UnitConfig{
		BinaryPath:       "/bin/mpdrpc",
		LogPath:          "/logs",
		WorkingDirectory: "/",
		ConfigPath:       "/etc/mpdrpc.toml",
	})
	if err != nil {
		t.Fatalf("GenerateUnit: %v", err)
	}
	want := "ExecStart=/bin/mpdrpc daemon --log-file /logs/mpdrpc.log --config /etc/mpdrpc.toml\n"
	if !strings.Contains(unit, want) {
		t.Errorf("unit missing %q:\n%s", want, unit)
	}
}

func TestGetUnitPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	path, err := GetUnitPath()
	if err != nil {
		t.Fatalf("GetUnitPath: %v", err)
	}
	if want := filepath.Join("/xdg", "systemd", "user", "mpdrpc.service"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}

func TestGetDefaultLogPath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/state")
	path, err := GetDefaultLogPath()
	if err != nil {
		t.Fatalf("GetDefaultLogPath: %v", err)
	}
	if want := filepath.Join("/state", "mpdrpc"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}
