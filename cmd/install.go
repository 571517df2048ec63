package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/mpdrpc/internal/daemon"
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install mpdrpc daemon as a systemd user service",
	Long: `Install mpdrpc daemon as a systemd user service that runs automatically on login.

This command will:
  - Generate a systemd unit file for the mpdrpc daemon
  - Install it to ~/.config/systemd/user/
  - Reload the systemd user manager
  - Enable and start the service

The daemon will run in the background and mirror MPD playback onto
your Discord profile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		binaryPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}

		// Resolve symlinks to get the actual binary path
		binaryPath, err = filepath.EvalSymlinks(binaryPath)
		if err != nil {
			return fmt.Errorf("failed to resolve executable path: %w", err)
		}

		logPath, err := daemon.GetDefaultLogPath()
		if err != nil {
			return fmt.Errorf("failed to get log path: %w", err)
		}
		if err := os.MkdirAll(logPath, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// The service must read the same file this command was pointed at.
		unitConfigPath := configPath
		if unitConfigPath != "" {
			if unitConfigPath, err = filepath.Abs(unitConfigPath); err != nil {
				return fmt.Errorf("failed to resolve config path: %w", err)
			}
		}

		unit, err := daemon.GenerateUnit(daemon.UnitConfig{
			BinaryPath:       binaryPath,
			LogPath:          logPath,
			WorkingDirectory: home,
			ConfigPath:       unitConfigPath,
		})
		if err != nil {
			return fmt.Errorf("failed to generate unit: %w", err)
		}

		unitPath, err := daemon.GetUnitPath()
		if err != nil {
			return fmt.Errorf("failed to get unit path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(unitPath), 0755); err != nil {
			return fmt.Errorf("failed to create systemd user directory: %w", err)
		}

		if _, err := os.Stat(unitPath); err == nil {
			fmt.Println("Daemon is already installed. Stopping it first...")
			if err := stopDaemon(); err != nil {
				fmt.Printf("Warning: failed to stop existing daemon: %v\n", err)
			}
		}

		if err := os.WriteFile(unitPath, []byte(unit), 0644); err != nil {
			return fmt.Errorf("failed to write unit file: %w", err)
		}

		fmt.Printf("✓ Installed unit to %s\n", unitPath)

		if err := startDaemon(); err != nil {
			return fmt.Errorf("failed to start daemon: %w", err)
		}

		fmt.Println("✓ Daemon enabled and started successfully")
		fmt.Printf("✓ Logs will be written to %s\n", logPath)
		fmt.Println("\nThe mpdrpc daemon is now running and will start automatically on login.")
		fmt.Println("\nYou can check the daemon status with:")
		fmt.Printf("  systemctl --user status %s\n", daemon.ServiceName)
		fmt.Println("\nTo uninstall, run:")
		fmt.Println("  mpdrpc uninstall")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}

// systemctl runs a systemctl --user subcommand, folding its output into the error
func systemctl(args ...string) error {
	cmd := exec.Command("systemctl", append([]string{"--user"}, args...)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(output)); msg != "" {
			return fmt.Errorf("systemctl %s failed: %s", strings.Join(args, " "), msg)
		}
		return fmt.Errorf("failed to run systemctl %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

// startDaemon reloads unit files and enables the service
func startDaemon() error {
	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	return systemctl("enable", "--now", daemon.ServiceName)
}

// stopDaemon disables and stops the service
func stopDaemon() error {
	return systemctl("disable", "--now", daemon.ServiceName)
}
