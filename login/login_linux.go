//go:build linux

package login

import (
	"fmt"
	"os"
	"path/filepath"
)

const desktopName = "panokeet.desktop"

func autostartDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "autostart")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "autostart")
}

func desktopPath() string {
	return filepath.Join(autostartDir(), desktopName)
}

func Enabled() bool {
	_, err := os.Stat(desktopPath())
	return err == nil
}

func Enable() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	entry := fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=panokeet
Exec=%s -tui=false
X-GNOME-Autostart-enabled=true
`, exe)

	if err := os.MkdirAll(autostartDir(), 0755); err != nil {
		return fmt.Errorf("create autostart dir: %w", err)
	}
	if err := os.WriteFile(desktopPath(), []byte(entry), 0644); err != nil {
		return fmt.Errorf("write desktop entry: %w", err)
	}
	return nil
}

func Disable() error {
	if err := os.Remove(desktopPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove desktop entry: %w", err)
	}
	return nil
}
