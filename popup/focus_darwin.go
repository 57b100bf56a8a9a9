//go:build darwin

package popup

import (
	"fmt"
	"os/exec"
	"strings"
)

// osFocuser drives macOS app focus through System Events. osascript is
// always present; the only runtime requirement is the Automation
// permission prompt on first use.
type osFocuser struct{}

func NewFocuser() Focuser { return osFocuser{} }

func (osFocuser) Frontmost() (Handle, error) {
	out, err := exec.Command("osascript", "-e",
		`tell application "System Events" to get name of first process whose frontmost is true`).Output()
	if err != nil {
		return "", fmt.Errorf("frontmost query: %w", err)
	}
	name := strings.TrimSpace(string(out))
	if name == "" {
		return "", fmt.Errorf("frontmost query returned no process")
	}
	return Handle(name), nil
}

func (osFocuser) Activate(h Handle) error {
	script := fmt.Sprintf(`tell application %q to activate`, string(h))
	if err := exec.Command("osascript", "-e", script).Run(); err != nil {
		return fmt.Errorf("activate %s: %w", h, err)
	}
	return nil
}
