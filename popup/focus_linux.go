//go:build linux

package popup

import (
	"fmt"
	"os/exec"
	"strings"
)

// osFocuser uses xdotool, which covers X11 and most XWayland setups.
// Pure Wayland compositors refuse programmatic focus changes; there the
// capture fails and the manager simply skips the refocus.
type osFocuser struct{}

func NewFocuser() Focuser { return osFocuser{} }

func (osFocuser) Frontmost() (Handle, error) {
	out, err := exec.Command("xdotool", "getactivewindow").Output()
	if err != nil {
		return "", fmt.Errorf("active window query: %w", err)
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		return "", fmt.Errorf("active window query returned nothing")
	}
	return Handle(id), nil
}

func (osFocuser) Activate(h Handle) error {
	if err := exec.Command("xdotool", "windowactivate", string(h)).Run(); err != nil {
		return fmt.Errorf("activate window %s: %w", h, err)
	}
	return nil
}
