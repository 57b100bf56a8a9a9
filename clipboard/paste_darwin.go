//go:build darwin

package clipboard

import "github.com/micmonay/keybd_event"

// InitPaste is a no-op on macOS; key injection needs no device setup.
func InitPaste() error { return nil }

// Paste sends Cmd+V to the frontmost app. Called after the popup closes
// and focus has returned to the app the user was dictating into.
func Paste() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	kb.SetKeys(keybd_event.VK_V)
	kb.HasSuper(true) // Cmd+V on macOS
	return kb.Launching()
}
