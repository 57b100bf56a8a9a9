//go:build linux

package clipboard

import (
	"sync"

	"github.com/micmonay/keybd_event"
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

// InitPaste opens the uinput device once up front. On Linux this needs
// write access to /dev/uinput, so failures are surfaced early instead
// of on the first paste.
func InitPaste() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
	})
	return kbErr
}

// Paste sends Ctrl+V to the frontmost app.
func Paste() error {
	if err := InitPaste(); err != nil {
		return err
	}
	kb.SetKeys(keybd_event.VK_V)
	kb.HasCTRL(true)
	return kb.Launching()
}
