// Package hotkey captures the global dictation key and turns presses
// into toggle pulses for the session core.
package hotkey

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}
