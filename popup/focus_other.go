//go:build !darwin && !linux

package popup

import "fmt"

type osFocuser struct{}

func NewFocuser() Focuser { return osFocuser{} }

func (osFocuser) Frontmost() (Handle, error) {
	return "", fmt.Errorf("focus tracking not supported on this platform")
}

func (osFocuser) Activate(Handle) error {
	return fmt.Errorf("focus restore not supported on this platform")
}
