//go:build !darwin && !linux

package clipboard

import "errors"

var errPasteUnsupported = errors.New("paste keystroke not supported on this platform")

func InitPaste() error { return errPasteUnsupported }

func Paste() error { return errPasteUnsupported }
