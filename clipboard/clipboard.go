// Package clipboard copies saved transcripts to the system clipboard
// and can optionally inject the paste keystroke into the refocused app.
package clipboard

import cb "github.com/atotto/clipboard"

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}

// Writer adapts the package functions to the interface the session
// core consumes.
type Writer struct{}

func (Writer) Copy(text string) error { return Copy(text) }
