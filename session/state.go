// Package session is the dictation session core: a single-threaded state
// machine driven by periodic polls of the local transcription backend and
// by explicit user commands. All session state is owned by one event-loop
// goroutine; pollers and command callers only post events into it.
package session

import (
	"context"

	"panokeet/backend"
	"panokeet/popup"
)

// State is the dictation session lifecycle.
type State int

const (
	Ready State = iota
	Recording
	Transcribing
	ShowingTranscript
	Error
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Recording:
		return "recording"
	case Transcribing:
		return "transcribing"
	case ShowingTranscript:
		return "showing_transcript"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Draft is a completed transcription under review. Raw is what the backend
// produced; Current is what the user will save (possibly edited).
type Draft struct {
	Raw      string
	Duration float64
	Current  string
}

// Backend is the slice of the HTTP client the session core uses.
// *backend.Client satisfies it.
type Backend interface {
	Status(ctx context.Context) (backend.StatusResult, error)
	Pending(ctx context.Context) (backend.PendingResult, error)
	Level(ctx context.Context) (backend.LevelResult, error)
	Toggle(ctx context.Context) error
	Save(ctx context.Context, req backend.SaveRequest) error
	Cancel(ctx context.Context) error
}

// Popup is the popup lifecycle as the controller sees it.
// *popup.Manager satisfies it.
type Popup interface {
	Open(popup.Content)
	Replace(popup.Content)
	Close()
}

// Cues plays the four audible feedback sounds.
type Cues interface {
	Start()
	Stop()
	Done()
	Error()
}

// Clipboard copies the final transcript for pasting elsewhere.
type Clipboard interface {
	Copy(text string) error
}

// Sink receives read-only session updates for the rendering layer.
// Implementations must not block; the controller calls them from its
// event loop.
type Sink interface {
	StateChanged(State)
	DraftReady(Draft)
	LevelSample(level float64)
	SessionError(msg string)
}

// NopSink discards all updates.
type NopSink struct{}

func (NopSink) StateChanged(State)  {}
func (NopSink) DraftReady(Draft)    {}
func (NopSink) LevelSample(float64) {}
func (NopSink) SessionError(string) {}
