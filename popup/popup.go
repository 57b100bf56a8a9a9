// Package popup manages the single dictation popup and the focus handoff
// back to whatever app the user was dictating into. There is at most one
// popup at a time; content changes swap in place instead of closing and
// reopening, which would steal focus twice.
package popup

import (
	"sync"
	"time"

	"panokeet/log"
)

// RefocusDelay is how long after hiding the popup we wait before
// re-activating the previous app. Window managers need a beat to settle
// after the hide or the activation lands on the wrong window.
const RefocusDelay = 200 * time.Millisecond

// Kind selects what the popup is showing.
type Kind int

const (
	KindRecording Kind = iota
	KindTranscribing
	KindTranscript
)

func (k Kind) String() string {
	switch k {
	case KindRecording:
		return "recording"
	case KindTranscribing:
		return "transcribing"
	case KindTranscript:
		return "transcript"
	default:
		return "unknown"
	}
}

// Content is what the popup displays. Transcript and Duration are only
// meaningful for KindTranscript.
type Content struct {
	Kind       Kind
	Transcript string
	Duration   float64
}

// Window is the platform surface the popup renders into.
type Window interface {
	Show(Content)
	Update(Content)
	Hide()
}

// Handle identifies the app that was frontmost before the popup opened.
// Its contents are platform specific and opaque to the manager.
type Handle string

// Focuser captures and restores OS-level application focus.
type Focuser interface {
	Frontmost() (Handle, error)
	Activate(Handle) error
}

// Manager owns the popup lifecycle: open, swap content, close, refocus.
type Manager struct {
	mu    sync.Mutex
	win   Window
	focus Focuser

	open     bool
	prev     Handle
	havePrev bool

	delay time.Duration
	after func(time.Duration, func()) // test seam, defaults to time.AfterFunc
}

func NewManager(win Window, focus Focuser) *Manager {
	return &Manager{
		win:   win,
		focus: focus,
		delay: RefocusDelay,
		after: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// Open shows the popup. The frontmost app is captured exactly once per
// popup lifecycle, before our window takes focus; if the popup is
// already open this degrades to a content swap and the captured handle
// is kept.
func (m *Manager) Open(c Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open {
		m.win.Update(c)
		return
	}
	h, err := m.focus.Frontmost()
	if err != nil {
		log.Debugf("frontmost capture failed: %v", err)
		m.havePrev = false
	} else {
		m.prev = h
		m.havePrev = true
	}
	m.win.Show(c)
	m.open = true
}

// Replace swaps the popup content without hiding the window. No-op when
// the popup is closed.
func (m *Manager) Replace(c Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return
	}
	m.win.Update(c)
}

// Close hides the popup and schedules a single best-effort refocus of
// the previously captured app. Refocus failures are logged and
// otherwise swallowed; by the time we know, there is nothing sensible
// left to do about them.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return
	}
	m.win.Hide()
	m.open = false
	if !m.havePrev {
		return
	}
	h := m.prev
	m.havePrev = false
	m.after(m.delay, func() {
		if err := m.focus.Activate(h); err != nil {
			log.Debugf("refocus %q failed: %v", h, err)
		}
	})
}
