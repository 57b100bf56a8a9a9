package main

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"panokeet/beep"
	"panokeet/popup"
	"panokeet/session"
)

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// uiSink fans session updates out to whichever surfaces are active.
// Both the TUI program and the GUI hook tolerate being absent, so the
// same sink works in every mode including headless.
type uiSink struct{}

func (uiSink) StateChanged(s session.State) {
	tuiSend(StateMsg{State: s})
}

func (uiSink) DraftReady(d session.Draft) {
	tuiSend(DraftMsg{Draft: d})
}

func (uiSink) LevelSample(level float64) {
	tuiSend(LevelMsg{Level: level})
	if guiLevelFn != nil {
		guiLevelFn(level)
	}
}

func (uiSink) SessionError(msg string) {
	tuiSend(SessionErrorMsg{Text: msg})
}

// tuiWindow renders popup lifecycle changes inside the terminal UI
// instead of a separate window.
type tuiWindow struct{}

func (tuiWindow) Show(c popup.Content)   { tuiSend(PopupMsg{Content: c, Visible: true}) }
func (tuiWindow) Update(c popup.Content) { tuiSend(PopupMsg{Content: c, Visible: true}) }
func (tuiWindow) Hide()                  { tuiSend(PopupMsg{Visible: false}) }

// nullWindow is the headless popup surface.
type nullWindow struct{}

func (nullWindow) Show(popup.Content)   {}
func (nullWindow) Update(popup.Content) {}
func (nullWindow) Hide()                {}

// beepCues adapts the beep package to the session core.
type beepCues struct{}

func (beepCues) Start() { beep.PlayStart() }
func (beepCues) Stop()  { beep.PlayStop() }
func (beepCues) Done()  { beep.PlayDone() }
func (beepCues) Error() { beep.PlayError() }
