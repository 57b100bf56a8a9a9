package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"panokeet/popup"
	"panokeet/session"
)

// TUI message types
type StateMsg struct{ State session.State }
type DraftMsg struct{ Draft session.Draft }
type LevelMsg struct{ Level float64 }
type SessionErrorMsg struct{ Text string }
type PopupMsg struct {
	Content popup.Content
	Visible bool
}
type UpdateAvailableMsg struct{ Version string }
type tickMsg time.Time

var waveGlyphs = []rune("▁▂▃▄▅▆▇█")

var (
	styleTitle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleReady       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleRecording   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleTranscribe  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleTranscript  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleError       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleWarn        = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleWave        = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	styleHelp        = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	styleHelpKey     = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	styleSavedBanner = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleCursor      = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("240"))
)

type tuiModel struct {
	ctrl *session.Controller

	state    session.State
	levels   *session.Ring
	draft    session.Draft
	editBuf  []rune
	errMsg   string
	peak     float64
	recStart time.Time

	frame         int
	width         int
	height        int
	savedFlash    int // frames left to show the saved banner
	updateVersion string
}

func NewTUIProgram(ctrl *session.Controller) *tea.Program {
	m := tuiModel{
		ctrl:   ctrl,
		levels: session.NewRing(session.LevelRingCapacity),
	}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.frame++
		if m.savedFlash > 0 {
			m.savedFlash--
		}
		return m, tuiTick()

	case StateMsg:
		prev := m.state
		m.state = msg.State
		switch m.state {
		case session.Recording:
			m.levels.Clear()
			m.peak = 0
			m.recStart = time.Now()
		case session.Ready:
			if prev == session.ShowingTranscript {
				m.savedFlash = 40
			}
			m.draft = session.Draft{}
			m.editBuf = nil
			m.errMsg = ""
		}

	case DraftMsg:
		m.draft = msg.Draft
		m.editBuf = []rune(msg.Draft.Current)

	case LevelMsg:
		m.levels.Push(msg.Level)
		if msg.Level > m.peak {
			m.peak = msg.Level
		}

	case SessionErrorMsg:
		m.errMsg = msg.Text

	case UpdateAvailableMsg:
		m.updateVersion = msg.Version

	case PopupMsg:
		// Popup content is redundant with session state here; the TUI
		// renders from its own state instead.
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Review mode owns the keyboard for transcript editing.
	if m.state == session.ShowingTranscript {
		switch msg.Type {
		case tea.KeyEnter:
			text := string(m.editBuf)
			ctrl := m.ctrl
			return m, func() tea.Msg {
				ctrl.Save(text)
				pasteAfterRefocus()
				return nil
			}
		case tea.KeyEsc:
			ctrl := m.ctrl
			return m, func() tea.Msg {
				ctrl.Cancel()
				return nil
			}
		case tea.KeyBackspace:
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		case tea.KeySpace:
			m.editBuf = append(m.editBuf, ' ')
		case tea.KeyRunes:
			m.editBuf = append(m.editBuf, msg.Runes...)
		}
		return m, nil
	}

	switch msg.String() {
	case " ":
		if m.state == session.Ready || m.state == session.Recording {
			ctrl := m.ctrl
			return m, func() tea.Msg {
				ctrl.Toggle()
				return nil
			}
		}
	case "esc":
		if m.state == session.Recording || m.state == session.Transcribing {
			ctrl := m.ctrl
			return m, func() tea.Msg {
				ctrl.Cancel()
				return nil
			}
		}
	case "r":
		if m.state == session.Error {
			ctrl := m.ctrl
			return m, func() tea.Msg {
				ctrl.Reset()
				return nil
			}
		}
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder
	title := "panokeet " + version
	if m.updateVersion != "" {
		title += "  (update " + m.updateVersion + " available: panokeet update)"
	}
	b.WriteString(styleTitle.Render(title) + "\n\n")

	switch m.state {
	case session.Ready:
		b.WriteString(styleReady.Render("○ ready") + "\n")
		if m.savedFlash > 0 {
			b.WriteString(styleSavedBanner.Render("✓ transcript saved and copied") + "\n")
		}

	case session.Recording:
		dur := time.Since(m.recStart).Seconds()
		b.WriteString(styleRecording.Render(fmt.Sprintf("● REC %.1fs", dur)) + "\n")
		b.WriteString(styleWave.Render(m.renderWave()) + "\n")
		if dur > 1.0 && m.peak < 0.02 {
			b.WriteString(styleWarn.Render("⚠ no voice detected") + "\n")
		}

	case session.Transcribing:
		dots := strings.Repeat(".", m.frame/8%4)
		b.WriteString(styleTranscribe.Render("… transcribing"+dots) + "\n")

	case session.ShowingTranscript:
		b.WriteString(styleTranscript.Render(fmt.Sprintf("transcript (%.1fs)", m.draft.Duration)) + "\n\n")
		wrapWidth := m.width - 4
		if wrapWidth < 10 {
			wrapWidth = 10
		}
		text := string(m.editBuf)
		lines := wrapText(text, wrapWidth)
		for i, line := range lines {
			b.WriteString("  " + styleTranscript.Render(line))
			if i == len(lines)-1 {
				b.WriteString(styleCursor.Render(" "))
			}
			b.WriteString("\n")
		}
		if string(m.editBuf) != m.draft.Raw {
			b.WriteString("\n  " + styleWarn.Render("(edited)") + "\n")
		}

	case session.Error:
		b.WriteString(styleError.Render("✗ "+m.errMsg) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.helpLine())
	return b.String()
}

func (m tuiModel) helpLine() string {
	key := func(k, label string) string {
		return styleHelpKey.Render(k) + styleHelp.Render(" "+label)
	}
	sep := styleHelp.Render("  ·  ")
	switch m.state {
	case session.ShowingTranscript:
		return key("enter", "save") + sep + key("esc", "discard") + sep + styleHelp.Render("type to edit")
	case session.Recording:
		return key("space", "stop") + sep + key("esc", "cancel")
	case session.Error:
		return key("r", "retry") + sep + key("ctrl+c", "quit")
	default:
		return key("space", "record") + sep + key("Ctrl+Shift+Space", "global hotkey") + sep + key("ctrl+c", "quit")
	}
}

func (m tuiModel) renderWave() string {
	samples := m.levels.Samples()
	var b strings.Builder
	for _, s := range samples {
		idx := int(s * float64(len(waveGlyphs)))
		if idx >= len(waveGlyphs) {
			idx = len(waveGlyphs) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(waveGlyphs[idx])
	}
	for i := m.levels.Len(); i < m.levels.Cap(); i++ {
		b.WriteRune(' ')
	}
	return b.String()
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
