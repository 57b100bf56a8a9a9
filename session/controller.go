package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"panokeet/backend"
	"panokeet/log"
	"panokeet/popup"
)

// Config tunes the session core. Zero values select the defaults.
type Config struct {
	StatusInterval   time.Duration
	LevelInterval    time.Duration
	FailureThreshold int
}

// Snapshot is a point-in-time copy of the session state for read-only
// consumers (rendering, tests).
type Snapshot struct {
	State    State
	Draft    Draft
	ErrorMsg string
}

// Controller is the session state machine. All mutation happens on its
// event-loop goroutine; poll outcomes and user commands are posted into
// the loop as events. The status/pending poll loop starts at
// construction and runs until Close.
type Controller struct {
	backend Backend
	popup   Popup
	cues    Cues
	clip    Clipboard
	sink    Sink

	poller  *Poller
	monitor *Monitor

	ctx    context.Context
	cancel context.CancelFunc
	events chan event
	done   chan struct{}

	// Owned by the event loop.
	state           State
	draft           Draft
	errMsg          string
	remoteRecording bool
	levelGen        int
	levelCancel     context.CancelFunc

	saved atomic.Int64

	mu   sync.Mutex
	snap Snapshot
}

type event interface{}

type statusOutcome struct {
	status     backend.StatusResult
	pending    backend.PendingResult
	err        error
	pendingErr error
}

type levelOutcome struct {
	gen   int
	level backend.LevelResult
	err   error
}

type cmdKind int

const (
	cmdToggle cmdKind = iota
	cmdSave
	cmdCancel
	cmdReset
)

type command struct {
	kind cmdKind
	text string
	done chan struct{}
}

func New(b Backend, p Popup, cues Cues, clip Clipboard, sink Sink, cfg Config) *Controller {
	if sink == nil {
		sink = NopSink{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		backend: b,
		popup:   p,
		cues:    cues,
		clip:    clip,
		sink:    sink,
		poller:  NewPoller(b, cfg.StatusInterval, cfg.LevelInterval),
		monitor: NewMonitor(cfg.FailureThreshold),
		ctx:     ctx,
		cancel:  cancel,
		events:  make(chan event, 32),
		done:    make(chan struct{}),
	}
	go c.loop()
	go c.poller.runStatus(ctx, c.post)
	return c
}

// Close stops both poll loops and the event loop.
func (c *Controller) Close() {
	c.cancel()
	<-c.done
}

// Toggle forwards a start/stop request to the backend. It never changes
// session state directly: the next status poll is the source of truth
// for whether recording actually flipped.
func (c *Controller) Toggle() { c.dispatch(cmdToggle, "") }

// Save persists the reviewed transcript with the given final text and
// returns the session to Ready.
func (c *Controller) Save(finalText string) { c.dispatch(cmdSave, finalText) }

// Cancel discards the in-progress session.
func (c *Controller) Cancel() { c.dispatch(cmdCancel, "") }

// Reset acknowledges an escalated error and returns to Ready.
func (c *Controller) Reset() { c.dispatch(cmdReset, "") }

// SavedCount reports how many transcripts were saved this run.
func (c *Controller) SavedCount() int { return int(c.saved.Load()) }

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

func (c *Controller) dispatch(k cmdKind, text string) {
	cmd := command{kind: k, text: text, done: make(chan struct{})}
	select {
	case c.events <- cmd:
	case <-c.ctx.Done():
		return
	}
	select {
	case <-cmd.done:
	case <-c.ctx.Done():
	}
}

func (c *Controller) post(ev event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.ctx.Done():
		return false
	}
}

func (c *Controller) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			c.stopLevelLoop()
			return
		case ev := <-c.events:
			switch ev := ev.(type) {
			case statusOutcome:
				c.applyStatus(ev)
			case levelOutcome:
				c.applyLevel(ev)
			case command:
				c.applyCommand(ev)
				close(ev.done)
			}
			c.publish()
		}
	}
}

func (c *Controller) publish() {
	c.mu.Lock()
	c.snap = Snapshot{State: c.state, Draft: c.draft, ErrorMsg: c.errMsg}
	c.mu.Unlock()
}

func (c *Controller) applyStatus(ev statusOutcome) {
	if ev.err != nil {
		c.pollFailed(ev.err)
		return
	}
	c.monitor.OK()
	c.remoteRecording = ev.status.Recording
	pendingOK := ev.pendingErr == nil
	if !pendingOK {
		c.pollFailed(ev.pendingErr)
	}

	switch c.state {
	case Ready:
		if ev.status.Recording {
			c.enterRecording()
		}
	case Recording:
		if !ev.status.Recording {
			c.enterTranscribing()
		}
	case Transcribing:
		if pendingOK && ev.pending.Pending {
			c.enterReview(ev.pending)
		}
	}
}

func (c *Controller) applyLevel(ev levelOutcome) {
	// Results from a stopped loop generation arrive after cancellation
	// and are discarded, never applied.
	if ev.gen != c.levelGen || c.state != Recording {
		return
	}
	if ev.err != nil {
		log.PollFailure("level", ev.err)
		return
	}
	c.monitor.OK()
	c.sink.LevelSample(ev.level.Level)
}

func (c *Controller) applyCommand(cmd command) {
	switch cmd.kind {
	case cmdToggle:
		// Forwarded only; the state machine reacts when a later status
		// poll observes the new recording flag.
		if err := c.backend.Toggle(c.ctx); err != nil {
			log.Errorf("toggle command failed: %v", err)
		}

	case cmdSave:
		if c.state != ShowingTranscript {
			log.Warnf("save ignored in state %s", c.state)
			return
		}
		edited := cmd.text != c.draft.Raw
		if err := c.clip.Copy(cmd.text); err != nil {
			log.Errorf("clipboard copy failed: %v", err)
		}
		err := c.backend.Save(c.ctx, backend.SaveRequest{
			RawText:   c.draft.Raw,
			FinalText: cmd.text,
			Duration:  c.draft.Duration,
			WasEdited: edited,
		})
		if err != nil {
			// The transition proceeds anyway; the next poll re-derives
			// the true backend state.
			log.Errorf("save command failed: %v", err)
		} else {
			c.saved.Add(1)
			log.SavedTranscript(c.draft.Duration, edited)
			log.TranscriptText(cmd.text)
		}
		c.popup.Close()
		c.draft = Draft{}
		c.setState(Ready, "save")

	case cmdCancel:
		switch c.state {
		case ShowingTranscript:
			_ = c.backend.Cancel(c.ctx)
			c.popup.Close()
			c.draft = Draft{}
			c.setState(Ready, "cancel")
		case Recording:
			if c.remoteRecording {
				_ = c.backend.Toggle(c.ctx)
			}
			_ = c.backend.Cancel(c.ctx)
			c.stopLevelLoop()
			c.popup.Close()
			c.setState(Ready, "cancel")
		default:
			log.Warnf("cancel ignored in state %s", c.state)
		}

	case cmdReset:
		if c.state != Error {
			return
		}
		c.errMsg = ""
		c.monitor.Reset()
		c.setState(Ready, "reset")
	}
}

func (c *Controller) pollFailed(err error) {
	log.PollFailure("status", err)
	crossed := c.monitor.Fail()
	if crossed && c.state != Ready && c.state != Error {
		c.escalate("backend not responding")
	}
}

func (c *Controller) enterRecording() {
	c.cues.Start()
	// Open captures the previously focused app before raising ourselves.
	c.popup.Open(popup.Content{Kind: popup.KindRecording})
	c.startLevelLoop()
	c.setState(Recording, "status poll")
}

func (c *Controller) enterTranscribing() {
	c.cues.Stop()
	c.stopLevelLoop()
	c.popup.Replace(popup.Content{Kind: popup.KindTranscribing})
	c.setState(Transcribing, "status poll")
}

func (c *Controller) enterReview(p backend.PendingResult) {
	c.draft = Draft{Raw: p.Transcript, Duration: p.Duration, Current: p.Transcript}
	c.cues.Done()
	c.popup.Replace(popup.Content{
		Kind:       popup.KindTranscript,
		Transcript: p.Transcript,
		Duration:   p.Duration,
	})
	c.sink.DraftReady(c.draft)
	c.setState(ShowingTranscript, "pending poll")
}

func (c *Controller) escalate(msg string) {
	log.Escalation(c.monitor.Count(), msg)
	c.errMsg = msg
	c.cues.Error()
	c.stopLevelLoop()
	c.popup.Close()
	c.sink.SessionError(msg)
	c.setState(Error, "escalation")
}

func (c *Controller) setState(s State, trigger string) {
	if s == c.state {
		return
	}
	log.Transition(c.state.String(), s.String(), trigger)
	c.state = s
	c.sink.StateChanged(s)
}

func (c *Controller) startLevelLoop() {
	c.levelGen++
	ctx, cancel := context.WithCancel(c.ctx)
	c.levelCancel = cancel
	go c.poller.runLevel(ctx, c.levelGen, c.post)
}

func (c *Controller) stopLevelLoop() {
	if c.levelCancel == nil {
		return
	}
	c.levelCancel()
	c.levelCancel = nil
	// Bump the generation so an in-flight result is discarded even if
	// recording restarts before it lands.
	c.levelGen++
}
