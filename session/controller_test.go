package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"panokeet/backend"
	"panokeet/popup"
)

// testConfig polls fast enough that every scenario settles in a few
// milliseconds. Threshold 3 keeps escalation tests short.
var testConfig = Config{
	StatusInterval:   2 * time.Millisecond,
	LevelInterval:    time.Millisecond,
	FailureThreshold: 3,
}

type fakeBackend struct {
	mu         sync.Mutex
	recording  bool
	pending    backend.PendingResult
	statusErr  error
	pendingErr error
	level      backend.LevelResult
	levelCalls int
	toggles    int
	cancels    int
	saves      []backend.SaveRequest
}

func (b *fakeBackend) Status(context.Context) (backend.StatusResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.statusErr != nil {
		return backend.StatusResult{}, b.statusErr
	}
	st := "idle"
	if b.recording {
		st = "recording"
	}
	return backend.StatusResult{Status: st, Recording: b.recording}, nil
}

func (b *fakeBackend) Pending(context.Context) (backend.PendingResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pendingErr != nil {
		return backend.PendingResult{}, b.pendingErr
	}
	return b.pending, nil
}

func (b *fakeBackend) Level(context.Context) (backend.LevelResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.levelCalls++
	return b.level, nil
}

func (b *fakeBackend) Toggle(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.toggles++
	b.recording = !b.recording
	return nil
}

func (b *fakeBackend) Save(_ context.Context, req backend.SaveRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saves = append(b.saves, req)
	return nil
}

func (b *fakeBackend) Cancel(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancels++
	b.pending = backend.PendingResult{}
	return nil
}

func (b *fakeBackend) setStatusErr(err error) {
	b.mu.Lock()
	b.statusErr = err
	b.mu.Unlock()
}

func (b *fakeBackend) setPending(p backend.PendingResult) {
	b.mu.Lock()
	b.pending = p
	b.mu.Unlock()
}

func (b *fakeBackend) levelCallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.levelCalls
}

func (b *fakeBackend) counts() (toggles, cancels int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.toggles, b.cancels
}

func (b *fakeBackend) saved() []backend.SaveRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]backend.SaveRequest, len(b.saves))
	copy(out, b.saves)
	return out
}

type fakePopup struct {
	mu       sync.Mutex
	opens    int
	replaces int
	closes   int
	last     popup.Content
}

func (p *fakePopup) Open(c popup.Content) {
	p.mu.Lock()
	p.opens++
	p.last = c
	p.mu.Unlock()
}

func (p *fakePopup) Replace(c popup.Content) {
	p.mu.Lock()
	p.replaces++
	p.last = c
	p.mu.Unlock()
}

func (p *fakePopup) Close() {
	p.mu.Lock()
	p.closes++
	p.mu.Unlock()
}

func (p *fakePopup) snapshot() (opens, replaces, closes int, last popup.Content) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens, p.replaces, p.closes, p.last
}

type fakeCues struct {
	mu                          sync.Mutex
	starts, stops, dones, fails int
}

func (c *fakeCues) Start() { c.mu.Lock(); c.starts++; c.mu.Unlock() }
func (c *fakeCues) Stop()  { c.mu.Lock(); c.stops++; c.mu.Unlock() }
func (c *fakeCues) Done()  { c.mu.Lock(); c.dones++; c.mu.Unlock() }
func (c *fakeCues) Error() { c.mu.Lock(); c.fails++; c.mu.Unlock() }

func (c *fakeCues) snapshot() (starts, stops, dones, fails int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts, c.stops, c.dones, c.fails
}

type fakeClip struct {
	mu   sync.Mutex
	text string
	err  error
}

func (c *fakeClip) Copy(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return c.err
}

func (c *fakeClip) copied() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// chanSink forwards updates into buffered channels so tests can wait on
// transitions instead of sleeping. Sends never block.
type chanSink struct {
	states chan State
	drafts chan Draft
	levels chan float64
	errs   chan string
}

func newChanSink() *chanSink {
	return &chanSink{
		states: make(chan State, 64),
		drafts: make(chan Draft, 64),
		levels: make(chan float64, 256),
		errs:   make(chan string, 64),
	}
}

func (s *chanSink) StateChanged(st State) {
	select {
	case s.states <- st:
	default:
	}
}

func (s *chanSink) DraftReady(d Draft) {
	select {
	case s.drafts <- d:
	default:
	}
}

func (s *chanSink) LevelSample(v float64) {
	select {
	case s.levels <- v:
	default:
	}
}

func (s *chanSink) SessionError(msg string) {
	select {
	case s.errs <- msg:
	default:
	}
}

type harness struct {
	ctrl  *Controller
	be    *fakeBackend
	popup *fakePopup
	cues  *fakeCues
	clip  *fakeClip
	sink  *chanSink
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		be:    &fakeBackend{},
		popup: &fakePopup{},
		cues:  &fakeCues{},
		clip:  &fakeClip{},
		sink:  newChanSink(),
	}
	h.ctrl = New(h.be, h.popup, h.cues, h.clip, h.sink, testConfig)
	t.Cleanup(h.ctrl.Close)
	return h
}

func waitState(t *testing.T, h *harness, want State) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-h.sink.states:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s (now %s)",
				want, h.ctrl.Snapshot().State)
		}
	}
}

func TestHappyPathDictation(t *testing.T) {
	h := newHarness(t)

	h.ctrl.Toggle()
	waitState(t, h, Recording)

	starts, _, _, _ := h.cues.snapshot()
	if starts != 1 {
		t.Fatalf("start cue played %d times, want 1", starts)
	}
	opens, _, _, last := h.popup.snapshot()
	if opens != 1 || last.Kind != popup.KindRecording {
		t.Fatalf("popup opens=%d last=%v, want 1 open with recording content", opens, last)
	}

	// Waveform samples flow while recording.
	select {
	case <-h.sink.levels:
	case <-time.After(time.Second):
		t.Fatal("no level samples while recording")
	}

	h.ctrl.Toggle()
	waitState(t, h, Transcribing)

	_, stops, _, _ := h.cues.snapshot()
	if stops != 1 {
		t.Fatalf("stop cue played %d times, want 1", stops)
	}

	h.be.setPending(backend.PendingResult{Pending: true, Transcript: "hello world", Duration: 2.5})
	waitState(t, h, ShowingTranscript)

	var d Draft
	select {
	case d = <-h.sink.drafts:
	case <-time.After(time.Second):
		t.Fatal("no draft delivered")
	}
	if d.Raw != "hello world" || d.Duration != 2.5 {
		t.Fatalf("draft = %+v", d)
	}
	_, _, dones, _ := h.cues.snapshot()
	if dones != 1 {
		t.Fatalf("done cue played %d times, want 1", dones)
	}
	_, replaces, _, last := h.popup.snapshot()
	if replaces < 2 || last.Kind != popup.KindTranscript || last.Transcript != "hello world" {
		t.Fatalf("popup replaces=%d last=%+v", replaces, last)
	}

	h.ctrl.Save("hello world, edited")
	waitState(t, h, Ready)

	saves := h.be.saved()
	if len(saves) != 1 {
		t.Fatalf("saved %d times, want 1", len(saves))
	}
	got := saves[0]
	if got.RawText != "hello world" || got.FinalText != "hello world, edited" ||
		got.Duration != 2.5 || !got.WasEdited {
		t.Fatalf("save request = %+v", got)
	}
	if h.clip.copied() != "hello world, edited" {
		t.Fatalf("clipboard = %q", h.clip.copied())
	}
	_, _, closes, _ := h.popup.snapshot()
	if closes != 1 {
		t.Fatalf("popup closed %d times, want 1", closes)
	}
	if snap := h.ctrl.Snapshot(); snap.Draft != (Draft{}) {
		t.Fatalf("draft not cleared after save: %+v", snap.Draft)
	}
}

func TestSaveUneditedReportsWasEditedFalse(t *testing.T) {
	h := newHarness(t)

	h.ctrl.Toggle()
	waitState(t, h, Recording)
	h.ctrl.Toggle()
	waitState(t, h, Transcribing)
	h.be.setPending(backend.PendingResult{Pending: true, Transcript: "as dictated", Duration: 1})
	waitState(t, h, ShowingTranscript)

	h.ctrl.Save("as dictated")
	waitState(t, h, Ready)

	saves := h.be.saved()
	if len(saves) != 1 || saves[0].WasEdited {
		t.Fatalf("save requests = %+v, want one with was_edited=false", saves)
	}
}

func TestCancelDuringRecordingStopsBackend(t *testing.T) {
	h := newHarness(t)

	h.ctrl.Toggle()
	waitState(t, h, Recording)
	togglesBefore, _ := h.be.counts()

	h.ctrl.Cancel()
	waitState(t, h, Ready)

	toggles, cancels := h.be.counts()
	if toggles != togglesBefore+1 {
		t.Fatalf("cancel while recording sent %d toggles, want 1 stop", toggles-togglesBefore)
	}
	if cancels != 1 {
		t.Fatalf("backend cancels = %d, want 1", cancels)
	}
	_, _, closes, _ := h.popup.snapshot()
	if closes != 1 {
		t.Fatalf("popup closed %d times, want 1", closes)
	}
}

func TestCancelDuringReviewDiscardsDraft(t *testing.T) {
	h := newHarness(t)

	h.ctrl.Toggle()
	waitState(t, h, Recording)
	h.ctrl.Toggle()
	waitState(t, h, Transcribing)
	h.be.setPending(backend.PendingResult{Pending: true, Transcript: "discard me", Duration: 1})
	waitState(t, h, ShowingTranscript)

	h.ctrl.Cancel()
	waitState(t, h, Ready)

	if saves := h.be.saved(); len(saves) != 0 {
		t.Fatalf("cancel still saved: %+v", saves)
	}
	_, cancels := h.be.counts()
	if cancels == 0 {
		t.Fatal("backend cancel never sent")
	}
	if snap := h.ctrl.Snapshot(); snap.Draft != (Draft{}) {
		t.Fatalf("draft survived cancel: %+v", snap.Draft)
	}
}

func TestEscalationFiresOnceAndResets(t *testing.T) {
	h := newHarness(t)

	h.ctrl.Toggle()
	waitState(t, h, Recording)

	h.be.setStatusErr(errors.New("connection refused"))
	waitState(t, h, Error)

	var msg string
	select {
	case msg = <-h.sink.errs:
	case <-time.After(time.Second):
		t.Fatal("no session error delivered")
	}
	if msg == "" {
		t.Fatal("empty escalation message")
	}
	if snap := h.ctrl.Snapshot(); snap.ErrorMsg == "" {
		t.Fatal("error message not retained in snapshot")
	}
	_, _, _, fails := h.cues.snapshot()
	if fails != 1 {
		t.Fatalf("error cue played %d times, want 1", fails)
	}
	_, _, closes, _ := h.popup.snapshot()
	if closes != 1 {
		t.Fatalf("popup closed %d times on escalation, want 1", closes)
	}

	// Failures keep accumulating but escalation is edge-triggered.
	time.Sleep(20 * testConfig.StatusInterval)
	select {
	case extra := <-h.sink.errs:
		t.Fatalf("second escalation delivered: %q", extra)
	default:
	}

	h.be.setStatusErr(nil)
	h.ctrl.Reset()
	waitState(t, h, Ready)
	if snap := h.ctrl.Snapshot(); snap.ErrorMsg != "" {
		t.Fatalf("error message survived reset: %q", snap.ErrorMsg)
	}
}

func TestFailuresWhileReadyNeverEscalate(t *testing.T) {
	h := newHarness(t)

	h.be.setStatusErr(errors.New("connection refused"))
	time.Sleep(time.Duration(testConfig.FailureThreshold+10) * testConfig.StatusInterval)

	select {
	case msg := <-h.sink.errs:
		t.Fatalf("escalated while idle: %q", msg)
	default:
	}
	if snap := h.ctrl.Snapshot(); snap.State != Ready {
		t.Fatalf("state = %s, want ready", snap.State)
	}

	// Recovery needs no acknowledgement; the next successful poll puts
	// the counter back to zero and dictation works normally.
	h.be.setStatusErr(nil)
	h.ctrl.Toggle()
	waitState(t, h, Recording)
}

func TestLevelPollingOnlyWhileRecording(t *testing.T) {
	h := newHarness(t)

	time.Sleep(10 * testConfig.LevelInterval)
	if n := h.be.levelCallCount(); n != 0 {
		t.Fatalf("level polled %d times while idle", n)
	}

	h.ctrl.Toggle()
	waitState(t, h, Recording)
	time.Sleep(10 * testConfig.LevelInterval)
	if n := h.be.levelCallCount(); n == 0 {
		t.Fatal("level never polled while recording")
	}

	h.ctrl.Toggle()
	waitState(t, h, Transcribing)

	// Drain samples already posted, then verify the flow stops. One
	// in-flight request may still land right after the transition.
	for len(h.sink.levels) > 0 {
		<-h.sink.levels
	}
	time.Sleep(10 * testConfig.LevelInterval)
	if n := len(h.sink.levels); n > 0 {
		t.Fatalf("%d level samples delivered after recording stopped", n)
	}

	before := h.be.levelCallCount()
	time.Sleep(10 * testConfig.LevelInterval)
	if after := h.be.levelCallCount(); after > before+1 {
		t.Fatalf("level loop still polling after stop: %d -> %d", before, after)
	}
}

func TestToggleNeverChangesStateDirectly(t *testing.T) {
	h := newHarness(t)

	// With the backend unreachable the toggle request goes nowhere and
	// no status poll ever reports recording; state must stay ready.
	h.be.setStatusErr(errors.New("connection refused"))
	h.ctrl.Toggle()

	time.Sleep(5 * testConfig.StatusInterval)
	if snap := h.ctrl.Snapshot(); snap.State != Ready {
		t.Fatalf("state = %s after blind toggle, want ready", snap.State)
	}
}

func TestSaveOutsideReviewIsIgnored(t *testing.T) {
	h := newHarness(t)

	h.ctrl.Save("nothing to save")
	if saves := h.be.saved(); len(saves) != 0 {
		t.Fatalf("save accepted in ready state: %+v", saves)
	}
	if h.clip.copied() != "" {
		t.Fatalf("clipboard written in ready state: %q", h.clip.copied())
	}
}
