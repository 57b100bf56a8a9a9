package session

import (
	"context"
	"time"
)

const (
	// DefaultStatusInterval is the status/pending poll cadence. The
	// backend answers from memory so this is cheap; 150ms keeps popup
	// transitions feeling immediate.
	DefaultStatusInterval = 150 * time.Millisecond
	// DefaultLevelInterval drives the waveform while recording.
	DefaultLevelInterval = 50 * time.Millisecond
)

// Poller runs the two periodic loops against the backend. Each loop is
// one goroutine that performs its request synchronously inside the tick
// body, so at most one cycle per loop is ever in flight; time.Ticker
// drops the ticks that elapse while a slow request blocks.
type Poller struct {
	backend     Backend
	statusEvery time.Duration
	levelEvery  time.Duration
}

func NewPoller(b Backend, statusEvery, levelEvery time.Duration) *Poller {
	if statusEvery <= 0 {
		statusEvery = DefaultStatusInterval
	}
	if levelEvery <= 0 {
		levelEvery = DefaultLevelInterval
	}
	return &Poller{backend: b, statusEvery: statusEvery, levelEvery: levelEvery}
}

// runStatus polls /status (and, when the status query succeeds, /pending)
// until ctx is cancelled. It never stops on poll failure; failures are
// reported in the outcome for the failure monitor to count.
func (p *Poller) runStatus(ctx context.Context, post func(event) bool) {
	tick := func() bool {
		ev := statusOutcome{}
		ev.status, ev.err = p.backend.Status(ctx)
		if ev.err == nil {
			ev.pending, ev.pendingErr = p.backend.Pending(ctx)
		}
		return post(ev)
	}

	if !tick() {
		return
	}
	ticker := time.NewTicker(p.statusEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !tick() {
				return
			}
		}
	}
}

// runLevel polls /level until ctx is cancelled. gen tags every outcome
// so the controller can discard results from a loop that was stopped
// while a request was in flight.
func (p *Poller) runLevel(ctx context.Context, gen int, post func(event) bool) {
	ticker := time.NewTicker(p.levelEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ev := levelOutcome{gen: gen}
			ev.level, ev.err = p.backend.Level(ctx)
			if ctx.Err() != nil {
				return
			}
			if !post(ev) {
				return
			}
		}
	}
}
