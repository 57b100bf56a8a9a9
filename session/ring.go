package session

// LevelRingCapacity is how many audio-level samples the waveform keeps.
// At the 50ms level cadence this is 1.5 seconds of history.
const LevelRingCapacity = 30

// Ring is a fixed-capacity ring buffer of audio-level samples. Oldest
// samples are evicted on overflow. Not safe for concurrent use; it is
// owned by whichever component renders it.
type Ring struct {
	buf  []float64
	head int
	n    int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = LevelRingCapacity
	}
	return &Ring{buf: make([]float64, capacity)}
}

func (r *Ring) Push(v float64) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
}

func (r *Ring) Len() int { return r.n }

func (r *Ring) Cap() int { return len(r.buf) }

// Samples returns the buffered levels oldest first.
func (r *Ring) Samples() []float64 {
	out := make([]float64, r.n)
	start := (r.head - r.n + len(r.buf)) % len(r.buf)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

// Clear drops all samples, e.g. when a new recording starts.
func (r *Ring) Clear() {
	r.head = 0
	r.n = 0
}
