package session

// DefaultFailureThreshold makes escalation fire after roughly three
// seconds of continuous status-poll failure at the 150ms cadence.
const DefaultFailureThreshold = 20

// Monitor counts consecutive poll failures and signals escalation once
// per unbroken failure run (edge-triggered: Fail keeps returning false
// until a success or Reset re-arms it).
type Monitor struct {
	threshold int
	count     int
	latched   bool
}

func NewMonitor(threshold int) *Monitor {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	return &Monitor{threshold: threshold}
}

// OK records a successful poll. Any success resets the counter and
// re-arms the escalation edge.
func (m *Monitor) OK() {
	m.count = 0
	m.latched = false
}

// Fail records a failed poll and reports whether this failure crossed
// the escalation threshold.
func (m *Monitor) Fail() bool {
	m.count++
	if m.count > m.threshold && !m.latched {
		m.latched = true
		return true
	}
	return false
}

// Reset clears the counter and the latch. Called on the user's explicit
// error acknowledgement.
func (m *Monitor) Reset() {
	m.count = 0
	m.latched = false
}

func (m *Monitor) Count() int { return m.count }
