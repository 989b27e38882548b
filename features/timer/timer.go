// Package timer is the refresh timer state machine. It does not own a clock: the host
// calls Tick once per second (gocron in production, tests call it directly).
package timer

import "sync"

type State string

const (
	Idle        State = "idle"
	Counting    State = "counting"
	ErrorPaused State = "error-paused"
)

var States = []State{Idle, Counting, ErrorPaused}

// Snapshot is the observable timer state.
type Snapshot struct {
	State    State `json:"state"`
	Elapsed  int   `json:"elapsed"`
	Interval int   `json:"interval"`
}

func (s Snapshot) ErrorState() bool { return s.State == ErrorPaused }

type Timer struct {
	mu       sync.Mutex
	state    State
	elapsed  int
	interval int
}

// New creates an idle timer firing every interval ticks.
func New(interval int) *Timer {
	if interval < 1 {
		interval = 1
	}
	return &Timer{state: Idle, interval: interval}
}

// Activate starts counting when a source becomes active. Other states are kept.
func (t *Timer) Activate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Idle {
		t.state = Counting
		t.elapsed = 0
	}
}

// Restart counts from zero in any state. Used when the active source changes, since an
// earlier failure says nothing about the new source.
func (t *Timer) Restart() {
	t.mu.Lock()
	t.state = Counting
	t.elapsed = 0
	t.mu.Unlock()
}

// Reset zeroes elapsed time without changing state.
func (t *Timer) Reset() {
	t.mu.Lock()
	t.elapsed = 0
	t.mu.Unlock()
}

// Tick advances one second. It reports whether a foreground load is due; elapsed is
// already back at zero when it does.
func (t *Timer) Tick() (bool, Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Counting {
		return false, t.snapshot()
	}

	t.elapsed++
	if t.elapsed >= t.interval {
		t.elapsed = 0
		return true, t.snapshot()
	}
	return false, t.snapshot()
}

// Failed pauses counting after a failed foreground load. A completed fetch always
// restarts the count, so elapsed goes back to zero.
func (t *Timer) Failed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Idle {
		t.state = ErrorPaused
	}
	t.elapsed = 0
}

// Succeeded resumes counting from zero after a successful foreground load.
func (t *Timer) Succeeded() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Idle {
		t.state = Counting
	}
	t.elapsed = 0
}

func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

func (t *Timer) snapshot() Snapshot {
	return Snapshot{State: t.state, Elapsed: t.elapsed, Interval: t.interval}
}
