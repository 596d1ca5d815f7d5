package status

import (
	"sync"
	"time"

	"github.com/bryanchriswhite/focusbridge/internal/window"
)

// Foreground describes the process most recently handed to the scheduler
type Foreground struct {
	WindowID uint64    `json:"window_id"`
	Title    string    `json:"title"`
	AppID    string    `json:"app_id"`
	PID      uint32    `json:"pid"`
	At       time.Time `json:"at"`
}

// Snapshot is a point-in-time copy of the bridge counters
type Snapshot struct {
	StartedAt     time.Time   `json:"started_at"`
	Windows       int         `json:"windows"`
	Snapshots     uint64      `json:"snapshots"`
	Notifications uint64      `json:"notifications"`
	Failures      uint64      `json:"failures"`
	Foreground    *Foreground `json:"foreground,omitempty"`
	LastError     string      `json:"last_error,omitempty"`
}

// Tracker records what the dispatcher did so it can be reported elsewhere.
// It only sees counts and notified windows, never the window cache itself.
type Tracker struct {
	mu        sync.RWMutex
	state     Snapshot
	listeners []chan Foreground
	now       func() time.Time
}

// NewTracker creates a tracker with its start time set to now
func NewTracker() *Tracker {
	t := &Tracker{now: time.Now}
	t.state.StartedAt = t.now()
	return t
}

// SnapshotReplaced records a new window snapshot of the given size
func (t *Tracker) SnapshotReplaced(windows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Snapshots++
	t.state.Windows = windows
}

// ForegroundSet records a successful scheduler notification
func (t *Tracker) ForegroundSet(w window.Record, pid uint32) {
	fg := Foreground{
		WindowID: w.ID,
		Title:    w.TitleOrEmpty(),
		AppID:    w.AppIDOrEmpty(),
		PID:      pid,
		At:       t.now(),
	}

	t.mu.Lock()
	t.state.Notifications++
	t.state.Foreground = &fg
	t.mu.Unlock()

	t.notifyListeners(fg)
}

// ForegroundFailed records a failed scheduler notification
func (t *Tracker) ForegroundFailed(w window.Record, pid uint32, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Failures++
	t.state.LastError = err.Error()
}

// Snapshot returns a copy of the current state
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := t.state
	if s.Foreground != nil {
		fg := *s.Foreground
		s.Foreground = &fg
	}
	return s
}

// Subscribe adds a listener for foreground changes
func (t *Tracker) Subscribe() chan Foreground {
	ch := make(chan Foreground, 10)
	t.mu.Lock()
	t.listeners = append(t.listeners, ch)
	t.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener
func (t *Tracker) Unsubscribe(ch chan Foreground) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, listener := range t.listeners {
		if listener == ch {
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			close(ch)
			break
		}
	}
}

// notifyListeners never blocks the event loop
func (t *Tracker) notifyListeners(fg Foreground) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, listener := range t.listeners {
		select {
		case listener <- fg:
		default:
			// Skip if channel is full
		}
	}
}
