// Package schedule provides a cancellable one-shot timer for bubbletea
// programs.
//
// A bubbletea tick cannot be stopped once issued, so cancellation works by
// tagging: every Timer has an ID, and every call to After bumps its tag.
// FiredMsg values carry the ID and tag they were issued with, and Fire only
// accepts the message matching the current tag. Scheduling again therefore
// supersedes the previous tick and Cancel invalidates it, so a Timer never
// has more than one live tick no matter how often it is rescheduled.
//
// Recurring work is a chain: handle the FiredMsg, do the work, call After
// again.
package schedule

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// FiredMsg is delivered when a scheduled tick elapses.
type FiredMsg struct {
	ID  int
	Tag int
	At  time.Time
}

// Timer is a cancellable one-shot timer. The zero value is not usable; use
// New. A Timer belongs to the event loop and is not safe for concurrent use.
type Timer struct {
	name    string
	id      int
	tag     int
	pending bool
}

// New creates a timer. The name only appears in String output.
func New(name string) *Timer {
	return &Timer{name: name, id: nextID()}
}

// ID returns the timer's unique ID.
func (t *Timer) ID() int {
	return t.id
}

// After schedules the timer to fire once after d, superseding any tick that
// is still outstanding. A non-positive d fires on the next update.
func (t *Timer) After(d time.Duration) tea.Cmd {
	t.tag++
	t.pending = true
	id, tag := t.id, t.tag

	if d <= 0 {
		return func() tea.Msg {
			return FiredMsg{ID: id, Tag: tag, At: time.Now()}
		}
	}
	return tea.Tick(d, func(at time.Time) tea.Msg {
		return FiredMsg{ID: id, Tag: tag, At: at}
	})
}

// Cancel invalidates the outstanding tick, if any.
func (t *Timer) Cancel() {
	t.tag++
	t.pending = false
}

// Pending reports whether a tick is scheduled and not yet fired or cancelled.
func (t *Timer) Pending() bool {
	return t.pending
}

// Fire reports whether msg is this timer's current tick. Accepting a tick
// consumes it: the same message is not accepted twice.
func (t *Timer) Fire(msg tea.Msg) bool {
	fired, ok := msg.(FiredMsg)
	if !ok || fired.ID != t.id || fired.Tag != t.tag || !t.pending {
		return false
	}
	t.pending = false
	return true
}

// Owns reports whether msg was issued by this timer, current or stale.
// Stale ticks are swallowed by their owner instead of being routed further.
func (t *Timer) Owns(msg tea.Msg) bool {
	fired, ok := msg.(FiredMsg)
	return ok && fired.ID == t.id
}

func (t *Timer) String() string {
	state := "idle"
	if t.pending {
		state = "pending"
	}
	return t.name + "(" + state + ")"
}
