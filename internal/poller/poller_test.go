package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/schedule"
)

type fakeFetcher struct {
	doc   deviceconfig.Document
	err   error
	calls int
}

func (f *fakeFetcher) GetConfig(context.Context) (deviceconfig.Document, error) {
	f.calls++
	return f.doc, f.err
}

func init() {
	Tick = time.Millisecond
}

// step runs cmd and feeds its message back to the poller.
func step(t *testing.T, p *Poller, cmd tea.Cmd) (tea.Msg, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	msg := cmd()
	next, handled := p.Update(msg)
	if !handled {
		t.Fatalf("poller did not handle %T", msg)
	}
	return msg, next
}

func TestRefresh_SuccessDispatchesWithinOneTick(t *testing.T) {
	fetcher := &fakeFetcher{doc: deviceconfig.Document{"wifi": {"ssid": "home"}}}
	var dispatched []deviceconfig.Document
	p := New(fetcher, func(doc deviceconfig.Document) { dispatched = append(dispatched, doc) })

	_, fetch := step(t, p, p.Refresh())

	if !p.Busy() || p.Label() != LabelRetrying || p.Count() != DefaultBackoff {
		t.Errorf("after first tick: busy=%v label=%q count=%d", p.Busy(), p.Label(), p.Count())
	}

	_, next := step(t, p, fetch)

	if len(dispatched) != 1 || dispatched[0].Section("wifi").String("ssid") != "home" {
		t.Errorf("dispatched = %v, want one document", dispatched)
	}
	if p.Unreachable() || p.Busy() {
		t.Errorf("unreachable=%v busy=%v, want both false", p.Unreachable(), p.Busy())
	}
	if p.Label() != "Retry in 10 sec" {
		t.Errorf("Label() = %q", p.Label())
	}
	if next == nil || !p.Pending() {
		t.Error("a successful fetch should schedule the next tick")
	}
	if p.Document() == nil {
		t.Error("Document() should hold the fetched document")
	}
}

func TestFailure_ReschedulesWithBackoff(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	dispatches := 0
	p := New(fetcher, func(deviceconfig.Document) { dispatches++ })

	_, fetch := step(t, p, p.Refresh())
	_, next := step(t, p, fetch)

	if !p.Unreachable() {
		t.Error("failed fetch should mark the controller unreachable")
	}
	if p.LastError() == nil {
		t.Error("LastError() should be set")
	}
	if dispatches != 0 {
		t.Errorf("dispatched %d times on failure, want 0", dispatches)
	}
	if p.Count() != 10 || p.Label() != "Retry in 10 sec" {
		t.Errorf("count=%d label=%q, want 10 and Retry in 10 sec", p.Count(), p.Label())
	}

	_, _ = step(t, p, next)
	if p.Count() != 9 || p.Label() != "Retry in 9 sec" {
		t.Errorf("count=%d label=%q after one tick", p.Count(), p.Label())
	}

	fetcher.err = nil
	fetcher.doc = deviceconfig.Document{}
	_, fetch = step(t, p, p.Refresh())
	_, _ = step(t, p, fetch)
	if p.Unreachable() {
		t.Error("successful fetch should clear the unreachable state")
	}
}

func TestRefresh_SupersedesPendingTick(t *testing.T) {
	fetcher := &fakeFetcher{doc: deviceconfig.Document{}}
	p := New(fetcher, nil)

	_, fetch := step(t, p, p.Refresh())
	_, countdown := step(t, p, fetch)
	stale := countdown()

	_, fetch = step(t, p, p.Refresh())
	if fetch == nil || !p.Busy() {
		t.Fatal("Refresh() should fetch on the next tick")
	}

	next, handled := p.Update(stale)
	if !handled {
		t.Error("stale tick should be swallowed by the poller")
	}
	if next != nil {
		t.Error("stale tick must not start a second timer chain")
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher called %d times, want 1 before the second fetch runs", fetcher.calls)
	}
}

func TestRefresh_WhileBusyIsQueued(t *testing.T) {
	fetcher := &fakeFetcher{doc: deviceconfig.Document{}}
	p := New(fetcher, nil)

	_, fetch := step(t, p, p.Refresh())
	if cmd := p.Refresh(); cmd != nil {
		t.Error("Refresh() during a fetch should not issue a command")
	}

	_, next := step(t, p, fetch)
	_, fetch = step(t, p, next)
	if !p.Busy() {
		t.Fatal("queued refresh should fetch right after the previous one")
	}
	_, _ = step(t, p, fetch)
	if fetcher.calls != 2 {
		t.Errorf("fetcher called %d times, want 2", fetcher.calls)
	}
}

func TestStop(t *testing.T) {
	p := New(&fakeFetcher{doc: deviceconfig.Document{}}, nil)

	_, fetch := step(t, p, p.Refresh())
	p.Stop()

	_, next := step(t, p, fetch)
	if next != nil || p.Pending() {
		t.Error("stopped poller should not reschedule")
	}
}

func TestUpdate_IgnoresForeignMessages(t *testing.T) {
	p := New(&fakeFetcher{}, nil)
	other := schedule.New("other")

	if _, handled := p.Update(other.After(0)()); handled {
		t.Error("another timer's tick should not be handled")
	}
	if _, handled := p.Update(tea.KeyMsg{}); handled {
		t.Error("key messages should not be handled")
	}
}

func TestWithBackoff(t *testing.T) {
	p := New(&fakeFetcher{doc: deviceconfig.Document{}}, nil, WithBackoff(3), WithTimeout(time.Second))

	_, _ = step(t, p, p.Refresh())
	if p.Count() != 3 {
		t.Errorf("Count() = %d, want 3", p.Count())
	}
}
