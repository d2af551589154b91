// Package poller keeps the wizard's copy of the controller configuration
// fresh.
//
// The poller counts down one second at a time and fetches the document when
// the count reaches zero, then starts over from ten seconds. Every fetch,
// successful or not, schedules the next countdown, so the poller runs for
// the lifetime of the program. A failed fetch marks the controller
// unreachable until a later fetch succeeds.
package poller

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/logging"
	"github.com/muurk/ledsetup/internal/schedule"
)

const (
	// DefaultBackoff is the number of seconds between fetches.
	DefaultBackoff = 10

	// LabelRetrying is shown while a fetch is in flight.
	LabelRetrying = "Retrying..."
)

// Tick is the countdown resolution.
var Tick = time.Second

// Fetcher loads the configuration document.
type Fetcher interface {
	GetConfig(ctx context.Context) (deviceconfig.Document, error)
}

// ResultMsg carries the outcome of a fetch back to the event loop.
type ResultMsg struct {
	Doc deviceconfig.Document
	Err error
}

// Poller is driven by the bubbletea event loop: commands it returns must be
// run, and every message must be offered to Update.
type Poller struct {
	fetcher  Fetcher
	dispatch func(deviceconfig.Document)
	timeout  time.Duration
	backoff  int

	timer       *schedule.Timer
	count       int
	label       string
	busy        bool
	stopped     bool
	queued      bool
	unreachable bool
	lastErr     error
	doc         deviceconfig.Document
}

// Option configures a Poller.
type Option func(*Poller)

// WithBackoff sets the number of seconds between fetches.
func WithBackoff(seconds int) Option {
	return func(p *Poller) {
		if seconds > 0 {
			p.backoff = seconds
		}
	}
}

// WithTimeout bounds every fetch.
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) {
		p.timeout = d
	}
}

// New creates a poller that hands every fetched document to dispatch.
func New(fetcher Fetcher, dispatch func(deviceconfig.Document), opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		dispatch: dispatch,
		timeout:  deviceconfig.DefaultTimeout,
		backoff:  DefaultBackoff,
		timer:    schedule.New("config-poll"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Refresh fetches right away, cancelling the running countdown. While a
// fetch is in flight the refresh is queued and runs when it completes.
func (p *Poller) Refresh() tea.Cmd {
	if p.busy {
		p.queued = true
		return nil
	}
	p.stopped = false
	p.count = 1
	return p.timer.After(0)
}

// Stop cancels the countdown. A fetch in flight still reports back but does
// not restart it.
func (p *Poller) Stop() {
	p.timer.Cancel()
	p.stopped = true
	p.queued = false
}

// Update handles the poller's own messages and reports whether msg was one.
func (p *Poller) Update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case schedule.FiredMsg:
		if !p.timer.Owns(msg) {
			return nil, false
		}
		if !p.timer.Fire(msg) {
			return nil, true
		}
		return p.tick(), true

	case ResultMsg:
		return p.handleResult(msg), true
	}
	return nil, false
}

func (p *Poller) tick() tea.Cmd {
	p.count--
	if p.count > 0 {
		p.label = fmt.Sprintf("Retry in %d sec", p.count)
		return p.timer.After(Tick)
	}

	p.count = p.backoff
	p.label = LabelRetrying
	p.busy = true
	return p.fetch()
}

func (p *Poller) fetch() tea.Cmd {
	fetcher, timeout := p.fetcher, p.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		doc, err := fetcher.GetConfig(ctx)
		return ResultMsg{Doc: doc, Err: err}
	}
}

func (p *Poller) handleResult(msg ResultMsg) tea.Cmd {
	p.busy = false

	if msg.Err != nil {
		p.unreachable = true
		p.lastErr = msg.Err
		logging.Warn("Config fetch failed", zap.Error(msg.Err))
	} else {
		p.unreachable = false
		p.lastErr = nil
		p.doc = msg.Doc
		logging.Debug("Config fetched", zap.Strings("sections", msg.Doc.Names()))
		if p.dispatch != nil {
			p.dispatch(msg.Doc)
		}
	}

	if p.stopped {
		return nil
	}
	if p.queued {
		p.queued = false
		p.count = 1
		return p.timer.After(0)
	}
	p.label = fmt.Sprintf("Retry in %d sec", p.count)
	return p.timer.After(Tick)
}

// Unreachable reports whether the last fetch failed.
func (p *Poller) Unreachable() bool {
	return p.unreachable
}

// Label returns the retry button text.
func (p *Poller) Label() string {
	return p.label
}

// Busy reports whether a fetch is in flight; the retry button is disabled
// meanwhile.
func (p *Poller) Busy() bool {
	return p.busy
}

// Count returns the seconds left before the next fetch.
func (p *Poller) Count() int {
	return p.count
}

// LastError returns the error of the last fetch, if it failed.
func (p *Poller) LastError() error {
	return p.lastErr
}

// Document returns the last fetched document.
func (p *Poller) Document() deviceconfig.Document {
	return p.doc
}

// Pending reports whether a countdown tick is scheduled.
func (p *Poller) Pending() bool {
	return p.timer.Pending()
}
