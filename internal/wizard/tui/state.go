package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/ledsetup/internal/alert"
	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/form"
	"github.com/muurk/ledsetup/internal/poller"
	"github.com/muurk/ledsetup/internal/router"
	"github.com/muurk/ledsetup/internal/wifi"
)

// DeviceAPI is the part of the controller client the wizard uses.
// *deviceconfig.Client implements it.
type DeviceAPI interface {
	GetConfig(ctx context.Context) (deviceconfig.Document, error)
	UpdateConfig(ctx context.Context, update deviceconfig.Document) error
	ScanWiFi(ctx context.Context) ([]wifi.AccessPoint, error)
	TestStrip(ctx context.Context, params map[string]any) error
	StripTestAction() string
	Submit(ctx context.Context, method, action string, body map[string]any) error
	FinishSetup(ctx context.Context) error
	URI(action string) string
}

// Options tunes the wizard.
type Options struct {
	// ScanInterval is the delay between WiFi scans.
	ScanInterval time.Duration

	// PollBackoff is the number of seconds between config fetches.
	PollBackoff int

	// Timeout bounds every request.
	Timeout time.Duration

	// Device is shown in the header, usually the base URL.
	Device string

	// Start is the first page shown; empty means the welcome page.
	Start string
}

// State is shared by every page: the device client and the process-wide
// data the pages read and write. It belongs to the event loop.
type State struct {
	API      DeviceAPI
	Notifier *alert.Notifier
	Router   *router.Router
	Poller   *poller.Poller
	Networks *wifi.Table

	// Doc is the last configuration fetched from the device.
	Doc deviceconfig.Document

	Timeout      time.Duration
	ScanInterval time.Duration
	Device       string
}

// NewState wires the notifier, router and poller around api.
func NewState(api DeviceAPI, opts Options) *State {
	if opts.ScanInterval <= 0 {
		opts.ScanInterval = 10 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = deviceconfig.DefaultTimeout
	}
	s := &State{
		API:          api,
		Notifier:     alert.NewNotifier(),
		Router:       router.New(),
		Networks:     wifi.NewTable(),
		Timeout:      opts.Timeout,
		ScanInterval: opts.ScanInterval,
		Device:       opts.Device,
	}
	s.Poller = poller.New(api, s.receive,
		poller.WithBackoff(opts.PollBackoff),
		poller.WithTimeout(opts.Timeout),
	)
	return s
}

// receive stores a fetched document and hands its sections to the pages.
func (s *State) receive(doc deviceconfig.Document) {
	s.Doc = doc
	s.Router.DispatchConfig(doc)
}

// Section returns a section of the cached document, nil if absent.
func (s *State) Section(name string) deviceconfig.Section {
	return s.Doc.Section(name)
}

// requestDoneMsg reports the outcome of a request started by a page.
// Pages match it by id.
type requestDoneMsg struct {
	id  string
	uri string
	err error
}

// request runs fn as a command and reports back with a requestDoneMsg.
func (s *State) request(id, uri string, fn func(ctx context.Context) error) tea.Cmd {
	timeout := s.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return requestDoneMsg{id: id, uri: uri, err: fn(ctx)}
	}
}

// Submit sends a form to its action with its method after clearing old
// request alerts. Failures are shown by Failed; there is no retry.
func (s *State) Submit(f *form.Form) tea.Cmd {
	s.Notifier.AjaxClean()
	api, method, action, body := s.API, f.Method, f.Action, f.Payload()
	return s.request(f.ID, api.URI(action), func(ctx context.Context) error {
		return api.Submit(ctx, method, action, body)
	})
}

// Failed shows a request failure in the form error banner.
func (s *State) Failed(uri string, err error) {
	s.Notifier.AjaxError(uri, deviceconfig.GetShortErrorMessage(err))
}
