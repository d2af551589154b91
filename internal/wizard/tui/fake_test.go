package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/router"
	"github.com/muurk/ledsetup/internal/wifi"
)

type submitCall struct {
	method string
	action string
	body   map[string]any
}

// fakeAPI records what the wizard sends. err fails every write; scanErr
// fails scans.
type fakeAPI struct {
	doc     deviceconfig.Document
	aps     []wifi.AccessPoint
	err     error
	scanErr error

	scans    int
	updates  []deviceconfig.Document
	tests    []map[string]any
	submits  []submitCall
	finished int
}

func (f *fakeAPI) GetConfig(ctx context.Context) (deviceconfig.Document, error) {
	return f.doc, nil
}

func (f *fakeAPI) UpdateConfig(ctx context.Context, update deviceconfig.Document) error {
	f.updates = append(f.updates, update)
	return f.err
}

func (f *fakeAPI) ScanWiFi(ctx context.Context) ([]wifi.AccessPoint, error) {
	f.scans++
	return f.aps, f.scanErr
}

func (f *fakeAPI) TestStrip(ctx context.Context, params map[string]any) error {
	f.tests = append(f.tests, params)
	return f.err
}

func (f *fakeAPI) StripTestAction() string { return deviceconfig.ActionStripTest }

func (f *fakeAPI) Submit(ctx context.Context, method, action string, body map[string]any) error {
	f.submits = append(f.submits, submitCall{method: method, action: action, body: body})
	return f.err
}

func (f *fakeAPI) FinishSetup(ctx context.Context) error {
	f.finished++
	return f.err
}

func (f *fakeAPI) URI(action string) string { return "http://ctl.test/v1/" + action }

func newTestWizard(t *testing.T, api *fakeAPI, opts Options) WizardModel {
	t.Helper()
	m, err := NewWizardModel(api, opts)
	if err != nil {
		t.Fatalf("NewWizardModel() error = %v", err)
	}
	return m
}

// page looks up a registered page by fragment.
func page[T any](t *testing.T, s *State, fragment string) T {
	t.Helper()
	p, ok := s.Router.Lookup(fragment)
	if !ok {
		t.Fatalf("page %s not registered", fragment)
	}
	typed, ok := p.(T)
	if !ok {
		t.Fatalf("page %s has type %T", fragment, p)
	}
	return typed
}

// keyPress builds a key message the way bubbletea reports it.
func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+p":
		return tea.KeyMsg{Type: tea.KeyCtrlP}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and returns the messages it produced, flattening
// batches. Commands scheduled with a positive delay block until it
// elapses.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// find returns the first message of type T.
func find[T any](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if typed, ok := m.(T); ok {
			return typed, true
		}
	}
	var zero T
	return zero, false
}

// navigatedTo returns the fragment a command asks to navigate to.
func navigatedTo(cmd tea.Cmd) string {
	nav, ok := find[router.NavigateMsg](run(cmd))
	if !ok {
		return ""
	}
	return nav.Fragment
}
