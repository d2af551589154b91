package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/ledsetup/internal/alert"
	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/router"
)

// WizardModel is the setup wizard for one controller: the nav bar, the
// shown page, the alert banner and the unreachable dialog.
//
// Key presses go to the shown page, or to its dialog when one is open.
// Every other message is offered to the poller and then to all pages,
// since timers and requests report back whether or not their page is
// still shown.
type WizardModel struct {
	State *State
	pages []wizardPage
	start string

	Width  int
	Height int

	Help            help.Model
	Keys            globalKeyMap
	UnreachableKeys unreachableKeyMap
}

// NewWizardModel registers the wizard pages for api.
func NewWizardModel(api DeviceAPI, opts Options) (WizardModel, error) {
	s := NewState(api, opts)
	pages := NewPages(s)

	routed := make([]router.Page, len(pages))
	for i, p := range pages {
		routed[i] = p
	}
	if err := s.Router.Register(routed...); err != nil {
		return WizardModel{}, fmt.Errorf("failed to register wizard pages: %w", err)
	}

	return WizardModel{
		State:           s,
		pages:           pages,
		start:           opts.Start,
		Help:            help.New(),
		Keys:            newGlobalKeyMap(),
		UnreachableKeys: newUnreachableKeyMap(),
	}, nil
}

// Init shows the start page and fetches the configuration right away.
func (m WizardModel) Init() tea.Cmd {
	return tea.Batch(
		m.State.Router.Navigate(m.start),
		m.State.Poller.Refresh(),
	)
}

// Update handles a message
func (m WizardModel) Update(msg tea.Msg) (WizardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		return m, nil

	case router.NavigateMsg:
		return m, m.State.Router.Navigate(msg.Fragment)

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	if cmd, ok := m.State.Poller.Update(msg); ok {
		return m, cmd
	}

	var cmds []tea.Cmd
	for _, p := range m.pages {
		if cmd := p.Update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m WizardModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	poller := m.State.Poller
	if poller.Unreachable() {
		switch {
		case key.Matches(msg, m.UnreachableKeys.Retry):
			if poller.Busy() {
				return nil
			}
			return poller.Refresh()
		case key.Matches(msg, m.UnreachableKeys.Quit):
			return tea.Quit
		}
		return nil
	}

	page := m.activePage()
	if page != nil {
		if _, open := page.Modal(); open {
			return page.Update(msg)
		}
	}

	r := m.State.Router
	switch {
	case key.Matches(msg, m.Keys.NextPage):
		if next, ok := r.Next(r.Current()); ok {
			return r.Navigate(next)
		}
		return nil
	case key.Matches(msg, m.Keys.PrevPage):
		if prev, ok := r.Prev(r.Current()); ok {
			return r.Navigate(prev)
		}
		return nil
	case key.Matches(msg, m.Keys.Dismiss):
		m.State.Notifier.AjaxClean()
		return nil
	case key.Matches(msg, m.Keys.Refresh):
		return poller.Refresh()
	}

	if page == nil {
		if msg.String() == "enter" {
			return r.Navigate(router.Welcome)
		}
		return nil
	}
	return page.Update(msg)
}

func (m WizardModel) activePage() wizardPage {
	p, ok := m.State.Router.Active()
	if !ok {
		return nil
	}
	wp, _ := p.(wizardPage)
	return wp
}

// View renders the wizard
func (m WizardModel) View() string {
	if dialog, ok := m.unreachableDialog(); ok {
		return RenderModal(dialog, m.Width, m.Height)
	}

	page := m.activePage()
	if page != nil {
		if dialog, open := page.Modal(); open {
			return RenderModal(dialog, m.Width, m.Height)
		}
	}

	var b strings.Builder
	b.WriteString(m.navBar())
	b.WriteString("\n\n")
	if a, ok := m.State.Notifier.Current(alert.FormErrors); ok {
		b.WriteString(RenderAlert(a.Message, m.Width-4))
		b.WriteString("\n\n")
	}

	var keys help.KeyMap = m.Keys
	if page != nil {
		b.WriteString(page.View())
		keys = joinedKeys{page: page.Keys(), global: m.Keys}
	} else {
		b.WriteString(RenderTitle("Page not found"))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("There is no page %q. Press enter to start over.", m.State.Router.Current()))
	}

	return RenderApplicationContainer(
		BuildHeaderContent(m.State.Device),
		b.String(),
		m.Help.View(keys),
		m.Width,
		m.Height,
	)
}

func (m WizardModel) navBar() string {
	current := -1
	var titles []string
	for i, p := range m.State.Router.Pages() {
		titles = append(titles, p.Title())
		if m.State.Router.Visible(p.ID()) {
			current = i
		}
	}
	return RenderNavBar(titles, current)
}

func (m WizardModel) unreachableDialog() (string, bool) {
	poller := m.State.Poller
	if !poller.Unreachable() {
		return "", false
	}

	var b strings.Builder
	b.WriteString(RenderTitle("✗ Controller unreachable"))
	b.WriteString("\n")
	if err := poller.LastError(); err != nil {
		b.WriteString(WarningStyle.Render(deviceconfig.GetShortErrorMessage(err)))
		b.WriteString("\n\n")
		b.WriteString(SubtitleStyle.Render(deviceconfig.GetTroubleshootingHint(err)))
		b.WriteString("\n\n")
	}
	label := poller.Label()
	if label == "" {
		label = "Retry"
	}
	b.WriteString(RenderButton(label, !poller.Busy(), poller.Busy()))
	b.WriteString("\n\n")
	b.WriteString(m.Help.View(m.UnreachableKeys))
	return b.String(), true
}
