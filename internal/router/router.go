// Package router switches between wizard pages by fragment ("#wifi").
//
// Pages register once, before the first navigation. Navigating hides every
// page, deactivates every page that can be deactivated and then activates
// the target, so at most one page is ever active. Configuration documents
// are dispatched to the pages that consume a section of them.
package router

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/logging"
)

// Welcome is the fragment shown when none is given.
const Welcome = "#welcome"

var (
	// ErrDuplicatePage is returned when a fragment is registered twice.
	ErrDuplicatePage = errors.New("page already registered")
	// ErrStarted is returned when registering after the first navigation.
	ErrStarted = errors.New("router already started")
)

// Page is a wizard page addressed by its fragment.
type Page interface {
	ID() string
	Title() string
}

// Activator is implemented by pages with work to start when shown.
type Activator interface {
	Activate() tea.Cmd
}

// Deactivator is implemented by pages with work to stop when hidden.
type Deactivator interface {
	Deactivate()
}

// ConfigConsumer is implemented by pages that render a config section.
// samePage is true when the page is the one currently shown.
type ConfigConsumer interface {
	ConfigSection() string
	OnConfigUpdate(section deviceconfig.Section, samePage bool)
}

// NavigateMsg asks the application to switch pages.
type NavigateMsg struct {
	Fragment string
}

// Go returns a command requesting navigation to fragment.
func Go(fragment string) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Fragment: fragment}
	}
}

// Router owns the page registry and the current fragment. It belongs to the
// UI event loop and is not safe for concurrent use.
type Router struct {
	pages   []Page
	byID    map[string]Page
	current string
	visible string
	started bool
}

// New creates an empty router.
func New() *Router {
	return &Router{byID: make(map[string]Page)}
}

// Register adds pages in navigation order.
func (r *Router) Register(pages ...Page) error {
	if r.started {
		return ErrStarted
	}
	for _, p := range pages {
		id := Normalize(p.ID())
		if _, ok := r.byID[id]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePage, id)
		}
		r.byID[id] = p
		r.pages = append(r.pages, p)
	}
	return nil
}

// Normalize maps an empty fragment to Welcome and adds a missing '#'.
func Normalize(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" || fragment == "#" {
		return Welcome
	}
	if !strings.HasPrefix(fragment, "#") {
		return "#" + fragment
	}
	return fragment
}

// Navigate switches to fragment and returns the commands produced by the
// target's activation. An unknown fragment leaves no page active.
func (r *Router) Navigate(fragment string) tea.Cmd {
	r.started = true
	next := Normalize(fragment)
	logging.LogPageTransition(r.current, next)

	r.current = next
	r.visible = ""

	for _, p := range r.pages {
		if d, ok := p.(Deactivator); ok {
			d.Deactivate()
		}
	}

	target, ok := r.byID[next]
	if !ok {
		return nil
	}

	var cmd tea.Cmd
	if a, ok := target.(Activator); ok {
		cmd = a.Activate()
	}
	r.visible = next
	return cmd
}

// Current returns the normalized current fragment, registered or not.
func (r *Router) Current() string {
	return r.current
}

// Active returns the page being shown, if the current fragment is known.
func (r *Router) Active() (Page, bool) {
	return r.Lookup(r.current)
}

// Visible reports whether the page with id is the one shown.
func (r *Router) Visible(id string) bool {
	return r.visible != "" && r.visible == Normalize(id)
}

// Lookup returns the page registered for fragment.
func (r *Router) Lookup(fragment string) (Page, bool) {
	p, ok := r.byID[Normalize(fragment)]
	return p, ok
}

// DispatchConfig hands each consumer its section of doc, in registration
// order. Pages whose section is absent are skipped.
func (r *Router) DispatchConfig(doc deviceconfig.Document) {
	for _, p := range r.pages {
		c, ok := p.(ConfigConsumer)
		if !ok {
			continue
		}
		section, ok := doc[c.ConfigSection()]
		if !ok {
			continue
		}
		c.OnConfigUpdate(section, Normalize(p.ID()) == r.current)
	}
}

// Pages returns the registered pages in navigation order.
func (r *Router) Pages() []Page {
	out := make([]Page, len(r.pages))
	copy(out, r.pages)
	return out
}

// Next returns the fragment following fragment in navigation order.
func (r *Router) Next(fragment string) (string, bool) {
	return r.step(fragment, 1)
}

// Prev returns the fragment preceding fragment in navigation order.
func (r *Router) Prev(fragment string) (string, bool) {
	return r.step(fragment, -1)
}

func (r *Router) step(fragment string, delta int) (string, bool) {
	id := Normalize(fragment)
	for i, p := range r.pages {
		if Normalize(p.ID()) != id {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(r.pages) {
			return "", false
		}
		return Normalize(r.pages[j].ID()), true
	}
	return "", false
}
