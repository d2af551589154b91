package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// globalKeyMap defines key bindings available on every wizard page
type globalKeyMap struct {
	NextPage key.Binding
	PrevPage key.Binding
	Dismiss  key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k globalKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPage, k.PrevPage, k.Dismiss, k.Refresh, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k globalKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextPage, k.PrevPage},
		{k.Dismiss, k.Refresh, k.Quit},
	}
}

func newGlobalKeyMap() globalKeyMap {
	return globalKeyMap{
		NextPage: key.NewBinding(
			key.WithKeys("ctrl+n", "pgdown"),
			key.WithHelp("ctrl+n", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("ctrl+p", "pgup"),
			key.WithHelp("ctrl+p", "prev page"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss alert"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// formKeyMap defines key bindings for pages built on a FormEditor
type formKeyMap struct {
	Move   key.Binding
	Toggle key.Binding
	Choose key.Binding
	Press  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Move, k.Toggle, k.Choose, k.Press}
}

// FullHelp returns keybindings for the expanded help view
func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Move, k.Toggle, k.Choose, k.Press}}
}

func newFormKeyMap() formKeyMap {
	return formKeyMap{
		Move: key.NewBinding(
			key.WithKeys("tab", "shift+tab", "up", "down"),
			key.WithHelp("tab/↑↓", "move"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		Choose: key.NewBinding(
			key.WithKeys("left", "right"),
			key.WithHelp("←/→", "choose"),
		),
		Press: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "press"),
		),
	}
}

// listKeyMap defines key bindings for the access point table
type listKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Connect key.Binding
	Rescan  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k listKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Connect, k.Rescan}
}

// FullHelp returns keybindings for the expanded help view
func (k listKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Connect, k.Rescan}}
}

func newListKeyMap() listKeyMap {
	return listKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Connect: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "connect"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
	}
}

// dialogKeyMap defines key bindings inside a modal dialog
type dialogKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dialogKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k dialogKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Confirm, k.Cancel}}
}

func newDialogKeyMap(confirm, cancel string) dialogKeyMap {
	return dialogKeyMap{
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", confirm),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", cancel),
		),
	}
}

// unreachableKeyMap defines key bindings while the controller is unreachable
type unreachableKeyMap struct {
	Retry key.Binding
	Quit  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k unreachableKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Retry, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k unreachableKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Retry, k.Quit}}
}

func newUnreachableKeyMap() unreachableKeyMap {
	return unreachableKeyMap{
		Retry: key.NewBinding(
			key.WithKeys("r", "enter"),
			key.WithHelp("r", "retry now"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// joinedKeys shows a page's bindings followed by the global ones.
type joinedKeys struct {
	page   help.KeyMap
	global help.KeyMap
}

func (k joinedKeys) ShortHelp() []key.Binding {
	var out []key.Binding
	if k.page != nil {
		out = append(out, k.page.ShortHelp()...)
	}
	return append(out, k.global.ShortHelp()...)
}

func (k joinedKeys) FullHelp() [][]key.Binding {
	var out [][]key.Binding
	if k.page != nil {
		out = append(out, k.page.FullHelp()...)
	}
	return append(out, k.global.FullHelp()...)
}

// actionKeyMap defines the single action of a page without inputs
type actionKeyMap struct {
	Action key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k actionKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Action}
}

// FullHelp returns keybindings for the expanded help view
func (k actionKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Action}}
}

func newActionKeyMap(desc string) actionKeyMap {
	return actionKeyMap{
		Action: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", desc),
		),
	}
}
