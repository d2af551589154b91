package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/form"
)

type itemKind int

const (
	itemInput itemKind = iota
	itemCheckbox
	itemRadio
	itemButton
)

// editorItem is one focusable row: a field, a radio group or a button.
type editorItem struct {
	kind     itemKind
	name     string
	label    string
	input    textinput.Model
	disabled bool
}

// FormEditor edits a form.Form from the keyboard. Text fields are
// textinputs; space toggles checkboxes; left/right cycles radio groups.
// Field values are written back to the form on every keystroke, so the
// form always serializes what is on screen.
type FormEditor struct {
	Form  *form.Form
	items []*editorItem
	focus int
	err   *form.ValidationError
}

// NewFormEditor builds one item per field, one per radio group, then one
// per button. Buttons are given as id/label pairs.
func NewFormEditor(f *form.Form, buttons ...[2]string) *FormEditor {
	e := &FormEditor{Form: f}
	groups := make(map[string]bool)

	for _, fld := range f.Fields {
		switch fld.Kind {
		case form.KindCheckbox:
			e.items = append(e.items, &editorItem{kind: itemCheckbox, name: fld.Name, label: fld.Label})
		case form.KindRadio:
			if groups[fld.Name] {
				continue
			}
			groups[fld.Name] = true
			e.items = append(e.items, &editorItem{kind: itemRadio, name: fld.Name, label: fld.Label})
		default:
			ti := textinput.New()
			ti.Prompt = ""
			ti.Width = 32
			ti.SetValue(fld.Value)
			if fld.MaxLength > 0 {
				ti.CharLimit = fld.MaxLength
			}
			if fld.Kind == form.KindPassword {
				ti.EchoMode = textinput.EchoPassword
				ti.EchoCharacter = '•'
			}
			e.items = append(e.items, &editorItem{kind: itemInput, name: fld.Name, label: fld.Label, input: ti})
		}
	}
	for _, b := range buttons {
		e.items = append(e.items, &editorItem{kind: itemButton, name: b[0], label: b[1]})
	}
	e.setFocus(0)
	return e
}

// Load copies a config section into the form and the inputs. Keys absent
// from the section leave their field untouched.
func (e *FormEditor) Load(section deviceconfig.Section) {
	for _, it := range e.items {
		if !section.Has(it.name) {
			continue
		}
		switch it.kind {
		case itemInput:
			v := section.String(it.name)
			e.Form.Set(it.name, v)
			it.input.SetValue(v)
		case itemCheckbox:
			e.Form.SetChecked(it.name, section.Bool(it.name))
		case itemRadio:
			e.Form.Select(it.name, section.String(it.name))
		}
	}
	e.err = nil
}

// Value returns the current value of a field.
func (e *FormEditor) Value(name string) string {
	return e.Form.Value(name)
}

// Checked reports the state of a checkbox.
func (e *FormEditor) Checked(name string) bool {
	return e.Form.Checked(name)
}

// SetButtonDisabled enables or disables every button matching id.
func (e *FormEditor) SetButtonDisabled(id string, disabled bool) {
	for _, it := range e.items {
		if it.kind == itemButton && it.name == id {
			it.disabled = disabled
		}
	}
}

// ButtonDisabled reports whether a button is disabled.
func (e *FormEditor) ButtonDisabled(id string) bool {
	for _, it := range e.items {
		if it.kind == itemButton && it.name == id {
			return it.disabled
		}
	}
	return false
}

// Validate checks the form and keeps the first failure for inline display.
func (e *FormEditor) Validate() bool {
	e.err = nil
	err := e.Form.Validate()
	if err == nil {
		return true
	}
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		e.err = verr
		e.focusField(verr.Field)
	}
	return false
}

// Error returns the inline validation error, if any.
func (e *FormEditor) Error() *form.ValidationError {
	return e.err
}

// Focused returns the name of the focused item.
func (e *FormEditor) Focused() string {
	if e.focus < 0 || e.focus >= len(e.items) {
		return ""
	}
	return e.items[e.focus].name
}

// Typing reports whether a text input has focus.
func (e *FormEditor) Typing() bool {
	return e.focus < len(e.items) && e.items[e.focus].kind == itemInput
}

// Update handles a key press and returns the id of a button that was
// pressed, or "".
func (e *FormEditor) Update(msg tea.KeyMsg) (tea.Cmd, string) {
	if len(e.items) == 0 {
		return nil, ""
	}
	it := e.items[e.focus]

	switch msg.String() {
	case "tab", "down":
		return e.setFocus(e.focus + 1), ""
	case "shift+tab", "up":
		return e.setFocus(e.focus - 1), ""
	}

	switch it.kind {
	case itemInput:
		if msg.String() == "enter" {
			return e.setFocus(e.focus + 1), ""
		}
		var cmd tea.Cmd
		it.input, cmd = it.input.Update(msg)
		e.Form.Set(it.name, it.input.Value())
		if e.err != nil && e.err.Field == it.name {
			e.err = nil
			if fld := e.Form.Field(it.name); fld != nil {
				if err := fld.Check(); err != nil {
					e.err, _ = err.(*form.ValidationError)
				}
			}
		}
		return cmd, ""

	case itemCheckbox:
		switch msg.String() {
		case " ", "enter", "x":
			e.Form.SetChecked(it.name, !e.Form.Checked(it.name))
		}

	case itemRadio:
		switch msg.String() {
		case "left", "h":
			e.cycle(it.name, -1)
		case "right", "l", " ":
			e.cycle(it.name, 1)
		}

	case itemButton:
		if msg.String() == "enter" || msg.String() == " " {
			if it.disabled {
				return nil, ""
			}
			return nil, it.name
		}
	}
	return nil, ""
}

func (e *FormEditor) cycle(name string, delta int) {
	opts := e.Form.Options(name)
	if len(opts) == 0 {
		return
	}
	cur := -1
	for i, o := range opts {
		if o.Checked {
			cur = i
		}
	}
	next := (cur + delta + len(opts)) % len(opts)
	if cur < 0 {
		next = 0
	}
	e.Form.Select(name, opts[next].Value)
	if e.err != nil && e.err.Field == name {
		e.err = nil
	}
}

func (e *FormEditor) setFocus(i int) tea.Cmd {
	n := len(e.items)
	if n == 0 {
		return nil
	}
	e.focus = (i%n + n) % n
	var cmd tea.Cmd
	for j, it := range e.items {
		if it.kind != itemInput {
			continue
		}
		if j == e.focus {
			cmd = it.input.Focus()
		} else {
			it.input.Blur()
		}
	}
	return cmd
}

func (e *FormEditor) focusField(name string) {
	for i, it := range e.items {
		if it.name == name && it.kind != itemButton {
			e.setFocus(i)
			return
		}
	}
}

// View renders the fields, the inline error and the button row.
func (e *FormEditor) View() string {
	width := 0
	for _, it := range e.items {
		if it.kind != itemButton && len(it.label) > width {
			width = len(it.label)
		}
	}

	var b strings.Builder
	var buttons []string
	for i, it := range e.items {
		focused := i == e.focus
		if it.kind == itemButton {
			buttons = append(buttons, RenderButton(it.label, focused, it.disabled))
			continue
		}

		label := padRight(it.label, width)
		if focused {
			b.WriteString(FocusedStyle.Render("› " + label))
		} else {
			b.WriteString(LabelStyle.Render("  " + label))
		}
		b.WriteString("  ")

		switch it.kind {
		case itemInput:
			b.WriteString(it.input.View())
		case itemCheckbox:
			box := "[ ]"
			if e.Form.Checked(it.name) {
				box = "[x]"
			}
			b.WriteString(box)
		case itemRadio:
			var opts []string
			for _, o := range e.Form.Options(it.name) {
				if o.Checked {
					opts = append(opts, FocusedStyle.Render("(•) "+o.Value))
				} else {
					opts = append(opts, "( ) "+o.Value)
				}
			}
			b.WriteString(strings.Join(opts, "  "))
		}
		b.WriteString("\n")

		if e.err != nil && e.err.Field == it.name {
			b.WriteString(InlineErrorStyle.Render("    " + e.err.Error()))
			b.WriteString("\n")
		}
	}

	if len(buttons) > 0 {
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, buttons...))
	}
	return b.String()
}
