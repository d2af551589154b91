package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/form"
	"github.com/muurk/ledsetup/internal/logging"
	"github.com/muurk/ledsetup/internal/schedule"
)

// TestCooldown is how long the test buttons stay disabled after a test
// starts, while the controller runs the pattern.
var TestCooldown = 3 * time.Second

const testRequest = "strip:test"

// StripPage sets the strip length and color layout, and can light the
// strip with unsaved settings.
type StripPage struct {
	state  *State
	editor *FormEditor
	keys   formKeyMap

	saving bool
	loaded bool

	testOpen   bool
	testing    bool
	cooldown   *schedule.Timer
	testKeys   dialogKeyMap
	lastResult string
}

// StripForm is the form behind the LED page: a count and one radio per
// strip type.
func StripForm() *form.Form {
	f := form.New("led_form", "PUT", deviceconfig.ActionConfig, deviceconfig.SectionLED).Add(
		&form.Field{
			Name: "cnt", Label: "LED count", Kind: form.KindNumber,
			Required: true, HasRange: true, Min: 1, Max: deviceconfig.MaxLEDs, MaxLength: 4,
		},
	)
	for _, t := range deviceconfig.LEDTypes {
		f.Add(&form.Field{Name: "type", Label: "LED type", Kind: form.KindRadio, Value: t, Required: true})
	}
	return f
}

func NewStripPage(s *State) *StripPage {
	return &StripPage{
		state:    s,
		editor:   NewFormEditor(StripForm(), [2]string{"test", "Test"}, [2]string{"next", "Next"}),
		keys:     newFormKeyMap(),
		cooldown: schedule.New("strip-test-cooldown"),
		testKeys: newDialogKeyMap("run test", "close"),
	}
}

func (p *StripPage) ID() string            { return PageStrip }
func (p *StripPage) Title() string         { return "LED Strip" }
func (p *StripPage) ConfigSection() string { return deviceconfig.SectionLED }

// OnConfigUpdate fills the form unless the page is shown and already
// filled.
func (p *StripPage) OnConfigUpdate(section deviceconfig.Section, samePage bool) {
	if samePage && p.loaded {
		return
	}
	p.loaded = true
	p.editor.Load(section)
}

// Form returns the page's form.
func (p *StripPage) Form() *form.Form {
	return p.editor.Form
}

// TestEnabled reports whether the test dialog accepts input.
func (p *StripPage) TestEnabled() bool {
	return !p.testing
}

func (p *StripPage) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case schedule.FiredMsg:
		if p.cooldown.Fire(msg) {
			p.setTesting(false)
		}
		return nil

	case requestDoneMsg:
		switch msg.id {
		case testRequest:
			return p.handleTest(msg)
		case p.editor.Form.ID:
			return p.handleSave(msg)
		}
		return nil

	case tea.KeyMsg:
		if p.testOpen {
			return p.updateTest(msg)
		}
		cmd, pressed := p.editor.Update(msg)
		switch pressed {
		case "test":
			if p.editor.Validate() {
				p.testOpen = true
				p.lastResult = ""
			}
			return nil
		case "next":
			return p.save()
		}
		return cmd
	}
	return nil
}

func (p *StripPage) save() tea.Cmd {
	if p.saving || !p.editor.Validate() {
		return nil
	}
	p.saving = true
	p.editor.SetButtonDisabled("next", true)
	return p.state.Submit(p.editor.Form)
}

func (p *StripPage) handleSave(msg requestDoneMsg) tea.Cmd {
	p.saving = false
	p.editor.SetButtonDisabled("next", false)
	if msg.err != nil {
		p.state.Failed(msg.uri, msg.err)
		return nil
	}
	logging.Info("Section saved", zap.String("section", deviceconfig.SectionLED))
	return nextPage(p.state, p.ID())
}

func (p *StripPage) updateTest(msg tea.KeyMsg) tea.Cmd {
	if p.testing {
		return nil
	}
	switch msg.String() {
	case "esc":
		p.testOpen = false
	case "enter":
		return p.runTest()
	}
	return nil
}

// runTest sends the values on screen, saved or not, to the test endpoint.
func (p *StripPage) runTest() tea.Cmd {
	p.state.Notifier.AjaxClean()
	p.setTesting(true)

	api := p.state.API
	params := p.editor.Form.Serialize()
	return p.state.request(testRequest, api.URI(api.StripTestAction()), func(ctx context.Context) error {
		return api.TestStrip(ctx, params)
	})
}

func (p *StripPage) handleTest(msg requestDoneMsg) tea.Cmd {
	if msg.err != nil {
		p.setTesting(false)
		p.testOpen = false
		p.state.Failed(msg.uri, msg.err)
		return nil
	}
	p.lastResult = "Test running..."
	return p.cooldown.After(TestCooldown)
}

func (p *StripPage) setTesting(on bool) {
	p.testing = on
	p.editor.SetButtonDisabled("test", on)
	if !on && p.lastResult != "" {
		p.lastResult = "Test finished."
	}
}

func (p *StripPage) Modal() (string, bool) {
	if !p.testOpen {
		return "", false
	}
	var b strings.Builder
	b.WriteString(RenderTitle("Test LED strip"))
	b.WriteString("\n")
	b.WriteString(keyValue([][2]string{
		{"LED count", p.editor.Value("cnt")},
		{"LED type", p.editor.Value("type")},
	}))
	b.WriteString("\n\n")
	b.WriteString("The strip should light up with a test pattern.\n")
	b.WriteString("The settings are not saved.\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		RenderButton("Run Test", !p.testing, p.testing),
		" ",
		RenderButton("Close", false, p.testing),
	))
	if p.lastResult != "" {
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render(p.lastResult))
	}
	return b.String(), true
}

func (p *StripPage) Keys() help.KeyMap {
	if p.testOpen {
		return p.testKeys
	}
	return p.keys
}

func (p *StripPage) View() string {
	var b strings.Builder
	b.WriteString(RenderTitle("LED Strip"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("Number of LEDs and their color layout, as printed on the strip."))
	b.WriteString("\n\n")
	b.WriteString(p.editor.View())
	if p.saving {
		b.WriteString("\n")
		b.WriteString(SpinnerStyle.Render("Saving..."))
	}
	return b.String()
}
