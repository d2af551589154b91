package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/form"
	"github.com/muurk/ledsetup/internal/logging"
	"github.com/muurk/ledsetup/internal/router"
)

// Page fragments in wizard order.
const (
	PageWelcome = router.Welcome
	PageWiFi    = "#wifi"
	PageStrip   = "#strip"
	PageMQTT    = "#mqtt"
	PageHTTP    = "#http"
	PageDone    = "#done"
)

// wizardPage is what the shell needs from every page on top of routing.
// Pages receive every non-key message and only the key messages sent
// while they are shown; they ignore what is not theirs.
type wizardPage interface {
	router.Page
	Update(msg tea.Msg) tea.Cmd
	View() string
	// Modal returns the content of an open dialog, if any. Dialogs take
	// all key input.
	Modal() (string, bool)
	Keys() help.KeyMap
}

// NewPages creates the wizard pages in navigation order.
func NewPages(s *State) []wizardPage {
	return []wizardPage{
		NewWelcomePage(s),
		NewWiFiPage(s),
		NewStripPage(s),
		NewMQTTPage(s),
		NewHTTPPage(s),
		NewDonePage(s),
	}
}

// nextPage navigates to the page after id, if there is one.
func nextPage(s *State, id string) tea.Cmd {
	next, ok := s.Router.Next(id)
	if !ok {
		return nil
	}
	return router.Go(next)
}

// WelcomePage introduces the wizard and shows what the controller reports
// about itself.
type WelcomePage struct {
	state *State
	misc  deviceconfig.Section
	keys  actionKeyMap
}

func NewWelcomePage(s *State) *WelcomePage {
	return &WelcomePage{state: s, keys: newActionKeyMap("start")}
}

func (p *WelcomePage) ID() string    { return PageWelcome }
func (p *WelcomePage) Title() string { return "Welcome" }

func (p *WelcomePage) ConfigSection() string { return deviceconfig.SectionMisc }

func (p *WelcomePage) OnConfigUpdate(section deviceconfig.Section, samePage bool) {
	p.misc = section
}

func (p *WelcomePage) Update(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "enter" {
		return nextPage(p.state, p.ID())
	}
	return nil
}

func (p *WelcomePage) Modal() (string, bool) { return "", false }
func (p *WelcomePage) Keys() help.KeyMap     { return p.keys }

func (p *WelcomePage) View() string {
	var b strings.Builder
	b.WriteString(RenderTitle("Welcome"))
	b.WriteString("\n")
	b.WriteString("This wizard connects your LED controller to WiFi and sets up\n")
	b.WriteString("the LED strip, MQTT and the built-in web server.\n\n")

	if p.misc == nil {
		b.WriteString(SubtitleStyle.Render("Waiting for the controller..."))
	} else {
		name := p.misc.String("name")
		if name == "" {
			name = "(unnamed)"
		}
		state := WarningStyle.Render("not configured")
		if p.misc.Bool("configured") {
			state = SuccessStyle.Render("configured")
		}
		b.WriteString(InfoBoxStyle.Render(keyValue([][2]string{
			{"Controller", name},
			{"State", state},
		})))
	}
	b.WriteString("\n\n")
	b.WriteString(RenderButton("Start", true, false))
	return b.String()
}

// ServicePage edits an optional service such as MQTT or the HTTP server.
// When the service is disabled, Next skips validation and submission.
type ServicePage struct {
	state   *State
	id      string
	title   string
	section string
	intro   string
	editor  *FormEditor
	keys    formKeyMap

	// loaded is set once a config update has filled the form. Until then
	// updates reach the form even while the page is shown.
	loaded bool
	config deviceconfig.Section
	saving bool
}

func newServicePage(s *State, id, title, section, intro string, f *form.Form) *ServicePage {
	return &ServicePage{
		state:   s,
		id:      id,
		title:   title,
		section: section,
		intro:   intro,
		editor:  NewFormEditor(f, [2]string{"next", "Next"}),
		keys:    newFormKeyMap(),
	}
}

// NewMQTTPage edits the mqtt section.
func NewMQTTPage(s *State) *ServicePage {
	return newServicePage(s, PageMQTT, "MQTT", deviceconfig.SectionMQTT,
		"Publish the strip state and accept commands through an MQTT broker.", MQTTForm())
}

// MQTTForm is the form behind the MQTT page.
func MQTTForm() *form.Form {
	return form.New("mqtt_form", "PUT", deviceconfig.ActionConfig, deviceconfig.SectionMQTT).Add(
		&form.Field{Name: "enabled", Label: "Enabled", Kind: form.KindCheckbox},
		&form.Field{Name: "host", Label: "Broker host", Kind: form.KindText, Required: true, MaxLength: 64},
		&form.Field{Name: "username", Label: "Username", Kind: form.KindText, MaxLength: 32},
		&form.Field{Name: "password", Label: "Password", Kind: form.KindPassword, MaxLength: 64},
		&form.Field{Name: "client_id", Label: "Client ID", Kind: form.KindText, Required: true, MaxLength: 32},
		&form.Field{Name: "status_topic", Label: "Status topic", Kind: form.KindText, Required: true, MaxLength: 64},
		&form.Field{Name: "control_topic", Label: "Control topic", Kind: form.KindText, Required: true, MaxLength: 64},
	)
}

// NewHTTPPage edits the http section.
func NewHTTPPage(s *State) *ServicePage {
	return newServicePage(s, PageHTTP, "HTTP", deviceconfig.SectionHTTP,
		"Protect the controller's web interface with a username and password.", HTTPForm())
}

// HTTPForm is the form behind the HTTP page.
func HTTPForm() *form.Form {
	return form.New("http_form", "PUT", deviceconfig.ActionConfig, deviceconfig.SectionHTTP).Add(
		&form.Field{Name: "enabled", Label: "Enabled", Kind: form.KindCheckbox},
		&form.Field{Name: "username", Label: "Username", Kind: form.KindText, Required: true, MaxLength: 32},
		&form.Field{Name: "password", Label: "Password", Kind: form.KindPassword, Required: true, MinLength: 4, MaxLength: 64},
	)
}

func (p *ServicePage) ID() string            { return p.id }
func (p *ServicePage) Title() string         { return p.title }
func (p *ServicePage) ConfigSection() string { return p.section }

func (p *ServicePage) OnConfigUpdate(section deviceconfig.Section, samePage bool) {
	p.config = section
	if samePage && p.loaded {
		return
	}
	p.loaded = true
	p.editor.Load(section)
}

func (p *ServicePage) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case requestDoneMsg:
		if msg.id != p.editor.Form.ID {
			return nil
		}
		p.saving = false
		p.editor.SetButtonDisabled("next", false)
		if msg.err != nil {
			p.state.Failed(msg.uri, msg.err)
			return nil
		}
		logging.Info("Section saved", zap.String("section", p.section))
		return nextPage(p.state, p.id)

	case tea.KeyMsg:
		cmd, pressed := p.editor.Update(msg)
		if pressed == "next" {
			return p.next()
		}
		return cmd
	}
	return nil
}

func (p *ServicePage) next() tea.Cmd {
	if p.saving {
		return nil
	}
	if !p.editor.Checked("enabled") {
		return nextPage(p.state, p.id)
	}
	if !p.editor.Validate() {
		return nil
	}
	p.saving = true
	p.editor.SetButtonDisabled("next", true)
	return p.state.Submit(p.editor.Form)
}

// Saving reports whether a submission is in flight.
func (p *ServicePage) Saving() bool { return p.saving }

func (p *ServicePage) Modal() (string, bool) { return "", false }
func (p *ServicePage) Keys() help.KeyMap     { return p.keys }

func (p *ServicePage) View() string {
	var b strings.Builder
	b.WriteString(RenderTitle(p.title))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render(p.intro))
	b.WriteString("\n\n")
	b.WriteString(p.editor.View())
	if p.saving {
		b.WriteString("\n")
		b.WriteString(SpinnerStyle.Render("Saving..."))
	}
	return b.String()
}

// DonePage summarizes the setup and tells the controller to leave setup
// mode.
type DonePage struct {
	state    *State
	keys     actionKeyMap
	ssid     string
	ip       string
	http     bool
	mqtt     bool
	busy     bool
	finished bool
}

func NewDonePage(s *State) *DonePage {
	p := &DonePage{state: s, keys: newActionKeyMap("finish")}
	p.summarize()
	return p
}

func (p *DonePage) ID() string            { return PageDone }
func (p *DonePage) Title() string         { return "Done" }
func (p *DonePage) ConfigSection() string { return deviceconfig.SectionWiFi }

// OnConfigUpdate reads the whole cached document, not just the wifi section.
func (p *DonePage) OnConfigUpdate(section deviceconfig.Section, samePage bool) {
	p.summarize()
}

func (p *DonePage) Activate() tea.Cmd {
	p.summarize()
	return nil
}

func (p *DonePage) summarize() {
	doc := p.state.Doc
	w := doc.Section(deviceconfig.SectionWiFi)
	if w.Bool("connected") {
		p.ssid = w.String("ssid")
		p.ip = w.Sub("ifconfig").String("ip")
	} else {
		p.ssid = "Not Connected"
		p.ip = "N/A"
	}
	p.http = doc.Section(deviceconfig.SectionHTTP).Bool("enabled")
	p.mqtt = doc.Section(deviceconfig.SectionMQTT).Bool("enabled")
}

const finishRequest = "done:finish"

func (p *DonePage) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case requestDoneMsg:
		if msg.id != finishRequest {
			return nil
		}
		p.busy = false
		if msg.err != nil {
			p.state.Failed(msg.uri, msg.err)
			return nil
		}
		p.finished = true
		// the controller leaves setup mode, so it stops answering here
		p.state.Poller.Stop()
		logging.Info("Setup finished")
		return nil

	case tea.KeyMsg:
		if msg.String() != "enter" || p.busy || p.finished {
			return nil
		}
		p.busy = true
		p.state.Notifier.AjaxClean()
		api := p.state.API
		return p.state.request(finishRequest, api.URI(deviceconfig.ActionFinishSetup), api.FinishSetup)
	}
	return nil
}

func (p *DonePage) Modal() (string, bool) { return "", false }
func (p *DonePage) Keys() help.KeyMap     { return p.keys }

func (p *DonePage) View() string {
	var b strings.Builder
	b.WriteString(RenderTitle("All done"))
	b.WriteString("\n")
	b.WriteString(InfoBoxStyle.Render(keyValue([][2]string{
		{"WiFi", p.ssid},
		{"IP address", p.ip},
		{"HTTP server", formatBool(p.http)},
		{"MQTT", formatBool(p.mqtt)},
	})))
	b.WriteString("\n\n")

	switch {
	case p.finished:
		b.WriteString(SuccessStyle.Render("✓ Setup complete. The controller is leaving setup mode."))
	case p.busy:
		b.WriteString(SpinnerStyle.Render("Finishing..."))
	default:
		b.WriteString(RenderButton("Finish", true, false))
		if p.ip != "N/A" {
			b.WriteString("\n")
			b.WriteString(LabelStyle.Render(fmt.Sprintf("After finishing, the controller is reachable at http://%s/", p.ip)))
		}
	}
	return b.String()
}
