package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/logging"
	"github.com/muurk/ledsetup/internal/schedule"
	"github.com/muurk/ledsetup/internal/wifi"
)

const connectRequest = "wifi:connect"

// scanResultMsg carries the access points of one scan.
type scanResultMsg struct {
	aps []wifi.AccessPoint
	err error
}

// passwordPrompt asks for the password of a protected network.
type passwordPrompt struct {
	ssid  string
	rule  wifi.PasswordRule
	input textinput.Model
	err   string
}

// WiFiPage lists the networks the controller sees and connects it to one.
//
// While shown and idle it scans every ScanInterval. Scanning stops while a
// password is asked for or a connection is being made.
type WiFiPage struct {
	state *State

	config  deviceconfig.Section
	details deviceconfig.Section

	active   bool
	scanning bool
	inFlight bool
	scanTick *schedule.Timer

	table table.Model
	rows  []wifi.AccessPoint

	prompt *passwordPrompt

	connecting   string
	progress     wifi.Progress
	progressTick *schedule.Timer
	bar          progress.Model

	keys       listKeyMap
	promptKeys dialogKeyMap
}

func NewWiFiPage(s *State) *WiFiPage {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Network", Width: 28},
			{Title: "Security", Width: 14},
			{Title: "Signal", Width: 7},
			{Title: "Status", Width: 16},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(TextColor).
		Background(PrimaryColor)
	t.SetStyles(styles)

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return &WiFiPage{
		state:        s,
		scanTick:     schedule.New("wifi-scan"),
		progressTick: schedule.New("wifi-connect-progress"),
		table:        t,
		bar:          bar,
		keys:         newListKeyMap(),
		promptKeys:   newDialogKeyMap("connect", "cancel"),
	}
}

func (p *WiFiPage) ID() string            { return PageWiFi }
func (p *WiFiPage) Title() string         { return "WiFi" }
func (p *WiFiPage) ConfigSection() string { return deviceconfig.SectionWiFi }

// Activate shows "Scanning..." until the first scan completes and starts
// scanning.
func (p *WiFiPage) Activate() tea.Cmd {
	p.active = true
	p.scanning = true
	return p.scanTick.After(0)
}

// Deactivate stops scanning. Calling it on a hidden page is harmless.
func (p *WiFiPage) Deactivate() {
	p.active = false
	p.scanTick.Cancel()
}

// OnConfigUpdate always keeps the section; the station details and the
// connected row are only refreshed while the page is shown.
func (p *WiFiPage) OnConfigUpdate(section deviceconfig.Section, samePage bool) {
	p.config = section
	if !samePage {
		return
	}
	p.details = section
	p.render()
}

// Scanning reports whether a scan is scheduled or running.
func (p *WiFiPage) Scanning() bool {
	return p.scanTick.Pending() || p.inFlight
}

// Connecting returns the SSID being connected to, if any.
func (p *WiFiPage) Connecting() string {
	return p.connecting
}

func (p *WiFiPage) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case schedule.FiredMsg:
		switch {
		case p.scanTick.Fire(msg):
			return p.scan()
		case p.progressTick.Fire(msg):
			return p.advance()
		}
		return nil

	case scanResultMsg:
		return p.handleScan(msg)

	case requestDoneMsg:
		if msg.id != connectRequest {
			return nil
		}
		return p.handleConnect(msg)

	case tea.KeyMsg:
		if p.prompt != nil {
			return p.updatePrompt(msg)
		}
		if p.connecting != "" {
			return nil
		}
		return p.updateList(msg)
	}
	return nil
}

func (p *WiFiPage) scan() tea.Cmd {
	p.inFlight = true
	api := p.state.API
	timeout := p.state.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		aps, err := api.ScanWiFi(ctx)
		return scanResultMsg{aps: aps, err: err}
	}
}

func (p *WiFiPage) handleScan(msg scanResultMsg) tea.Cmd {
	p.inFlight = false
	if msg.err != nil {
		logging.Warn("WiFi scan failed", zap.Error(msg.err))
	} else {
		p.scanning = false
		added := p.state.Networks.Merge(msg.aps)
		logging.Debug("WiFi scan",
			zap.Int("seen", len(msg.aps)),
			zap.Int("new", added),
			zap.Int("known", p.state.Networks.Len()),
		)
		// the table is rebuilt, so the connected row is marked again from
		// the latest section
		p.details = p.config
		p.render()
	}
	if !p.idle() {
		return nil
	}
	return p.scanTick.After(p.state.ScanInterval)
}

// idle reports whether the page is shown with no dialog open.
func (p *WiFiPage) idle() bool {
	return p.active && p.prompt == nil && p.connecting == ""
}

func (p *WiFiPage) render() {
	list := p.state.Networks.List()
	current := p.details.String("ssid")
	status := deviceconfig.WiFiStatus(p.details)

	rows := make([]table.Row, 0, len(list))
	for _, ap := range list {
		state := ""
		if current != "" && ap.SSID == current {
			state = status
			if raw, _ := p.details.Int("status_raw"); raw == wifi.StatusConnected {
				state = "✓ " + status
			}
		}
		rows = append(rows, table.Row{ap.SSID, ap.AuthName(), strconv.Itoa(ap.Quality) + "%", state})
	}
	p.rows = list
	p.table.SetRows(rows)
	if p.table.Cursor() >= len(rows) && len(rows) > 0 {
		p.table.SetCursor(len(rows) - 1)
	}
}

func (p *WiFiPage) updateList(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		i := p.table.Cursor()
		if i < 0 || i >= len(p.rows) {
			return nil
		}
		return p.choose(p.rows[i])
	case "r":
		if p.inFlight {
			return nil
		}
		return p.scanTick.After(0)
	}
	var cmd tea.Cmd
	p.table, cmd = p.table.Update(msg)
	return cmd
}

// choose starts connecting to ap, asking for a password first unless the
// network is open. The network already in use cannot be chosen.
func (p *WiFiPage) choose(ap wifi.AccessPoint) tea.Cmd {
	if current := p.details.String("ssid"); current != "" && current == ap.SSID {
		return nil
	}
	p.scanTick.Cancel()

	rule := wifi.RuleFor(ap.AuthRaw)
	if !rule.Required {
		return p.connect(ap.SSID, "")
	}

	input := textinput.New()
	input.Placeholder = "password"
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.CharLimit = rule.MaxLength
	input.Width = 30
	p.prompt = &passwordPrompt{ssid: ap.SSID, rule: rule, input: input}
	return p.prompt.input.Focus()
}

func (p *WiFiPage) updatePrompt(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		p.prompt = nil
		if !p.active {
			return nil
		}
		return p.scanTick.After(0)

	case "enter":
		password := p.prompt.input.Value()
		if err := p.prompt.rule.Check(password); err != nil {
			p.prompt.err = err.Error()
			return nil
		}
		ssid := p.prompt.ssid
		p.prompt = nil
		return p.connect(ssid, password)
	}

	var cmd tea.Cmd
	p.prompt.input, cmd = p.prompt.input.Update(msg)
	p.prompt.err = ""
	return cmd
}

// connect shows the progress dialog and sends the credentials. The
// progress bar runs on its own schedule; it does not follow the request.
func (p *WiFiPage) connect(ssid, password string) tea.Cmd {
	logging.Info("Connecting controller to WiFi", zap.String("ssid", ssid))
	p.state.Notifier.AjaxClean()
	p.connecting = ssid
	p.progress.Start()

	api := p.state.API
	update := deviceconfig.Document{
		deviceconfig.SectionWiFi: deviceconfig.Section{"ssid": ssid, "password": password},
	}
	send := p.state.request(connectRequest, api.URI(deviceconfig.ActionConfig), func(ctx context.Context) error {
		return api.UpdateConfig(ctx, update)
	})
	return tea.Batch(p.progressTick.After(wifi.ProgressInterval), send)
}

func (p *WiFiPage) advance() tea.Cmd {
	if p.progress.Advance() {
		return p.progressTick.After(wifi.ProgressInterval)
	}
	// time is up: close the dialog and look at the networks again
	p.connecting = ""
	if !p.active {
		return nil
	}
	return p.scanTick.After(0)
}

func (p *WiFiPage) handleConnect(msg requestDoneMsg) tea.Cmd {
	if msg.err == nil {
		logging.Info("WiFi credentials accepted", zap.String("ssid", p.connecting))
		return p.state.Poller.Refresh()
	}
	p.state.Failed(msg.uri, msg.err)
	p.progress.Stop()
	p.progressTick.Cancel()
	p.connecting = ""
	if !p.active {
		return nil
	}
	return p.scanTick.After(0)
}

func (p *WiFiPage) Modal() (string, bool) {
	switch {
	case p.prompt != nil:
		var b strings.Builder
		b.WriteString(RenderTitle("Password for " + p.prompt.ssid))
		b.WriteString("\n")
		b.WriteString(p.prompt.input.View())
		b.WriteString("\n")
		if p.prompt.err != "" {
			b.WriteString(InlineErrorStyle.Render(p.prompt.err))
		} else {
			b.WriteString(LabelStyle.Render(fmt.Sprintf("%d to %d characters", p.prompt.rule.MinLength, p.prompt.rule.MaxLength)))
		}
		return b.String(), true

	case p.connecting != "":
		var b strings.Builder
		b.WriteString(RenderTitle("Connecting to " + p.connecting))
		b.WriteString("\n")
		b.WriteString(p.bar.ViewAs(p.progress.Fraction()))
		b.WriteString("\n\n")
		b.WriteString(SubtitleStyle.Render("The controller may drop off the network while it switches."))
		return b.String(), true
	}
	return "", false
}

func (p *WiFiPage) Keys() help.KeyMap {
	if p.prompt != nil {
		return p.promptKeys
	}
	return p.keys
}

func (p *WiFiPage) View() string {
	var b strings.Builder
	b.WriteString(RenderTitle("WiFi"))
	b.WriteString("\n")

	if p.details != nil {
		b.WriteString(keyValue([][2]string{
			{"MAC", orDash(p.details.String("mac"))},
			{"Mode", orDash(p.details.String("mode"))},
			{"Status", deviceconfig.WiFiStatus(p.details)},
		}))
		b.WriteString("\n\n")
	}

	if p.scanning || len(p.rows) == 0 {
		b.WriteString(SpinnerStyle.Render("Scanning..."))
		return b.String()
	}
	b.WriteString(p.table.View())
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
