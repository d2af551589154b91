package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/ledsetup/internal/discovery"
	"github.com/muurk/ledsetup/internal/logging"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenDiscovery Screen = "discovery"
	ScreenWizard    Screen = "wizard"
)

// AppConfig wires the application to the outside world.
type AppConfig struct {
	Options Options

	// API, when set, skips discovery and starts the wizard on it.
	API DeviceAPI

	// Connect creates a client for a device picked on the discovery
	// screen. Required unless API is set.
	Connect func(baseURL string) (DeviceAPI, error)

	// OnSelect is told about the device picked on the discovery screen,
	// for example to remember it.
	OnSelect func(device *discovery.Device)

	ScanTimeout time.Duration
}

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	CurrentScreen Screen

	DiscoveryModel DiscoveryModel
	WizardModel    WizardModel

	SelectedDevice *discovery.Device
	LastError      error

	config AppConfig

	Width  int
	Height int
}

// NewAppModel creates the application, starting at discovery unless the
// device is already known.
func NewAppModel(cfg AppConfig) (AppModel, error) {
	m := AppModel{config: cfg}
	if cfg.API == nil {
		if cfg.Connect == nil {
			return AppModel{}, fmt.Errorf("either a device client or a connect function is required")
		}
		m.CurrentScreen = ScreenDiscovery
		m.DiscoveryModel = NewDiscoveryModel(cfg.ScanTimeout)
		return m, nil
	}

	wizard, err := NewWizardModel(cfg.API, cfg.Options)
	if err != nil {
		return AppModel{}, err
	}
	m.CurrentScreen = ScreenWizard
	m.WizardModel = wizard
	return m, nil
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		return m.DiscoveryModel.Init()
	case ScreenWizard:
		return m.WizardModel.Init()
	default:
		return nil
	}
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.Width = size.Width
		m.Height = size.Height
	}
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "ctrl+c" {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	switch m.CurrentScreen {
	case ScreenDiscovery:
		if k, ok := msg.(tea.KeyMsg); ok && !m.DiscoveryModel.ManualMode && !m.DiscoveryModel.Scanning {
			if k.String() == "q" || k.String() == "esc" {
				return m, tea.Quit
			}
		}

		m.DiscoveryModel, cmd = m.DiscoveryModel.Update(msg)
		if device := m.DiscoveryModel.GetSelectedDevice(); device != nil {
			return m.startWizard(device)
		}

	case ScreenWizard:
		m.WizardModel, cmd = m.WizardModel.Update(msg)
	}
	return m, cmd
}

// startWizard connects to the picked device and switches to the wizard.
// On failure the discovery screen stays, showing the error.
func (m AppModel) startWizard(device *discovery.Device) (tea.Model, tea.Cmd) {
	m.DiscoveryModel.Selected = false

	api, err := m.config.Connect(device.BaseURL())
	if err != nil {
		m.LastError = err
		m.DiscoveryModel.Err = err
		return m, nil
	}

	opts := m.config.Options
	opts.Device = fmt.Sprintf("%s • %s", device.Name(), device.BaseURL())
	wizard, err := NewWizardModel(api, opts)
	if err != nil {
		m.LastError = err
		m.DiscoveryModel.Err = err
		return m, nil
	}

	logging.Info("Controller selected",
		zap.String("name", device.Name()),
		zap.String("base_url", device.BaseURL()),
	)
	if m.config.OnSelect != nil {
		m.config.OnSelect(device)
	}

	m.SelectedDevice = device
	m.CurrentScreen = ScreenWizard
	wizard.Width = m.Width
	wizard.Height = m.Height
	wizard.Help.Width = m.Width
	m.WizardModel = wizard
	return m, m.WizardModel.Init()
}

// View renders the current screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		return m.DiscoveryModel.View()
	case ScreenWizard:
		return m.WizardModel.View()
	default:
		return "Unknown screen"
	}
}
