package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/ledsetup/internal/config"
	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/discovery"
	"github.com/muurk/ledsetup/internal/logging"
	"github.com/muurk/ledsetup/internal/ui"
	"github.com/muurk/ledsetup/internal/wifi"
	"github.com/muurk/ledsetup/internal/wizard/tui"
)

var (
	scanTimeout time.Duration
	discover    bool
	startPage   string
)

func init() {
	rootCmd.AddCommand(wizardCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(wifiScanCmd)

	scanCmd.Flags().DurationVar(&scanTimeout, "scan-timeout", discovery.DefaultScanTimeout, "How long to listen for mDNS answers")
	wizardCmd.Flags().BoolVar(&discover, "discover", false, "Find controllers on the network before starting")
	wizardCmd.Flags().DurationVar(&scanTimeout, "scan-timeout", discovery.DefaultScanTimeout, "How long to listen for mDNS answers")
	wizardCmd.Flags().StringVar(&startPage, "page", "", "First page to show (#wifi, #strip, #mqtt, #http, #done)")
}

// newClient builds a REST client for baseURL with the effective settings
// applied.
func newClient(baseURL string) (*deviceconfig.Client, error) {
	client, err := deviceconfig.NewClient(baseURL)
	if err != nil {
		return nil, err
	}
	client.SetTimeout(settings.Timeout)
	client.SetAuth(settings.Username, settings.Password)
	client.SetRetry(2, deviceconfig.DefaultRetryDelay)
	client.LegacyAPI = settings.LegacyAPI
	return client, nil
}

// resolveClient picks the controller from flags, the registry or the
// default setup address.
func resolveClient() (*deviceconfig.Client, *config.Registry, error) {
	reg, err := config.LoadRegistry()
	if err != nil {
		logging.Warn("Device registry unreadable, starting fresh", zap.Error(err))
		reg = config.NewRegistry()
	}
	baseURL, err := settings.ResolveBaseURL(reg)
	if err != nil {
		return nil, reg, err
	}
	client, err := newClient(baseURL)
	return client, reg, err
}

// remember records a controller that answered, so later runs find it
// without flags.
func remember(reg *config.Registry, name, baseURL string) {
	if reg == nil {
		return
	}
	if name == "" {
		name = hostOf(baseURL)
	}
	reg.Remember(name, baseURL).LegacyAPI = settings.LegacyAPI
	if err := reg.Save(); err != nil {
		logging.Warn("Failed to save device registry", zap.Error(err))
	}
}

func hostOf(baseURL string) string {
	host := strings.TrimPrefix(strings.TrimPrefix(baseURL, "http://"), "https://")
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return host
}

// requestContext bounds a single CLI command.
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 3*settings.Timeout)
}

// wizardCmd launches the interactive TUI wizard
var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Launch interactive setup wizard",
	Long: `Launch the interactive setup wizard.

The wizard polls the controller's configuration and walks through:
- Choosing a WiFi network from live scan results
- Setting the LED count and strip type, with a test pattern
- Configuring MQTT and HTTP access
- Finishing setup

This is the recommended way to set up a controller.`,
	Example: `  # Controller in setup mode (connect to its access point first)
  ledsetup-cfg

  # Controller already on your network
  ledsetup-cfg wizard --base-url 192.168.1.50

  # Find controllers with mDNS first
  ledsetup-cfg wizard --discover`,
	RunE: runWizard,
}

func runWizard(cmd *cobra.Command, args []string) error {
	opts := tui.Options{
		ScanInterval: settings.ScanInterval,
		PollBackoff:  settings.PollBackoff,
		Timeout:      settings.Timeout,
		Start:        startPage,
	}

	client, reg, err := resolveClient()
	if err != nil {
		return err
	}

	appCfg := tui.AppConfig{
		Options:     opts,
		ScanTimeout: scanTimeout,
		Connect: func(baseURL string) (tui.DeviceAPI, error) {
			c, err := newClient(baseURL)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		OnSelect: func(d *discovery.Device) {
			remember(reg, d.Name(), d.BaseURL())
		},
	}
	if !discover {
		appCfg.API = client
		appCfg.Options.Device = client.BaseURL
		remember(reg, settings.Device, client.BaseURL)
	}

	model, err := tui.NewAppModel(appCfg)
	if err != nil {
		return err
	}

	logging.Info("Starting wizard", zap.Bool("discover", discover), zap.String("base_url", client.BaseURL))
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("wizard error: %w", err)
	}
	return nil
}

// showCmd displays current controller configuration
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show controller configuration",
	Long: `Display the current configuration of a controller: WiFi status, LED
strip, MQTT, HTTP and device information. Passwords are masked except in
JSON output.`,
	Example: `  # Show config of the controller in setup mode
  ledsetup-cfg show

  # Compact output format
  ledsetup-cfg show --base-url 192.168.1.50 --format compact

  # JSON output for scripting
  ledsetup-cfg show --format json`,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	client, reg, err := resolveClient()
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	doc, err := client.GetConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to get configuration: %w", err)
	}
	remember(reg, settings.Device, client.BaseURL)

	switch outputFormat {
	case "compact":
		fmt.Println(doc.FormatCompact())
	case "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	case "detailed":
		fallthrough
	default:
		fmt.Println(doc.FormatDetailed())
	}
	return nil
}

// scanCmd discovers controllers on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for controllers on the network",
	Long: `Scan for controllers using mDNS/DNS-SD discovery.

Controllers are recognized by their hostname or by an "api" TXT record.
Found controllers are remembered and can be selected later with --device.`,
	Example: `  # Scan for 5 seconds (default)
  ledsetup-cfg scan

  # Longer scan for busy networks
  ledsetup-cfg scan --scan-timeout 15s`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for controllers (timeout: %s)...\n\n", scanTimeout)

	devices, err := discovery.Scan(cmd.Context(), scanTimeout)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No controllers found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - A controller in setup mode is reached through its own access point")
		fmt.Println("    at " + deviceconfig.DefaultBaseURL + "; no scan is needed")
		fmt.Println("  - Check that this computer and the controller share a network")
		fmt.Println("  - Try increasing --scan-timeout")
		fmt.Println("  - Use --base-url to specify the address manually")
		return nil
	}

	reg, err := config.LoadRegistry()
	if err != nil {
		reg = config.NewRegistry()
	}

	fmt.Printf("Found %d controller(s):\n\n", len(devices))
	for i, device := range devices {
		fmt.Printf("%d. %s\n", i+1, device.Name())
		fmt.Printf("   API:     %s\n", device.BaseURL())
		if device.Hostname != "" {
			fmt.Printf("   Host:    %s\n", device.Hostname)
		}
		if len(device.Metadata) > 0 {
			fmt.Printf("   TXT:     %v\n", device.Metadata)
		}
		fmt.Println()
		reg.Remember(device.Name(), device.BaseURL())
	}
	if err := reg.Save(); err != nil {
		logging.Warn("Failed to save device registry", zap.Error(err))
	}

	fmt.Println("Use 'ledsetup-cfg show --device <name>' to view a controller's configuration")
	fmt.Println("Use 'ledsetup-cfg wizard --device <name>' for interactive setup")
	return nil
}

// wifiScanCmd lists the access points a controller can see
var wifiScanCmd = &cobra.Command{
	Use:   "wifi-scan",
	Short: "List WiFi networks the controller can see",
	Long: `Ask the controller to scan for WiFi networks and list them, strongest
first. The network the controller is connected to is marked.`,
	RunE: runWiFiScan,
}

func runWiFiScan(cmd *cobra.Command, args []string) error {
	client, _, err := resolveClient()
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	var networks []wifi.AccessPoint
	var current deviceconfig.Section

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   "WiFi scan",
		Command: "ledsetup-cfg wifi-scan",
		Params:  []ui.Param{{Key: "Controller", Value: client.BaseURL}},
		Steps:   []string{"Reading WiFi status", "Scanning"},
	})
	err = runner.Run(ctx, func(ctx context.Context, step ui.StepFunc) ([]ui.Param, error) {
		doc, err := client.GetConfig(ctx)
		if err != nil {
			step(1, ui.StepFailed, "")
			return nil, err
		}
		current = doc.Section(deviceconfig.SectionWiFi)
		step(1, ui.StepComplete, deviceconfig.WiFiStatus(current))

		aps, err := client.ScanWiFi(ctx)
		if err != nil {
			step(2, ui.StepFailed, "")
			return nil, err
		}
		table := wifi.NewTable()
		table.Merge(aps)
		networks = table.List()
		step(2, ui.StepComplete, fmt.Sprintf("%d networks", len(networks)))
		return []ui.Param{{Key: "Networks", Value: fmt.Sprint(len(networks))}}, nil
	})
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		data, err := json.MarshalIndent(networks, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println()
	connected := current.Bool("connected")
	for _, ap := range networks {
		mark := " "
		if connected && ap.SSID == current.String("ssid") {
			mark = ui.SuccessMarker
		}
		fmt.Printf(" %s %-32s %3d%%  ch %-3d %-14s %s\n", mark, ap.SSID, ap.Quality, ap.Channel, ap.AuthName(), ap.MAC)
	}
	return nil
}
