// Ledsetup-mock emulates an LED strip controller in setup mode.
//
// It serves the controller REST API (config, wifi/scan, ledstrip/test,
// done_config) from an in-memory configuration so the wizard and the CLI
// can be exercised without hardware.
//
// Usage:
//
//	ledsetup-mock serve [flags]
//
// See 'ledsetup-mock serve --help' for available options.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/ledsetup/internal/logging"
	"github.com/muurk/ledsetup/internal/mockdevice"
	"github.com/muurk/ledsetup/internal/version"
	"github.com/muurk/ledsetup/internal/wifi"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ledsetup-mock",
	Short: "Emulated LED strip controller",
	Long: `An emulated LED strip controller for developing and testing ledsetup-cfg.

The emulator keeps its configuration in memory, pretends to join WiFi
networks from a fixed neighbourhood, and validates LED settings the way
the firmware does.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command flags
var (
	host         string
	port         int
	name         string
	advertise    bool
	username     string
	password     string
	logLevel     string
	networksPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the controller API",
	Long: `Serve the controller REST API under /v1/.

The emulated radio sees a few built-in networks unless --networks names a
YAML file describing others:

  - ssid: HomeNet
    mac: a0:63:91:10:20:30
    channel: 6
    rssi: -52
    auth: 3          # 0 open, 1 WEP, 2 WPA, 3 WPA2, 4 WPA/WPA2
    password: correct horse`,
	Example: `  # Same address as a real controller in setup mode would use, on port 8080
  ledsetup-mock serve --port 8080

  # Announce over mDNS so 'ledsetup-cfg scan' finds it
  ledsetup-mock serve --advertise --name led-bench

  # Then, in another terminal
  ledsetup-cfg --base-url localhost:8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&host, "host", "", "Listen host (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", 8080, "Listen port")
	serveCmd.Flags().StringVar(&name, "name", "led-mock", "Device name (misc.name and mDNS instance)")
	serveCmd.Flags().BoolVar(&advertise, "advertise", false, "Advertise the API over mDNS")
	serveCmd.Flags().StringVar(&username, "username", "", "Require HTTP basic auth with this username")
	serveCmd.Flags().StringVar(&password, "password", "", "Password for --username")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&networksPath, "networks", "", "YAML file with the networks the radio sees")
}

// networkFile is one entry of a --networks file.
type networkFile struct {
	SSID     string `yaml:"ssid"`
	MAC      string `yaml:"mac"`
	Channel  int    `yaml:"channel"`
	RSSI     int    `yaml:"rssi"`
	Auth     int    `yaml:"auth"`
	Password string `yaml:"password"`
}

func loadNetworks(path string) ([]mockdevice.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []networkFile
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	networks := make([]mockdevice.Network, 0, len(entries))
	for i, e := range entries {
		if e.SSID == "" {
			return nil, fmt.Errorf("%s: network %d has no ssid", path, i+1)
		}
		auth := wifi.AuthMode(e.Auth)
		networks = append(networks, mockdevice.Network{
			AccessPoint: wifi.AccessPoint{
				SSID:    e.SSID,
				MAC:     e.MAC,
				Channel: e.Channel,
				RSSI:    e.RSSI,
				Quality: wifi.RSSIToQuality(e.RSSI),
				Auth:    auth.String(),
				AuthRaw: auth,
			},
			Password: e.Password,
		})
	}
	return networks, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel, ""); err != nil {
		return err
	}
	defer logging.Sync()

	if (username == "") != (password == "") {
		return fmt.Errorf("--username and --password must be given together")
	}

	device := mockdevice.NewDevice(name)
	if networksPath != "" {
		networks, err := loadNetworks(networksPath)
		if err != nil {
			return err
		}
		device.SetNetworks(networks)
		logging.Info("Loaded networks", zap.String("path", networksPath), zap.Int("count", len(networks)))
	}

	srv := mockdevice.New(&mockdevice.Config{
		Host:      host,
		Port:      port,
		Name:      name,
		Advertise: advertise,
		Username:  username,
		Password:  password,
	}, device)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ledsetup-mock %s\n", version.Full())
	},
}
