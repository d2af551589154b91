// Ledsetup-cfg is the setup utility for WiFi LED strip controllers.
//
// It walks a controller in setup mode through joining a WiFi network,
// describing its LED strip, and configuring its MQTT and HTTP services.
// The interactive wizard is the default; the other commands do the same
// steps one at a time for scripting.
//
// Usage:
//
//	ledsetup-cfg [command] [flags]
//
// Running without arguments launches the interactive wizard.
// See 'ledsetup-cfg --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/ledsetup/internal/config"
	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/logging"
	"github.com/muurk/ledsetup/internal/poller"
	"github.com/muurk/ledsetup/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Effective settings, resolved before every command runs.
var (
	settings     config.Settings
	settingsPath string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "ledsetup-cfg",
	Short: "LED strip controller setup utility",
	Long: `A setup utility for WiFi LED strip controllers.

Connect to the controller's setup access point (or its address on your
network) and run the wizard to choose a WiFi network, describe the LED
strip, and configure MQTT and HTTP.

Settings come from ~/.config/ledsetup/settings.yaml, LEDSETUP_* environment
variables and flags, in increasing order of precedence.

If no command is specified, the interactive wizard will launch automatically.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.LoadSettings(settingsPath, cmd.Flags())
		if err != nil {
			return err
		}
		settings = s
		return logging.Initialize(settings.LogLevel, settings.LogFile)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run wizard when no subcommand provided
		return runWizard(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&settingsPath, "config", "", "Settings file (default ~/.config/ledsetup/settings.yaml)")
	flags.String("base-url", "", "Controller API root, e.g. http://192.168.168.1/v1/ or a bare host")
	flags.String("device", "", "Name of a remembered controller")
	flags.String("username", "", "HTTP basic auth username")
	flags.String("password", "", "HTTP basic auth password")
	flags.Duration("timeout", deviceconfig.DefaultTimeout, "Request timeout")
	flags.Int("poll-backoff", poller.DefaultBackoff, "Seconds between config polls in the wizard")
	flags.Duration("scan-interval", config.DefaultScanInterval, "Delay between WiFi scans in the wizard")
	flags.Bool("legacy-api", false, "Use PUT test for strip tests, as older firmware expects")
	flags.String("log-level", "", "Log level (debug, info, warn, error); silent when empty")
	flags.String("log-file", "", "Log file; the wizard needs one to log without garbling the screen")
	flags.StringVar(&outputFormat, "format", "detailed", "Output format (detailed, compact, json)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ledsetup-cfg %s\n", version.Full())
	},
}
