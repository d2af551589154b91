package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/poller"
)

const (
	settingsFile = "settings.yaml"
	envPrefix    = "LEDSETUP"

	// DefaultScanInterval is the delay between WiFi scans on the WiFi page.
	DefaultScanInterval = 10 * time.Second
)

// Settings are the effective options of a run: defaults, overridden by the
// settings file, then LEDSETUP_* environment variables, then flags.
type Settings struct {
	BaseURL      string        `mapstructure:"base-url"`
	Device       string        `mapstructure:"device"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollBackoff  int           `mapstructure:"poll-backoff"`
	ScanInterval time.Duration `mapstructure:"scan-interval"`
	LegacyAPI    bool          `mapstructure:"legacy-api"`
	LogLevel     string        `mapstructure:"log-level"`
	LogFile      string        `mapstructure:"log-file"`
}

// GetSettingsPath returns the default settings file location.
func GetSettingsPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, settingsFile), nil
}

// LoadSettings resolves the settings. An empty path selects the default
// settings file; a missing file is not an error. Flags that were set on the
// command line take precedence over everything else.
func LoadSettings(path string, flags *pflag.FlagSet) (Settings, error) {
	var s Settings

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("base-url", "")
	v.SetDefault("device", "")
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("timeout", deviceconfig.DefaultTimeout)
	v.SetDefault("poll-backoff", poller.DefaultBackoff)
	v.SetDefault("scan-interval", DefaultScanInterval)
	v.SetDefault("legacy-api", false)
	v.SetDefault("log-level", "")
	v.SetDefault("log-file", "")

	if path == "" {
		defaultPath, err := GetSettingsPath()
		if err != nil {
			return s, err
		}
		path = defaultPath
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) && !errors.Is(err, os.ErrNotExist) {
			return s, fmt.Errorf("reading settings %s: %w", path, err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if bindErr == nil && isSettingKey(f.Name) {
				bindErr = v.BindPFlag(f.Name, f)
			}
		})
		if bindErr != nil {
			return s, fmt.Errorf("binding flags: %w", bindErr)
		}
	}

	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("decoding settings: %w", err)
	}

	return s, s.Validate()
}

// Validate rejects values the wizard cannot run with.
func (s Settings) Validate() error {
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	if s.PollBackoff < 1 {
		return fmt.Errorf("poll-backoff must be at least 1 second, got %d", s.PollBackoff)
	}
	if s.ScanInterval < time.Second {
		return fmt.Errorf("scan-interval must be at least 1s, got %s", s.ScanInterval)
	}
	return nil
}

// ResolveBaseURL picks the controller to talk to: an explicit base URL, then
// a named device from the registry, then the last used device, then the
// default setup address.
func (s Settings) ResolveBaseURL(reg *Registry) (string, error) {
	if s.BaseURL != "" {
		return deviceconfig.NormalizeBaseURL(s.BaseURL)
	}
	if s.Device != "" {
		if reg == nil || reg.GetDevice(s.Device) == nil {
			return "", fmt.Errorf("unknown device %q", s.Device)
		}
		return deviceconfig.NormalizeBaseURL(reg.GetDevice(s.Device).BaseURL)
	}
	if reg != nil {
		if _, device, ok := reg.LastUsedDevice(); ok {
			return deviceconfig.NormalizeBaseURL(device.BaseURL)
		}
	}
	return deviceconfig.DefaultBaseURL, nil
}

func isSettingKey(name string) bool {
	switch name {
	case "base-url", "device", "username", "password", "timeout", "poll-backoff",
		"scan-interval", "legacy-api", "log-level", "log-file":
		return true
	}
	return false
}
