// Package config holds the wizard's own settings and the list of known
// controllers.
//
// Settings are resolved with viper from built-in defaults, an optional
// settings.yaml, LEDSETUP_* environment variables and command-line flags,
// in increasing order of precedence.
//
// The known-devices registry is a YAML file remembering how each controller
// was reached and which one was used last, so the wizard can reconnect
// without flags. It never stores device configuration or passwords.
//
// # File Locations
//
//   - Linux: $XDG_CONFIG_HOME/ledsetup/ or $HOME/.config/ledsetup/
//   - macOS: $HOME/.config/ledsetup/
//   - Windows: %LOCALAPPDATA%\ledsetup\
//
// # Usage Example
//
//	settings, err := config.LoadSettings("", cmd.Flags())
//	if err != nil {
//	    return err
//	}
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    return err
//	}
//	baseURL, err := settings.ResolveBaseURL(registry)
package config
