// Package logging provides structured logging for the ledsetup tools.
//
// This package wraps zap logger with convenience functions for the logging
// patterns used by the wizard, the CLI commands and the mock device.
//
// # Silent by Default
//
// The wizard draws on the terminal, so logging is off unless a level is
// requested through --log-level or LEDSETUP_LOG_LEVEL. Output goes to the
// file named by --log-file / LEDSETUP_LOG_FILE, or stderr:
//
//	LEDSETUP_LOG_LEVEL=debug LEDSETUP_LOG_FILE=/tmp/ledsetup.log ledsetup-cfg
//
// # Log Levels
//
//   - Debug: REST calls, page transitions, poll ticks
//   - Info: configuration submitted, WiFi connect started
//   - Warn: failed requests, device unreachable, alerts shown
//   - Error: startup failures
//
// # Structured Logging
//
//	logging.Info("Configuration submitted",
//	    zap.String("uri", uri),
//	    zap.String("section", "mqtt"),
//	)
//
// REST calls are logged through LogRequest so every call has the same fields:
//
//	logging.LogRequest("PUT", uri, resp.StatusCode, time.Since(start), err)
package logging
