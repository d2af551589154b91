// Package tui implements the terminal setup wizard for LED controllers.
//
// The wizard is a Bubble Tea program with two screens:
//
//  1. Discovery: scans the network for controllers over mDNS, or takes
//     an address typed by hand.
//  2. Wizard: a sequence of pages, each bound to one section of the
//     controller configuration.
//
// # Pages
//
// The pages are shown in order: Welcome, WiFi, LED Strip, MQTT, HTTP and
// Done. Each page is registered with a router.Router under a fragment
// identifier such as "#wifi", and only one page is shown at a time.
//
//   - WiFi lists the networks the controller can see, rescanning every
//     few seconds while the page is shown, and sends credentials.
//   - LED Strip sets the strip length and color layout and can run a
//     test pattern with unsaved settings.
//   - MQTT and HTTP edit optional services; a disabled service skips
//     validation and is not saved.
//   - Done summarizes the configuration and finishes setup.
//
// # Configuration updates
//
// A poller.Poller fetches the configuration when the wizard starts and
// again after each save. Every fetch is handed to all pages, each getting
// its own section and whether it is the page being shown. Pages do not
// overwrite fields the user is editing.
//
// When the controller cannot be reached the wizard shows a dialog with
// a retry button until a fetch succeeds.
//
// # Messages
//
// All state belongs to the Bubble Tea event loop. Requests and timers run
// as commands and report back with messages; timers are
// schedule.Timer values, so a cancelled timer never fires late.
//
// # Usage
//
//	app, err := tui.NewAppModel(tui.AppConfig{
//	    Connect: func(baseURL string) (tui.DeviceAPI, error) {
//	        return deviceconfig.NewClient(baseURL)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
package tui
