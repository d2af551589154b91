// Package alert holds the dismissible error banners shown by the wizard.
//
// A Notifier keeps at most one alert per target container. Showing an alert
// replaces whatever the target held; alerts stay until they are cleared or
// overwritten. There are no timers.
package alert

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/ledsetup/internal/logging"
)

// FormErrors is the container used for request failures.
const FormErrors = "form-errors"

// Alert is a single dismissible error banner.
type Alert struct {
	Target  string
	Message string
}

// Notifier renders and clears alerts per target container.
// It is owned by the UI event loop and is not safe for concurrent use.
type Notifier struct {
	alerts map[string]Alert
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{alerts: make(map[string]Alert)}
}

// Show replaces the content of target with an error alert.
func (n *Notifier) Show(message, target string) {
	n.alerts[target] = Alert{Target: target, Message: message}
	logging.Warn("Alert shown",
		zap.String("target", target),
		zap.String("message", message),
	)
}

// Clear empties target.
func (n *Notifier) Clear(target string) {
	delete(n.alerts, target)
}

// AjaxError shows a request failure in the form error container.
func (n *Notifier) AjaxError(uri, text string) {
	n.Show(FormatRequestError(uri, text), FormErrors)
}

// AjaxClean clears the form error container.
func (n *Notifier) AjaxClean() {
	n.Clear(FormErrors)
}

// Current returns the alert shown in target, if any.
func (n *Notifier) Current(target string) (Alert, bool) {
	a, ok := n.alerts[target]
	return a, ok
}

// FormatRequestError formats a failed request the way the form error banner
// displays it.
func FormatRequestError(uri, text string) string {
	if text == "" {
		text = "error"
	}
	return fmt.Sprintf("%s failed: %s", uri, text)
}
