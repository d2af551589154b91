package mqttprobe

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Expectation describes the traffic a correctly configured controller
// produces after connecting to the broker.
type Expectation struct {
	// ClientID must match when set.
	ClientID string

	// StatusTopic must receive a publish when set.
	StatusTopic string
}

// Report is what Verify observed.
type Report struct {
	Connected     bool
	ClientID      string
	Remote        string
	StatusPayload string
	Topics        []string
}

// Done reports whether the expectation has been met.
func (r *Report) Done(exp Expectation) bool {
	if !r.Connected {
		return false
	}
	return exp.StatusTopic == "" || r.StatusPayload != ""
}

func (r *Report) String() string {
	if !r.Connected {
		return "no client connected"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "client %q connected from %s", r.ClientID, r.Remote)
	if r.StatusPayload != "" {
		fmt.Fprintf(&b, ", status %q", r.StatusPayload)
	}
	if len(r.Topics) > 0 {
		fmt.Fprintf(&b, ", published to %s", strings.Join(r.Topics, ", "))
	}
	return b.String()
}

// Verify consumes broker events until exp is met or ctx ends. On timeout
// the partial report is returned along with ctx's error.
func Verify(ctx context.Context, b *Broker, exp Expectation) (*Report, error) {
	report := &Report{}
	for {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		case ev := <-b.Events():
			if exp.ClientID != "" && ev.ClientID != exp.ClientID {
				continue
			}
			switch ev.Kind {
			case EventConnected:
				report.Connected = true
				report.ClientID = ev.ClientID
				report.Remote = ev.Remote
			case EventPublished:
				if !slices.Contains(report.Topics, ev.Topic) {
					report.Topics = append(report.Topics, ev.Topic)
				}
				if exp.StatusTopic != "" && ev.Topic == exp.StatusTopic {
					report.StatusPayload = string(ev.Payload)
				}
			}
			if report.Done(exp) {
				return report, nil
			}
		}
	}
}
