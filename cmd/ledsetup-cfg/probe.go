package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/mqttprobe"
	"github.com/muurk/ledsetup/internal/ui"
	"github.com/muurk/ledsetup/internal/wizard/tui"
)

// mqtt-probe flags
var (
	probeListen    string
	probeHost      string
	probeUsername  string
	probePassword  string
	probeTimeout   time.Duration
	probeConfigure bool
	probeCommand   string
)

func init() {
	rootCmd.AddCommand(mqttProbeCmd)

	f := mqttProbeCmd.Flags()
	f.StringVar(&probeListen, "listen", mqttprobe.DefaultAddress, "Broker listen address")
	f.StringVar(&probeHost, "broker-host", "", "Address the controller should use for this broker (default: detected)")
	f.StringVar(&probeUsername, "broker-username", "", "Only accept this MQTT username")
	f.StringVar(&probePassword, "broker-password", "", "Password for --broker-username")
	f.DurationVar(&probeTimeout, "probe-timeout", 60*time.Second, "How long to wait for the controller")
	f.BoolVar(&probeConfigure, "configure", false, "Point the controller's MQTT settings at this broker first")
	f.StringVar(&probeCommand, "publish", "", "Payload to publish on the control topic once the controller connects")
}

var mqttProbeCmd = &cobra.Command{
	Use:   "mqtt-probe",
	Short: "Check the controller's MQTT settings against a local broker",
	Long: `Run a throwaway MQTT broker and wait for the controller to connect and
publish its status.

With --configure the controller's MQTT settings are first pointed at this
machine, keeping its client ID and topics. Without it, the controller must
already be configured to use this machine as its broker.`,
	Example: `  # Point the controller here and wait for it
  ledsetup-cfg mqtt-probe --configure

  # Require credentials and send a command once connected
  ledsetup-cfg mqtt-probe --configure --broker-username led --broker-password s3cret --publish ON`,
	Args: cobra.NoArgs,
	RunE: runMQTTProbe,
}

func runMQTTProbe(cmd *cobra.Command, args []string) error {
	client, _, err := resolveClient()
	if err != nil {
		return err
	}

	broker, err := mqttprobe.New(mqttprobe.Options{
		Address:  probeListen,
		Username: probeUsername,
		Password: probePassword,
	})
	if err != nil {
		return err
	}
	broker.Start()
	defer broker.Close()

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   "MQTT probe",
		Command: "ledsetup-cfg mqtt-probe",
		Params: []ui.Param{
			{Key: "Controller", Value: client.BaseURL},
			{Key: "Broker", Value: broker.Addr()},
		},
		Steps: []string{"Reading MQTT settings", "Configuring controller", "Waiting for connection", "Waiting for status"},
	})

	return runner.Run(cmd.Context(), func(ctx context.Context, step ui.StepFunc) ([]ui.Param, error) {
		getCtx, cancel := context.WithTimeout(ctx, settings.Timeout)
		doc, err := client.GetConfig(getCtx)
		cancel()
		if err != nil {
			step(1, ui.StepFailed, "")
			return nil, err
		}
		mqtt := doc.Section(deviceconfig.SectionMQTT)
		step(1, ui.StepComplete, "client "+mqtt.String("client_id"))

		if probeConfigure {
			host, err := brokerHost(client.BaseURL)
			if err != nil {
				step(2, ui.StepFailed, "")
				return nil, err
			}
			f := tui.MQTTForm()
			fillForm(f, mqtt)
			f.SetChecked("enabled", true)
			f.Set("host", host)
			f.Set("username", probeUsername)
			f.Set("password", probePassword)
			if err := f.Validate(); err != nil {
				step(2, ui.StepFailed, "")
				return nil, deviceconfig.NewValidationError(err.Error())
			}
			sendCtx, cancel := context.WithTimeout(ctx, settings.Timeout)
			err = client.Submit(sendCtx, f.Method, f.Action, f.Payload())
			cancel()
			if err != nil {
				step(2, ui.StepFailed, "")
				return nil, err
			}
			mqtt = deviceconfig.Section(f.Serialize())
			step(2, ui.StepComplete, "host "+host)
		} else {
			step(2, ui.StepSkipped, "using saved settings")
		}

		exp := mqttprobe.Expectation{
			ClientID:    mqtt.String("client_id"),
			StatusTopic: mqtt.String("status_topic"),
		}
		waitCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()

		report, err := mqttprobe.Verify(waitCtx, broker, exp)
		if report.Connected {
			step(3, ui.StepComplete, report.Remote)
		} else {
			step(3, ui.StepFailed, "")
		}
		if err != nil {
			if report.Connected {
				step(4, ui.StepFailed, "nothing on "+exp.StatusTopic)
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%s after %s", report, probeTimeout)
			}
			return nil, err
		}
		if exp.StatusTopic == "" {
			step(4, ui.StepSkipped, "no status topic configured")
		} else {
			step(4, ui.StepComplete, report.StatusPayload)
		}

		details := []ui.Param{
			{Key: "Client", Value: report.ClientID},
			{Key: "Remote", Value: report.Remote},
		}
		if report.StatusPayload != "" {
			details = append(details, ui.Param{Key: "Status", Value: report.StatusPayload})
		}

		if probeCommand != "" && mqtt.String("control_topic") != "" {
			if err := broker.Publish(mqtt.String("control_topic"), []byte(probeCommand)); err != nil {
				return details, err
			}
			details = append(details, ui.Param{Key: "Published", Value: mqtt.String("control_topic") + " " + probeCommand})
		}
		return details, nil
	})
}

// brokerHost returns the address the controller should dial: --broker-host,
// or the local address used to reach the controller.
func brokerHost(baseURL string) (string, error) {
	if probeHost != "" {
		return probeHost, nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	port := u.Port()
	if port == "" {
		port = "80"
	}
	// UDP dial sends nothing; it only picks the outgoing interface.
	conn, err := net.Dial("udp", net.JoinHostPort(u.Hostname(), port))
	if err != nil {
		return "", fmt.Errorf("cannot find a local address for the controller, use --broker-host: %w", err)
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
