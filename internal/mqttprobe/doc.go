// Package mqttprobe runs a local MQTT broker to check a controller's MQTT
// settings end to end.
//
// Point the controller's mqtt.host at the machine running the probe, or let
// `ledsetup-cfg mqtt-probe --configure` do it, then wait for the controller
// to connect with its client_id and publish on its status topic:
//
//	broker, err := mqttprobe.New(mqttprobe.Options{Address: ":1883"})
//	if err != nil {
//	    return err
//	}
//	broker.Start()
//	defer broker.Close()
//
//	report, err := mqttprobe.Verify(ctx, broker, mqttprobe.Expectation{
//	    ClientID:    "led-kitchen",
//	    StatusTopic: "home/kitchen/led/status",
//	})
//
// The broker is built on mochi-mqtt and accepts any client unless a
// username is configured.
package mqttprobe
