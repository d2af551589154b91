package mockdevice

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/logging"
	"github.com/muurk/ledsetup/internal/wifi"
)

// Network is an access point the emulated radio can see.
type Network struct {
	wifi.AccessPoint
	Password string
}

// DefaultNetworks is the neighbourhood a new Device sees.
func DefaultNetworks() []Network {
	return []Network{
		{AccessPoint: accessPoint("HomeNet", "a0:63:91:10:20:30", 6, -52, wifi.AuthWPA2PSK), Password: "correct horse"},
		{AccessPoint: accessPoint("CoffeeShop", "00:1a:2b:3c:4d:5e", 1, -71, wifi.AuthOpen)},
		{AccessPoint: accessPoint("OldRouter", "00:11:22:33:44:55", 11, -80, wifi.AuthWEP), Password: "abcde"},
		{AccessPoint: accessPoint("Upstairs", "10:20:30:40:50:60", 3, -64, wifi.AuthWPAWPA2PSK), Password: "upstairs-pass"},
	}
}

func accessPoint(ssid, mac string, channel, rssi int, auth wifi.AuthMode) wifi.AccessPoint {
	return wifi.AccessPoint{
		SSID:    ssid,
		MAC:     mac,
		Channel: channel,
		RSSI:    rssi,
		Quality: wifi.RSSIToQuality(rssi),
		Auth:    auth.String(),
		AuthRaw: auth,
	}
}

// Device is the state of an emulated controller: its configuration store,
// its radio and its strip. It is safe for concurrent use.
type Device struct {
	mu       sync.Mutex
	doc      deviceconfig.Document
	networks []Network
	password string
	tests    []map[string]any
	finished int
}

// NewDevice returns an unconfigured controller named name.
func NewDevice(name string) *Device {
	return &Device{
		doc:      defaultDocument(name),
		networks: DefaultNetworks(),
	}
}

func defaultDocument(name string) deviceconfig.Document {
	return deviceconfig.Document{
		deviceconfig.SectionWiFi: {
			"ssid":       "",
			"connected":  false,
			"status":     wifi.StatusName(wifi.StatusIdle),
			"status_raw": wifi.StatusIdle,
			"mac":        "5c:cf:7f:a0:0b:01",
			"mode":       "802.11n",
			"ifconfig":   disconnectedIfconfig(),
		},
		deviceconfig.SectionLED: {
			"cnt":  "",
			"type": "",
		},
		deviceconfig.SectionMQTT: {
			"host":          "",
			"username":      "",
			"password":      "",
			"client_id":     "",
			"status_topic":  "",
			"control_topic": "",
			"enabled":       false,
		},
		deviceconfig.SectionHTTP: {
			"username": "",
			"password": "",
			"enabled":  false,
		},
		deviceconfig.SectionMisc: {
			"configured": false,
			"name":       name,
		},
	}
}

func disconnectedIfconfig() map[string]any {
	return map[string]any{"ip": "0.0.0.0", "netmask": "0.0.0.0", "gw": "0.0.0.0", "dns": "0.0.0.0"}
}

// SetNetworks replaces the access points the radio sees.
func (d *Device) SetNetworks(networks []Network) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.networks = slices.Clone(networks)
}

// Config returns a copy of the configuration document.
func (d *Device) Config() deviceconfig.Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Clone()
}

// Scan returns the access points currently in range.
func (d *Device) Scan() []wifi.AccessPoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	aps := make([]wifi.AccessPoint, len(d.networks))
	for i, n := range d.networks {
		aps[i] = n.AccessPoint
	}
	return aps
}

// Apply merges update into the configuration. The update is validated as a
// whole first; on error nothing is changed. Setting wifi.ssid starts a
// connection attempt whose outcome is visible in the wifi section.
func (d *Device) Apply(update deviceconfig.Document) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for name, section := range update {
		if err := d.validate(name, section); err != nil {
			return err
		}
	}

	for name, section := range update {
		if name == deviceconfig.SectionWiFi {
			d.applyWiFi(section)
			continue
		}
		d.doc.Merge(deviceconfig.Document{name: section})
	}

	logging.Info("Configuration updated", zap.Strings("sections", update.Names()))
	return nil
}

func (d *Device) validate(name string, section deviceconfig.Section) error {
	current, ok := d.doc[name]
	if !ok {
		return fmt.Errorf("Unknown section %q", name)
	}
	for key := range section {
		if name == deviceconfig.SectionWiFi && key == "password" {
			continue
		}
		if !current.Has(key) {
			return fmt.Errorf("Unknown parameter %q", key)
		}
	}
	if name == deviceconfig.SectionLED {
		merged := current.Clone()
		for k, v := range section {
			merged[k] = v
		}
		return checkStrip(merged)
	}
	return nil
}

// checkStrip mirrors the firmware's strip initialization checks.
func checkStrip(params deviceconfig.Section) error {
	if !params.Has("type") || params.String("type") == "" {
		return fmt.Errorf(`Value for "type" is required`)
	}
	if !params.Has("cnt") || params.String("cnt") == "" {
		return fmt.Errorf(`Value for "cnt" is required`)
	}
	if t := params.String("type"); !slices.Contains(deviceconfig.LEDTypes, t) {
		return fmt.Errorf("Unknown LED type %q", t)
	}
	cnt, ok := params.Int("cnt")
	if !ok || cnt < 1 || cnt > deviceconfig.MaxLEDs {
		return fmt.Errorf(`Value for "cnt" out of valid range [1-%d]`, deviceconfig.MaxLEDs)
	}
	return nil
}

func (d *Device) applyWiFi(section deviceconfig.Section) {
	current := d.doc[deviceconfig.SectionWiFi]
	if section.Has("mode") {
		current["mode"] = section.String("mode")
	}
	if !section.Has("ssid") {
		return
	}
	d.password = section.String("password")
	current["ssid"] = section.String("ssid")
	d.connect(current)
}

func (d *Device) connect(current deviceconfig.Section) {
	ssid := current.String("ssid")
	status := wifi.StatusNoAPFound
	for i, n := range d.networks {
		if n.SSID != ssid {
			continue
		}
		status = wifi.StatusWrongPassword
		if n.AuthRaw == wifi.AuthOpen || n.Password == d.password {
			status = wifi.StatusConnected
			current["ifconfig"] = map[string]any{
				"ip":      fmt.Sprintf("192.168.1.%d", 100+i),
				"netmask": "255.255.255.0",
				"gw":      "192.168.1.1",
				"dns":     "192.168.1.1",
			}
		}
		break
	}
	if status != wifi.StatusConnected {
		current["ifconfig"] = disconnectedIfconfig()
	}
	current["status_raw"] = status
	current["status"] = wifi.StatusName(status)
	current["connected"] = status == wifi.StatusConnected

	logging.Info("WiFi connection attempted",
		zap.String("ssid", ssid),
		zap.String("status", wifi.StatusName(status)),
	)
}

// TestStrip runs a strip test with the given parameters without saving
// them, as the firmware does.
func (d *Device) TestStrip(params deviceconfig.Section) error {
	if err := checkStrip(params); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tests = append(d.tests, params.Clone())
	return nil
}

// Tests returns the parameters of every strip test run so far.
func (d *Device) Tests() []map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]map[string]any, len(d.tests))
	copy(out, d.tests)
	return out
}

// Finish marks the controller configured.
func (d *Device) Finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc[deviceconfig.SectionMisc]["configured"] = true
	d.finished++
}

// Finished reports how many times setup was completed.
func (d *Device) Finished() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finished
}
