package deviceconfig

import (
	"fmt"
	"sort"
	"strings"

	"github.com/muurk/ledsetup/internal/wifi"
)

const masked = "********"

// secretKeys are never printed in clear text.
var secretKeys = map[string]bool{"password": true}

// Summary returns a one-line summary of the configuration
func (d Document) Summary() string {
	misc := d.Section(SectionMisc)
	w := d.Section(SectionWiFi)

	state := "unconfigured"
	if misc.Bool("configured") {
		state = "configured"
	}

	network := "not connected"
	if w.Bool("connected") {
		network = fmt.Sprintf("%s (%s)", w.String("ssid"), w.Sub("ifconfig").String("ip"))
	}

	return fmt.Sprintf("Controller %s, WiFi: %s", state, network)
}

// FormatWiFi returns the station status of the wifi section
func (d Document) FormatWiFi() string {
	w := d.Section(SectionWiFi)
	var b strings.Builder

	b.WriteString("=== WiFi ===\n")
	b.WriteString(fmt.Sprintf("SSID:    %s\n", orNone(w.String("ssid"))))
	b.WriteString(fmt.Sprintf("Status:  %s\n", WiFiStatus(w)))
	b.WriteString(fmt.Sprintf("MAC:     %s\n", orNone(w.String("mac"))))
	b.WriteString(fmt.Sprintf("Mode:    %s\n", orNone(w.String("mode"))))
	if ifc := w.Sub("ifconfig"); ifc != nil {
		b.WriteString(fmt.Sprintf("IP:      %s\n", orNone(ifc.String("ip"))))
		b.WriteString(fmt.Sprintf("Netmask: %s\n", orNone(ifc.String("netmask"))))
		b.WriteString(fmt.Sprintf("Gateway: %s\n", orNone(ifc.String("gateway"))))
	}

	return b.String()
}

// WiFiStatus returns the display status of a wifi section, preferring the
// controller's own text.
func WiFiStatus(w Section) string {
	if status := w.String("status"); status != "" {
		return status
	}
	if raw, ok := w.Int("status_raw"); ok {
		return wifi.StatusName(raw)
	}
	if w.Bool("connected") {
		return wifi.StatusName(wifi.StatusConnected)
	}
	return wifi.StatusName(wifi.StatusIdle)
}

// FormatSection renders one section as aligned key/value lines, with
// secrets masked.
func FormatSection(name string, s Section) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("=== %s ===\n", strings.ToUpper(name)))

	keys := make([]string, 0, len(s))
	width := 0
	for k := range s {
		keys = append(keys, k)
		if len(k) > width {
			width = len(k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		value := s.String(k)
		if secretKeys[k] && value != "" {
			value = masked
		}
		if sub := s.Sub(k); sub != nil {
			value = formatInline(sub)
		}
		b.WriteString(fmt.Sprintf("%-*s  %s\n", width+1, k+":", value))
	}

	return b.String()
}

// FormatCompact returns one line per section
func (d Document) FormatCompact() string {
	var b strings.Builder
	for _, name := range d.Names() {
		b.WriteString(fmt.Sprintf("%-5s %s\n", name, formatInline(d[name])))
	}
	return b.String()
}

// FormatDetailed returns every section, WiFi first
func (d Document) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("╔════════════════════════════════════════════════════════════════╗\n")
	b.WriteString("║              LED CONTROLLER CONFIGURATION                      ║\n")
	b.WriteString("╚════════════════════════════════════════════════════════════════╝\n")
	b.WriteString("\n")

	b.WriteString(d.Summary())
	b.WriteString("\n\n")

	if d.Section(SectionWiFi) != nil {
		b.WriteString(d.FormatWiFi())
		b.WriteString("\n")
	}
	for _, name := range d.Names() {
		if name == SectionWiFi {
			continue
		}
		b.WriteString(FormatSection(name, d[name]))
		b.WriteString("\n")
	}

	return b.String()
}

func formatInline(s Section) string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		value := s.String(k)
		if secretKeys[k] && value != "" {
			value = masked
		}
		if sub := s.Sub(k); sub != nil {
			value = "{" + formatInline(sub) + "}"
		}
		parts = append(parts, k+"="+value)
	}
	return strings.Join(parts, " ")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
