package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Device is a controller found on the network
type Device struct {
	// Instance is the advertised service instance name (e.g., "led-kitchen")
	Instance string

	// Hostname is the mDNS hostname (e.g., "led-kitchen.local.")
	Hostname string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// APIPath is the API root advertised in the "api" TXT record
	APIPath string

	// Metadata holds every TXT record
	Metadata map[string]string

	DiscoveredAt time.Time
}

func (d *Device) String() string {
	return fmt.Sprintf("%s (%s) at %s", d.Instance, strings.TrimSuffix(d.Hostname, "."), d.BaseURL())
}

// Name returns the name the device is remembered by.
func (d *Device) Name() string {
	if d.Instance != "" {
		return d.Instance
	}
	return strings.TrimSuffix(strings.TrimSuffix(d.Hostname, "."), ".local")
}

// BaseURL returns the device's API root
func (d *Device) BaseURL() string {
	path := d.APIPath
	if path == "" {
		path = DefaultAPIPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return "http://" + net.JoinHostPort(d.IP, strconv.Itoa(d.Port)) + path
}

// GetMetadata retrieves a TXT value by key, or "" if absent
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
