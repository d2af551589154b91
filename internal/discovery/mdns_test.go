package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name        string
		entry       *zeroconf.ServiceEntry
		wantNil     bool
		wantIP      string
		wantPort    int
		wantBaseURL string
	}{
		{
			name: "advertised api root",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "kitchen"},
				HostName:      "whatever.local.",
				Port:          8081,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.40")},
				Text:          []string{"api=/v1/", "model=mock"},
			},
			wantIP:      "192.168.1.40",
			wantPort:    8081,
			wantBaseURL: "http://192.168.1.40:8081/v1/",
		},
		{
			name: "hostname pattern without txt",
			entry: &zeroconf.ServiceEntry{
				HostName: "neopixel-3f2a.local.",
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantIP:      "10.0.0.5",
			wantPort:    80,
			wantBaseURL: "http://10.0.0.5:80/v1/",
		},
		{
			name: "unrelated http service",
			entry: &zeroconf.ServiceEntry{
				HostName: "printer.local.",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				HostName: "led-desk.local.",
				Text:     []string{"api=/v1/"},
			},
			wantNil: true,
		},
		{
			name: "ipv6 only",
			entry: &zeroconf.ServiceEntry{
				HostName: "led-desk.local",
				Port:     80,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantIP:      "fe80::1",
			wantPort:    80,
			wantBaseURL: "http://[fe80::1]:80/v1/",
		},
		{
			name: "prefers ipv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "esp_1234.local.",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
			},
			wantIP:      "192.168.1.50",
			wantPort:    80,
			wantBaseURL: "http://192.168.1.50:80/v1/",
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if device != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", device)
				}
				return
			}
			if device == nil {
				t.Fatal("parseServiceEntry() = nil, want device")
			}
			if device.IP != tt.wantIP {
				t.Errorf("IP = %s, want %s", device.IP, tt.wantIP)
			}
			if device.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", device.Port, tt.wantPort)
			}
			if device.BaseURL() != tt.wantBaseURL {
				t.Errorf("BaseURL() = %s, want %s", device.BaseURL(), tt.wantBaseURL)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	device := NewScanner().parseServiceEntry(&zeroconf.ServiceEntry{
		HostName: "led-desk.local.",
		AddrIPv4: []net.IP{net.ParseIP("10.0.0.9")},
		Text:     []string{"api=v2", "flag", "model=ws2812"},
	})

	if device == nil {
		t.Fatal("parseServiceEntry() = nil")
	}
	if device.GetMetadata("model") != "ws2812" {
		t.Errorf("model = %q", device.GetMetadata("model"))
	}
	if _, ok := device.Metadata["flag"]; !ok {
		t.Error("key without value should be kept")
	}
	if device.BaseURL() != "http://10.0.0.9:80/v2/" {
		t.Errorf("BaseURL() = %s", device.BaseURL())
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
	if scanner.HostPattern == nil {
		t.Error("HostPattern should default to DefaultHostPattern")
	}
}
