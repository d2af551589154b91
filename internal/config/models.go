package config

import (
	"sort"
	"time"
)

// Registry is the known-devices file. It stores how to reach controllers,
// never their configuration.
type Registry struct {
	Version     int                `yaml:"version"`
	LastUsed    string             `yaml:"last_used,omitempty"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by device name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device is a controller the wizard has talked to or discovered.
type Device struct {
	BaseURL   string    `yaml:"base_url"`
	Hostname  string    `yaml:"hostname,omitempty"`  // mDNS hostname, if discovered
	LegacyAPI bool      `yaml:"legacy_api,omitempty"` // firmware expects PUT test
	LastSeen  time.Time `yaml:"last_seen,omitempty"`
}

// Preferences are application-wide defaults.
type Preferences struct {
	AutoDiscover    bool `yaml:"auto_discover"`    // run mDNS discovery when no device is given
	DiscoverTimeout int  `yaml:"discover_timeout"` // seconds
}

func defaultPreferences() *Preferences {
	return &Preferences{
		AutoDiscover:    false,
		DiscoverTimeout: 5,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Devices:     make(map[string]*Device),
		Preferences: defaultPreferences(),
	}
}

// GetDevice returns the named device, or nil.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// EnsureDevice returns the named device, creating an empty entry if needed.
func (r *Registry) EnsureDevice(name string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[name]; exists {
		return device
	}

	device := &Device{}
	r.Devices[name] = device
	return device
}

// Remember records a successful connection and makes the device the last
// used one.
func (r *Registry) Remember(name, baseURL string) *Device {
	device := r.EnsureDevice(name)
	device.BaseURL = baseURL
	device.LastSeen = time.Now()
	r.LastUsed = name
	return device
}

// LastUsedDevice returns the device of the last session, if still known.
func (r *Registry) LastUsedDevice() (string, *Device, bool) {
	if r.LastUsed == "" {
		return "", nil, false
	}
	device, ok := r.Devices[r.LastUsed]
	if !ok || device.BaseURL == "" {
		return "", nil, false
	}
	return r.LastUsed, device, true
}

// Forget removes a device.
func (r *Registry) Forget(name string) bool {
	if _, ok := r.Devices[name]; !ok {
		return false
	}
	delete(r.Devices, name)
	if r.LastUsed == name {
		r.LastUsed = ""
	}
	return true
}

// Names returns the device names, most recently seen first.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Devices))
	for name := range r.Devices {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := r.Devices[names[i]], r.Devices[names[j]]
		if !a.LastSeen.Equal(b.LastSeen) {
			return a.LastSeen.After(b.LastSeen)
		}
		return names[i] < names[j]
	})
	return names
}
