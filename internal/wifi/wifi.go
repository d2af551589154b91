// Package wifi models the access points reported by a controller's WiFi
// scan and the rules for connecting to them.
package wifi

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// AuthMode is the raw authentication mode reported by the radio.
type AuthMode int

const (
	AuthOpen AuthMode = iota
	AuthWEP
	AuthWPAPSK
	AuthWPA2PSK
	AuthWPAWPA2PSK
)

var authNames = []string{"Open", "WEP", "WPA-PSK", "WPA2-PSK", "WPA/WPA2-PSK"}

func (a AuthMode) String() string {
	if a < 0 || int(a) >= len(authNames) {
		return fmt.Sprintf("AuthMode(%d)", int(a))
	}
	return authNames[a]
}

// Station status codes reported in the wifi config section as status_raw.
const (
	StatusIdle = iota
	StatusConnecting
	StatusWrongPassword
	StatusNoAPFound
	StatusConnectFailed
	StatusConnected
)

var statusNames = []string{
	"Not Connected", "Connecting", "Wrong Password",
	"No AP Found", "Connection Failed", "Connected",
}

// StatusName returns the display name of a station status code.
func StatusName(status int) string {
	if status < 0 || status >= len(statusNames) {
		return statusNames[StatusIdle]
	}
	return statusNames[status]
}

// Modes lists the PHY modes a controller accepts.
var Modes = []string{"802.11b", "802.11g", "802.11n"}

// AccessPoint is a single scan result.
type AccessPoint struct {
	SSID    string   `json:"ssid"`
	MAC     string   `json:"mac"`
	Channel int      `json:"channel"`
	RSSI    int      `json:"rssi"`
	Quality int      `json:"quality"`
	Auth    string   `json:"auth"`
	AuthRaw AuthMode `json:"auth_raw"`
}

// AuthName returns the reported auth name, falling back to the raw mode.
func (ap AccessPoint) AuthName() string {
	if ap.Auth != "" {
		return ap.Auth
	}
	return ap.AuthRaw.String()
}

// ScanResult is the body of GET wifi/scan.
type ScanResult struct {
	AccessPoints []AccessPoint `json:"access-points"`
}

// RSSIToQuality converts a signal level in dBm to a 0-100 percentage.
func RSSIToQuality(rssi int) int {
	switch {
	case rssi <= -100:
		return 0
	case rssi >= -50:
		return 100
	default:
		return 2 * (rssi + 100)
	}
}

// Table accumulates access points by SSID across scans. Entries are added
// or replaced, never removed, so a network seen once stays listed.
type Table struct {
	entries map[string]AccessPoint
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]AccessPoint)}
}

// Merge adds or replaces entries and returns how many SSIDs were new.
func (t *Table) Merge(aps []AccessPoint) int {
	added := 0
	for _, ap := range aps {
		if _, ok := t.entries[ap.SSID]; !ok {
			added++
		}
		t.entries[ap.SSID] = ap
	}
	return added
}

// Get looks up an entry by SSID.
func (t *Table) Get(ssid string) (AccessPoint, bool) {
	ap, ok := t.entries[ssid]
	return ap, ok
}

// Len returns the number of known SSIDs.
func (t *Table) Len() int {
	return len(t.entries)
}

// List returns the entries ordered by quality, strongest first, then SSID.
func (t *Table) List() []AccessPoint {
	list := make([]AccessPoint, 0, len(t.entries))
	for _, ap := range t.entries {
		list = append(list, ap)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Quality != list[j].Quality {
			return list[i].Quality > list[j].Quality
		}
		return list[i].SSID < list[j].SSID
	})
	return list
}

// PasswordRule describes the password an auth mode requires.
type PasswordRule struct {
	Required  bool
	MinLength int
	MaxLength int
}

// RuleFor returns the password rule for an auth mode. Open networks need
// no password; WEP keys are 5-13 characters; every WPA variant 8-64.
func RuleFor(auth AuthMode) PasswordRule {
	switch {
	case auth <= AuthOpen:
		return PasswordRule{}
	case auth == AuthWEP:
		return PasswordRule{Required: true, MinLength: 5, MaxLength: 13}
	default:
		return PasswordRule{Required: true, MinLength: 8, MaxLength: 64}
	}
}

// Check validates a password against the rule.
func (r PasswordRule) Check(password string) error {
	if !r.Required {
		return nil
	}
	n := utf8.RuneCountInString(password)
	if n < r.MinLength || n > r.MaxLength {
		return fmt.Errorf("password must be %d to %d characters", r.MinLength, r.MaxLength)
	}
	return nil
}
