package deviceconfig

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Known configuration sections.
const (
	SectionWiFi = "wifi"
	SectionLED  = "led"
	SectionMQTT = "mqtt"
	SectionHTTP = "http"
	SectionMisc = "misc"
)

// MaxLEDs is the largest strip length the controller drives.
const MaxLEDs = 720

// LEDTypes lists the strip color layouts the controller accepts.
var LEDTypes = []string{"rgb", "rgbw", "rgbww", "rgbnw"}

// Section is one named group of settings, e.g. the "mqtt" object.
type Section map[string]any

// Document is the whole configuration as returned by GET config: a JSON
// object of sections. It is delivered whole on every poll.
type Document map[string]Section

// ParseDocument decodes a configuration document. Top-level values that are
// not objects are ignored.
func ParseDocument(data []byte) (Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config document: %w", err)
	}

	doc := make(Document, len(raw))
	for name, value := range raw {
		var section Section
		if err := json.Unmarshal(value, &section); err != nil || section == nil {
			continue
		}
		doc[name] = section
	}
	return doc, nil
}

// Section returns the named section, or nil when it is absent.
func (d Document) Section(name string) Section {
	if d == nil {
		return nil
	}
	return d[name]
}

// Names returns the section names in sorted order.
func (d Document) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy whose sections can be modified independently.
// Nested values are shared.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for name, section := range d {
		out[name] = section.Clone()
	}
	return out
}

// Merge applies update section by section: keys present in an update
// section replace the stored ones, other keys are kept.
func (d Document) Merge(update Document) {
	for name, section := range update {
		current, ok := d[name]
		if !ok {
			d[name] = section.Clone()
			continue
		}
		for k, v := range section {
			current[k] = v
		}
	}
}

// Clone returns a shallow copy of the section.
func (s Section) Clone() Section {
	if s == nil {
		return nil
	}
	out := make(Section, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Has reports whether key is present.
func (s Section) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// String returns the value of key as a string. Numbers and booleans are
// formatted; missing or null values give "".
func (s Section) String(key string) string {
	switch v := s[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns the value of key as a boolean. Controllers report some flags
// as 0/1, so non-zero numbers and "true"/"1" strings count as true.
func (s Section) Bool(key string) bool {
	switch v := s[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	default:
		return false
	}
}

// Int returns the value of key as an integer and whether it held a number.
func (s Section) Int(key string) (int, bool) {
	switch v := s[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		i, err := v.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		return i, err == nil
	default:
		return 0, false
	}
}

// Sub returns a nested object, such as wifi.ifconfig.
func (s Section) Sub(key string) Section {
	switch v := s[key].(type) {
	case map[string]any:
		return Section(v)
	case Section:
		return v
	default:
		return nil
	}
}
