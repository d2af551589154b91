// Package form models the wizard's configuration forms and turns them into
// the JSON bodies the device API expects.
package form

import "strings"

// Kind is the input type of a field.
type Kind int

const (
	KindText Kind = iota
	KindPassword
	KindNumber
	KindCheckbox
	KindRadio
)

// String returns the HTML input type name for the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPassword:
		return "password"
	case KindNumber:
		return "number"
	case KindCheckbox:
		return "checkbox"
	case KindRadio:
		return "radio"
	default:
		return "unknown"
	}
}

// Field is a single form control. Radio groups are several fields sharing a
// Name, each with its own Value; Checked marks the selected one.
type Field struct {
	Name  string
	Label string
	Kind  Kind
	Value string

	Checked  bool
	Disabled bool

	// Constraints checked by Validate. Zero means unset, except Min/Max
	// which only apply when HasRange is true.
	Required  bool
	MinLength int
	MaxLength int
	HasRange  bool
	Min       float64
	Max       float64
	Pattern   string
}

// Form is an ordered set of fields plus where to submit them.
type Form struct {
	ID         string
	Action     string // path relative to the API base, e.g. "config"
	Method     string // HTTP method, e.g. "PUT"
	ParentItem string // when set, the payload is nested under this key
	Fields     []*Field
}

// New creates an empty form.
func New(id, method, action, parentItem string) *Form {
	return &Form{
		ID:         id,
		Action:     action,
		Method:     strings.ToUpper(method),
		ParentItem: parentItem,
	}
}

// Add appends fields and returns the form for chaining.
func (f *Form) Add(fields ...*Field) *Form {
	f.Fields = append(f.Fields, fields...)
	return f
}

// Field returns the first field with the given name, or nil.
func (f *Form) Field(name string) *Field {
	for _, fld := range f.Fields {
		if fld.Name == name {
			return fld
		}
	}
	return nil
}

// Value returns the value of the named field. For radio groups it is the
// value of the checked option.
func (f *Form) Value(name string) string {
	for _, fld := range f.Fields {
		if fld.Name != name {
			continue
		}
		if fld.Kind == KindRadio {
			if fld.Checked {
				return fld.Value
			}
			continue
		}
		return fld.Value
	}
	return ""
}

// Set assigns the value of every non-radio field with the given name.
func (f *Form) Set(name, value string) {
	for _, fld := range f.Fields {
		if fld.Name == name && fld.Kind != KindRadio {
			fld.Value = value
		}
	}
}

// SetChecked sets the checked state of the named checkbox.
func (f *Form) SetChecked(name string, checked bool) {
	for _, fld := range f.Fields {
		if fld.Name == name && fld.Kind == KindCheckbox {
			fld.Checked = checked
		}
	}
}

// Checked reports whether the named checkbox is checked.
func (f *Form) Checked(name string) bool {
	if fld := f.Field(name); fld != nil {
		return fld.Checked
	}
	return false
}

// Select checks the radio option of group name whose value matches and
// unchecks the rest. It reports whether an option matched; when none does
// the group is left unchanged.
func (f *Form) Select(name, value string) bool {
	found := false
	for _, fld := range f.Fields {
		if fld.Name == name && fld.Kind == KindRadio && fld.Value == value {
			found = true
		}
	}
	if !found {
		return false
	}
	for _, fld := range f.Fields {
		if fld.Name == name && fld.Kind == KindRadio {
			fld.Checked = fld.Value == value
		}
	}
	return true
}

// Options returns the radio options of a group in form order.
func (f *Form) Options(name string) []*Field {
	var opts []*Field
	for _, fld := range f.Fields {
		if fld.Name == name && fld.Kind == KindRadio {
			opts = append(opts, fld)
		}
	}
	return opts
}

// Serialize converts the form into a name to value mapping.
//
// Text-like fields produce strings. When several fields share a name the
// values are collected into a []string in form order. Radio groups contribute
// only their checked option. Checkboxes always produce a bool, so an
// unchecked box serializes as false rather than being omitted, even when it
// is disabled. Other disabled fields are skipped.
func (f *Form) Serialize() map[string]any {
	out := make(map[string]any)
	for _, fld := range f.Fields {
		if fld.Name == "" {
			continue
		}
		if fld.Kind == KindCheckbox {
			out[fld.Name] = fld.Checked
			continue
		}
		if fld.Disabled {
			continue
		}
		switch fld.Kind {
		case KindRadio:
			if !fld.Checked {
				continue
			}
		}

		prev, exists := out[fld.Name]
		if !exists {
			out[fld.Name] = fld.Value
			continue
		}
		switch p := prev.(type) {
		case []string:
			out[fld.Name] = append(p, fld.Value)
		case string:
			out[fld.Name] = []string{p, fld.Value}
		default:
			// a checkbox already owns the name; the checkbox wins
		}
	}
	return out
}

// Payload returns the request body for submitting the form: the serialized
// fields, nested under ParentItem when one is set.
func (f *Form) Payload() map[string]any {
	serialized := f.Serialize()
	if f.ParentItem == "" {
		return serialized
	}
	return map[string]any{f.ParentItem: serialized}
}
