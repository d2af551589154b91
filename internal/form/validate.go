package form

import (
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"
)

// ValidationError describes the first field that failed its constraints.
type ValidationError struct {
	Field  string
	Label  string
	Reason string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	name := e.Label
	if name == "" {
		name = e.Field
	}
	return fmt.Sprintf("%s: %s", name, e.Reason)
}

// Validate checks every enabled field against its constraints, the way a
// browser checks a form before submitting it. It returns nil when the form
// may be submitted.
func (f *Form) Validate() error {
	groups := f.radioGroups()
	seen := make(map[string]bool)

	for _, fld := range f.Fields {
		if fld.Disabled {
			continue
		}
		if fld.Kind == KindRadio {
			if seen[fld.Name] {
				continue
			}
			seen[fld.Name] = true
			if g := groups[fld.Name]; g.required && !g.checked {
				return &ValidationError{Field: fld.Name, Label: g.label, Reason: "select an option"}
			}
			continue
		}
		if reason := fld.check(); reason != "" {
			return &ValidationError{Field: fld.Name, Label: fld.Label, Reason: reason}
		}
	}
	return nil
}

// Check validates a single field. Page modules use it to show the error
// inline while the user is typing.
func (fld *Field) Check() error {
	if reason := fld.check(); reason != "" {
		return &ValidationError{Field: fld.Name, Label: fld.Label, Reason: reason}
	}
	return nil
}

func (fld *Field) check() string {
	if fld.Kind == KindCheckbox {
		if fld.Required && !fld.Checked {
			return "must be checked"
		}
		return ""
	}

	if fld.Value == "" {
		if fld.Required {
			return "is required"
		}
		// empty optional fields skip the remaining constraints
		return ""
	}

	n := utf8.RuneCountInString(fld.Value)
	if fld.MinLength > 0 && n < fld.MinLength {
		return fmt.Sprintf("must be at least %d characters (currently %d)", fld.MinLength, n)
	}
	if fld.MaxLength > 0 && n > fld.MaxLength {
		return fmt.Sprintf("must be at most %d characters (currently %d)", fld.MaxLength, n)
	}

	if fld.Kind == KindNumber {
		v, err := strconv.ParseFloat(fld.Value, 64)
		if err != nil {
			return "must be a number"
		}
		if fld.HasRange && v < fld.Min {
			return fmt.Sprintf("must be at least %s", strconv.FormatFloat(fld.Min, 'f', -1, 64))
		}
		if fld.HasRange && v > fld.Max {
			return fmt.Sprintf("must be at most %s", strconv.FormatFloat(fld.Max, 'f', -1, 64))
		}
	}

	if fld.Pattern != "" {
		re, err := regexp.Compile("^(?:" + fld.Pattern + ")$")
		if err != nil {
			return "has an invalid pattern"
		}
		if !re.MatchString(fld.Value) {
			return "has an invalid format"
		}
	}
	return ""
}

type radioGroup struct {
	label    string
	required bool
	checked  bool
}

func (f *Form) radioGroups() map[string]*radioGroup {
	groups := make(map[string]*radioGroup)
	for _, fld := range f.Fields {
		if fld.Kind != KindRadio || fld.Disabled {
			continue
		}
		g, ok := groups[fld.Name]
		if !ok {
			g = &radioGroup{label: fld.Label}
			groups[fld.Name] = g
		}
		g.required = g.required || fld.Required
		g.checked = g.checked || fld.Checked
	}
	return groups
}
