package tui

import (
	"reflect"
	"strings"
	"testing"

	"github.com/muurk/ledsetup/internal/form"
)

func newLoginForm() *form.Form {
	return form.New("login_form", "PUT", "config", "http").Add(
		&form.Field{Name: "enabled", Label: "Enabled", Kind: form.KindCheckbox},
		&form.Field{Name: "username", Label: "Username", Kind: form.KindText, Required: true},
		&form.Field{Name: "password", Label: "Password", Kind: form.KindPassword},
	)
}

func TestFormEditor_TypingUpdatesForm(t *testing.T) {
	e := NewFormEditor(newLoginForm(), [2]string{"next", "Next"})

	if e.Focused() != "enabled" {
		t.Fatalf("Focused() = %q, want enabled", e.Focused())
	}
	e.Update(keyPress("space"))
	if !e.Checked("enabled") {
		t.Fatal("space should check the checkbox")
	}

	e.Update(keyPress("tab"))
	if !e.Typing() {
		t.Fatal("username input should take typing")
	}
	e.Update(keyPress("admin"))

	e.Update(keyPress("enter"))
	if e.Focused() != "password" {
		t.Fatalf("enter in an input should move on, Focused() = %q", e.Focused())
	}
	e.Update(keyPress("hunter22"))

	want := map[string]any{
		"http": map[string]any{"enabled": true, "username": "admin", "password": "hunter22"},
	}
	if got := e.Form.Payload(); !reflect.DeepEqual(got, want) {
		t.Errorf("Payload() = %#v, want %#v", got, want)
	}
	if strings.Contains(e.View(), "hunter22") {
		t.Error("View() shows the password")
	}
}

func TestFormEditor_ValidateFocusesField(t *testing.T) {
	e := NewFormEditor(newLoginForm(), [2]string{"next", "Next"})

	if e.Validate() {
		t.Fatal("empty username should not validate")
	}
	if e.Focused() != "username" {
		t.Errorf("Focused() = %q, want username", e.Focused())
	}
	if !strings.Contains(e.View(), e.Error().Error()) {
		t.Error("View() should show the inline error")
	}

	// typing a valid value clears the error
	e.Update(keyPress("x"))
	if e.Error() != nil {
		t.Errorf("Error() = %v after fixing the field", e.Error())
	}
}

func TestFormEditor_RadioCycles(t *testing.T) {
	f := form.New("led_form", "PUT", "config", "led").Add(
		&form.Field{Name: "type", Kind: form.KindRadio, Value: "rgb"},
		&form.Field{Name: "type", Kind: form.KindRadio, Value: "rgbw"},
		&form.Field{Name: "type", Kind: form.KindRadio, Value: "rgbww"},
	)
	e := NewFormEditor(f)

	steps := []struct {
		key  string
		want string
	}{
		{key: "right", want: "rgb"},
		{key: "right", want: "rgbw"},
		{key: "l", want: "rgbww"},
		{key: "l", want: "rgb"},
		{key: "h", want: "rgbww"},
	}
	for _, s := range steps {
		e.Update(keyPress(s.key))
		if got := f.Value("type"); got != s.want {
			t.Fatalf("after %s type = %q, want %q", s.key, got, s.want)
		}
	}
}

func TestFormEditor_DisabledButton(t *testing.T) {
	e := NewFormEditor(form.New("f", "PUT", "config", ""), [2]string{"next", "Next"})

	if _, pressed := e.Update(keyPress("enter")); pressed != "next" {
		t.Fatalf("pressed = %q, want next", pressed)
	}
	e.SetButtonDisabled("next", true)
	if _, pressed := e.Update(keyPress("enter")); pressed != "" {
		t.Errorf("disabled button was pressed")
	}
}
