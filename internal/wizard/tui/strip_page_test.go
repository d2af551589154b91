package tui

import (
	"errors"
	"reflect"
	"testing"

	"github.com/muurk/ledsetup/internal/alert"
	"github.com/muurk/ledsetup/internal/deviceconfig"
)

// shownStripPage returns the strip page, shown, with cnt and type loaded.
func shownStripPage(t *testing.T, api *fakeAPI, cnt float64) (WizardModel, *StripPage) {
	t.Helper()
	m := newTestWizard(t, api, Options{Start: PageStrip})
	m.Init()
	p := page[*StripPage](t, m.State, PageStrip)
	p.OnConfigUpdate(deviceconfig.Section{"cnt": cnt, "type": "rgb"}, false)
	return m, p
}

// press focuses the button n tab stops from the first field and presses it.
func press(p *StripPage, tabs int) {
	for i := 0; i < tabs; i++ {
		p.Update(keyPress("tab"))
	}
	p.Update(keyPress("enter"))
}

func TestStripPage_SkipsUpdateWhileShown(t *testing.T) {
	_, p := shownStripPage(t, &fakeAPI{}, 30)

	p.OnConfigUpdate(deviceconfig.Section{"cnt": float64(60)}, true)
	if got := p.Form().Value("cnt"); got != "30" {
		t.Errorf("cnt = %q, want 30", got)
	}
}

func TestStripPage_FirstConfigWhileShown(t *testing.T) {
	m := newTestWizard(t, &fakeAPI{}, Options{Start: PageStrip})
	m.Init()
	p := page[*StripPage](t, m.State, PageStrip)

	m.State.receive(deviceconfig.Document{deviceconfig.SectionLED: {"cnt": "60", "type": "rgbw"}})
	if cnt, typ := p.Form().Value("cnt"), p.Form().Value("type"); cnt != "60" || typ != "rgbw" {
		t.Fatalf("after first update cnt=%q type=%q, want 60/rgbw", cnt, typ)
	}

	m.State.receive(deviceconfig.Document{deviceconfig.SectionLED: {"cnt": "90", "type": "rgb"}})
	if got := p.Form().Value("cnt"); got != "60" {
		t.Errorf("after second update cnt = %q, want 60", got)
	}
}

func TestStripPage_TestCooldown(t *testing.T) {
	old := TestCooldown
	TestCooldown = 0
	t.Cleanup(func() { TestCooldown = old })

	api := &fakeAPI{}
	_, p := shownStripPage(t, api, 30)

	press(p, 2)
	if _, open := p.Modal(); !open {
		t.Fatal("Test should open the test dialog")
	}

	cmd := p.Update(keyPress("enter"))
	if p.TestEnabled() || !p.editor.ButtonDisabled("test") {
		t.Fatal("test buttons should be disabled while testing")
	}

	done, ok := find[requestDoneMsg](run(cmd))
	if !ok {
		t.Fatal("test did not report back")
	}
	if done.uri != "http://ctl.test/v1/"+deviceconfig.ActionStripTest {
		t.Errorf("uri = %q", done.uri)
	}
	want := []map[string]any{{"cnt": "30", "type": "rgb"}}
	if !reflect.DeepEqual(api.tests, want) {
		t.Errorf("tests = %#v, want %#v", api.tests, want)
	}

	cooldown := p.Update(done)
	if p.TestEnabled() {
		t.Fatal("test buttons should stay disabled during the cooldown")
	}

	// keys are ignored during the cooldown
	p.Update(keyPress("esc"))
	if _, open := p.Modal(); !open {
		t.Fatal("dialog should not close while a test runs")
	}

	for _, msg := range run(cooldown) {
		p.Update(msg)
	}
	if !p.TestEnabled() || p.editor.ButtonDisabled("test") {
		t.Error("test buttons should be enabled after the cooldown")
	}

	p.Update(keyPress("esc"))
	if _, open := p.Modal(); open {
		t.Error("esc should close the dialog")
	}
	if len(api.submits) != 0 {
		t.Error("testing should not save the settings")
	}
}

func TestStripPage_TestFailure(t *testing.T) {
	api := &fakeAPI{err: errors.New("HTTP 503")}
	m, p := shownStripPage(t, api, 30)

	press(p, 2)
	done, ok := find[requestDoneMsg](run(p.Update(keyPress("enter"))))
	if !ok {
		t.Fatal("test did not report back")
	}

	if cmd := p.Update(done); cmd != nil {
		t.Error("a failed test should not start the cooldown")
	}
	if !p.TestEnabled() {
		t.Error("test buttons should be enabled after a failure")
	}
	if _, open := p.Modal(); open {
		t.Error("dialog should close after a failure")
	}
	if _, shown := m.State.Notifier.Current(alert.FormErrors); !shown {
		t.Error("failure should be shown in the form alert")
	}
}

func TestStripPage_InvalidCount(t *testing.T) {
	tests := []struct {
		name string
		cnt  float64
	}{
		{name: "zero", cnt: 0},
		{name: "too many", cnt: deviceconfig.MaxLEDs + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			_, p := shownStripPage(t, api, tt.cnt)

			press(p, 2)
			if _, open := p.Modal(); open {
				t.Fatal("invalid settings should not open the test dialog")
			}
			if err := p.editor.Error(); err == nil || err.Field != "cnt" {
				t.Errorf("Error() = %v, want an error on cnt", err)
			}
			if len(api.tests) != 0 {
				t.Error("invalid settings were sent")
			}
		})
	}
}

func TestStripPage_Save(t *testing.T) {
	api := &fakeAPI{}
	_, p := shownStripPage(t, api, 144)

	for i := 0; i < 3; i++ {
		p.Update(keyPress("tab"))
	}
	done, ok := find[requestDoneMsg](run(p.Update(keyPress("enter"))))
	if !ok {
		t.Fatal("save did not report back")
	}

	want := map[string]any{"led": map[string]any{"cnt": "144", "type": "rgb"}}
	if len(api.submits) != 1 || !reflect.DeepEqual(api.submits[0].body, want) {
		t.Fatalf("submits = %#v, want body %#v", api.submits, want)
	}
	if got := navigatedTo(p.Update(done)); got != PageMQTT {
		t.Errorf("navigated to %q, want %q", got, PageMQTT)
	}
}
