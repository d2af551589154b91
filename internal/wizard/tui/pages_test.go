package tui

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/muurk/ledsetup/internal/alert"
	"github.com/muurk/ledsetup/internal/deviceconfig"
)

func TestServicePage_ConfigWhileShown(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		section  string
		// value of host/username after a first and a second update while shown
		field       string
		afterFirst  string
		afterSecond string
	}{
		{
			name:        "mqtt fills once",
			fragment:    PageMQTT,
			section:     deviceconfig.SectionMQTT,
			field:       "host",
			afterFirst:  "first",
			afterSecond: "first",
		},
		{
			name:        "http fills once",
			fragment:    PageHTTP,
			section:     deviceconfig.SectionHTTP,
			field:       "username",
			afterFirst:  "first",
			afterSecond: "first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestWizard(t, &fakeAPI{}, Options{Start: tt.fragment})
			m.Init()
			p := page[*ServicePage](t, m.State, tt.fragment)

			m.State.receive(deviceconfig.Document{tt.section: {tt.field: "first"}})
			if got := p.editor.Value(tt.field); got != tt.afterFirst {
				t.Errorf("after first update %s = %q, want %q", tt.field, got, tt.afterFirst)
			}

			m.State.receive(deviceconfig.Document{tt.section: {tt.field: "second"}})
			if got := p.editor.Value(tt.field); got != tt.afterSecond {
				t.Errorf("after second update %s = %q, want %q", tt.field, got, tt.afterSecond)
			}
		})
	}
}

func TestServicePage_DisabledSkipsSubmit(t *testing.T) {
	api := &fakeAPI{}
	m := newTestWizard(t, api, Options{Start: PageMQTT})
	m.Init()
	p := page[*ServicePage](t, m.State, PageMQTT)

	// required fields are empty, but a disabled service is not validated
	if got := navigatedTo(p.next()); got != PageHTTP {
		t.Errorf("next() navigated to %q, want %q", got, PageHTTP)
	}
	if len(api.submits) != 0 {
		t.Errorf("disabled service was submitted: %+v", api.submits)
	}
}

func TestServicePage_InvalidBlocksSubmit(t *testing.T) {
	api := &fakeAPI{}
	m := newTestWizard(t, api, Options{Start: PageHTTP})
	m.Init()
	p := page[*ServicePage](t, m.State, PageHTTP)

	p.OnConfigUpdate(deviceconfig.Section{"enabled": true, "username": "admin", "password": "abc"}, false)

	if cmd := p.next(); cmd != nil {
		t.Fatal("next() should not submit an invalid form")
	}
	verr := p.editor.Error()
	if verr == nil || verr.Field != "password" {
		t.Fatalf("Error() = %v, want an error on password", verr)
	}
	if p.editor.Focused() != "password" {
		t.Errorf("Focused() = %q, want password", p.editor.Focused())
	}
}

func TestServicePage_Submit(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantNav  string
		wantBody map[string]any
	}{
		{
			name:    "success moves on",
			wantNav: PageDone,
			wantBody: map[string]any{
				"http": map[string]any{"enabled": true, "username": "admin", "password": "secret"},
			},
		},
		{
			name: "failure stays and alerts",
			err:  errors.New("HTTP 500"),
			wantBody: map[string]any{
				"http": map[string]any{"enabled": true, "username": "admin", "password": "secret"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{err: tt.err}
			m := newTestWizard(t, api, Options{Start: PageHTTP})
			m.Init()
			p := page[*ServicePage](t, m.State, PageHTTP)
			p.OnConfigUpdate(deviceconfig.Section{"enabled": true, "username": "admin", "password": "secret"}, false)

			cmd := p.next()
			if !p.Saving() || !p.editor.ButtonDisabled("next") {
				t.Fatal("Next should be disabled while saving")
			}

			done, ok := find[requestDoneMsg](run(cmd))
			if !ok {
				t.Fatal("submit did not report back")
			}
			if len(api.submits) != 1 {
				t.Fatalf("got %d submits, want 1", len(api.submits))
			}
			call := api.submits[0]
			if call.method != "PUT" || call.action != deviceconfig.ActionConfig {
				t.Errorf("submit = %s %s, want PUT %s", call.method, call.action, deviceconfig.ActionConfig)
			}
			if !reflect.DeepEqual(call.body, tt.wantBody) {
				t.Errorf("body = %#v, want %#v", call.body, tt.wantBody)
			}

			got := navigatedTo(p.Update(done))
			if got != tt.wantNav {
				t.Errorf("navigated to %q, want %q", got, tt.wantNav)
			}
			if p.Saving() || p.editor.ButtonDisabled("next") {
				t.Error("Next should be enabled again")
			}

			a, shown := m.State.Notifier.Current(alert.FormErrors)
			if (tt.err != nil) != shown {
				t.Fatalf("alert shown = %v, want %v", shown, tt.err != nil)
			}
			if shown && !strings.Contains(a.Message, "http://ctl.test/v1/config failed: HTTP 500") {
				t.Errorf("alert = %q", a.Message)
			}
		})
	}
}

func TestDonePage_Summary(t *testing.T) {
	tests := []struct {
		name     string
		doc      deviceconfig.Document
		wantSSID string
		wantIP   string
		wantHTTP bool
		wantMQTT bool
	}{
		{
			name: "connected",
			doc: deviceconfig.Document{
				deviceconfig.SectionWiFi: {
					"connected": true,
					"ssid":      "home",
					"ifconfig":  map[string]any{"ip": "192.168.1.40"},
				},
				deviceconfig.SectionHTTP: {"enabled": true},
				deviceconfig.SectionMQTT: {"enabled": false},
			},
			wantSSID: "home",
			wantIP:   "192.168.1.40",
			wantHTTP: true,
		},
		{
			name: "not connected",
			doc: deviceconfig.Document{
				deviceconfig.SectionWiFi: {"connected": false, "ssid": "home"},
				deviceconfig.SectionMQTT: {"enabled": 1},
			},
			wantSSID: "Not Connected",
			wantIP:   "N/A",
			wantMQTT: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestWizard(t, &fakeAPI{}, Options{})
			p := page[*DonePage](t, m.State, PageDone)

			m.State.receive(tt.doc)

			if p.ssid != tt.wantSSID || p.ip != tt.wantIP {
				t.Errorf("wifi = %q/%q, want %q/%q", p.ssid, p.ip, tt.wantSSID, tt.wantIP)
			}
			if p.http != tt.wantHTTP || p.mqtt != tt.wantMQTT {
				t.Errorf("http/mqtt = %v/%v, want %v/%v", p.http, p.mqtt, tt.wantHTTP, tt.wantMQTT)
			}
			if view := p.View(); !strings.Contains(view, tt.wantSSID) {
				t.Errorf("View() does not show %q", tt.wantSSID)
			}
		})
	}
}

func TestDonePage_Finish(t *testing.T) {
	api := &fakeAPI{}
	m := newTestWizard(t, api, Options{Start: PageDone})
	m.Init()
	p := page[*DonePage](t, m.State, PageDone)

	done, ok := find[requestDoneMsg](run(p.Update(keyPress("enter"))))
	if !ok {
		t.Fatal("finish did not report back")
	}
	if api.finished != 1 {
		t.Fatalf("FinishSetup called %d times, want 1", api.finished)
	}
	if done.uri != "http://ctl.test/v1/"+deviceconfig.ActionFinishSetup {
		t.Errorf("uri = %q", done.uri)
	}

	if !m.State.Poller.Pending() {
		t.Fatal("poller should be counting down before finishing")
	}
	p.Update(done)
	if !p.finished {
		t.Error("page should report setup finished")
	}
	if m.State.Poller.Pending() {
		t.Error("poller should stop once setup is finished")
	}
	if cmd := p.Update(keyPress("enter")); cmd != nil {
		t.Error("a finished setup should not be sent again")
	}
}

func TestWelcomePage_Start(t *testing.T) {
	m := newTestWizard(t, &fakeAPI{}, Options{})
	m.Init()
	p := page[*WelcomePage](t, m.State, PageWelcome)

	m.State.receive(deviceconfig.Document{deviceconfig.SectionMisc: {"name": "kitchen", "configured": false}})
	if view := p.View(); !strings.Contains(view, "kitchen") || !strings.Contains(view, "not configured") {
		t.Errorf("View() should show the controller name and state, got:\n%s", view)
	}

	if got := navigatedTo(p.Update(keyPress("enter"))); got != PageWiFi {
		t.Errorf("enter navigated to %q, want %q", got, PageWiFi)
	}
}
