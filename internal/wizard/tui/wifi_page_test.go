package tui

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/muurk/ledsetup/internal/alert"
	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/wifi"
)

// shownWiFiPage returns the WiFi page after navigating to it.
func shownWiFiPage(t *testing.T, api *fakeAPI) (WizardModel, *WiFiPage) {
	t.Helper()
	m := newTestWizard(t, api, Options{})
	m.Init()
	m.State.Router.Navigate(PageWiFi)
	return m, page[*WiFiPage](t, m.State, PageWiFi)
}

// scanOnce runs one scan against the fake and hands the result to p.
func scanOnce(t *testing.T, p *WiFiPage) {
	t.Helper()
	res, ok := find[scanResultMsg](run(p.scan()))
	if !ok {
		t.Fatal("scan did not report back")
	}
	p.Update(res)
}

func TestNavigate_SameFragmentTwice(t *testing.T) {
	api := &fakeAPI{aps: []wifi.AccessPoint{{SSID: "home", AuthRaw: wifi.AuthWPA2PSK, Quality: 80}}}
	m := newTestWizard(t, api, Options{})
	m.Init()
	p := page[*WiFiPage](t, m.State, PageWiFi)

	msgs := run(m.State.Router.Navigate(PageWiFi))
	msgs = append(msgs, run(m.State.Router.Navigate(PageWiFi))...)

	for _, msg := range msgs {
		if res, ok := find[scanResultMsg](run(p.Update(msg))); ok {
			p.Update(res)
		}
	}
	if api.scans != 1 {
		t.Fatalf("scans = %d, want 1", api.scans)
	}
	if !p.scanTick.Pending() || p.inFlight {
		t.Errorf("pending = %v, in flight = %v, want one tick pending and nothing in flight",
			p.scanTick.Pending(), p.inFlight)
	}
}

func TestWiFiPage_ScanWhileShown(t *testing.T) {
	api := &fakeAPI{aps: []wifi.AccessPoint{{SSID: "home", AuthRaw: wifi.AuthWPA2PSK, Quality: 80}}}
	m := newTestWizard(t, api, Options{})
	m.Init()
	p := page[*WiFiPage](t, m.State, PageWiFi)

	if p.Scanning() {
		t.Fatal("hidden page should not scan")
	}

	first := run(m.State.Router.Navigate(PageWiFi))
	if !p.Scanning() {
		t.Fatal("shown page should schedule a scan")
	}
	if view := p.View(); !strings.Contains(view, "Scanning...") {
		t.Error("View() should show Scanning... until the first scan completes")
	}

	for _, msg := range first {
		if res, ok := find[scanResultMsg](run(p.Update(msg))); ok {
			p.Update(res)
		}
	}
	if api.scans != 1 {
		t.Fatalf("scans = %d, want 1", api.scans)
	}
	if !p.Scanning() {
		t.Error("next scan should be scheduled after a result")
	}
	if view := p.View(); !strings.Contains(view, "home") {
		t.Errorf("View() should list the network, got:\n%s", view)
	}
}

func TestWiFiPage_DeactivateCancelsScan(t *testing.T) {
	api := &fakeAPI{}
	m := newTestWizard(t, api, Options{})
	m.Init()
	p := page[*WiFiPage](t, m.State, PageWiFi)

	fired := run(m.State.Router.Navigate(PageWiFi))
	m.State.Router.Navigate(PageStrip)

	if p.Scanning() {
		t.Fatal("scan should be cancelled when the page is hidden")
	}
	for _, msg := range fired {
		if cmd := p.Update(msg); cmd != nil {
			t.Error("a cancelled scan tick should not start a scan")
		}
	}
	if api.scans != 0 {
		t.Errorf("scans = %d, want 0", api.scans)
	}
}

func TestWiFiPage_MergeAccumulates(t *testing.T) {
	api := &fakeAPI{aps: []wifi.AccessPoint{{SSID: "alpha", Quality: 40}}}
	_, p := shownWiFiPage(t, api)

	scanOnce(t, p)
	api.aps = []wifi.AccessPoint{{SSID: "beta", Quality: 60}, {SSID: "alpha", Quality: 45}}
	scanOnce(t, p)

	if got := p.state.Networks.Len(); got != 2 {
		t.Fatalf("Networks.Len() = %d, want 2", got)
	}
	if got := len(p.table.Rows()); got != 2 {
		t.Errorf("table rows = %d, want 2", got)
	}

	api.aps = nil
	api.scanErr = errors.New("timeout")
	scanOnce(t, p)
	if got := len(p.table.Rows()); got != 2 {
		t.Errorf("failed scan changed the table to %d rows", got)
	}
	if !p.Scanning() {
		t.Error("a failed scan should still schedule the next one")
	}
}

func TestWiFiPage_MarksConnectedNetwork(t *testing.T) {
	api := &fakeAPI{aps: []wifi.AccessPoint{{SSID: "home", AuthRaw: wifi.AuthWPA2PSK}}}
	m, p := shownWiFiPage(t, api)

	m.State.receive(deviceconfig.Document{deviceconfig.SectionWiFi: {
		"ssid":       "home",
		"mac":        "5c:cf:7f:00:11:22",
		"status_raw": float64(wifi.StatusConnected),
	}})
	scanOnce(t, p)

	rows := p.table.Rows()
	if len(rows) != 1 || !strings.HasPrefix(rows[0][3], "✓") {
		t.Fatalf("rows = %v, want home marked connected", rows)
	}
	if view := p.View(); !strings.Contains(view, "5c:cf:7f:00:11:22") {
		t.Error("View() should show the station MAC")
	}

	// the network in use cannot be chosen again
	if cmd := p.Update(keyPress("enter")); cmd != nil || p.Connecting() != "" {
		t.Error("choosing the current network should do nothing")
	}
}

func TestWiFiPage_OpenNetworkConnects(t *testing.T) {
	api := &fakeAPI{aps: []wifi.AccessPoint{{SSID: "Cafe", AuthRaw: wifi.AuthOpen}}}
	_, p := shownWiFiPage(t, api)
	scanOnce(t, p)

	cmd := p.Update(keyPress("enter"))
	if p.prompt != nil {
		t.Fatal("open networks should not ask for a password")
	}
	if p.Connecting() != "Cafe" {
		t.Fatalf("Connecting() = %q, want Cafe", p.Connecting())
	}
	if _, open := p.Modal(); !open {
		t.Error("progress dialog should be open")
	}
	if p.Scanning() {
		t.Error("scanning should stop while connecting")
	}

	done, ok := find[requestDoneMsg](run(cmd))
	if !ok {
		t.Fatal("connect did not report back")
	}
	want := []deviceconfig.Document{{deviceconfig.SectionWiFi: {"ssid": "Cafe", "password": ""}}}
	if !reflect.DeepEqual(api.updates, want) {
		t.Errorf("updates = %#v, want %#v", api.updates, want)
	}

	if cmd := p.Update(done); cmd == nil {
		t.Error("accepted credentials should refresh the configuration")
	}
}

func TestWiFiPage_PasswordPrompt(t *testing.T) {
	api := &fakeAPI{aps: []wifi.AccessPoint{{SSID: "attic", AuthRaw: wifi.AuthWEP}}}
	_, p := shownWiFiPage(t, api)
	scanOnce(t, p)

	p.Update(keyPress("enter"))
	if p.prompt == nil {
		t.Fatal("protected network should ask for a password")
	}
	if p.Scanning() {
		t.Error("scanning should pause while the prompt is open")
	}

	p.Update(keyPress("abc"))
	p.Update(keyPress("enter"))
	if p.prompt == nil || p.prompt.err == "" {
		t.Fatal("a 3 character WEP key should be rejected")
	}
	if len(api.updates) != 0 {
		t.Fatal("rejected password was sent")
	}

	p.Update(keyPress("de"))
	cmd := p.Update(keyPress("enter"))
	if p.prompt != nil {
		t.Fatal("prompt should close on a valid password")
	}
	run(cmd)

	want := []deviceconfig.Document{{deviceconfig.SectionWiFi: {"ssid": "attic", "password": "abcde"}}}
	if !reflect.DeepEqual(api.updates, want) {
		t.Errorf("updates = %#v, want %#v", api.updates, want)
	}
}

func TestWiFiPage_CancelPromptResumesScan(t *testing.T) {
	api := &fakeAPI{aps: []wifi.AccessPoint{{SSID: "attic", AuthRaw: wifi.AuthWPAPSK}}}
	_, p := shownWiFiPage(t, api)
	scanOnce(t, p)

	p.Update(keyPress("enter"))
	p.Update(keyPress("esc"))

	if p.prompt != nil {
		t.Fatal("esc should close the prompt")
	}
	if !p.Scanning() {
		t.Error("scanning should resume after the prompt is cancelled")
	}
}

func TestWiFiPage_ConnectFailure(t *testing.T) {
	api := &fakeAPI{
		aps: []wifi.AccessPoint{{SSID: "Cafe", AuthRaw: wifi.AuthOpen}},
		err: errors.New("HTTP 400"),
	}
	m, p := shownWiFiPage(t, api)
	scanOnce(t, p)

	done, ok := find[requestDoneMsg](run(p.Update(keyPress("enter"))))
	if !ok {
		t.Fatal("connect did not report back")
	}
	p.Update(done)

	if p.Connecting() != "" {
		t.Error("progress dialog should close on failure")
	}
	if p.progress.Active() {
		t.Error("progress should stop on failure")
	}
	if _, shown := m.State.Notifier.Current(alert.FormErrors); !shown {
		t.Error("failure should be shown in the form alert")
	}
	if !p.Scanning() {
		t.Error("scanning should resume after a failed connect")
	}
}
