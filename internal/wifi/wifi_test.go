package wifi

import "testing"

func TestTableMerge_NeverRemoves(t *testing.T) {
	table := NewTable()

	if added := table.Merge([]AccessPoint{{SSID: "X", Quality: 40}}); added != 1 {
		t.Errorf("first Merge() added = %d, want 1", added)
	}
	if added := table.Merge([]AccessPoint{{SSID: "Y", Quality: 80}}); added != 1 {
		t.Errorf("second Merge() added = %d, want 1", added)
	}

	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}
	if _, ok := table.Get("X"); !ok {
		t.Error("X should still be listed after a scan that did not report it")
	}
}

func TestTableMerge_ReplacesExisting(t *testing.T) {
	table := NewTable()
	table.Merge([]AccessPoint{{SSID: "X", Quality: 40}})

	if added := table.Merge([]AccessPoint{{SSID: "X", Quality: 90}}); added != 0 {
		t.Errorf("Merge() added = %d, want 0", added)
	}
	ap, _ := table.Get("X")
	if ap.Quality != 90 {
		t.Errorf("Quality = %d, want 90", ap.Quality)
	}
}

func TestTableList_Order(t *testing.T) {
	table := NewTable()
	table.Merge([]AccessPoint{
		{SSID: "b", Quality: 50},
		{SSID: "a", Quality: 50},
		{SSID: "strong", Quality: 98},
		{SSID: "weak", Quality: 10},
	})

	want := []string{"strong", "a", "b", "weak"}
	got := table.List()
	for i, ssid := range want {
		if got[i].SSID != ssid {
			t.Errorf("List()[%d] = %q, want %q", i, got[i].SSID, ssid)
		}
	}
}

func TestRuleFor(t *testing.T) {
	tests := []struct {
		auth     AuthMode
		password string
		wantErr  bool
	}{
		{AuthOpen, "", false},
		{AuthWEP, "1234", true},
		{AuthWEP, "12345", false},
		{AuthWEP, "1234567890123", false},
		{AuthWEP, "12345678901234", true},
		{AuthWPAPSK, "1234567", true},
		{AuthWPA2PSK, "12345678", false},
		{AuthWPAWPA2PSK, string(make([]byte, 65)), true},
	}

	for _, tt := range tests {
		t.Run(tt.auth.String(), func(t *testing.T) {
			err := RuleFor(tt.auth).Check(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("Check(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestAuthModeString(t *testing.T) {
	if AuthWPAWPA2PSK.String() != "WPA/WPA2-PSK" {
		t.Errorf("String() = %q", AuthWPAWPA2PSK.String())
	}
	if AuthMode(9).String() != "AuthMode(9)" {
		t.Errorf("String() = %q", AuthMode(9).String())
	}

	ap := AccessPoint{AuthRaw: AuthWEP}
	if ap.AuthName() != "WEP" {
		t.Errorf("AuthName() = %q, want WEP", ap.AuthName())
	}
}

func TestStatusName(t *testing.T) {
	if StatusName(StatusConnected) != "Connected" {
		t.Errorf("StatusName(5) = %q", StatusName(StatusConnected))
	}
	if StatusName(42) != "Not Connected" {
		t.Errorf("StatusName(42) = %q", StatusName(42))
	}
}

func TestRSSIToQuality(t *testing.T) {
	tests := map[int]int{-120: 0, -100: 0, -75: 50, -50: 100, -20: 100}
	for rssi, want := range tests {
		if got := RSSIToQuality(rssi); got != want {
			t.Errorf("RSSIToQuality(%d) = %d, want %d", rssi, got, want)
		}
	}
}

func TestProgress(t *testing.T) {
	var p Progress
	p.Start()

	steps := 0
	for p.Advance() {
		steps++
	}

	if steps != 10 {
		t.Errorf("progress advanced %d times, want 10", steps)
	}
	if p.Active() {
		t.Error("progress should be inactive after passing 100%")
	}
	if p.Value() != 100 {
		t.Errorf("Value() = %d, want 100", p.Value())
	}

	p.Start()
	p.Stop()
	if p.Advance() {
		t.Error("stopped progress should not advance")
	}
}
