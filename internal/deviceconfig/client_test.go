package deviceconfig

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const mockConfigResponse = `{
	"wifi": {"ssid": "home", "connected": 1, "status": "Connected", "status_raw": 5,
	         "mac": "5c-cf-7f-00-00-01", "mode": "802.11n",
	         "ifconfig": {"ip": "192.168.1.50", "netmask": "255.255.255.0"}},
	"led": {"cnt": 30, "type": "ws2812"},
	"mqtt": {"host": "", "enabled": false},
	"http": {"username": "", "password": "", "enabled": false},
	"misc": {"configured": false},
	"version": "1.0"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL + "/v1/")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	client.RetryDelay = time.Millisecond
	return client
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://192.168.168.1/v1/", "http://192.168.168.1/v1/", false},
		{"192.168.168.1", "http://192.168.168.1/v1/", false},
		{"led.local:8081", "http://led.local:8081/v1/", false},
		{"http://10.0.0.5/api", "http://10.0.0.5/api/", false},
		{"https://10.0.0.5/", "https://10.0.0.5/v1/", false},
		{"", "", true},
		{"ftp://10.0.0.5", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeBaseURL(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeBaseURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeBaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewClient_Default(t *testing.T) {
	client, err := NewClient("")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", client.BaseURL, DefaultBaseURL)
	}
	if client.HTTPClient.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", client.HTTPClient.Timeout, DefaultTimeout)
	}
	if got := client.URI("/wifi/scan"); got != "http://192.168.168.1/v1/wifi/scan" {
		t.Errorf("URI() = %q", got)
	}
}

func TestGetConfig(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/config" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "ledsetup/") {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(mockConfigResponse))
	})

	doc, err := client.GetConfig(context.Background())
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}

	if got := doc.Section(SectionWiFi).String("ssid"); got != "home" {
		t.Errorf("wifi.ssid = %q, want home", got)
	}
	if cnt, ok := doc.Section(SectionLED).Int("cnt"); !ok || cnt != 30 {
		t.Errorf("led.cnt = %d, %v; want 30", cnt, ok)
	}
	if _, ok := doc["version"]; ok {
		t.Error("non-object top-level values should be dropped")
	}
}

func TestUpdateConfig(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/v1/config" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	})

	err := client.UpdateConfig(context.Background(), Document{
		SectionWiFi: {"ssid": "X", "password": ""},
	})
	if err != nil {
		t.Fatalf("UpdateConfig() error = %v", err)
	}

	wifiBody, _ := body["wifi"].(map[string]any)
	if wifiBody["ssid"] != "X" || wifiBody["password"] != "" {
		t.Errorf("body = %#v", body)
	}

	if err := client.UpdateConfig(context.Background(), nil); !IsValidationError(err) {
		t.Errorf("UpdateConfig(nil) error = %v, want validation error", err)
	}
}

func TestScanWiFi(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/wifi/scan" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"access-points":[
			{"ssid":"cafe","mac":"aa-bb","channel":6,"rssi":-60,"quality":80,"auth":"Open","auth_raw":0},
			{"ssid":"home","mac":"cc-dd","channel":1,"rssi":-70,"quality":60,"auth":"WPA2-PSK","auth_raw":3}
		]}`)
	})

	aps, err := client.ScanWiFi(context.Background())
	if err != nil {
		t.Fatalf("ScanWiFi() error = %v", err)
	}
	if len(aps) != 2 {
		t.Fatalf("got %d access points, want 2", len(aps))
	}
	if aps[1].SSID != "home" || aps[1].AuthRaw != 3 || aps[1].Quality != 60 {
		t.Errorf("aps[1] = %+v", aps[1])
	}
}

func TestTestStrip(t *testing.T) {
	tests := []struct {
		name       string
		legacy     bool
		wantMethod string
		wantPath   string
	}{
		{"current firmware", false, http.MethodPost, "/v1/ledstrip/test"},
		{"legacy firmware", true, http.MethodPut, "/v1/test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != tt.wantMethod || r.URL.Path != tt.wantPath {
					t.Errorf("request = %s %s, want %s %s", r.Method, r.URL.Path, tt.wantMethod, tt.wantPath)
				}
				_, _ = io.WriteString(w, `{"message":"success"}`)
			})
			client.LegacyAPI = tt.legacy

			if err := client.TestStrip(context.Background(), map[string]any{"cnt": "30"}); err != nil {
				t.Errorf("TestStrip() error = %v", err)
			}
		})
	}
}

func TestSubmit_ErrorMessageFromBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"Invalid LED count"}`)
	})

	err := client.Submit(context.Background(), "put", "config", map[string]any{"led": map[string]any{"cnt": "0"}})
	if !IsHTTPError(err) {
		t.Fatalf("Submit() error = %v, want HTTP error", err)
	}

	devErr, _ := asDeviceError(err)
	if devErr.Message != "Invalid LED count" {
		t.Errorf("Message = %q", devErr.Message)
	}
	if devErr.URI != client.URI("config") {
		t.Errorf("URI = %q", devErr.URI)
	}
}

func TestSubmit_NotRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	client.MaxRetries = 3

	_ = client.Submit(context.Background(), http.MethodPut, "config", map[string]any{})

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Submit made %d requests, want 1", got)
	}
}

func TestGetConfig_RetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, mockConfigResponse)
	})
	client.MaxRetries = 3

	if _, err := client.GetConfig(context.Background()); err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("GetConfig made %d requests, want 3", got)
	}
}

func TestGetConfig_ParseError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"wifi": `)
	})

	if _, err := client.GetConfig(context.Background()); !IsParseError(err) {
		t.Errorf("GetConfig() error = %v, want parse error", err)
	}
}

func TestBasicAuthAndUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.FinishSetup(context.Background()); !IsAuthError(err) {
		t.Errorf("FinishSetup() without credentials error = %v, want auth error", err)
	}

	client.SetAuth("admin", "secret")
	if err := client.FinishSetup(context.Background()); err != nil {
		t.Errorf("FinishSetup() error = %v", err)
	}
}

func TestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewClient(url)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.GetConfig(context.Background()); !IsNetworkError(err) {
		t.Errorf("GetConfig() error = %v, want network error", err)
	}
}
