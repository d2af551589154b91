package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "windows" && runtime.GOOS != "darwin" {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	}

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "ledsetup") {
		t.Errorf("GetConfigDir() = %v, should contain 'ledsetup'", configDir)
	}
	if runtime.GOOS == "linux" && configDir != filepath.Join("/tmp/xdg", "ledsetup") {
		t.Errorf("GetConfigDir() = %v, should honor XDG_CONFIG_HOME", configDir)
	}
}

func TestGetRegistryPath(t *testing.T) {
	path, err := GetRegistryPath()
	if err != nil {
		t.Fatalf("GetRegistryPath() error = %v", err)
	}
	if filepath.Base(path) != "devices.yaml" {
		t.Errorf("GetRegistryPath() should end with 'devices.yaml', got: %v", path)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Devices == nil {
		t.Error("NewRegistry().Devices should not be nil")
	}
	if reg.Preferences == nil || reg.Preferences.DiscoverTimeout != 5 {
		t.Errorf("NewRegistry().Preferences = %+v", reg.Preferences)
	}
}

func TestRegistryRemember(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.Remember("kitchen", "http://10.0.0.20/v1/")

	device := reg.GetDevice("kitchen")
	if device == nil {
		t.Fatal("Remember() should create the device")
	}
	if device.BaseURL != "http://10.0.0.20/v1/" {
		t.Errorf("BaseURL = %q", device.BaseURL)
	}
	if device.LastSeen.Before(before) {
		t.Error("LastSeen should be updated")
	}

	name, last, ok := reg.LastUsedDevice()
	if !ok || name != "kitchen" || last != device {
		t.Errorf("LastUsedDevice() = %q, %v, %v", name, last, ok)
	}
}

func TestRegistryEnsureDevice(t *testing.T) {
	reg := &Registry{}

	first := reg.EnsureDevice("desk")
	second := reg.EnsureDevice("desk")

	if first != second {
		t.Error("EnsureDevice() should return the existing entry")
	}
	if len(reg.Devices) != 1 {
		t.Errorf("len(Devices) = %d, want 1", len(reg.Devices))
	}
}

func TestRegistryForget(t *testing.T) {
	reg := NewRegistry()
	reg.Remember("desk", "http://10.0.0.30/v1/")

	if !reg.Forget("desk") {
		t.Fatal("Forget() should report removal")
	}
	if reg.LastUsed != "" {
		t.Error("forgetting the last used device should clear LastUsed")
	}
	if _, _, ok := reg.LastUsedDevice(); ok {
		t.Error("LastUsedDevice() should report nothing")
	}
	if reg.Forget("desk") {
		t.Error("Forget() of an unknown device should report false")
	}
}

func TestRegistryNames(t *testing.T) {
	reg := NewRegistry()
	now := time.Now()
	reg.Devices["old"] = &Device{LastSeen: now.Add(-time.Hour)}
	reg.Devices["new"] = &Device{LastSeen: now}
	reg.Devices["b"] = &Device{}
	reg.Devices["a"] = &Device{}

	got := strings.Join(reg.Names(), ",")
	if got != "new,old,a,b" {
		t.Errorf("Names() = %s, want new,old,a,b", got)
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "devices.yaml")

	reg := NewRegistry()
	reg.Remember("kitchen", "http://10.0.0.20/v1/").LegacyAPI = true

	if err := reg.SaveFile(path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadRegistryFile(path)
	if err != nil {
		t.Fatalf("LoadRegistryFile() error = %v", err)
	}

	device := loaded.GetDevice("kitchen")
	if device == nil || !device.LegacyAPI || device.BaseURL != "http://10.0.0.20/v1/" {
		t.Errorf("loaded device = %+v", device)
	}
	if loaded.LastUsed != "kitchen" {
		t.Errorf("LastUsed = %q, want kitchen", loaded.LastUsed)
	}
}

func TestLoadRegistryFile_Missing(t *testing.T) {
	reg, err := LoadRegistryFile(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("LoadRegistryFile() error = %v", err)
	}
	if len(reg.Devices) != 0 {
		t.Error("missing file should give an empty registry")
	}
}

func TestLoadRegistryFile_BadVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.yaml")
	if err := os.WriteFile(path, []byte("version: 2\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadRegistryFile(path); err == nil {
		t.Error("LoadRegistryFile() should reject unknown versions")
	}
}
