package config

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/b0bbywan/go-odio-btmedia/logger"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected logger.Level
	}{
		{"debug", logger.DEBUG},
		{"DEBUG", logger.DEBUG},
		{"Debug", logger.DEBUG},
		{"info", logger.INFO},
		{"warn", logger.WARN},
		{"error", logger.ERROR},
		{"FATAL", logger.FATAL},
		{"unknown", logger.WARN}, // default
		{"", logger.WARN},        // default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseLogLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLogLevel(%q) = %d, want %d", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseLogLevels(t *testing.T) {
	if parseLogLevels(nil) != nil {
		t.Error("parseLogLevels(nil) should be nil")
	}
	got := parseLogLevels(map[string]string{"Bluetooth": "debug", "api": "error"})
	if got["bluetooth"] != logger.DEBUG {
		t.Errorf("bluetooth = %v, want DEBUG", got["bluetooth"])
	}
	if got["api"] != logger.ERROR {
		t.Errorf("api = %v, want ERROR", got["api"])
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(newViper(nil))
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}

	if !cfg.Api.Enabled || cfg.Api.Port != 8090 {
		t.Errorf("api = %+v", cfg.Api)
	}
	if len(cfg.Api.Listens) != 1 || cfg.Api.Listens[0] != "127.0.0.1:8090" {
		t.Errorf("Listens = %v", cfg.Api.Listens)
	}
	if !cfg.Bluetooth.Enabled || cfg.Bluetooth.Timeout != 5*time.Second {
		t.Errorf("bluetooth = %+v", cfg.Bluetooth)
	}
	if cfg.Bluetooth.SettleAttempts != 6 || cfg.Bluetooth.SettleInitial != 250*time.Millisecond || cfg.Bluetooth.SettleMax != time.Second {
		t.Errorf("settle = %d/%v/%v", cfg.Bluetooth.SettleAttempts, cfg.Bluetooth.SettleInitial, cfg.Bluetooth.SettleMax)
	}
	if cfg.Bluetooth.TrackAlbum || !cfg.Bluetooth.TrackPadding {
		t.Errorf("track format album=%v padding=%v", cfg.Bluetooth.TrackAlbum, cfg.Bluetooth.TrackPadding)
	}
	if cfg.Volume.Backend != VolumeBackendPulse || cfg.Volume.Step != 5 || cfg.Volume.Control != "Master" {
		t.Errorf("volume = %+v", cfg.Volume)
	}
	if cfg.Zeroconf.Enabled || cfg.Zeroconf.Port != 8090 || cfg.Zeroconf.InstanceName != AppName {
		t.Errorf("zeroconf = %+v", cfg.Zeroconf)
	}
	if !cfg.Systemd.Notify {
		t.Error("systemd.notify should default to true")
	}
	if cfg.LogLevel != logger.WARN {
		t.Errorf("LogLevel = %v, want WARN", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := load(newViper(map[string]any{
		"bluetooth.settle.attempts": -3,
		"bluetooth.settle.initial":  "500ms",
		"bluetooth.settle.max":      "100ms",
		"bluetooth.timeout":         "0s",
		"volume.backend":            "AMIXER",
		"LogLevel":                  "debug",
		"log.levels":                map[string]string{"volume": "error"},
	}))
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}

	if cfg.Bluetooth.SettleAttempts != 0 {
		t.Errorf("negative attempts should clamp to 0, got %d", cfg.Bluetooth.SettleAttempts)
	}
	if cfg.Bluetooth.SettleMax != 500*time.Millisecond {
		t.Errorf("SettleMax = %v, want raised to initial", cfg.Bluetooth.SettleMax)
	}
	if cfg.Bluetooth.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want fallback 5s", cfg.Bluetooth.Timeout)
	}
	if cfg.Volume.Backend != VolumeBackendAmixer {
		t.Errorf("Backend = %q", cfg.Volume.Backend)
	}
	if cfg.LogLevel != logger.DEBUG || cfg.LogLevels["volume"] != logger.ERROR {
		t.Errorf("levels = %v %v", cfg.LogLevel, cfg.LogLevels)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
	}{
		{"port zero", map[string]any{"api.port": 0}},
		{"port too high", map[string]any{"api.port": 70000}},
		{"volume backend", map[string]any{"volume.backend": "alsa"}},
		{"volume step", map[string]any{"volume.step": 0}},
		{"volume step too high", map[string]any{"volume.step": 101}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := load(newViper(tt.overrides)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestInterfaceForIP(t *testing.T) {
	if iface, err := interfaceForIP("127.0.0.1"); iface != nil || err != nil {
		t.Errorf("loopback should yield (nil, nil), got (%v, %v)", iface, err)
	}
	if _, err := interfaceForIP("not-an-ip"); err == nil {
		t.Error("expected error for invalid ip")
	}
}

func TestReloadLogLevels(t *testing.T) {
	defer logger.SetLevel(logger.WARN)
	defer logger.SetComponentLevels(nil)

	v := newViper(map[string]any{"LogLevel": "error"})
	cfg, err := load(v)
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stderr)
	logger.SetLevel(logger.ERROR)

	v.Set("LogLevel", "debug")
	cfg.reloadLogLevels(fsnotify.Event{Name: "config.yaml", Op: fsnotify.Chmod})
	logger.Debug("[test] before")
	if strings.Contains(buf.String(), "before") {
		t.Error("chmod event should not reload levels")
	}

	cfg.reloadLogLevels(fsnotify.Event{Name: "config.yaml", Op: fsnotify.Write})
	logger.Debug("[test] after")
	if !strings.Contains(buf.String(), "after") {
		t.Errorf("debug output missing after reload: %q", buf.String())
	}
}

func TestWatchWithoutFile(t *testing.T) {
	cfg, err := load(newViper(nil))
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}
	// no config file in use: Watch must return without arming a watcher
	cfg.Watch()
	(&Config{}).Watch()
}

func BenchmarkParseLogLevel(b *testing.B) {
	for i := 0; i < b.N; i++ {
		parseLogLevel("DEBUG")
	}
}
