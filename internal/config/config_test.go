package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadAppliesDefaults confirms an otherwise-empty config file is
// filled in with the documented defaults.
func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.yaml")
	if err := os.WriteFile(path, []byte("server: {}\nbus: {}\nsource: {mode: url, url: \"file:///tmp/in.flv\"}\ndecoder: {}\nsink: {mode: container, container_path: \"/tmp/out.flv\"}\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.HealthPort != 8080 {
		t.Errorf("expected default health_port 8080, got %d", cfg.Server.HealthPort)
	}
	if cfg.Bus.URL != "nats://127.0.0.1:4222" {
		t.Errorf("expected default bus url, got %q", cfg.Bus.URL)
	}
	if cfg.Decoder.PixelFormat != "RGB0" {
		t.Errorf("expected default pixel format RGB0, got %q", cfg.Decoder.PixelFormat)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

// TestLoadRejectsUnknownFields confirms strict decoding catches typos.
func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.yaml")
	if err := os.WriteFile(path, []byte("server:\n  health_port: 9000\n  bogus_field: 1\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

// TestValidateRejectsUnknownSourceMode confirms an invalid source mode
// is rejected with a descriptive error.
func TestValidateRejectsUnknownSourceMode(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{HealthPort: 8080, HTTPPort: 8081},
		Bus:     BusConfig{URL: "nats://127.0.0.1:4222"},
		Source:  SourceConfig{Mode: "carrier-pigeon"},
		Decoder: DecoderConfig{PixelFormat: "RGB0"},
		Sink:    SinkConfig{Mode: "bus", AnalysisChannel: "a", DebugChannel: "d"},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an unknown source mode")
	}
}
