package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want debug", cfg.LogLevel)
	}
	if cfg.Scan.StartAngle != 30 || cfg.Scan.EndAngle != 150 {
		t.Errorf("scan defaults: got [%.0f, %.0f], want [30, 150]", cfg.Scan.StartAngle, cfg.Scan.EndAngle)
	}
	if cfg.Scan.BlockedBelowCM != 20 {
		t.Errorf("BlockedBelowCM: got %.1f, want 20", cfg.Scan.BlockedBelowCM)
	}
	if cfg.Actuator.CenterAngle != 90 {
		t.Errorf("CenterAngle: got %.1f, want 90", cfg.Actuator.CenterAngle)
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
scan:
  start_angle: 45
  end_angle: 135
  step: 10
  samples_per_angle: 5
  settle: 250ms
sensors:
  dht:
    enabled: true
    pin: GPIO18
    model: DHT22
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Scan.Step != 10 || cfg.Scan.SamplesPerAngle != 5 {
		t.Errorf("scan overrides not applied: %+v", cfg.Scan)
	}
	if cfg.Scan.Settle != 250*time.Millisecond {
		t.Errorf("Settle: got %v, want 250ms", cfg.Scan.Settle)
	}
	if cfg.Sensors.DHT.Model != "DHT22" || cfg.Sensors.DHT.Pin != "GPIO18" {
		t.Errorf("DHT overrides not applied: %+v", cfg.Sensors.DHT)
	}
}

func TestValidate_ReversedSweep(t *testing.T) {
	cfg := Default()
	cfg.Scan.StartAngle = 150
	cfg.Scan.EndAngle = 30

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for start_angle > end_angle")
	}
}

func TestValidate_BadStep(t *testing.T) {
	cfg := Default()
	cfg.Scan.Step = 0

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero step")
	}

	cfg.Scan.Step = -5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative step")
	}
}

func TestValidate_SamplesPerAngle(t *testing.T) {
	cfg := Default()
	cfg.Scan.SamplesPerAngle = 0

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for samples_per_angle < 1")
	}
}

func TestValidate_UnknownDHTModel(t *testing.T) {
	cfg := Default()
	cfg.Sensors.DHT.Enabled = true
	cfg.Sensors.DHT.Model = "DHT99"

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown DHT model")
	}
}

func TestValidate_CenterOutsideBounds(t *testing.T) {
	cfg := Default()
	cfg.Actuator.CenterAngle = 200

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for center outside [min, max]")
	}
}

func TestEnvOverride_APIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")

	path := writeConfig(t, "backend:\n  api_key: from-file\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Backend.APIKey != "from-env" {
		t.Errorf("APIKey: got %q, want env override", cfg.Backend.APIKey)
	}
}

func TestFindConfig_ExplicitMissing(t *testing.T) {
	if _, err := FindConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing explicit config")
	}
}
