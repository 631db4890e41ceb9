// Package config handles go-jarvis configuration loading.
//
// All tunables live in one validated Config constructed at startup and
// passed down to each component's constructor. Nothing reads the
// environment after Load returns.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/jarvis/config.yaml, /etc/jarvis/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "jarvis", "config.yaml"))
	}

	paths = append(paths, "/etc/jarvis/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all go-jarvis configuration.
type Config struct {
	Sensors   SensorsConfig   `yaml:"sensors"`
	Actuator  ActuatorConfig  `yaml:"actuator"`
	Scan      ScanConfig      `yaml:"scan"`
	Backend   BackendConfig   `yaml:"backend"`
	Web       WebConfig       `yaml:"web"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Mail      MailConfig      `yaml:"mail"`
	Poll      PollConfig      `yaml:"poll"`
	Simulate  bool            `yaml:"simulate"`
	LogLevel  string          `yaml:"log_level"`
}

// SensorsConfig defines which sensors are present and where they are wired.
// Pin names are periph.io names ("GPIO4", "GPIO27", ...).
type SensorsConfig struct {
	DHT        DHTConfig        `yaml:"dht"`
	Ultrasonic UltrasonicConfig `yaml:"ultrasonic"`
	PIR        PIRConfig        `yaml:"pir"`
	Gas        GasConfig        `yaml:"gas"`
}

// DHTConfig defines the temperature/humidity sensor.
type DHTConfig struct {
	Enabled bool   `yaml:"enabled"`
	Pin     string `yaml:"pin"`   // default GPIO4
	Model   string `yaml:"model"` // "DHT11" or "DHT22"
}

// UltrasonicConfig defines the distance sensor.
type UltrasonicConfig struct {
	Enabled    bool   `yaml:"enabled"`
	TriggerPin string `yaml:"trigger_pin"` // default GPIO27
	EchoPin    string `yaml:"echo_pin"`    // default GPIO22
}

// PIRConfig defines the motion sensor.
type PIRConfig struct {
	Enabled bool   `yaml:"enabled"`
	Pin     string `yaml:"pin"` // default GPIO17
}

// GasConfig defines the digital threshold-mode gas sensor.
type GasConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Pin       string `yaml:"pin"`
	ActiveLow bool   `yaml:"active_low"` // most MQ breakout boards pull DO low on detection
}

// ActuatorConfig defines the pan servo on the PCA9685 bank.
type ActuatorConfig struct {
	I2CBus          string        `yaml:"i2c_bus"`      // "" = first available
	Address         uint16        `yaml:"address"`      // default 0x40
	PanChannel      int           `yaml:"pan_channel"`  // default 0
	MinAngle        float64       `yaml:"min_angle"`    // degrees, default 0
	MaxAngle        float64       `yaml:"max_angle"`    // degrees, default 180
	CenterAngle     float64       `yaml:"center_angle"` // degrees, default 90
	SettleBase      time.Duration `yaml:"settle_base"`      // fixed part of the settle delay
	SettlePerDegree time.Duration `yaml:"settle_per_degree"` // distance-proportional part
}

// ScanConfig defines sweep defaults and the blocked-distance threshold.
type ScanConfig struct {
	StartAngle      float64       `yaml:"start_angle"`
	EndAngle        float64       `yaml:"end_angle"`
	Step            float64       `yaml:"step"`
	SamplesPerAngle int           `yaml:"samples_per_angle"`
	Settle          time.Duration `yaml:"settle"`
	BlockedBelowCM  float64       `yaml:"blocked_below_cm"`
}

// BackendConfig defines the cloud inference backend and its budget.
type BackendConfig struct {
	APIKey       string        `yaml:"api_key"` // GEMINI_API_KEY overrides
	Model        string        `yaml:"model"`
	Timeout      time.Duration `yaml:"timeout"`
	DailyLimit   int           `yaml:"daily_limit"`
	HourlyLimit  int           `yaml:"hourly_limit"`
	QuotaFile    string        `yaml:"quota_file"`
	ForceOffline bool          `yaml:"force_offline"`
}

// WebConfig defines the dashboard/API server.
type WebConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// MQTTConfig defines the telemetry publisher.
type MQTTConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Broker     string        `yaml:"broker"` // e.g. mqtt://host:1883
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"` // MQTT_PASSWORD overrides
	DeviceName string        `yaml:"device_name"`
	Interval   time.Duration `yaml:"interval"`
}

// MailConfig defines the Gmail unread-summary tool.
type MailConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	TokenPath    string `yaml:"token_path"` // default ~/.jarvis/google_token.json
	MaxMessages  int    `yaml:"max_messages"`
}

// PollConfig defines the background environment poller.
type PollConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// Default returns a Config with working defaults for the reference wiring.
func Default() Config {
	return Config{
		Sensors: SensorsConfig{
			DHT:        DHTConfig{Enabled: true, Pin: "GPIO4", Model: "DHT11"},
			Ultrasonic: UltrasonicConfig{Enabled: true, TriggerPin: "GPIO27", EchoPin: "GPIO22"},
			PIR:        PIRConfig{Enabled: true, Pin: "GPIO17"},
			Gas:        GasConfig{Enabled: false, Pin: "GPIO5", ActiveLow: true},
		},
		Actuator: ActuatorConfig{
			Address:         0x40,
			PanChannel:      0,
			MinAngle:        0,
			MaxAngle:        180,
			CenterAngle:     90,
			SettleBase:      60 * time.Millisecond,
			SettlePerDegree: 3 * time.Millisecond,
		},
		Scan: ScanConfig{
			StartAngle:      30,
			EndAngle:        150,
			Step:            15,
			SamplesPerAngle: 3,
			Settle:          180 * time.Millisecond,
			BlockedBelowCM:  20,
		},
		Backend: BackendConfig{
			Model:       "gemini-2.0-flash",
			Timeout:     10 * time.Second,
			DailyLimit:  1500,
			HourlyLimit: 60,
			QuotaFile:   "jarvis_api_quota.json",
		},
		Web:  WebConfig{Enabled: true, Port: 8080},
		MQTT: MQTTConfig{DeviceName: "jarvis", Interval: time.Minute},
		Mail: MailConfig{MaxMessages: 5},
		Poll: PollConfig{Enabled: true, Interval: 30 * time.Second},

		LogLevel: "info",
	}
}

// Load reads the config file at path, applies env overrides and validates.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv applies the small set of secrets-friendly env overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Backend.APIKey = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		c.MQTT.Password = v
	}
	if v := os.Getenv("JARVIS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks invariants that must hold before any command is processed.
// Violations here are fatal at startup.
func (c *Config) Validate() error {
	if c.Actuator.MinAngle > c.Actuator.MaxAngle {
		return fmt.Errorf("actuator: min_angle %.1f > max_angle %.1f", c.Actuator.MinAngle, c.Actuator.MaxAngle)
	}
	if c.Actuator.CenterAngle < c.Actuator.MinAngle || c.Actuator.CenterAngle > c.Actuator.MaxAngle {
		return fmt.Errorf("actuator: center_angle %.1f outside [%.1f, %.1f]",
			c.Actuator.CenterAngle, c.Actuator.MinAngle, c.Actuator.MaxAngle)
	}
	if c.Scan.StartAngle > c.Scan.EndAngle {
		return fmt.Errorf("scan: start_angle %.1f > end_angle %.1f", c.Scan.StartAngle, c.Scan.EndAngle)
	}
	if c.Scan.Step <= 0 {
		return fmt.Errorf("scan: step must be positive, got %.1f", c.Scan.Step)
	}
	if c.Scan.SamplesPerAngle < 1 {
		return fmt.Errorf("scan: samples_per_angle must be >= 1, got %d", c.Scan.SamplesPerAngle)
	}
	if c.Scan.BlockedBelowCM < 0 {
		return fmt.Errorf("scan: blocked_below_cm must not be negative, got %.1f", c.Scan.BlockedBelowCM)
	}
	if c.Sensors.DHT.Enabled && c.Sensors.DHT.Model != "DHT11" && c.Sensors.DHT.Model != "DHT22" {
		return fmt.Errorf("sensors: unknown DHT model %q", c.Sensors.DHT.Model)
	}
	if c.Web.Enabled && (c.Web.Port < 1 || c.Web.Port > 65535) {
		return fmt.Errorf("web: invalid port %d", c.Web.Port)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt: broker URL required when enabled")
	}
	if c.Mail.Enabled && (c.Mail.ClientID == "" || c.Mail.ClientSecret == "") {
		return fmt.Errorf("mail: client_id and client_secret required when enabled")
	}
	return nil
}
