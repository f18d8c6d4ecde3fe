package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
bridge:
  id: "tradfri-living"
  debug: true
gateway:
  host: "192.168.1.20"
  name: "gw-b072bf257a41"
  port: 5684
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8091
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bridge.ID != "tradfri-living" {
		t.Errorf("Bridge.ID = %q, want %q", cfg.Bridge.ID, "tradfri-living")
	}
	if !cfg.Bridge.Debug {
		t.Error("Bridge.Debug = false, want true")
	}
	if cfg.Gateway.Host != "192.168.1.20" {
		t.Errorf("Gateway.Host = %q, want %q", cfg.Gateway.Host, "192.168.1.20")
	}
	if cfg.GatewayAddress() != "192.168.1.20:5684" {
		t.Errorf("GatewayAddress() = %q, want %q", cfg.GatewayAddress(), "192.168.1.20:5684")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	// Defaults survive partial files
	if cfg.Bridge.HealthInterval != 30 {
		t.Errorf("Bridge.HealthInterval = %d, want 30", cfg.Bridge.HealthInterval)
	}
	if cfg.GetDiscoveryTimeout() != 10*time.Second {
		t.Errorf("GetDiscoveryTimeout() = %v, want 10s", cfg.GetDiscoveryTimeout())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
bridge:
  id: "bad/id"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error for bridge.id with slash, got nil")
	}
	if !strings.Contains(err.Error(), "bridge.id") {
		t.Errorf("error = %v, want mention of bridge.id", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "empty bridge id",
			mutate:  func(c *Config) { c.Bridge.ID = "" },
			wantErr: "bridge.id is required",
		},
		{
			name:    "wildcard in bridge id",
			mutate:  func(c *Config) { c.Bridge.ID = "trad#fri" },
			wantErr: "bridge.id must not contain",
		},
		{
			name:    "gateway port out of range",
			mutate:  func(c *Config) { c.Gateway.Port = 70000 },
			wantErr: "gateway.port",
		},
		{
			name:    "explicit host without name",
			mutate:  func(c *Config) { c.Gateway.Host = "10.0.0.2" },
			wantErr: "gateway.name is required",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path is required",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "influx enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: "influxdb.url",
		},
		{
			name:    "api port invalid",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: "api.port",
		},
		{
			name: "api port ignored when disabled",
			mutate: func(c *Config) {
				c.API.Enabled = false
				c.API.Port = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Bridge.ID = ""
	cfg.Database.Path = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want errors")
	}
	if !strings.Contains(err.Error(), "bridge.id") || !strings.Contains(err.Error(), "database.path") {
		t.Errorf("Validate() error = %v, want both bridge.id and database.path", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
bridge:
  id: "tradfri"
`
	t.Setenv("GRAYLOGIC_TRADFRI_GATEWAY_HOST", "10.0.0.5")
	t.Setenv("GRAYLOGIC_TRADFRI_GATEWAY_PORT", "15684")
	t.Setenv("GRAYLOGIC_TRADFRI_SECURITY_CODE", "abcdEFGHijklMNOP")
	t.Setenv("GRAYLOGIC_TRADFRI_DATABASE_PATH", "/var/lib/tradfri.db")
	t.Setenv("GRAYLOGIC_TRADFRI_MQTT_HOST", "broker.local")
	t.Setenv("GRAYLOGIC_TRADFRI_LOG_LEVEL", "debug")

	// An explicit host needs a name to key its credentials.
	content += `
gateway:
  name: "gw-test"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.Host != "10.0.0.5" {
		t.Errorf("Gateway.Host = %q, want %q", cfg.Gateway.Host, "10.0.0.5")
	}
	if cfg.Gateway.Port != 15684 {
		t.Errorf("Gateway.Port = %d, want 15684", cfg.Gateway.Port)
	}
	if cfg.Gateway.SecurityCode != "abcdEFGHijklMNOP" {
		t.Errorf("Gateway.SecurityCode = %q, want override", cfg.Gateway.SecurityCode)
	}
	if cfg.Database.Path != "/var/lib/tradfri.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/var/lib/tradfri.db")
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.GetHealthInterval(); got != 30*time.Second {
		t.Errorf("GetHealthInterval() = %v, want 30s", got)
	}
	if got := cfg.GetConnectTimeout(); got != 10*time.Second {
		t.Errorf("GetConnectTimeout() = %v, want 10s", got)
	}
	if got := cfg.GetReadTimeout(); got != 30*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 30s", got)
	}
	if got := cfg.GetIdleTimeout(); got != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v, want 60s", got)
	}
}
