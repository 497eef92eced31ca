package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultRTUConfigFile is where the RTU topology lives on a provisioned unit.
const DefaultRTUConfigFile = "/etc/NavasotaBrewing/rtu_conf.yaml"

// Config is the root configuration structure for the Iris hub.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	RTU       RTUConfig       `yaml:"rtu"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Poller    PollerConfig    `yaml:"poller"`
	Hardware  HardwareConfig  `yaml:"hardware"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// RTUConfig points at the device topology file.
type RTUConfig struct {
	ConfigFile string `yaml:"config_file"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// PublicHost is the host:port advertised in /register URLs.
	// Empty means use the Host header of the registering request.
	PublicHost string           `yaml:"public_host"`
	Timeouts   APITimeoutConfig `yaml:"timeouts"`
	CORS       CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
	SendBuffer     int `yaml:"send_buffer"`
}

// PollerConfig controls the background hardware refresh.
type PollerConfig struct {
	// Interval between refreshes in seconds.
	Interval int `yaml:"interval"`
}

// HardwareConfig contains serial line settings shared by the device drivers.
type HardwareConfig struct {
	TimeoutMS     int `yaml:"timeout_ms"`
	STR1Baud      int `yaml:"str1_baud"`
	WaveshareBaud int `yaml:"waveshare_baud"`
	CN7500Baud    int `yaml:"cn7500_baud"`
}

// MQTTConfig contains MQTT broker connection settings.
// The MQTT mirror is optional; websocket clients never depend on it.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: IRIS_SECTION_KEY
// For example: IRIS_API_PORT, IRIS_RTU_CONFIG
//
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		RTU: RTUConfig{
			ConfigFile: DefaultRTUConfigFile,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 3012,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 65536,
			PingInterval:   30,
			PongTimeout:    10,
			SendBuffer:     256,
		},
		Poller: PollerConfig{
			Interval: 25,
		},
		Hardware: HardwareConfig{
			TimeoutMS:     500,
			STR1Baud:      38400,
			WaveshareBaud: 9600,
			CN7500Baud:    19200,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "iris-hub",
			},
			QoS:         1,
			TopicPrefix: "iris",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: IRIS_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// RTU
	if v := os.Getenv("IRIS_RTU_CONFIG"); v != "" {
		cfg.RTU.ConfigFile = v
	}

	// API
	if v := os.Getenv("IRIS_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("IRIS_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("IRIS_API_PUBLIC_HOST"); v != "" {
		cfg.API.PublicHost = v
	}

	// Poller
	if v := os.Getenv("IRIS_POLL_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.Poller.Interval = secs
		}
	}

	// MQTT
	if v := os.Getenv("IRIS_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("IRIS_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("IRIS_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Logging
	if v := os.Getenv("IRIS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.RTU.ConfigFile) == "" {
		errs = append(errs, "rtu.config_file is required")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.WebSocket.SendBuffer < 1 {
		errs = append(errs, "websocket.send_buffer must be positive")
	}
	if c.WebSocket.PingInterval < 1 {
		errs = append(errs, "websocket.ping_interval must be positive")
	}

	if c.Poller.Interval < 1 {
		errs = append(errs, "poller.interval must be at least 1 second")
	}

	if c.Hardware.TimeoutMS < 1 {
		errs = append(errs, "hardware.timeout_ms must be positive")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetPollInterval returns the poller interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Poller.Interval) * time.Second
}

// GetHardwareTimeout returns the per-request serial timeout as a Duration.
func (c *Config) GetHardwareTimeout() time.Duration {
	return time.Duration(c.Hardware.TimeoutMS) * time.Millisecond
}
