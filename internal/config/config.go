package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config defines connector configuration.
type Config struct {
	Platform  PlatformConfig  `yaml:"platform"`
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PlatformConfig holds how the connector reaches and talks to the Tygron platform.
type PlatformConfig struct {
	BaseURL        string        `yaml:"base_url" env:"TYGRON_PLATFORM_URL"`
	Username       string        `yaml:"username" env:"TYGRON_USERNAME"`
	Password       string        `yaml:"password" env:"TYGRON_PASSWORD"`
	Language       string        `yaml:"language" env:"TYGRON_LANGUAGE"`
	AgentName      string        `yaml:"agent_name" env:"TYGRON_AGENT_NAME"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"TYGRON_REQUEST_TIMEOUT"`
	ConnectRetries uint          `yaml:"connect_retries" env:"TYGRON_CONNECT_RETRIES"`
	InitTimeout    time.Duration `yaml:"init_timeout" env:"TYGRON_INIT_TIMEOUT"`
	StrictReplies  bool          `yaml:"strict_replies" env:"TYGRON_STRICT_REPLIES"`
}

// ServerConfig configures the HTTP listener used in http transport mode.
type ServerConfig struct {
	Host string `yaml:"host" env:"TYGRON_SERVER_HOST"`
	Port int    `yaml:"port" env:"TYGRON_SERVER_PORT"`
}

// TransportConfig selects how MCP clients connect.
type TransportConfig struct {
	Mode string `yaml:"mode" env:"TYGRON_TRANSPORT"`
}

// DBConfig locates the activity database.
type DBConfig struct {
	Path string `yaml:"path" env:"TYGRON_DB_PATH"`
}

// LogConfig sets the log level and an optional log file.
type LogConfig struct {
	Level string `yaml:"level" env:"TYGRON_LOG_LEVEL"`
	Path  string `yaml:"path" env:"TYGRON_LOG_PATH"`
}

// TelemetryConfig configures trace export and the metrics listener.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"TYGRON_OTLP_ENDPOINT"`
	MetricsAddr  string `yaml:"metrics_addr" env:"TYGRON_METRICS_ADDR"`
}

// Load reads configuration from an optional YAML file and environment variables.
// Environment variables take precedence over the file.
func Load() (Config, error) {
	cfg := Config{
		Platform: PlatformConfig{
			BaseURL:        "https://engine.tygron.com",
			Language:       "EN",
			AgentName:      "Tygron-API-Agent",
			RequestTimeout: 30 * time.Second,
			ConnectRetries: 2,
			InitTimeout:    15 * time.Second,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		DB: DBConfig{
			Path: "tygron-connector.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("TYGRON_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q: want stdio or http", c.Transport.Mode)
	}
	if c.Platform.BaseURL == "" {
		return fmt.Errorf("platform base url is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
