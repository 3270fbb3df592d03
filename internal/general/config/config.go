package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BrokerMQTT = "mqtt"
	BrokerAMQP = "amqp"
)

type Config struct {
	Identity struct {
		ID   string `yaml:"id"`
		Role string `yaml:"role"`
	} `yaml:"identity"`
	Broker struct {
		Kind     string `yaml:"kind"` // mqtt | amqp
		URL      string `yaml:"url"`
		Username string `yaml:"username"`
	} `yaml:"broker"`
	API struct {
		BaseURL string        `yaml:"base_url"`
		Token   string        `yaml:"token"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`
	Credential struct {
		RefreshInterval time.Duration `yaml:"refresh_interval"`
	} `yaml:"credential"`
	Dispatch struct {
		DepthWarning int `yaml:"depth_warning"`
		DedupeWindow int `yaml:"dedupe_window"`
	} `yaml:"dispatch"`
	Journal struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"database"`

		// Retention bounds how long handled message ids are kept.
		Retention time.Duration `yaml:"retention"`
	} `yaml:"journal"`
	Telemetry struct {
		ListenAddr  string `yaml:"listen_addr"`
		TraceStdout bool   `yaml:"trace_stdout"`
	} `yaml:"telemetry"`
	UIBridge struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"ui_bridge"`
	JWT struct {
		SecretKey string `yaml:"secret_key"`
	} `yaml:"jwt"`
}

// LoadFromFile loads config from a YAML file to a Config struct, applies
// environment overrides and defaults, and validates required fields.
func LoadFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Load(file, os.LookupEnv)
}

// Load decodes YAML from r. lookup resolves RIDEHAIL_* overrides; nil skips them.
func Load(r io.Reader, lookup func(string) (string, bool)) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if lookup != nil {
		if err := applyEnv(&cfg, lookup); err != nil {
			return nil, fmt.Errorf("invalid environment override: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	if cfg.Broker.Kind == "" {
		cfg.Broker.Kind = BrokerMQTT
	}

	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 15 * time.Second
	}

	if cfg.Credential.RefreshInterval == 0 {
		cfg.Credential.RefreshInterval = 14 * time.Minute
	}

	if cfg.Dispatch.DepthWarning == 0 {
		cfg.Dispatch.DepthWarning = 50
	}
	if cfg.Dispatch.DedupeWindow == 0 {
		cfg.Dispatch.DedupeWindow = 512
	}

	if cfg.Journal.Host == "" {
		cfg.Journal.Host = "localhost"
	}
	if cfg.Journal.Port == 0 {
		cfg.Journal.Port = 5432
	}
	if cfg.Journal.Retention == 0 {
		cfg.Journal.Retention = 72 * time.Hour
	}

	if cfg.Telemetry.ListenAddr == "" {
		cfg.Telemetry.ListenAddr = "127.0.0.1:9464"
	}

	if cfg.UIBridge.Path == "" {
		cfg.UIBridge.Path = "/ui"
	}
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	if strings.TrimSpace(c.Identity.ID) == "" {
		problems = append(problems, "identity.id is required")
	}
	switch strings.ToLower(strings.TrimSpace(c.Identity.Role)) {
	case "rider", "passenger", "driver":
	default:
		problems = append(problems, "identity.role must be rider or driver")
	}

	switch c.Broker.Kind {
	case BrokerMQTT, BrokerAMQP:
	default:
		problems = append(problems, "broker.kind must be mqtt or amqp")
	}
	if u, err := url.Parse(c.Broker.URL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, "broker.url must be an absolute URL")
	}

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, "api.base_url must be an absolute URL")
	}
	if c.API.Timeout < 0 {
		problems = append(problems, "api.timeout must be positive")
	}

	if c.Credential.RefreshInterval < time.Second {
		problems = append(problems, "credential.refresh_interval must be at least 1s")
	}

	if c.Dispatch.DepthWarning < 1 {
		problems = append(problems, "dispatch.depth_warning must be >= 1")
	}
	if c.Dispatch.DedupeWindow < 0 {
		problems = append(problems, "dispatch.dedupe_window must be >= 0")
	}

	if c.Journal.Enabled {
		if c.Journal.Port <= 0 || c.Journal.Port > 65535 {
			problems = append(problems, "journal.port must be in 1..65535")
		}
		if c.Journal.User == "" {
			problems = append(problems, "journal.user is required")
		}
		if c.Journal.Name == "" {
			problems = append(problems, "journal.database is required")
		}
	}

	if !strings.HasPrefix(c.UIBridge.Path, "/") {
		problems = append(problems, "ui_bridge.path must start with /")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// DatabaseURL renders the journal connection string for pgxpool.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Journal.User, c.Journal.Password),
		Host:     fmt.Sprintf("%s:%d", c.Journal.Host, c.Journal.Port),
		Path:     "/" + c.Journal.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
