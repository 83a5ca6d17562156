package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration.
type Config struct {
	Broker    BrokerConfig    `json:"broker" yaml:"broker"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Executor  ExecutorConfig  `json:"executor" yaml:"executor"`
	Monitor   MonitorConfig   `json:"monitor" yaml:"monitor"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
	Defaults  DefaultsConfig  `json:"defaults" yaml:"defaults"`
}

// BrokerConfig selects the gateway. Type "oanda" reads credentials
// from the environment; "sim" runs against the in-memory broker.
type BrokerConfig struct {
	Type string `json:"type" yaml:"type"`
	Env  string `json:"env,omitempty" yaml:"env,omitempty"` // practice | live
}

type SchedulerConfig struct {
	DBPath         string `json:"db_path" yaml:"db_path"`
	RecoveryPolicy string `json:"recovery_policy,omitempty" yaml:"recovery_policy,omitempty"` // refire | mark-missed
	RescanInterval string `json:"rescan_interval,omitempty" yaml:"rescan_interval,omitempty"` // e.g. "5s"
}

// ParseRescanInterval converts the daemon's store rescan interval to a
// duration, with 5s as the default.
func (sc SchedulerConfig) ParseRescanInterval() (time.Duration, error) {
	if sc.RescanInterval == "" {
		return 5 * time.Second, nil
	}
	return time.ParseDuration(sc.RescanInterval)
}

type ExecutorConfig struct {
	BatchConcurrency int `json:"batch_concurrency,omitempty" yaml:"batch_concurrency,omitempty"`
}

type MonitorConfig struct {
	PollInterval string `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"` // e.g. "1s"
}

// ParsePollInterval converts the poll interval to a duration, with 1s
// as the default.
func (mc MonitorConfig) ParsePollInterval() (time.Duration, error) {
	if mc.PollInterval == "" {
		return time.Second, nil
	}
	return time.ParseDuration(mc.PollInterval)
}

type JournalConfig struct {
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"` // empty disables the journal
}

type MetricsConfig struct {
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"` // empty disables /metrics
}

// DefaultsConfig pre-fills intent parameters the CLI flags leave out.
type DefaultsConfig struct {
	RiskAmount    float64 `json:"risk_amount,omitempty" yaml:"risk_amount,omitempty"`
	StopPips      float64 `json:"stop_pips,omitempty" yaml:"stop_pips,omitempty"`
	TargetPips    float64 `json:"target_pips,omitempty" yaml:"target_pips,omitempty"`
	BreakEvenPips float64 `json:"break_even_pips,omitempty" yaml:"break_even_pips,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON based on content).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	switch c.Broker.Type {
	case "oanda", "sim":
	case "":
		return fmt.Errorf("broker.type is required (oanda or sim)")
	default:
		return fmt.Errorf("broker.type must be 'oanda' or 'sim', got %q", c.Broker.Type)
	}
	if c.Broker.Type == "oanda" {
		switch c.Broker.Env {
		case "", "practice", "live":
		default:
			return fmt.Errorf("broker.env must be 'practice' or 'live', got %q", c.Broker.Env)
		}
	}
	if c.Scheduler.DBPath == "" {
		return fmt.Errorf("scheduler.db_path is required")
	}
	switch c.Scheduler.RecoveryPolicy {
	case "", "refire", "mark-missed":
	default:
		return fmt.Errorf("scheduler.recovery_policy must be 'refire' or 'mark-missed', got %q", c.Scheduler.RecoveryPolicy)
	}
	if _, err := c.Scheduler.ParseRescanInterval(); err != nil {
		return fmt.Errorf("scheduler.rescan_interval: %w", err)
	}
	if c.Executor.BatchConcurrency < 0 {
		return fmt.Errorf("executor.batch_concurrency must not be negative")
	}
	if _, err := c.Monitor.ParsePollInterval(); err != nil {
		return fmt.Errorf("monitor.poll_interval: %w", err)
	}
	if c.Defaults.RiskAmount < 0 || c.Defaults.StopPips < 0 || c.Defaults.TargetPips < 0 || c.Defaults.BreakEvenPips < 0 {
		return fmt.Errorf("defaults must not be negative")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Broker: BrokerConfig{
			Type: "oanda",
			Env:  "practice",
		},
		Scheduler: SchedulerConfig{
			DBPath:         "./fxengine.sqlite",
			RecoveryPolicy: "refire",
			RescanInterval: "5s",
		},
		Executor: ExecutorConfig{
			BatchConcurrency: 4,
		},
		Monitor: MonitorConfig{
			PollInterval: "1s",
		},
		Journal: JournalConfig{
			DBPath: "./fxengine.sqlite",
		},
		Metrics: MetricsConfig{
			ListenAddr: "",
		},
		Defaults: DefaultsConfig{
			RiskAmount:    100,
			StopPips:      25,
			TargetPips:    50,
			BreakEvenPips: 15,
		},
	}
}
