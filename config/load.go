package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/infrastructure/logger"
)

// AppConfig holds the notifier's runtime configuration.
type AppConfig struct {
	Env           string              `yaml:"env"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Session       SessionConfig       `yaml:"session"`
	Alerts        AlertsConfig        `yaml:"alerts"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Logger        logger.Config       `yaml:"logger"`
}

// NotificationsConfig pins the broker endpoint and transport policy. The
// millisecond fields mirror the broker's own contract and stay in milliseconds
// in the file.
type NotificationsConfig struct {
	Endpoint            string `yaml:"endpoint"`
	TopicPrefix         string `yaml:"topicPrefix"`
	OrderDetailRoute    string `yaml:"orderDetailRoute"`
	ReconnectDelayMs    int    `yaml:"reconnectDelayMs"`
	HeartbeatIncomingMs int    `yaml:"heartbeatIncomingMs"`
	HeartbeatOutgoingMs int    `yaml:"heartbeatOutgoingMs"`
}

// SessionConfig points at the auth-state file the notifier watches.
type SessionConfig struct {
	File string `yaml:"file"`
}

// AlertsConfig selects output channels and the connectivity throttle window.
type AlertsConfig struct {
	Channels         []string      `yaml:"channels"`         // console, log
	ThrottleInterval time.Duration `yaml:"throttleInterval"` // e.g. 5m
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// ReconnectDelay converts the configured milliseconds to a duration, zero
// meaning "use the default".
func (n NotificationsConfig) ReconnectDelay() time.Duration {
	return time.Duration(n.ReconnectDelayMs) * time.Millisecond
}

func (n NotificationsConfig) HeartbeatIncoming() time.Duration {
	return time.Duration(n.HeartbeatIncomingMs) * time.Millisecond
}

func (n NotificationsConfig) HeartbeatOutgoing() time.Duration {
	return time.Duration(n.HeartbeatOutgoingMs) * time.Millisecond
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	cfg := AppConfig{Logger: logger.DefaultConfig()}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides deployment-specific fields
// from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("DEAL_NOTIFY_ENDPOINT"); v != "" {
		cfg.Notifications.Endpoint = v
	}
	if v := os.Getenv("DEAL_SESSION_FILE"); v != "" {
		cfg.Session.File = v
	}
	if v := os.Getenv("DEAL_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	return cfg, Validate(cfg)
}

// Validate ensures required fields are present and coherent.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	n := cfg.Notifications
	if n.Endpoint == "" {
		return errors.New("notifications.endpoint is required")
	}
	if !strings.HasPrefix(n.Endpoint, "ws://") && !strings.HasPrefix(n.Endpoint, "wss://") {
		return fmt.Errorf("notifications.endpoint must be a ws:// or wss:// URL, got %s", n.Endpoint)
	}
	if n.ReconnectDelayMs < 0 {
		return errors.New("notifications.reconnectDelayMs must be >= 0")
	}
	if n.HeartbeatIncomingMs < 0 || n.HeartbeatOutgoingMs < 0 {
		return errors.New("notifications heartbeat intervals must be >= 0")
	}
	if n.TopicPrefix != "" && !strings.HasPrefix(n.TopicPrefix, "/") {
		return fmt.Errorf("notifications.topicPrefix must start with /, got %s", n.TopicPrefix)
	}
	if cfg.Session.File == "" {
		return errors.New("session.file is required")
	}
	if cfg.Alerts.ThrottleInterval < 0 {
		return errors.New("alerts.throttleInterval must be >= 0")
	}
	for _, ch := range cfg.Alerts.Channels {
		switch ch {
		case "console", "log":
		default:
			return fmt.Errorf("unknown alert channel %q", ch)
		}
	}
	return nil
}
