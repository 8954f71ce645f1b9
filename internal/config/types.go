package config

import (
	"fmt"
	"strings"
	"time"

	"linkscout/internal/httpapi"
	"linkscout/internal/notify"
	"linkscout/internal/store"
	logx "linkscout/pkg/logx"
)

// Config is the process configuration. JSON is the native format; YAML
// files are accepted and coerced (see yaml.go).
type Config struct {
	Logging LoggingConfig `json:"logging"`
	HTTP    HTTPConfig    `json:"http"`
	Store   StoreConfig   `json:"store"`
	Reports ReportsConfig `json:"reports"`
	Notify  NotifyConfig  `json:"notify"`
}

type LoggingConfig struct {
	Level   string `json:"level"`
	Console bool   `json:"console"`
	File    struct {
		Enabled bool   `json:"enabled"`
		Path    string `json:"path,omitempty"`
	} `json:"file"`
}

type HTTPConfig struct {
	Addr string `json:"addr,omitempty"` // default ":3000"
}

// StoreConfig controls where schedule records live.
//
// Example:
//
//	"store": { "driver": "file", "path": "./schedules.json" }
type StoreConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

type ReportsConfig struct {
	Dir string `json:"dir,omitempty"` // default "./reports"
}

// NotifyConfig controls delivery channels. Email is required for report
// delivery; Telegram is an optional operator channel.
type NotifyConfig struct {
	Email struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		Username string `json:"username"`
		Password string `json:"password"`
		From     string `json:"from"`
	} `json:"email"`
	Telegram struct {
		Enabled bool   `json:"enabled"`
		Token   string `json:"token,omitempty"`
		ChatID  int64  `json:"chat_id,omitempty"`
	} `json:"telegram,omitempty"`
}

// Validate rejects configs that cannot possibly run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("store.path is required")
	}
	if _, err := ParseDurationField("store.busy_timeout", c.Store.BusyTimeout); err != nil {
		return err
	}
	if c.Notify.Telegram.Enabled && strings.TrimSpace(c.Notify.Telegram.Token) == "" {
		return fmt.Errorf("notify.telegram.token is required when telegram is enabled")
	}
	return nil
}

func (c *Config) Logx() logx.Config {
	return logx.Config{
		Level:   c.Logging.Level,
		Console: c.Logging.Console,
		File: logx.FileConfig{
			Enabled: c.Logging.File.Enabled,
			Path:    c.Logging.File.Path,
		},
	}
}

func (c *Config) StoreConfig() store.Config {
	busy, _ := ParseDurationField("store.busy_timeout", c.Store.BusyTimeout)
	return store.Config{
		Driver:      c.Store.Driver,
		Path:        c.Store.Path,
		BusyTimeout: busy,
	}
}

func (c *Config) HTTPAPI() httpapi.Config {
	return httpapi.Config{Addr: c.HTTP.Addr}
}

func (c *Config) NotifyConfig() notify.Config {
	return notify.Config{
		Email: notify.EmailConfig{
			Host:     c.Notify.Email.Host,
			Port:     c.Notify.Email.Port,
			Username: c.Notify.Email.Username,
			Password: c.Notify.Email.Password,
			From:     c.Notify.Email.From,
		},
		Telegram: notify.TelegramConfig{
			Enabled: c.Notify.Telegram.Enabled,
			Token:   c.Notify.Telegram.Token,
			ChatID:  c.Notify.Telegram.ChatID,
		},
	}
}

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}
