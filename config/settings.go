// Copyright (c) 2025 BVK Chaitanya

// Package config loads process settings from the environment, api secrets
// from a json file and strategy parameters from yaml files.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bvk/orderbot/errs"
	"github.com/caarlos0/env/v11"
)

// Bool is a boolean environment value that also accepts yes and no.
type Bool bool

func (v *Bool) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "1", "t", "true", "y", "yes", "on":
		*v = true
	case "", "0", "f", "false", "n", "no", "off":
		*v = false
	default:
		return fmt.Errorf("invalid boolean value %q: %w", text, os.ErrInvalid)
	}
	return nil
}

type Binance struct {
	APIKey    string `env:"API_KEY"`
	APISecret string `env:"API_SECRET"`

	// Testnet selects the futures testnet endpoints.
	Testnet Bool `env:"TESTNET" envDefault:"true"`

	// BaseURL overrides the REST endpoint chosen by Testnet.
	BaseURL string `env:"BASE_URL"`

	// RecvWindowMillis is the validity window of signed requests in
	// milliseconds.
	RecvWindowMillis int `env:"RECV_WINDOW" envDefault:"5000"`
}

// RecvWindow returns the recv window as a duration.
func (v *Binance) RecvWindow() time.Duration {
	return time.Duration(v.RecvWindowMillis) * time.Millisecond
}

type Settings struct {
	Binance Binance `envPrefix:"BINANCE_"`

	// DataDir holds the journal database and the lock file.
	DataDir string `env:"ORDERBOT_DATA_DIR"`

	// LogDir, when non-empty, receives rotated log files.
	LogDir string `env:"ORDERBOT_LOG_DIR"`

	// SecretsFile is the path to the api secrets file.
	SecretsFile string `env:"ORDERBOT_SECRETS_FILE"`
}

// Load parses the settings from the process environment.
func Load() (*Settings, error) {
	return LoadFrom(nil)
}

// LoadFrom parses the settings from the environ map. Process environment is
// used when environ is nil.
func LoadFrom(environ map[string]string) (*Settings, error) {
	s := new(Settings)
	opts := env.Options{Environment: environ}
	if err := env.ParseWithOptions(s, opts); err != nil {
		return nil, errs.NewConfigError("environment", "%v", err)
	}
	if err := s.setDefaults(); err != nil {
		return nil, err
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) setDefaults() error {
	if s.DataDir == "" || s.SecretsFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errs.NewConfigError("ORDERBOT_DATA_DIR", "could not determine home directory: %v", err)
		}
		if s.DataDir == "" {
			s.DataDir = filepath.Join(home, ".orderbot")
		}
		if s.SecretsFile == "" {
			s.SecretsFile = filepath.Join(home, ".orderbot", "secrets.json")
		}
	}
	return nil
}

func (s *Settings) Check() error {
	if s.Binance.RecvWindowMillis <= 0 || s.Binance.RecvWindowMillis > 60000 {
		return errs.NewConfigError("BINANCE_RECV_WINDOW", "must be within 1..60000 milliseconds, got %d", s.Binance.RecvWindowMillis)
	}
	if s.Binance.BaseURL != "" {
		u, err := url.Parse(s.Binance.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errs.NewConfigError("BINANCE_BASE_URL", "invalid url %q", s.Binance.BaseURL)
		}
		s.Binance.BaseURL = strings.TrimRight(s.Binance.BaseURL, "/")
	}
	if !filepath.IsAbs(s.DataDir) {
		abs, err := filepath.Abs(s.DataDir)
		if err != nil {
			return errs.NewConfigError("ORDERBOT_DATA_DIR", "%v", err)
		}
		s.DataDir = abs
	}
	return nil
}
