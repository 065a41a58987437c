// Copyright (c) 2025 BVK Chaitanya

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bvk/orderbot/errs"
	"github.com/bvk/orderbot/pushover"
	"github.com/bvk/orderbot/telegram"
)

type BinanceKeys struct {
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

func (v *BinanceKeys) Check() error {
	if v.Key == "" {
		return errs.NewConfigError("binance.key", "api key cannot be empty")
	}
	if v.Secret == "" {
		return errs.NewConfigError("binance.secret", "api secret cannot be empty")
	}
	return nil
}

// Secrets holds the api credentials stored in the secrets file.
type Secrets struct {
	Binance *BinanceKeys `json:"binance,omitempty"`

	Telegram *telegram.Secrets `json:"telegram,omitempty"`

	Pushover *pushover.Keys `json:"pushover,omitempty"`
}

func (v *Secrets) Check() error {
	if v.Binance != nil {
		if err := v.Binance.Check(); err != nil {
			return err
		}
	}
	if v.Telegram != nil {
		if err := v.Telegram.Check(); err != nil {
			return errs.NewConfigError("telegram", "%v", err)
		}
	}
	if v.Pushover != nil {
		if err := v.Pushover.Check(); err != nil {
			return errs.NewConfigError("pushover", "%v", err)
		}
	}
	return nil
}

// ReadSecrets reads the secrets file.
func ReadSecrets(fpath string) (*Secrets, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	s := new(Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, errs.NewConfigError("secrets", "could not parse %q: %v", fpath, err)
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return s, nil
}

// WriteSecrets atomically writes the secrets file with owner only permissions.
func WriteSecrets(fpath string, s *Secrets) error {
	if err := s.Check(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fpath), 0700); err != nil {
		return err
	}
	tmp := fpath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("could not write secrets file: %w", err)
	}
	if err := os.Rename(tmp, fpath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("could not rename secrets file: %w", err)
	}
	return nil
}

// BinanceCredentials returns the api key and secret, preferring the
// environment settings over the secrets file.
func BinanceCredentials(settings *Settings) (key, secret string, err error) {
	key, secret = settings.Binance.APIKey, settings.Binance.APISecret
	if key != "" && secret != "" {
		return key, secret, nil
	}
	s, err := ReadSecrets(settings.SecretsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", errs.NewConfigError("BINANCE_API_KEY", "api credentials are not set in the environment or the secrets file")
		}
		return "", "", err
	}
	if s.Binance == nil {
		return "", "", errs.NewConfigError("binance", "secrets file %q has no binance keys", settings.SecretsFile)
	}
	return s.Binance.Key, s.Binance.Secret, nil
}
