// Copyright (c) 2025 BVK Chaitanya

package cmdutil

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bvk/orderbot/binance"
	"github.com/bvk/orderbot/config"
	"github.com/bvk/orderbot/gateway"
	"github.com/bvk/orderbot/validator"
	"github.com/shopspring/decimal"
)

// Decimal is a flag.Value for decimal numbers.
type Decimal struct {
	decimal.Decimal
}

func (v *Decimal) String() string {
	return v.Decimal.String()
}

func (v *Decimal) Set(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid decimal value %q", s)
	}
	v.Decimal = d
	return nil
}

// GatewayFlags holds the command-line overrides for the exchange settings.
type GatewayFlags struct {
	production bool
	baseURL    string
	recvWindow time.Duration
}

func (f *GatewayFlags) SetFlags(fset *flag.FlagSet) {
	fset.BoolVar(&f.production, "production", false, "when true, uses the production endpoints instead of the testnet (overrides BINANCE_TESTNET)")
	fset.StringVar(&f.baseURL, "base-url", "", "overrides the REST api base url (BINANCE_BASE_URL)")
	fset.DurationVar(&f.recvWindow, "recv-window", 0, "overrides the validity window for signed requests (BINANCE_RECV_WINDOW)")
}

// Settings loads the settings from the environment and applies the flag
// overrides.
func (f *GatewayFlags) Settings() (*config.Settings, error) {
	s, err := config.Load()
	if err != nil {
		return nil, err
	}
	if f.production {
		s.Binance.Testnet = false
	}
	if f.baseURL != "" {
		s.Binance.BaseURL = strings.TrimRight(f.baseURL, "/")
	}
	if f.recvWindow != 0 {
		s.Binance.RecvWindowMillis = int(f.recvWindow.Milliseconds())
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewGateway creates an exchange gateway. Client order ids are derived from the
// seed when it is non-empty.
func NewGateway(ctx context.Context, s *config.Settings, seed string) (*binance.Gateway, error) {
	key, secret, err := config.BinanceCredentials(s)
	if err != nil {
		return nil, err
	}
	opts := &binance.Options{
		Testnet:           bool(s.Binance.Testnet),
		RestURL:           s.Binance.BaseURL,
		RecvWindow:        s.Binance.RecvWindow(),
		ClientOrderIDSeed: seed,
	}
	gw, err := binance.New(ctx, key, secret, opts)
	if err != nil {
		return nil, err
	}
	slog.Debug("connected to the exchange", "testnet", opts.Testnet, "base-url", opts.RestURL)
	return gw, nil
}

// DBFlags holds the data directory flag.
type DBFlags struct {
	dataDir string
}

func (f *DBFlags) SetFlags(fset *flag.FlagSet) {
	fset.StringVar(&f.dataDir, "data-dir", "", "path to the data directory (default ORDERBOT_DATA_DIR or ~/.orderbot)")
}

// DataDir returns the data directory from the flag or the settings.
func (f *DBFlags) DataDir(s *config.Settings) string {
	if f.dataDir != "" {
		return f.dataDir
	}
	return s.DataDir
}

// NewValidator returns an input validator that accepts the symbols listed by
// the exchange. Default symbols are used when the list is not available.
func NewValidator(ctx context.Context, lister gateway.SymbolLister) *validator.Validator {
	v := validator.New()
	symbols, err := lister.Symbols(ctx)
	if err != nil {
		slog.Warn("could not fetch exchange symbols; using the defaults", "err", err)
		return v
	}
	if len(symbols) > 0 {
		v.Symbols = symbols
	}
	return v
}
