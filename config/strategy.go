// Copyright (c) 2025 BVK Chaitanya

package config

import (
	"bytes"
	"os"
	"time"

	"github.com/bvk/orderbot/errs"
	"github.com/bvk/orderbot/gateway"
	"github.com/bvk/orderbot/grid"
	"github.com/bvk/orderbot/twap"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// GridFile holds the grid strategy parameters in a yaml file.
type GridFile struct {
	Symbol      string          `yaml:"symbol"`
	LowerPrice  decimal.Decimal `yaml:"lower_price"`
	UpperPrice  decimal.Decimal `yaml:"upper_price"`
	Grids       int             `yaml:"grids"`
	Investment  decimal.Decimal `yaml:"investment"`
	InitialSide string          `yaml:"initial_side"`

	RetryFailedLevels bool `yaml:"retry_failed_levels"`
}

// Config converts the file parameters into a grid configuration.
func (v *GridFile) Config() (*grid.Config, error) {
	side := gateway.Buy
	if v.InitialSide != "" {
		s, err := gateway.ParseSide(v.InitialSide)
		if err != nil {
			return nil, errs.NewConfigError("initial_side", "%v", err)
		}
		side = s
	}
	cfg := &grid.Config{
		Symbol:      v.Symbol,
		LowerPrice:  v.LowerPrice,
		UpperPrice:  v.UpperPrice,
		GridCount:   v.Grids,
		Investment:  v.Investment,
		InitialSide: side,
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TWAPFile holds the twap strategy parameters in a yaml file.
type TWAPFile struct {
	Symbol   string          `yaml:"symbol"`
	Side     string          `yaml:"side"`
	Quantity decimal.Decimal `yaml:"quantity"`
	Slices   int             `yaml:"slices"`
	Interval time.Duration   `yaml:"interval"`
}

// Config converts the file parameters into a twap configuration.
func (v *TWAPFile) Config() (*twap.Config, error) {
	side, err := gateway.ParseSide(v.Side)
	if err != nil {
		return nil, errs.NewConfigError("side", "%v", err)
	}
	cfg := &twap.Config{
		Symbol:        v.Symbol,
		Side:          side,
		TotalQuantity: v.Quantity,
		TotalSlices:   v.Slices,
		Interval:      v.Interval,
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadYAML decodes a yaml file into the value. Unknown fields are rejected.
func ReadYAML(fpath string, v any) error {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return errs.NewConfigError(fpath, "could not decode yaml: %v", err)
	}
	return nil
}
