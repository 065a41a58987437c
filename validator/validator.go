// Copyright (c) 2025 BVK Chaitanya

// Package validator checks order inputs before any exchange call is made.
package validator

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/bvk/orderbot/errs"
	"github.com/bvk/orderbot/gateway"
	"github.com/bvk/orderbot/point"
	"github.com/shopspring/decimal"
)

type OrderKind string

const (
	KindMarket    OrderKind = "MARKET"
	KindLimit     OrderKind = "LIMIT"
	KindStopLimit OrderKind = "STOP_LIMIT"
	KindOCO       OrderKind = "OCO"
	KindTWAP      OrderKind = "TWAP"
	KindGrid      OrderKind = "GRID"
)

var Kinds = []OrderKind{KindMarket, KindLimit, KindStopLimit, KindOCO, KindTWAP, KindGrid}

// DefaultSymbols is used when no exchange provided symbol list is available.
var DefaultSymbols = []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "XRPUSDT", "ADAUSDT"}

var symbolRe = regexp.MustCompile(`^[A-Z]{3,10}USDT$`)

type Validator struct {
	MinQuantity decimal.Decimal
	MaxQuantity decimal.Decimal
	MinPrice    decimal.Decimal

	// Symbols holds the supported symbols. Defaults to DefaultSymbols.
	Symbols []string
}

func New() *Validator {
	return &Validator{
		MinQuantity: decimal.RequireFromString("0.001"),
		MaxQuantity: decimal.NewFromInt(1000),
		MinPrice:    decimal.RequireFromString("0.01"),
		Symbols:     slices.Clone(DefaultSymbols),
	}
}

// Symbol returns the normalized (upper case) symbol name if it is valid.
func (v *Validator) Symbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolRe.MatchString(s) {
		return "", errs.NewValidationError("symbol", symbol, "invalid symbol format")
	}
	symbols := v.Symbols
	if len(symbols) == 0 {
		symbols = DefaultSymbols
	}
	if !slices.Contains(symbols, s) {
		return "", errs.NewValidationError("symbol", symbol, "unsupported symbol")
	}
	return s, nil
}

func (v *Validator) Quantity(qty decimal.Decimal) error {
	return v.quantity("quantity", qty)
}

func (v *Validator) quantity(field string, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return errs.NewValidationError(field, qty, "must be greater than zero")
	}
	if qty.LessThan(v.MinQuantity) {
		return errs.NewValidationError(field, qty, "too small; minimum allowed is %s", v.MinQuantity)
	}
	if qty.GreaterThan(v.MaxQuantity) {
		return errs.NewValidationError(field, qty, "too large; maximum allowed is %s", v.MaxQuantity)
	}
	return nil
}

func (v *Validator) Price(field string, price decimal.Decimal) error {
	if !price.IsPositive() {
		return errs.NewValidationError(field, price, "must be positive")
	}
	if price.LessThan(v.MinPrice) {
		return errs.NewValidationError(field, price, "must be at least %s", v.MinPrice)
	}
	return nil
}

func (v *Validator) Side(side string) (gateway.Side, error) {
	return gateway.ParseSide(side)
}

func (v *Validator) Kind(kind string) (OrderKind, error) {
	k := OrderKind(strings.ToUpper(strings.TrimSpace(kind)))
	if !slices.Contains(Kinds, k) {
		return "", errs.NewValidationError("order_type", kind, "unsupported order type")
	}
	return k, nil
}

// Order is the combined input for a single order attempt.
type Order struct {
	Kind     string
	Symbol   string
	Side     string
	Quantity decimal.Decimal

	Price     decimal.Decimal
	StopPrice decimal.Decimal
}

// Check validates the common order fields and the prices required by the
// order kind. Returns normalized symbol and side values.
func (v *Validator) Check(o *Order) (symbol string, side gateway.Side, err error) {
	if symbol, err = v.Symbol(o.Symbol); err != nil {
		return "", "", err
	}
	if side, err = v.Side(o.Side); err != nil {
		return "", "", err
	}
	if err = v.Quantity(o.Quantity); err != nil {
		return "", "", err
	}
	kind, err := v.Kind(o.Kind)
	if err != nil {
		return "", "", err
	}
	switch kind {
	case KindLimit:
		err = v.Price("price", o.Price)
	case KindStopLimit, KindOCO:
		if err = v.Price("price", o.Price); err == nil {
			err = v.Price("stop_price", o.StopPrice)
		}
	}
	if err != nil {
		return "", "", err
	}
	return symbol, side, nil
}

// GridRange checks the grid specific inputs.
func (v *Validator) GridRange(lower, upper decimal.Decimal, grids int, investment decimal.Decimal) error {
	if err := v.Price("lower_price", lower); err != nil {
		return err
	}
	if err := v.Price("upper_price", upper); err != nil {
		return err
	}
	if lower.GreaterThanOrEqual(upper) {
		return errs.NewValidationError("lower_price", lower, "must be less than upper price %s", upper)
	}
	if grids < 1 {
		return errs.NewValidationError("grids", grids, "must be at least one")
	}
	if !investment.IsPositive() {
		return errs.NewValidationError("investment", investment, "must be positive")
	}
	return nil
}

// LevelQuantity checks the order sizes of a grid that places the same
// notional amount at every level. Sizes are largest at the lower price and
// smallest at the upper price.
func (v *Validator) LevelQuantity(lower, upper, notional decimal.Decimal) error {
	if !lower.IsPositive() || !upper.IsPositive() {
		return errs.NewValidationError("lower_price", lower, "grid prices must be positive")
	}
	if err := v.quantity("level_quantity", notional.Div(upper).Round(point.QuantityPlaces)); err != nil {
		return err
	}
	return v.quantity("level_quantity", notional.Div(lower).Round(point.QuantityPlaces))
}

// SliceQuantity checks the quantity submitted for every twap slice.
func (v *Validator) SliceQuantity(qty decimal.Decimal) error {
	return v.quantity("slice_quantity", qty)
}

// Slicing checks the twap specific inputs.
func (v *Validator) Slicing(nslices int, interval time.Duration) error {
	if nslices < 1 {
		return errs.NewValidationError("slices", nslices, "must be at least one")
	}
	if interval < 0 {
		return errs.NewValidationError("interval", interval, "cannot be negative")
	}
	return nil
}
