// Copyright (c) 2025 BVK Chaitanya

// Package gateway defines the exchange capabilities used by the order
// engines. Engines depend only on the interfaces here and never on a
// specific exchange transport.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bvk/orderbot/errs"
	"github.com/shopspring/decimal"
	"github.com/visvasity/topic"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// ParseSide converts a case-insensitive side name into a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	}
	return "", errs.NewValidationError("side", s, "must be buy or sell")
}

func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) IsValid() bool {
	return s == Buy || s == Sell
}

type OrderType string

const (
	Market     OrderType = "MARKET"
	Limit      OrderType = "LIMIT"
	Stop       OrderType = "STOP"
	StopMarket OrderType = "STOP_MARKET"
	TakeProfit OrderType = "TAKE_PROFIT"
)

type TimeInForce string

const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
)

type OrderID int64

func (v OrderID) String() string {
	return fmt.Sprintf("%d", int64(v))
}

// OrderRequest is the payload for a generic order placement.
type OrderRequest struct {
	Symbol   string
	Side     Side
	Type     OrderType
	Quantity decimal.Decimal

	// Price is required for LIMIT and STOP orders.
	Price decimal.Decimal

	// StopPrice is required for STOP and STOP_MARKET orders.
	StopPrice decimal.Decimal

	TimeInForce TimeInForce
	ReduceOnly  bool

	// ClientOrderID is optional; gateways generate one when empty.
	ClientOrderID string
}

func (r *OrderRequest) Check() error {
	if r.Symbol == "" {
		return errs.NewValidationError("symbol", r.Symbol, "cannot be empty")
	}
	if !r.Side.IsValid() {
		return errs.NewValidationError("side", r.Side, "must be BUY or SELL")
	}
	if !r.Quantity.IsPositive() {
		return errs.NewValidationError("quantity", r.Quantity, "must be positive")
	}
	switch r.Type {
	case Market:
	case Limit:
		if !r.Price.IsPositive() {
			return errs.NewValidationError("price", r.Price, "must be positive for %s orders", r.Type)
		}
	case Stop, TakeProfit:
		if !r.Price.IsPositive() {
			return errs.NewValidationError("price", r.Price, "must be positive for %s orders", r.Type)
		}
		if !r.StopPrice.IsPositive() {
			return errs.NewValidationError("stop_price", r.StopPrice, "must be positive for %s orders", r.Type)
		}
	case StopMarket:
		if !r.StopPrice.IsPositive() {
			return errs.NewValidationError("stop_price", r.StopPrice, "must be positive for %s orders", r.Type)
		}
	default:
		return errs.NewValidationError("type", r.Type, "unsupported order type")
	}
	return nil
}

// OrderResult holds the exchange's view of an order after placement or
// query.
type OrderResult struct {
	OrderID       OrderID
	ClientOrderID string

	Symbol string
	Side   Side
	Type   OrderType
	Status string

	Price     decimal.Decimal
	StopPrice decimal.Decimal
	Quantity  decimal.Decimal

	ExecutedQuantity decimal.Decimal
	AveragePrice     decimal.Decimal

	UpdateTime time.Time

	// Raw holds the exchange response as received.
	Raw json.RawMessage
}

// IsFilled returns true if the order is completely executed.
func (r *OrderResult) IsFilled() bool {
	return r.Status == "FILLED"
}

// IsDone returns true if the order can no longer change.
func (r *OrderResult) IsDone() bool {
	switch r.Status {
	case "FILLED", "CANCELED", "EXPIRED", "REJECTED", "EXPIRED_IN_MATCH":
		return true
	}
	return false
}

type CancelResult struct {
	OrderID       OrderID
	ClientOrderID string
	Symbol        string
	Status        string

	Raw json.RawMessage
}

// Gateway is the order placement and cancellation capability of an exchange.
// All operations may block and may fail with an *errs.GatewayError.
type Gateway interface {
	PlaceLimitOrder(ctx context.Context, symbol string, side Side, quantity, price decimal.Decimal) (*OrderResult, error)
	PlaceOrder(ctx context.Context, req *OrderRequest) (*OrderResult, error)
	CancelOrder(ctx context.Context, symbol string, id OrderID) (*CancelResult, error)
}

type OrderQuerier interface {
	GetOrder(ctx context.Context, symbol string, id OrderID) (*OrderResult, error)
}

type Balance struct {
	Asset            string
	Balance          decimal.Decimal
	AvailableBalance decimal.Decimal
}

type Position struct {
	Symbol           string
	Amount           decimal.Decimal
	EntryPrice       decimal.Decimal
	MarkPrice        decimal.Decimal
	UnrealizedProfit decimal.Decimal
	Leverage         int
}

type AccountReader interface {
	Balances(ctx context.Context) ([]*Balance, error)
	Positions(ctx context.Context) ([]*Position, error)
}

type SymbolLister interface {
	Symbols(ctx context.Context) ([]string, error)
}

// PriceUpdate is a single price tick for a symbol.
type PriceUpdate struct {
	Symbol string
	Price  decimal.Decimal
	At     time.Time
}

// PriceFeed delivers price updates for a symbol through a topic receiver.
// Callers must Close the receiver when they are done.
type PriceFeed interface {
	PriceUpdates(ctx context.Context, symbol string) (*topic.Receiver[*PriceUpdate], error)
}
