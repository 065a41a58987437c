// Copyright (c) 2023 BVK Chaitanya

package point

import (
	"fmt"
	"log/slog"

	"github.com/bvk/orderbot/errs"
	"github.com/bvk/orderbot/gateway"
	"github.com/shopspring/decimal"
)

// QuantityPlaces is the number of decimal places order quantities are
// rounded to before they are sent to an exchange.
const QuantityPlaces = 6

// Point is a side, size and price triple for a single limit order.
type Point struct {
	Side  gateway.Side
	Size  decimal.Decimal
	Price decimal.Decimal
}

func (p Point) String() string {
	return fmt.Sprintf("%s:%s@%s", p.Side, p.Size, p.Price.StringFixed(5))
}

func (p *Point) LogValue() slog.Value {
	return slog.StringValue(p.String())
}

func (p *Point) Check() error {
	if !p.Side.IsValid() {
		return errs.NewValidationError("side", p.Side, "must be BUY or SELL")
	}
	if p.Size.IsZero() {
		return errs.NewValidationError("size", p.Size, "cannot be zero")
	}
	if p.Size.IsNegative() {
		return errs.NewValidationError("size", p.Size, "cannot be negative")
	}
	if p.Price.IsZero() {
		return errs.NewValidationError("price", p.Price, "cannot be zero")
	}
	if p.Price.IsNegative() {
		return errs.NewValidationError("price", p.Price, "cannot be negative")
	}
	return nil
}

func Equal(a, b *Point) bool {
	return a.Side == b.Side && a.Size.Equal(b.Size) && a.Price.Equal(b.Price)
}

// Value returns the notional amount for point (i.e, size*price) without
// including any fee.
func (p *Point) Value() decimal.Decimal {
	return p.Size.Mul(p.Price)
}

// FeeAt returns the fee incurred for the buy or sell at the given fee
// percentage.
func (p *Point) FeeAt(pct float64) decimal.Decimal {
	return p.Value().Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100))
}

// IsTriggered returns true if a resting order at this point is considered
// filled at the given market price. Buy orders fill at or below the price and
// sell orders fill at or above the price.
func (p *Point) IsTriggered(market decimal.Decimal) bool {
	if p.Side == gateway.Buy {
		return market.LessThanOrEqual(p.Price)
	}
	return market.GreaterThanOrEqual(p.Price)
}

// ForNotional returns a point at the given price whose size is the notional
// amount divided by the price, rounded to QuantityPlaces.
func ForNotional(side gateway.Side, notional, price decimal.Decimal) (*Point, error) {
	if !price.IsPositive() {
		return nil, errs.NewValidationError("price", price, "must be positive")
	}
	p := &Point{
		Side:  side,
		Size:  notional.Div(price).Round(QuantityPlaces),
		Price: price,
	}
	if err := p.Check(); err != nil {
		return nil, err
	}
	return p, nil
}

