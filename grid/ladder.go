// Copyright (c) 2025 BVK Chaitanya

package grid

import (
	"fmt"
	"strings"

	"github.com/bvk/orderbot/errs"
	"github.com/bvk/orderbot/gateway"
	"github.com/shopspring/decimal"
)

type Status string

const (
	Open     Status = "OPEN"
	Executed Status = "EXECUTED"
)

// Config holds the static parameters for a grid.
type Config struct {
	Symbol string

	LowerPrice decimal.Decimal
	UpperPrice decimal.Decimal

	// GridCount is the number of intervals between the lower and upper prices.
	// Ladder has GridCount+1 levels.
	GridCount int

	// Investment is the total notional amount which is split equally across
	// the grid intervals.
	Investment decimal.Decimal

	// InitialSide is the side for the even numbered levels.
	InitialSide gateway.Side
}

func (c *Config) Check() error {
	if len(strings.TrimSpace(c.Symbol)) == 0 {
		return errs.NewConfigError("symbol", "cannot be empty")
	}
	if c.GridCount < 1 {
		return errs.NewConfigError("grid_count", "must be at least one (got %d)", c.GridCount)
	}
	if !c.LowerPrice.IsPositive() {
		return errs.NewConfigError("lower_price", "must be positive (got %s)", c.LowerPrice)
	}
	if c.LowerPrice.GreaterThanOrEqual(c.UpperPrice) {
		return errs.NewConfigError("lower_price", "must be less than upper price (got %s >= %s)", c.LowerPrice, c.UpperPrice)
	}
	if !c.Investment.IsPositive() {
		return errs.NewConfigError("investment", "must be positive (got %s)", c.Investment)
	}
	if !c.InitialSide.IsValid() {
		return errs.NewConfigError("initial_side", "must be BUY or SELL (got %q)", c.InitialSide)
	}
	return nil
}

// Step returns the price difference between adjacent levels.
func (c *Config) Step() decimal.Decimal {
	return c.UpperPrice.Sub(c.LowerPrice).Div(decimal.NewFromInt(int64(c.GridCount)))
}

// OrderSize returns the notional amount per level.
func (c *Config) OrderSize() decimal.Decimal {
	return c.Investment.Div(decimal.NewFromInt(int64(c.GridCount)))
}

// Level is a price point on the ladder.
type Level struct {
	Price  decimal.Decimal
	Side   gateway.Side
	Status Status
}

func (v *Level) String() string {
	return fmt.Sprintf("%s@%s(%s)", v.Side, v.Price, v.Status)
}

// Ladder is the ordered set of price levels for a grid.
type Ladder struct {
	config Config

	step      decimal.Decimal
	orderSize decimal.Decimal

	Levels []*Level
}

// NewLadder generates GridCount+1 evenly spaced levels from the lower price to
// the upper price inclusive. Even numbered levels take the initial side and
// odd numbered levels take the opposite side.
func NewLadder(cfg *Config) (*Ladder, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	ladder := &Ladder{
		config:    *cfg,
		step:      cfg.Step(),
		orderSize: cfg.OrderSize(),
		Levels:    make([]*Level, 0, cfg.GridCount+1),
	}
	for i := 0; i <= cfg.GridCount; i++ {
		price := cfg.LowerPrice.Add(ladder.step.Mul(decimal.NewFromInt(int64(i))))
		if i == cfg.GridCount {
			price = cfg.UpperPrice
		}
		side := cfg.InitialSide
		if i%2 == 1 {
			side = side.Opposite()
		}
		ladder.Levels = append(ladder.Levels, &Level{
			Price:  price,
			Side:   side,
			Status: Open,
		})
	}
	return ladder, nil
}

func (v *Ladder) Config() Config {
	return v.config
}

func (v *Ladder) Step() decimal.Decimal {
	return v.step
}

func (v *Ladder) OrderSize() decimal.Decimal {
	return v.orderSize
}

// InRange returns true if price is within the ladder bounds inclusive.
func (v *Ladder) InRange(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(v.config.LowerPrice) && price.LessThanOrEqual(v.config.UpperPrice)
}

// LevelIndex returns the index of the level closest to the price, or -1 if
// price is out of range.
func (v *Ladder) LevelIndex(price decimal.Decimal) int {
	if !v.InRange(price) {
		return -1
	}
	index := price.Sub(v.config.LowerPrice).Div(v.step).Round(0).IntPart()
	return int(min(index, int64(len(v.Levels)-1)))
}
