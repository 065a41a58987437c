// Copyright (c) 2025 BVK Chaitanya

package grid

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/bvk/orderbot/gateway"
	"github.com/bvk/orderbot/point"
	"github.com/shopspring/decimal"
)

// Order is a live or historical order placed for the grid.
type Order struct {
	point.Point

	// Level is the ladder index for the order price.
	Level int

	// Replacement is true if the order was placed after another order was
	// executed, instead of as part of the initial ladder.
	Replacement bool

	Status     Status
	PlacedAt   time.Time
	ExecutedAt time.Time

	Response *gateway.OrderResult
}

func (v *Order) String() string {
	return fmt.Sprintf("%s#%d(%s)", v.Point, v.Level, v.Status)
}

func (v *Order) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("point", v.Point.String()),
		slog.Int("level", v.Level),
		slog.String("status", string(v.Status)),
	}
	if v.Response != nil {
		attrs = append(attrs, slog.String("order-id", v.Response.OrderID.String()))
	}
	return slog.GroupValue(attrs...)
}

type Options struct {
	// Logger receives the engine logs. Defaults to slog.Default().
	Logger *slog.Logger

	// RetryFailedLevels when true re-attempts placing the initial ladder
	// levels that could not be placed, before each price update is processed.
	RetryFailedLevels bool

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

func (v *Options) setDefaults() {
	if v.Logger == nil {
		v.Logger = slog.Default()
	}
	if v.Now == nil {
		v.Now = time.Now
	}
}

// Engine places and maintains the orders for a grid ladder. Engine is not
// safe for concurrent use; callers must serialize the method calls.
type Engine struct {
	opts Options

	ladder *Ladder

	placed bool

	active  []*Order
	history []*Order

	failedLevels []int

	lastPrice decimal.Decimal
}

func New(ladder *Ladder, opts *Options) *Engine {
	if opts == nil {
		opts = new(Options)
	}
	e := &Engine{
		opts:   *opts,
		ladder: ladder,
	}
	e.opts.setDefaults()
	return e
}

func (e *Engine) Ladder() *Ladder {
	return e.ladder
}

func (e *Engine) Symbol() string {
	return e.ladder.config.Symbol
}

// Active returns the open orders.
func (e *Engine) Active() []*Order {
	return slices.Clone(e.active)
}

// History returns the executed orders in the order of their execution.
func (e *Engine) History() []*Order {
	return slices.Clone(e.history)
}

// FailedLevels returns the ladder indexes for which initial order placement
// has failed and is not retried successfully.
func (e *Engine) FailedLevels() []int {
	return slices.Clone(e.failedLevels)
}

// LastPrice returns the most recent price passed to OnPriceUpdate.
func (e *Engine) LastPrice() decimal.Decimal {
	return e.lastPrice
}

func (e *Engine) place(ctx context.Context, gw gateway.Gateway, level int, side gateway.Side, price decimal.Decimal) (*Order, error) {
	p, err := point.ForNotional(side, e.ladder.orderSize, price)
	if err != nil {
		return nil, err
	}
	resp, err := gw.PlaceLimitOrder(ctx, e.Symbol(), p.Side, p.Size, p.Price)
	if err != nil {
		return nil, err
	}
	order := &Order{
		Point:    *p,
		Level:    level,
		Status:   Open,
		PlacedAt: e.opts.Now(),
		Response: resp,
	}
	return order, nil
}

// PlaceInitialOrders places one limit order for every ladder level. Failure
// to place an order for a level is logged and does not stop the placement of
// other levels. Returns the orders that were placed successfully.
func (e *Engine) PlaceInitialOrders(ctx context.Context, gw gateway.Gateway) ([]*Order, error) {
	if e.placed {
		return nil, fmt.Errorf("initial orders are already placed: %w", os.ErrExist)
	}
	e.placed = true

	var orders []*Order
	for i, level := range e.ladder.Levels {
		order, err := e.place(ctx, gw, i, level.Side, level.Price)
		if err != nil {
			e.opts.Logger.Error("could not place initial grid order (skipped)", "symbol", e.Symbol(), "level", i, "side", level.Side, "price", level.Price, "err", err)
			e.failedLevels = append(e.failedLevels, i)
			continue
		}
		e.opts.Logger.Info("placed initial grid order", "symbol", e.Symbol(), "order", order)
		orders = append(orders, order)
	}
	e.active = append(e.active, orders...)
	return orders, nil
}

func (e *Engine) retryFailedLevels(ctx context.Context, gw gateway.Gateway) {
	var failed []int
	for _, i := range e.failedLevels {
		level := e.ladder.Levels[i]
		order, err := e.place(ctx, gw, i, level.Side, level.Price)
		if err != nil {
			e.opts.Logger.Warn("could not retry failed grid level (will retry)", "symbol", e.Symbol(), "level", i, "side", level.Side, "price", level.Price, "err", err)
			failed = append(failed, i)
			continue
		}
		e.opts.Logger.Info("placed previously failed grid order", "symbol", e.Symbol(), "order", order)
		e.active = append(e.active, order)
	}
	e.failedLevels = failed
}

// OnPriceUpdate checks all open orders against the current price. Buy orders
// are executed when price is at or below the order price and sell orders are
// executed when price is at or above the order price. Every executed order is
// replaced by an order on the opposite side at the neighboring ladder level,
// if that level exists. Returns the number of executed orders.
func (e *Engine) OnPriceUpdate(ctx context.Context, price decimal.Decimal, gw gateway.Gateway) int {
	e.lastPrice = price

	if e.opts.RetryFailedLevels && len(e.failedLevels) > 0 {
		e.retryFailedLevels(ctx, gw)
	}

	var remaining, replacements []*Order
	ntriggered := 0
	for _, order := range e.active {
		if !order.IsTriggered(price) {
			remaining = append(remaining, order)
			continue
		}

		ntriggered++
		order.Status = Executed
		order.ExecutedAt = e.opts.Now()
		e.history = append(e.history, order)
		if !order.Replacement && order.Level >= 0 && order.Level < len(e.ladder.Levels) {
			e.ladder.Levels[order.Level].Status = Executed
		}
		e.opts.Logger.Info("grid order is executed", "symbol", e.Symbol(), "price", price, "order", order)

		// Replacements are priced at the neighboring ladder level.
		side := order.Side.Opposite()
		level := order.Level + 1
		if side == gateway.Buy {
			level = order.Level - 1
		}
		if level < 0 || level >= len(e.ladder.Levels) {
			e.opts.Logger.Debug("replacement order is out of grid range (skipped)", "symbol", e.Symbol(), "side", side, "level", level)
			continue
		}
		price := e.ladder.Levels[level].Price
		replacement, err := e.place(ctx, gw, level, side, price)
		if err != nil {
			e.opts.Logger.Error("could not place replacement grid order (skipped)", "symbol", e.Symbol(), "side", side, "price", price, "err", err)
			continue
		}
		replacement.Replacement = true
		e.opts.Logger.Info("placed replacement grid order", "symbol", e.Symbol(), "order", replacement)
		replacements = append(replacements, replacement)
	}

	if ntriggered > 0 {
		e.active = append(remaining, replacements...)
	}
	return ntriggered
}
