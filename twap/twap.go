// Copyright (c) 2025 BVK Chaitanya

// Package twap implements time-weighted-average-price order slicing. A total
// quantity is split into equal slices and one market order is submitted per
// slice at a fixed interval.
package twap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bvk/orderbot/errs"
	"github.com/bvk/orderbot/gateway"
	"github.com/bvk/orderbot/gobs"
	"github.com/bvk/orderbot/point"
	"github.com/shopspring/decimal"
)

type Config struct {
	Symbol        string
	Side          gateway.Side
	TotalQuantity decimal.Decimal
	TotalSlices   int
	Interval      time.Duration
}

func (c *Config) Check() error {
	if len(strings.TrimSpace(c.Symbol)) == 0 {
		return errs.NewConfigError("symbol", "cannot be empty")
	}
	if !c.Side.IsValid() {
		return errs.NewConfigError("side", "must be BUY or SELL (got %q)", c.Side)
	}
	if !c.TotalQuantity.IsPositive() {
		return errs.NewConfigError("total_quantity", "must be positive (got %s)", c.TotalQuantity)
	}
	if c.TotalSlices < 1 {
		return errs.NewConfigError("total_slices", "must be at least one (got %d)", c.TotalSlices)
	}
	if c.Interval < 0 {
		return errs.NewConfigError("interval", "cannot be negative (got %s)", c.Interval)
	}
	return nil
}

// SliceQuantity returns the quantity for every slice, rounded to
// point.QuantityPlaces. The same value is submitted and recorded.
func (c *Config) SliceQuantity() decimal.Decimal {
	return c.TotalQuantity.Div(decimal.NewFromInt(int64(c.TotalSlices))).Round(point.QuantityPlaces)
}

// Slice is one attempted market order. A slice is final once it is added to
// the log.
type Slice struct {
	Index    int
	Side     gateway.Side
	Quantity decimal.Decimal
	PlacedAt time.Time

	Response *gateway.OrderResult
	Err      error
}

func (s *Slice) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("index", s.Index),
		slog.String("side", string(s.Side)),
		slog.String("quantity", s.Quantity.String()),
	}
	if s.Response != nil {
		attrs = append(attrs, slog.String("order-id", s.Response.OrderID.String()))
	}
	if s.Err != nil {
		attrs = append(attrs, slog.String("err", s.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}

// Log is the append-only record of a run.
type Log struct {
	Config Config

	Slices []*Slice

	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed returns the number of slices that could not be placed.
func (v *Log) Failed() int {
	n := 0
	for _, s := range v.Slices {
		if s.Err != nil {
			n++
		}
	}
	return n
}

// Executed returns the total quantity of successfully placed slices.
func (v *Log) Executed() decimal.Decimal {
	sum := decimal.Zero
	for _, s := range v.Slices {
		if s.Err == nil {
			sum = sum.Add(s.Quantity)
		}
	}
	return sum
}

// ToGob returns the log in it's persistent form.
func (v *Log) ToGob(id string, stopReason error) *gobs.TWAPLog {
	glog := &gobs.TWAPLog{
		ID:            id,
		Symbol:        v.Config.Symbol,
		Side:          string(v.Config.Side),
		TotalQuantity: v.Config.TotalQuantity,
		TotalSlices:   v.Config.TotalSlices,
		Interval:      v.Config.Interval,
		StartedAt:     v.StartedAt,
		FinishedAt:    v.FinishedAt,
	}
	if stopReason != nil {
		glog.StopReason = stopReason.Error()
	}
	for _, s := range v.Slices {
		gs := &gobs.TWAPSlice{
			Index:    s.Index,
			Side:     string(s.Side),
			Quantity: s.Quantity,
			PlacedAt: s.PlacedAt,
			Response: s.Response.ToGob(),
		}
		if s.Err != nil {
			gs.Error = s.Err.Error()
		}
		glog.Slices = append(glog.Slices, gs)
	}
	return glog
}

type Options struct {
	// Logger receives the slicer logs. Defaults to slog.Default().
	Logger *slog.Logger

	// SkipTrailingWait when true does not wait for the interval after the
	// last slice.
	SkipTrailingWait bool

	// OnSlice if non-nil is called after every slice is added to the log.
	OnSlice func(ctx context.Context, log *Log)
}

// Run submits TotalSlices market orders of equal quantity, waiting Interval
// after each one. Placement failures are recorded in the log and do not stop
// the remaining slices. Context cancellation is checked between slices only;
// when canceled, Run returns the partial log with the cancellation cause.
func Run(ctx context.Context, cfg *Config, gw gateway.Gateway, clock Clock, opts *Options) (*Log, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = RealClock{}
	}
	if opts == nil {
		opts = new(Options)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	quantity := cfg.SliceQuantity()
	log := &Log{
		Config:    *cfg,
		Slices:    make([]*Slice, 0, cfg.TotalSlices),
		StartedAt: clock.Now(),
	}
	defer func() {
		log.FinishedAt = clock.Now()
	}()

	for i := 1; i <= cfg.TotalSlices; i++ {
		if err := context.Cause(ctx); err != nil {
			logger.Warn("twap run is canceled before all slices are placed", "symbol", cfg.Symbol, "placed", len(log.Slices), "total", cfg.TotalSlices, "err", err)
			return log, err
		}

		req := &gateway.OrderRequest{
			Symbol:   strings.ToUpper(cfg.Symbol),
			Side:     cfg.Side,
			Type:     gateway.Market,
			Quantity: quantity,
		}
		slice := &Slice{
			Index:    i,
			Side:     cfg.Side,
			Quantity: quantity,
			PlacedAt: clock.Now(),
		}
		resp, err := gw.PlaceOrder(ctx, req)
		if err != nil {
			slice.Err = err
			logger.Error("could not place twap slice (continuing)", "symbol", cfg.Symbol, "slice", slice, "err", err)
		} else {
			slice.Response = resp
			logger.Info("placed twap slice", "symbol", cfg.Symbol, "slice", slice)
		}
		log.Slices = append(log.Slices, slice)
		if opts.OnSlice != nil {
			opts.OnSlice(ctx, log)
		}

		if i == cfg.TotalSlices && opts.SkipTrailingWait {
			break
		}
		if err := clock.Sleep(ctx, cfg.Interval); err != nil && i < cfg.TotalSlices {
			logger.Warn("twap wait is interrupted", "symbol", cfg.Symbol, "after", i, "err", err)
		}
	}
	return log, nil
}

// Summary returns a one-line description of the log.
func (v *Log) Summary() string {
	return fmt.Sprintf("%s %s twap: %d/%d slices placed, executed %s of %s", v.Config.Symbol, v.Config.Side, len(v.Slices)-v.Failed(), v.Config.TotalSlices, v.Executed(), v.Config.TotalQuantity)
}
