// Copyright (c) 2025 BVK Chaitanya

package twap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/bvk/orderbot/errs"
	"github.com/bvk/orderbot/gateway"
	"github.com/bvk/orderbot/gateway/gatewaytest"
	"github.com/shopspring/decimal"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration

	// onSleep if non-nil is called before every sleep.
	onSleep func(n int)
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	if c.onSleep != nil {
		c.onSleep(len(c.sleeps))
	}
	c.now = c.now.Add(d)
	return context.Cause(ctx)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testConfig() *Config {
	return &Config{
		Symbol:        "btcusdt",
		Side:          gateway.Buy,
		TotalQuantity: d("0.01"),
		TotalSlices:   5,
		Interval:      2 * time.Second,
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	gw := gatewaytest.New()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}

	log, err := Run(ctx, testConfig(), gw, clock, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(log.Slices) != 5 {
		t.Fatalf("want 5 slices, got %d", len(log.Slices))
	}
	for i, s := range log.Slices {
		if s.Index != i+1 {
			t.Fatalf("want index %d, got %d", i+1, s.Index)
		}
		if !s.Quantity.Equal(d("0.002")) {
			t.Fatalf("want quantity 0.002, got %s", s.Quantity)
		}
		if s.Err != nil || s.Response == nil {
			t.Fatalf("slice %d must be successful", s.Index)
		}
		if want := clock.now.Add(-time.Duration(5-i) * 2 * time.Second); !s.PlacedAt.Equal(want) {
			t.Fatalf("slice %d: want placed at %s, got %s", s.Index, want, s.PlacedAt)
		}
	}

	placed := gw.Placed()
	if len(placed) != 5 {
		t.Fatalf("want 5 placements, got %d", len(placed))
	}
	for _, req := range placed {
		if req.Symbol != "BTCUSDT" || req.Type != gateway.Market || req.Side != gateway.Buy {
			t.Fatalf("unexpected request %#v", req)
		}
	}

	// Waits after every slice including the last one.
	if len(clock.sleeps) != 5 {
		t.Fatalf("want 5 waits, got %d", len(clock.sleeps))
	}
	for _, d := range clock.sleeps {
		if d != 2*time.Second {
			t.Fatalf("want 2s wait, got %s", d)
		}
	}
	if !log.Executed().Equal(d("0.01")) {
		t.Fatalf("want executed 0.01, got %s", log.Executed())
	}
}

func TestRunSkipTrailingWait(t *testing.T) {
	clock := new(fakeClock)
	if _, err := Run(context.Background(), testConfig(), gatewaytest.New(), clock, &Options{SkipTrailingWait: true}); err != nil {
		t.Fatal(err)
	}
	if len(clock.sleeps) != 4 {
		t.Fatalf("want 4 waits, got %d", len(clock.sleeps))
	}
}

func TestRunTotalInvariant(t *testing.T) {
	for _, n := range []int{1, 3, 7, 11} {
		cfg := testConfig()
		cfg.TotalSlices = n
		log, err := Run(context.Background(), cfg, gatewaytest.New(), new(fakeClock), nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(log.Slices) != n {
			t.Fatalf("want %d slices, got %d", n, len(log.Slices))
		}
		sum := decimal.Zero
		for _, s := range log.Slices {
			sum = sum.Add(s.Quantity)
		}
		// Each slice is off by at most half a unit in the last place.
		tolerance := d("0.0000005").Mul(decimal.NewFromInt(int64(n)))
		if sum.Sub(cfg.TotalQuantity).Abs().GreaterThan(tolerance) {
			t.Fatalf("slices: %d: want total %s, got %s", n, cfg.TotalQuantity, sum)
		}
	}
}

func TestRunFailuresAreRecorded(t *testing.T) {
	gw := gatewaytest.New()
	ncalls := 0
	gw.FailFunc = func(_ int, _ *gateway.OrderRequest) error {
		ncalls++
		if ncalls%2 == 0 {
			return fmt.Errorf("margin is insufficient")
		}
		return nil
	}

	log, err := Run(context.Background(), testConfig(), gw, new(fakeClock), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(log.Slices) != 5 {
		t.Fatalf("want 5 slices, got %d", len(log.Slices))
	}
	if log.Failed() != 2 {
		t.Fatalf("want 2 failures, got %d", log.Failed())
	}
	for _, s := range log.Slices {
		if failed := s.Index%2 == 0; failed != (s.Err != nil) {
			t.Fatalf("slice %d: unexpected result %v", s.Index, s.Err)
		}
		if s.Err != nil && !errs.IsGateway(s.Err) {
			t.Fatalf("want gateway error, got %v", s.Err)
		}
	}
	if ncalls != 5 {
		t.Fatalf("failed slices must not be retried: want 5 calls, got %d", ncalls)
	}

	glog := log.ToGob("twap-1", nil)
	if len(glog.Slices) != 5 || glog.Slices[1].Error == "" || glog.Slices[0].Response == nil {
		t.Fatalf("unexpected persistent log %#v", glog)
	}
}

func TestRunCanceledBetweenSlices(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	clock := &fakeClock{
		onSleep: func(n int) {
			if n == 2 {
				cancel(os.ErrClosed)
			}
		},
	}
	gw := gatewaytest.New()
	log, err := Run(ctx, testConfig(), gw, clock, nil)
	if !errors.Is(err, os.ErrClosed) {
		t.Fatalf("want %v, got %v", os.ErrClosed, err)
	}
	if len(log.Slices) != 2 {
		t.Fatalf("want 2 slices, got %d", len(log.Slices))
	}
	if len(gw.Placed()) != 2 {
		t.Fatalf("want 2 placements, got %d", len(gw.Placed()))
	}
}

func TestRunConfigErrors(t *testing.T) {
	bad := []func(*Config){
		func(c *Config) { c.TotalSlices = 0 },
		func(c *Config) { c.TotalQuantity = d("0") },
		func(c *Config) { c.Interval = -time.Second },
		func(c *Config) { c.Side = "" },
		func(c *Config) { c.Symbol = " " },
	}
	for i, modify := range bad {
		cfg := testConfig()
		modify(cfg)
		gw := gatewaytest.New()
		if _, err := Run(context.Background(), cfg, gw, new(fakeClock), nil); !errs.IsConfig(err) {
			t.Fatalf("%d: want config error, got %v", i, err)
		}
		if len(gw.Calls()) != 0 {
			t.Fatalf("%d: gateway must not be called on config errors", i)
		}
	}
}

func TestRunSliceQuantityMatchesRequest(t *testing.T) {
	cfg := testConfig()
	cfg.TotalQuantity = d("1")
	cfg.TotalSlices = 3

	gw := gatewaytest.New()
	log, err := Run(context.Background(), cfg, gw, new(fakeClock), nil)
	if err != nil {
		t.Fatal(err)
	}
	placed := gw.Placed()
	if len(placed) != 3 {
		t.Fatalf("want 3 placed orders, got %d", len(placed))
	}
	want := d("0.333333")
	for i, s := range log.Slices {
		if !s.Quantity.Equal(want) {
			t.Fatalf("slice %d: want quantity %s, got %s", i, want, s.Quantity)
		}
		if !s.Quantity.Equal(placed[i].Quantity) {
			t.Fatalf("slice %d: want recorded quantity %s to match submitted %s", i, s.Quantity, placed[i].Quantity)
		}
	}
	if got := log.Executed(); !got.Equal(d("0.999999")) {
		t.Fatalf("want executed 0.999999, got %s", got)
	}
}
