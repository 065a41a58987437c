// Copyright (c) 2025 BVK Chaitanya

package grid

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/bvk/orderbot/errs"
	"github.com/bvk/orderbot/gateway"
	"github.com/bvk/orderbot/gateway/gatewaytest"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testConfig() *Config {
	return &Config{
		Symbol:      "BTCUSDT",
		LowerPrice:  d("100"),
		UpperPrice:  d("200"),
		GridCount:   5,
		Investment:  d("500"),
		InitialSide: gateway.Buy,
	}
}

func TestNewLadder(t *testing.T) {
	ladder, err := NewLadder(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	wantPrices := []string{"100", "120", "140", "160", "180", "200"}
	if len(ladder.Levels) != len(wantPrices) {
		t.Fatalf("want %d levels, got %d", len(wantPrices), len(ladder.Levels))
	}
	for i, level := range ladder.Levels {
		if !level.Price.Equal(d(wantPrices[i])) {
			t.Fatalf("level %d: want %s, got %s", i, wantPrices[i], level.Price)
		}
		wantSide := gateway.Buy
		if i%2 == 1 {
			wantSide = gateway.Sell
		}
		if level.Side != wantSide {
			t.Fatalf("level %d: want %s, got %s", i, wantSide, level.Side)
		}
		if level.Status != Open {
			t.Fatalf("level %d: want %s, got %s", i, Open, level.Status)
		}
	}
	if !ladder.Step().Equal(d("20")) {
		t.Fatalf("want step 20, got %s", ladder.Step())
	}
	if !ladder.OrderSize().Equal(d("100")) {
		t.Fatalf("want order size 100, got %s", ladder.OrderSize())
	}
}

func TestNewLadderSpacing(t *testing.T) {
	for count := 1; count <= 13; count++ {
		cfg := &Config{
			Symbol:      "ETHUSDT",
			LowerPrice:  d("1000"),
			UpperPrice:  d("2000"),
			GridCount:   count,
			Investment:  d("1000"),
			InitialSide: gateway.Sell,
		}
		ladder, err := NewLadder(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if len(ladder.Levels) != count+1 {
			t.Fatalf("want %d levels, got %d", count+1, len(ladder.Levels))
		}
		if !ladder.Levels[0].Price.Equal(cfg.LowerPrice) || !ladder.Levels[count].Price.Equal(cfg.UpperPrice) {
			t.Fatalf("ladder must start at lower and end at upper prices")
		}
		tolerance := d("0.000001")
		for i := 1; i < len(ladder.Levels); i++ {
			gap := ladder.Levels[i].Price.Sub(ladder.Levels[i-1].Price)
			if !gap.IsPositive() {
				t.Fatalf("count %d: levels are not increasing at %d", count, i)
			}
			if gap.Sub(ladder.Step()).Abs().GreaterThan(tolerance) {
				t.Fatalf("count %d: want gap %s, got %s", count, ladder.Step(), gap)
			}
			if i%2 == 1 && ladder.Levels[i].Side != gateway.Buy {
				t.Fatalf("count %d: level %d must be a buy", count, i)
			}
		}
	}
}

func TestNewLadderConfigErrors(t *testing.T) {
	bad := []func(*Config){
		func(c *Config) { c.GridCount = 0 },
		func(c *Config) { c.LowerPrice = c.UpperPrice },
		func(c *Config) { c.LowerPrice = d("300") },
		func(c *Config) { c.Investment = d("0") },
		func(c *Config) { c.Symbol = "" },
		func(c *Config) { c.InitialSide = "HOLD" },
	}
	for i, modify := range bad {
		cfg := testConfig()
		modify(cfg)
		if _, err := NewLadder(cfg); !errs.IsConfig(err) {
			t.Fatalf("%d: want config error, got %v", i, err)
		}
	}
}

func newTestEngine(t *testing.T, opts *Options) (*Engine, *gatewaytest.Gateway) {
	ladder, err := NewLadder(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	return New(ladder, opts), gatewaytest.New()
}

func TestPlaceInitialOrders(t *testing.T) {
	ctx := context.Background()
	e, gw := newTestEngine(t, nil)

	orders, err := e.PlaceInitialOrders(ctx, gw)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 6 {
		t.Fatalf("want 6, got %d", len(orders))
	}
	if !orders[0].Size.Equal(d("1")) {
		t.Fatalf("want quantity 1 at level 0, got %s", orders[0].Size)
	}
	if !orders[1].Size.Equal(d("0.833333")) {
		t.Fatalf("want quantity 0.833333 at level 1, got %s", orders[1].Size)
	}
	placed := gw.Placed()
	if len(placed) != 6 {
		t.Fatalf("want 6 placements, got %d", len(placed))
	}
	for i, req := range placed {
		if req.Type != gateway.Limit || req.Symbol != "BTCUSDT" {
			t.Fatalf("%d: unexpected request %#v", i, req)
		}
		if req.Side != orders[i].Side || !req.Price.Equal(orders[i].Price) {
			t.Fatalf("%d: request does not match order %s", i, orders[i])
		}
	}

	if _, err := e.PlaceInitialOrders(ctx, gw); !errors.Is(err, os.ErrExist) {
		t.Fatalf("want %v, got %v", os.ErrExist, err)
	}
}

func TestPlaceInitialOrdersPartialFailure(t *testing.T) {
	ctx := context.Background()
	e, gw := newTestEngine(t, nil)
	gw.FailFunc = func(_ int, req *gateway.OrderRequest) error {
		if req.Price.Equal(d("140")) || req.Price.Equal(d("200")) {
			return fmt.Errorf("insufficient margin")
		}
		return nil
	}

	orders, err := e.PlaceInitialOrders(ctx, gw)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 4 {
		t.Fatalf("want 4, got %d", len(orders))
	}
	if want, got := []int{2, 5}, e.FailedLevels(); fmt.Sprint(want) != fmt.Sprint(got) {
		t.Fatalf("want %v, got %v", want, got)
	}
	if len(e.Active()) != 4 {
		t.Fatalf("want 4 active orders, got %d", len(e.Active()))
	}
}

func TestOnPriceUpdateReplacement(t *testing.T) {
	ctx := context.Background()
	e, gw := newTestEngine(t, nil)
	if _, err := e.PlaceInitialOrders(ctx, gw); err != nil {
		t.Fatal(err)
	}

	// Buy orders at 100, 140 and 180 all trigger at 100.
	if n := e.OnPriceUpdate(ctx, d("100"), gw); n != 3 {
		t.Fatalf("want 3, got %d", n)
	}
	history := e.History()
	if len(history) != 3 {
		t.Fatalf("want 3 history entries, got %d", len(history))
	}
	for _, order := range history {
		if order.Side != gateway.Buy || order.Status != Executed {
			t.Fatalf("unexpected history entry %s", order)
		}
	}

	sells := make(map[string]int)
	for _, order := range e.Active() {
		if order.Side != gateway.Sell {
			t.Fatalf("want only sell orders, got %s", order)
		}
		sells[order.Price.String()]++
	}
	// Original sells at 120, 160 and 200 plus replacements at 120, 160 and 200.
	for _, price := range []string{"120", "160", "200"} {
		if sells[price] != 2 {
			t.Fatalf("want two sells at %s, got %d", price, sells[price])
		}
	}
	if e.Ladder().Levels[0].Status != Executed {
		t.Fatalf("level 0 must be executed")
	}
}

func TestOnPriceUpdateReplacementsStayInRange(t *testing.T) {
	ctx := context.Background()
	e, gw := newTestEngine(t, nil)
	if _, err := e.PlaceInitialOrders(ctx, gw); err != nil {
		t.Fatal(err)
	}

	nplaced := len(gw.Placed())
	// Sells at 120, 160 and 200 trigger; buy replacements at 100, 140 and 180.
	if n := e.OnPriceUpdate(ctx, d("250"), gw); n != 3 {
		t.Fatalf("want 3, got %d", n)
	}
	if got := len(gw.Placed()) - nplaced; got != 3 {
		t.Fatalf("want 3 replacements, got %d", got)
	}

	// Only buy orders remain now; at 90 all of them trigger and sell
	// replacements are one step above each.
	nplaced = len(gw.Placed())
	if n := e.OnPriceUpdate(ctx, d("90"), gw); n != 6 {
		t.Fatalf("want 6, got %d", n)
	}
	for _, req := range gw.Placed()[nplaced:] {
		if req.Side != gateway.Sell || req.Price.GreaterThan(d("200")) {
			t.Fatalf("unexpected replacement %#v", req)
		}
	}

	// Sell at the upper bound executing a buy at the lower bound cannot
	// produce out of range prices.
	e2, gw2 := newTestEngine(t, nil)
	e2.PlaceInitialOrders(ctx, gw2)
	e2.OnPriceUpdate(ctx, d("100"), gw2)
	for _, order := range e2.Active() {
		if !e2.Ladder().InRange(order.Price) {
			t.Fatalf("order %s is out of range", order)
		}
	}
}

func TestOnPriceUpdateBuyAtUpperEdge(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.InitialSide = gateway.Sell
	cfg.GridCount = 4
	ladder, err := NewLadder(cfg) // SELL@100 BUY@125 SELL@150 BUY@175 SELL@200
	if err != nil {
		t.Fatal(err)
	}
	e, gw := New(ladder, nil), gatewaytest.New()
	if _, err := e.PlaceInitialOrders(ctx, gw); err != nil {
		t.Fatal(err)
	}

	nplaced := len(gw.Placed())
	// Sells at 100 and 150 and the buy at 175 trigger at 150. Replacement buy
	// for the sell at 100 is below the ladder and is skipped.
	if n := e.OnPriceUpdate(ctx, d("150"), gw); n != 3 {
		t.Fatalf("want 3, got %d", n)
	}
	got := make(map[string]gateway.Side)
	for _, req := range gw.Placed()[nplaced:] {
		got[req.Price.String()] = req.Side
	}
	want := map[string]gateway.Side{"125": gateway.Buy, "200": gateway.Sell}
	if fmt.Sprint(want) != fmt.Sprint(got) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestOnPriceUpdateIdempotent(t *testing.T) {
	ctx := context.Background()
	e, gw := newTestEngine(t, nil)
	if _, err := e.PlaceInitialOrders(ctx, gw); err != nil {
		t.Fatal(err)
	}
	// Execute all buy orders so that only sells above 110 remain.
	e.OnPriceUpdate(ctx, d("100"), gw)

	before, history := e.Active(), e.History()
	nplaced := len(gw.Placed())
	for i := 0; i < 3; i++ {
		if n := e.OnPriceUpdate(ctx, d("110"), gw); n != 0 {
			t.Fatalf("want 0, got %d", n)
		}
	}
	after := e.Active()
	if len(before) != len(after) || len(history) != len(e.History()) {
		t.Fatalf("price update without triggers must not change the engine")
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("active order %d has changed", i)
		}
	}
	if len(gw.Placed()) != nplaced {
		t.Fatalf("no orders must be placed without triggers")
	}
}

func TestReplacementFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	e, gw := newTestEngine(t, nil)
	if _, err := e.PlaceInitialOrders(ctx, gw); err != nil {
		t.Fatal(err)
	}

	gw.FailFunc = func(_ int, req *gateway.OrderRequest) error {
		if req.Price.Equal(d("160")) {
			return fmt.Errorf("rejected")
		}
		return nil
	}
	if n := e.OnPriceUpdate(ctx, d("100"), gw); n != 3 {
		t.Fatalf("want 3, got %d", n)
	}
	// Replacement at 160 failed; replacements at 120 and 200 succeeded.
	if len(e.Active()) != 5 {
		t.Fatalf("want 5 active orders, got %d", len(e.Active()))
	}
}

func TestRetryFailedLevels(t *testing.T) {
	ctx := context.Background()
	e, gw := newTestEngine(t, &Options{RetryFailedLevels: true})

	fail := true
	gw.FailFunc = func(_ int, req *gateway.OrderRequest) error {
		if fail && req.Price.Equal(d("160")) {
			return fmt.Errorf("temporary failure")
		}
		return nil
	}
	if _, err := e.PlaceInitialOrders(ctx, gw); err != nil {
		t.Fatal(err)
	}
	if len(e.FailedLevels()) != 1 {
		t.Fatalf("want one failed level, got %v", e.FailedLevels())
	}

	e.OnPriceUpdate(ctx, d("150"), gw) // retry fails again
	if len(e.FailedLevels()) != 1 {
		t.Fatalf("want one failed level, got %v", e.FailedLevels())
	}

	fail = false
	e.OnPriceUpdate(ctx, d("150"), gw)
	if len(e.FailedLevels()) != 0 {
		t.Fatalf("want no failed levels, got %v", e.FailedLevels())
	}
	found := false
	for _, order := range e.Active() {
		if order.Level == 3 && order.Price.Equal(d("160")) && order.Side == gateway.Sell {
			found = true
		}
	}
	if !found {
		t.Fatalf("retried level must be active")
	}
}

func TestStateRestore(t *testing.T) {
	ctx := context.Background()
	e, gw := newTestEngine(t, nil)
	if _, err := e.PlaceInitialOrders(ctx, gw); err != nil {
		t.Fatal(err)
	}
	e.OnPriceUpdate(ctx, d("100"), gw)

	state := e.State("grid-1")
	r, err := Restore(state, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Active()) != len(e.Active()) || len(r.History()) != len(e.History()) {
		t.Fatalf("restored engine does not match")
	}
	if !r.LastPrice().Equal(d("100")) {
		t.Fatalf("want last price 100, got %s", r.LastPrice())
	}
	if r.Ladder().Levels[0].Status != Executed {
		t.Fatalf("level status must be restored")
	}
	if _, err := r.PlaceInitialOrders(ctx, gw); !errors.Is(err, os.ErrExist) {
		t.Fatalf("want %v, got %v", os.ErrExist, err)
	}
}

func TestOnPriceUpdateInexactStep(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.UpperPrice = d("300")
	cfg.GridCount = 3
	ladder, err := NewLadder(cfg) // BUY@100 SELL@166.66.. BUY@233.33.. SELL@300
	if err != nil {
		t.Fatal(err)
	}
	e, gw := New(ladder, nil), gatewaytest.New()
	if _, err := e.PlaceInitialOrders(ctx, gw); err != nil {
		t.Fatal(err)
	}
	if ladder.Step().Mul(decimal.NewFromInt(3)).Equal(d("200")) {
		t.Fatalf("want a step that does not divide the range exactly, got %s", ladder.Step())
	}

	nplaced := len(gw.Placed())
	// Buys at 100 and 233.33.. and the sell at 166.66.. trigger.
	if n := e.OnPriceUpdate(ctx, ladder.Levels[2].Price, gw); n != 3 {
		t.Fatalf("want 3, got %d", n)
	}
	replacements := gw.Placed()[nplaced:]
	if len(replacements) != 3 {
		t.Fatalf("want 3 replacements, got %d", len(replacements))
	}
	foundTop := false
	for _, req := range replacements {
		if req.Side == gateway.Sell && req.Price.Equal(d("300")) {
			foundTop = true
		}
	}
	if !foundTop {
		t.Fatalf("want a sell replacement at the upper bound 300, got %v", replacements)
	}
	for _, order := range e.Active() {
		if !e.Ladder().InRange(order.Price) {
			t.Fatalf("order %s is out of range", order)
		}
		if want := ladder.Levels[order.Level].Price; !order.Price.Equal(want) {
			t.Fatalf("want order price %s at level %d, got %s", want, order.Level, order.Price)
		}
	}
}
