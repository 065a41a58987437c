// Copyright (c) 2025 BVK Chaitanya

package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bvk/orderbot/errs"
	"github.com/bvk/orderbot/gateway"
	"github.com/bvk/orderbot/gateway/gatewaytest"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMarketLimitStopLimit(t *testing.T) {
	ctx := context.Background()
	gw := gatewaytest.New()
	c := New(gw, nil, nil)

	if _, err := c.Market(ctx, "btcusdt", "buy", d("0.01")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Limit(ctx, "ETHUSDT", "SELL", d("0.5"), d("3500")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.StopLimit(ctx, "SOLUSDT", "sell", d("2"), d("140"), d("139.5")); err != nil {
		t.Fatal(err)
	}

	placed := gw.Placed()
	if len(placed) != 3 {
		t.Fatalf("want 3, got %d", len(placed))
	}
	if placed[0].Type != gateway.Market || placed[0].Symbol != "BTCUSDT" || placed[0].Side != gateway.Buy {
		t.Fatalf("unexpected market request %#v", placed[0])
	}
	if placed[1].Type != gateway.Limit || placed[1].TimeInForce != gateway.GTC || !placed[1].Price.Equal(d("3500")) {
		t.Fatalf("unexpected limit request %#v", placed[1])
	}
	if placed[2].Type != gateway.Stop || !placed[2].StopPrice.Equal(d("140")) || !placed[2].Price.Equal(d("139.5")) {
		t.Fatalf("unexpected stop-limit request %#v", placed[2])
	}
}

func TestValidationFailureSkipsGateway(t *testing.T) {
	ctx := context.Background()
	gw := gatewaytest.New()
	c := New(gw, nil, nil)

	if _, err := c.Market(ctx, "BTC", "buy", d("0.01")); !errs.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	if _, err := c.Limit(ctx, "BTCUSDT", "buy", d("0.01"), d("0")); !errs.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	if _, err := c.StopLimit(ctx, "BTCUSDT", "buy", d("5000"), d("1"), d("1")); !errs.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	if n := len(gw.Calls()); n != 0 {
		t.Fatalf("want no gateway calls, got %d", n)
	}
}

func TestOCO(t *testing.T) {
	ctx := context.Background()
	gw := gatewaytest.New()
	c := New(gw, nil, nil)

	req := &OCORequest{
		Symbol:     "BTCUSDT",
		Side:       "sell",
		Quantity:   d("0.01"),
		TakeProfit: d("70000"),
		StopPrice:  d("60000"),
	}
	pair, err := c.OCO(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if pair.TakeProfit.Type != gateway.Limit || pair.StopLoss.Type != gateway.StopMarket {
		t.Fatalf("unexpected legs %s and %s", pair.TakeProfit.Type, pair.StopLoss.Type)
	}

	if err := gw.Fill(pair.StopLoss.OrderID); err != nil {
		t.Fatal(err)
	}
	done, err := c.Watch(ctx, gw, pair, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if done.OrderID != pair.StopLoss.OrderID {
		t.Fatalf("want %s, got %s", pair.StopLoss.OrderID, done.OrderID)
	}
	tp, err := gw.GetOrder(ctx, "BTCUSDT", pair.TakeProfit.OrderID)
	if err != nil {
		t.Fatal(err)
	}
	if tp.Status != "CANCELED" {
		t.Fatalf("want take-profit leg canceled, got %s", tp.Status)
	}
}

func TestOCOStopLimitLeg(t *testing.T) {
	gw := gatewaytest.New()
	c := New(gw, nil, nil)
	pair, err := c.OCO(context.Background(), &OCORequest{
		Symbol:         "ETHUSDT",
		Side:           "buy",
		Quantity:       d("1"),
		TakeProfit:     d("2500"),
		StopPrice:      d("3000"),
		StopLimitPrice: d("3010"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if pair.StopLoss.Type != gateway.Stop || !pair.StopLoss.Price.Equal(d("3010")) {
		t.Fatalf("unexpected stop-loss leg %#v", pair.StopLoss)
	}
}

func TestOCOPriceOrder(t *testing.T) {
	gw := gatewaytest.New()
	c := New(gw, nil, nil)
	_, err := c.OCO(context.Background(), &OCORequest{
		Symbol:     "BTCUSDT",
		Side:       "sell",
		Quantity:   d("0.01"),
		TakeProfit: d("60000"),
		StopPrice:  d("70000"),
	})
	if !errs.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	if len(gw.Calls()) != 0 {
		t.Fatalf("gateway must not be called")
	}
}

func TestOCOSecondLegFailure(t *testing.T) {
	ctx := context.Background()
	gw := gatewaytest.New()
	gw.FailFunc = func(_ int, req *gateway.OrderRequest) error {
		if req.Type == gateway.StopMarket {
			return fmt.Errorf("order would immediately trigger")
		}
		return nil
	}
	c := New(gw, nil, nil)
	_, err := c.OCO(ctx, &OCORequest{
		Symbol:     "BTCUSDT",
		Side:       "sell",
		Quantity:   d("0.01"),
		TakeProfit: d("70000"),
		StopPrice:  d("60000"),
	})
	if !errs.IsGateway(err) {
		t.Fatalf("want gateway error, got %v", err)
	}
	calls := gw.Calls()
	last := calls[len(calls)-1]
	if last.Op != "cancel-order" || last.Err != nil {
		t.Fatalf("take-profit leg must be canceled, got %#v", last)
	}
}
