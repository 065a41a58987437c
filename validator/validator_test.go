// Copyright (c) 2025 BVK Chaitanya

package validator

import (
	"testing"
	"time"

	"github.com/bvk/orderbot/errs"
	"github.com/bvk/orderbot/gateway"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSymbol(t *testing.T) {
	v := New()
	if s, err := v.Symbol(" btcusdt "); err != nil || s != "BTCUSDT" {
		t.Fatalf("want BTCUSDT, got %q (%v)", s, err)
	}
	for _, bad := range []string{"", "BTC", "BTCUSD", "BT1USDT", "ABCDEFGHIJKUSDT", "DOGEUSDT"} {
		if _, err := v.Symbol(bad); !errs.IsValidation(err) {
			t.Fatalf("%q: want validation error, got %v", bad, err)
		}
	}

	v.Symbols = []string{"DOGEUSDT"}
	if _, err := v.Symbol("DOGEUSDT"); err != nil {
		t.Fatal(err)
	}
}

func TestQuantityAndPrice(t *testing.T) {
	v := New()
	for _, good := range []string{"0.001", "1", "1000"} {
		if err := v.Quantity(d(good)); err != nil {
			t.Fatalf("%s: %v", good, err)
		}
	}
	for _, bad := range []string{"0", "-1", "0.0009", "1000.01"} {
		if err := v.Quantity(d(bad)); !errs.IsValidation(err) {
			t.Fatalf("%s: want validation error, got %v", bad, err)
		}
	}
	if err := v.Price("price", d("0.01")); err != nil {
		t.Fatal(err)
	}
	if err := v.Price("price", d("0.009")); !errs.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	v := New()
	symbol, side, err := v.Check(&Order{Kind: "limit", Symbol: "ethusdt", Side: "Sell", Quantity: d("0.5"), Price: d("3000")})
	if err != nil {
		t.Fatal(err)
	}
	if symbol != "ETHUSDT" || side != gateway.Sell {
		t.Fatalf("want ETHUSDT SELL, got %s %s", symbol, side)
	}

	bad := []*Order{
		{Kind: "limit", Symbol: "ETHUSDT", Side: "sell", Quantity: d("0.5")},
		{Kind: "stop_limit", Symbol: "ETHUSDT", Side: "sell", Quantity: d("0.5"), Price: d("3000")},
		{Kind: "iceberg", Symbol: "ETHUSDT", Side: "sell", Quantity: d("0.5")},
		{Kind: "market", Symbol: "ETHUSDT", Side: "hold", Quantity: d("0.5")},
	}
	for i, o := range bad {
		if _, _, err := v.Check(o); !errs.IsValidation(err) {
			t.Fatalf("%d: want validation error, got %v", i, err)
		}
	}
}

func TestGridAndSlicing(t *testing.T) {
	v := New()
	if err := v.GridRange(d("100"), d("200"), 5, d("500")); err != nil {
		t.Fatal(err)
	}
	if err := v.GridRange(d("200"), d("100"), 5, d("500")); !errs.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	if err := v.GridRange(d("100"), d("200"), 0, d("500")); !errs.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	if err := v.Slicing(5, 2*time.Second); err != nil {
		t.Fatal(err)
	}
	if err := v.Slicing(0, time.Second); !errs.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestSliceAndLevelQuantity(t *testing.T) {
	v := New()
	if err := v.SliceQuantity(d("0.002")); err != nil {
		t.Fatal(err)
	}
	if err := v.SliceQuantity(d("0.0004")); !errs.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	if err := v.LevelQuantity(d("60000"), d("70000"), d("100")); err != nil {
		t.Fatal(err)
	}
	// Rounds to 0.000143 at the upper price.
	if err := v.LevelQuantity(d("60000"), d("70000"), d("10")); !errs.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	if err := v.LevelQuantity(d("1"), d("100"), d("5000")); !errs.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
}
