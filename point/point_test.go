// Copyright (c) 2023 BVK Chaitanya

package point

import (
	"testing"

	"github.com/bvk/orderbot/errs"
	"github.com/bvk/orderbot/gateway"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTriggered(t *testing.T) {
	buy := &Point{Side: gateway.Buy, Size: d("1"), Price: d("100")}
	sell := &Point{Side: gateway.Sell, Size: d("1"), Price: d("120")}

	type testCase struct {
		p      *Point
		market string
		want   bool
	}
	cases := []testCase{
		{buy, "99.99", true},
		{buy, "100", true},
		{buy, "100.01", false},
		{sell, "119.99", false},
		{sell, "120", true},
		{sell, "130", true},
	}
	for i, c := range cases {
		if got := c.p.IsTriggered(d(c.market)); got != c.want {
			t.Fatalf("%d: %s at %s: want %v, got %v", i, c.p, c.market, c.want, got)
		}
	}
}

func TestForNotional(t *testing.T) {
	p, err := ForNotional(gateway.Buy, d("100"), d("120"))
	if err != nil {
		t.Fatal(err)
	}
	if want := d("0.833333"); !p.Size.Equal(want) {
		t.Fatalf("want %s, got %s", want, p.Size)
	}
	if _, err := ForNotional(gateway.Buy, d("100"), d("0")); !errs.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	bad := []*Point{
		{Side: "HOLD", Size: d("1"), Price: d("1")},
		{Side: gateway.Buy, Size: d("0"), Price: d("1")},
		{Side: gateway.Buy, Size: d("-1"), Price: d("1")},
		{Side: gateway.Sell, Size: d("1"), Price: d("0")},
	}
	for i, p := range bad {
		if err := p.Check(); err == nil {
			t.Fatalf("%d: want non-nil error for %s", i, p)
		}
	}
}
