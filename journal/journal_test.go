// Copyright (c) 2025 BVK Chaitanya

package journal

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/bvk/orderbot/gobs"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/shopspring/decimal"
)

func TestTWAPRecords(t *testing.T) {
	ctx := context.Background()
	j := New(kvmemdb.New())

	for _, id := range []string{"b", "a", "c"} {
		log := &gobs.TWAPLog{
			ID:            id,
			Symbol:        "BTCUSDT",
			Side:          "BUY",
			TotalQuantity: decimal.RequireFromString("0.01"),
			TotalSlices:   5,
			Interval:      2 * time.Second,
			Slices: []*gobs.TWAPSlice{
				{Index: 1, Side: "BUY", Quantity: decimal.RequireFromString("0.002")},
			},
		}
		if err := j.SaveTWAP(ctx, log); err != nil {
			t.Fatal(err)
		}
	}

	got, err := j.LoadTWAP(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Slices) != 1 || !got.Slices[0].Quantity.Equal(decimal.RequireFromString("0.002")) {
		t.Fatalf("unexpected slices %#v", got.Slices)
	}

	logs, err := j.ListTWAPs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 3 {
		t.Fatalf("want 3, got %d", len(logs))
	}
	for i, want := range []string{"a", "b", "c"} {
		if logs[i].ID != want {
			t.Fatalf("want %s, got %s", want, logs[i].ID)
		}
	}

	if _, err := j.LoadTWAP(ctx, "missing"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want %v, got %v", os.ErrNotExist, err)
	}
	if err := j.SaveOrder(ctx, &gobs.OrderRecord{ID: "bad/id"}); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want %v, got %v", os.ErrInvalid, err)
	}
}

func TestGridAndOrderRecordsAreSeparate(t *testing.T) {
	ctx := context.Background()
	j := New(kvmemdb.New())

	if err := j.SaveGrid(ctx, &gobs.GridState{ID: "x", Config: gobs.GridConfig{Symbol: "ETHUSDT"}}); err != nil {
		t.Fatal(err)
	}
	if err := j.SaveOrder(ctx, &gobs.OrderRecord{ID: "x", Kind: "market", Symbol: "BTCUSDT"}); err != nil {
		t.Fatal(err)
	}

	grids, err := j.ListGrids(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(grids) != 1 || grids[0].Config.Symbol != "ETHUSDT" {
		t.Fatalf("unexpected grids %#v", grids)
	}
	orders, err := j.ListOrders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 || orders[0].Kind != "market" {
		t.Fatalf("unexpected orders %#v", orders)
	}
}
