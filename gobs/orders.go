// Copyright (c) 2025 BVK Chaitanya

package gobs

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderResult struct {
	OrderID       int64
	ClientOrderID string

	Symbol string
	Side   string
	Type   string
	Status string

	Price            decimal.Decimal
	StopPrice        decimal.Decimal
	Quantity         decimal.Decimal
	ExecutedQuantity decimal.Decimal
	AveragePrice     decimal.Decimal

	UpdateTime time.Time

	Raw []byte
}

type TWAPSlice struct {
	Index    int
	Side     string
	Quantity decimal.Decimal
	PlacedAt time.Time

	Response *OrderResult
	Error    string
}

type TWAPLog struct {
	ID string

	Symbol        string
	Side          string
	TotalQuantity decimal.Decimal
	TotalSlices   int
	Interval      time.Duration

	Slices []*TWAPSlice

	StartedAt  time.Time
	FinishedAt time.Time

	// StopReason is non-empty if the run was stopped before all slices were
	// attempted.
	StopReason string
}

// OrderRecord holds one-shot orders (market, limit, stop-limit and oco) placed
// from the command line.
type OrderRecord struct {
	ID string

	Kind   string
	Symbol string

	Results []*OrderResult

	CreatedAt time.Time
	Note      string
}
