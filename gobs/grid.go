// Copyright (c) 2025 BVK Chaitanya

// Package gobs defines the persistent, gob-encoded forms of the job state
// kept in the database.
package gobs

import (
	"time"

	"github.com/shopspring/decimal"
)

type GridConfig struct {
	Symbol string

	LowerPrice decimal.Decimal
	UpperPrice decimal.Decimal
	GridCount  int
	Investment decimal.Decimal

	InitialSide string
}

type GridLevel struct {
	Price  decimal.Decimal
	Side   string
	Status string
}

type GridOrder struct {
	Side  string
	Size  decimal.Decimal
	Price decimal.Decimal

	Level       int
	Replacement bool

	Status     string
	PlacedAt   time.Time
	ExecutedAt time.Time

	Response *OrderResult
}

type GridState struct {
	ID string

	Config GridConfig
	Levels []*GridLevel

	Active  []*GridOrder
	History []*GridOrder

	FailedLevels []int

	RetryFailedLevels bool

	LastPrice decimal.Decimal
	UpdatedAt time.Time
}
