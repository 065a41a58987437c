// Copyright (c) 2025 BVK Chaitanya

package grid

import (
	"fmt"
	"slices"

	"github.com/bvk/orderbot/gateway"
	"github.com/bvk/orderbot/gobs"
	"github.com/bvk/orderbot/point"
)

func (v *Order) toGob() *gobs.GridOrder {
	return &gobs.GridOrder{
		Side:        string(v.Side),
		Size:        v.Size,
		Price:       v.Price,
		Level:       v.Level,
		Replacement: v.Replacement,
		Status:      string(v.Status),
		PlacedAt:    v.PlacedAt,
		ExecutedAt:  v.ExecutedAt,
		Response:    v.Response.ToGob(),
	}
}

func orderFromGob(v *gobs.GridOrder) *Order {
	return &Order{
		Point: point.Point{
			Side:  gateway.Side(v.Side),
			Size:  v.Size,
			Price: v.Price,
		},
		Level:       v.Level,
		Replacement: v.Replacement,
		Status:      Status(v.Status),
		PlacedAt:    v.PlacedAt,
		ExecutedAt:  v.ExecutedAt,
		Response:    gateway.OrderResultFromGob(v.Response),
	}
}

// State returns a snapshot of the engine in it's persistent form.
func (e *Engine) State(id string) *gobs.GridState {
	cfg := e.ladder.config
	state := &gobs.GridState{
		ID: id,
		Config: gobs.GridConfig{
			Symbol:      cfg.Symbol,
			LowerPrice:  cfg.LowerPrice,
			UpperPrice:  cfg.UpperPrice,
			GridCount:   cfg.GridCount,
			Investment:  cfg.Investment,
			InitialSide: string(cfg.InitialSide),
		},
		FailedLevels:      slices.Clone(e.failedLevels),
		RetryFailedLevels: e.opts.RetryFailedLevels,
		LastPrice:         e.lastPrice,
		UpdatedAt:         e.opts.Now(),
	}
	for _, level := range e.ladder.Levels {
		state.Levels = append(state.Levels, &gobs.GridLevel{
			Price:  level.Price,
			Side:   string(level.Side),
			Status: string(level.Status),
		})
	}
	for _, order := range e.active {
		state.Active = append(state.Active, order.toGob())
	}
	for _, order := range e.history {
		state.History = append(state.History, order.toGob())
	}
	return state
}

// Restore recreates an engine from it's persistent state. Restored engine
// does not place the initial orders again.
func Restore(state *gobs.GridState, opts *Options) (*Engine, error) {
	cfg := &Config{
		Symbol:      state.Config.Symbol,
		LowerPrice:  state.Config.LowerPrice,
		UpperPrice:  state.Config.UpperPrice,
		GridCount:   state.Config.GridCount,
		Investment:  state.Config.Investment,
		InitialSide: gateway.Side(state.Config.InitialSide),
	}
	ladder, err := NewLadder(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not recreate grid ladder: %w", err)
	}
	if len(state.Levels) != len(ladder.Levels) {
		return nil, fmt.Errorf("grid state has %d levels, want %d", len(state.Levels), len(ladder.Levels))
	}
	for i, level := range state.Levels {
		ladder.Levels[i].Status = Status(level.Status)
	}

	if opts == nil {
		opts = new(Options)
	}
	e := New(ladder, opts)
	e.placed = true
	e.lastPrice = state.LastPrice
	e.failedLevels = slices.Clone(state.FailedLevels)
	for _, v := range state.Active {
		e.active = append(e.active, orderFromGob(v))
	}
	for _, v := range state.History {
		e.history = append(e.history, orderFromGob(v))
	}
	return e, nil
}
