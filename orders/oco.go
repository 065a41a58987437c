// Copyright (c) 2025 BVK Chaitanya

package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/bvk/orderbot/ctxutil"
	"github.com/bvk/orderbot/errs"
	"github.com/bvk/orderbot/gateway"
	"github.com/bvk/orderbot/validator"
	"github.com/shopspring/decimal"
)

type OCORequest struct {
	Symbol string

	// Side is the side for both legs, which is the closing side of the
	// position being protected.
	Side string

	Quantity decimal.Decimal

	// TakeProfit is the limit price for the profit taking leg.
	TakeProfit decimal.Decimal

	// StopPrice triggers the stop-loss leg.
	StopPrice decimal.Decimal

	// StopLimitPrice is the limit price for the stop-loss leg once triggered.
	// Stop-loss leg is a stop-market order when zero.
	StopLimitPrice decimal.Decimal
}

// Pair holds the two legs of a one-cancels-other order.
type Pair struct {
	Symbol string

	TakeProfit *gateway.OrderResult
	StopLoss   *gateway.OrderResult
}

// OCO places a take-profit limit order and a stop-loss order on the same
// side. If the second leg cannot be placed, the first leg is canceled.
func (c *Client) OCO(ctx context.Context, req *OCORequest) (*Pair, error) {
	sym, side, err := c.check.Check(&validator.Order{
		Kind:      string(validator.KindOCO),
		Symbol:    req.Symbol,
		Side:      req.Side,
		Quantity:  req.Quantity,
		Price:     req.TakeProfit,
		StopPrice: req.StopPrice,
	})
	if err != nil {
		return nil, err
	}
	if !req.StopLimitPrice.IsZero() {
		if err := c.check.Price("stop_limit_price", req.StopLimitPrice); err != nil {
			return nil, err
		}
	}
	// A sell closes a long position so profit is above and loss is below.
	if side == gateway.Sell && req.TakeProfit.LessThanOrEqual(req.StopPrice) {
		return nil, errs.NewValidationError("take_profit", req.TakeProfit, "must be above stop price %s for sell orders", req.StopPrice)
	}
	if side == gateway.Buy && req.TakeProfit.GreaterThanOrEqual(req.StopPrice) {
		return nil, errs.NewValidationError("take_profit", req.TakeProfit, "must be below stop price %s for buy orders", req.StopPrice)
	}

	tp, err := c.place(ctx, &gateway.OrderRequest{
		Symbol:      sym,
		Side:        side,
		Type:        gateway.Limit,
		Quantity:    req.Quantity,
		Price:       req.TakeProfit,
		TimeInForce: gateway.GTC,
		ReduceOnly:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("could not place take-profit leg: %w", err)
	}

	slreq := &gateway.OrderRequest{
		Symbol:     sym,
		Side:       side,
		Type:       gateway.StopMarket,
		Quantity:   req.Quantity,
		StopPrice:  req.StopPrice,
		ReduceOnly: true,
	}
	if !req.StopLimitPrice.IsZero() {
		slreq.Type = gateway.Stop
		slreq.Price = req.StopLimitPrice
		slreq.TimeInForce = gateway.GTC
	}
	sl, err := c.place(ctx, slreq)
	if err != nil {
		if _, cerr := c.gw.CancelOrder(context.WithoutCancel(ctx), sym, tp.OrderID); cerr != nil {
			c.logger.Error("could not cancel take-profit leg after stop-loss failure", "symbol", sym, "order-id", tp.OrderID, "err", cerr)
		}
		return nil, fmt.Errorf("could not place stop-loss leg: %w", err)
	}
	return &Pair{Symbol: sym, TakeProfit: tp, StopLoss: sl}, nil
}

// Watch polls both legs of the pair till one of them is done and cancels the
// other leg. Returns the leg that completed first.
func (c *Client) Watch(ctx context.Context, q gateway.OrderQuerier, pair *Pair, interval time.Duration) (*gateway.OrderResult, error) {
	legs := []*gateway.OrderResult{pair.TakeProfit, pair.StopLoss}
	for {
		for i, leg := range legs {
			latest, err := q.GetOrder(ctx, pair.Symbol, leg.OrderID)
			if err != nil {
				c.logger.Warn("could not get oco leg status (will retry)", "symbol", pair.Symbol, "order-id", leg.OrderID, "err", err)
				continue
			}
			if !latest.IsDone() && latest.ExecutedQuantity.IsZero() {
				continue
			}
			other := legs[1-i]
			c.logger.Info("oco leg is done; canceling the other leg", "symbol", pair.Symbol, "done", latest.OrderID, "status", latest.Status, "other", other.OrderID)
			cancel := func() error {
				if _, err := c.gw.CancelOrder(ctx, pair.Symbol, other.OrderID); err != nil {
					if x, xerr := q.GetOrder(ctx, pair.Symbol, other.OrderID); xerr == nil && x.IsDone() {
						return nil
					}
					return err
				}
				return nil
			}
			if err := ctxutil.RetryTimeout(ctx, time.Second, time.Minute, cancel); err != nil {
				return latest, fmt.Errorf("could not cancel the other oco leg %s: %w", other.OrderID, err)
			}
			return latest, nil
		}
		if err := ctxutil.Sleep(ctx, interval); err != nil {
			return nil, err
		}
	}
}
