// Copyright (c) 2025 BVK Chaitanya

// Package orders places one-shot market, limit, stop-limit and
// one-cancels-other orders after validating their inputs.
package orders

import (
	"context"
	"log/slog"

	"github.com/bvk/orderbot/gateway"
	"github.com/bvk/orderbot/point"
	"github.com/bvk/orderbot/validator"
	"github.com/shopspring/decimal"
)

type Client struct {
	gw     gateway.Gateway
	check  *validator.Validator
	logger *slog.Logger
}

// New returns an order client. Validator and logger are optional.
func New(gw gateway.Gateway, v *validator.Validator, logger *slog.Logger) *Client {
	if v == nil {
		v = validator.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{gw: gw, check: v, logger: logger}
}

func (c *Client) place(ctx context.Context, req *gateway.OrderRequest) (*gateway.OrderResult, error) {
	req.Quantity = req.Quantity.Round(point.QuantityPlaces)
	resp, err := c.gw.PlaceOrder(ctx, req)
	if err != nil {
		c.logger.Error("could not place order", "symbol", req.Symbol, "side", req.Side, "type", req.Type, "quantity", req.Quantity, "price", req.Price, "stop-price", req.StopPrice, "err", err)
		return nil, err
	}
	c.logger.Info("placed order", "symbol", req.Symbol, "side", req.Side, "type", req.Type, "quantity", req.Quantity, "price", req.Price, "stop-price", req.StopPrice, "order-id", resp.OrderID, "status", resp.Status)
	return resp, nil
}

// Market places a market order.
func (c *Client) Market(ctx context.Context, symbol, side string, qty decimal.Decimal) (*gateway.OrderResult, error) {
	sym, s, err := c.check.Check(&validator.Order{
		Kind:     string(validator.KindMarket),
		Symbol:   symbol,
		Side:     side,
		Quantity: qty,
	})
	if err != nil {
		return nil, err
	}
	return c.place(ctx, &gateway.OrderRequest{
		Symbol:   sym,
		Side:     s,
		Type:     gateway.Market,
		Quantity: qty,
	})
}

// Limit places a good-till-canceled limit order.
func (c *Client) Limit(ctx context.Context, symbol, side string, qty, price decimal.Decimal) (*gateway.OrderResult, error) {
	sym, s, err := c.check.Check(&validator.Order{
		Kind:     string(validator.KindLimit),
		Symbol:   symbol,
		Side:     side,
		Quantity: qty,
		Price:    price,
	})
	if err != nil {
		return nil, err
	}
	return c.place(ctx, &gateway.OrderRequest{
		Symbol:      sym,
		Side:        s,
		Type:        gateway.Limit,
		Quantity:    qty,
		Price:       price,
		TimeInForce: gateway.GTC,
	})
}

// StopLimit places a limit order at limitPrice that becomes active once the
// market reaches the stopPrice.
func (c *Client) StopLimit(ctx context.Context, symbol, side string, qty, stopPrice, limitPrice decimal.Decimal) (*gateway.OrderResult, error) {
	sym, s, err := c.check.Check(&validator.Order{
		Kind:      string(validator.KindStopLimit),
		Symbol:    symbol,
		Side:      side,
		Quantity:  qty,
		Price:     limitPrice,
		StopPrice: stopPrice,
	})
	if err != nil {
		return nil, err
	}
	return c.place(ctx, &gateway.OrderRequest{
		Symbol:      sym,
		Side:        s,
		Type:        gateway.Stop,
		Quantity:    qty,
		Price:       limitPrice,
		StopPrice:   stopPrice,
		TimeInForce: gateway.GTC,
	})
}
