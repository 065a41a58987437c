// Copyright (c) 2025 BVK Chaitanya

package binance

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bvk/orderbot/binance/internal"
	"github.com/bvk/orderbot/errs"
	"github.com/bvk/orderbot/gateway"
	"github.com/bvk/orderbot/idgen"
	"github.com/shopspring/decimal"
	"github.com/visvasity/topic"
)

// Gateway implements the order gateway over the Binance USD-M futures REST
// and websocket APIs.
type Gateway struct {
	client *internal.Client

	opts Options

	ids *idgen.Generator

	mu sync.Mutex

	exchangeInfo   *internal.ExchangeInfoResponse
	exchangeInfoAt time.Time
}

var (
	_ gateway.Gateway       = &Gateway{}
	_ gateway.OrderQuerier  = &Gateway{}
	_ gateway.AccountReader = &Gateway{}
	_ gateway.SymbolLister  = &Gateway{}
	_ gateway.PriceFeed     = &Gateway{}
)

// New creates a gateway with the given api credentials.
func New(ctx context.Context, key, secret string, opts *Options) (*Gateway, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, errs.NewConfigError("binance", "%v", err)
	}
	if key == "" || secret == "" {
		return nil, errs.NewConfigError("api_key", "api key and secret are required")
	}

	client, err := internal.New(ctx, key, secret, opts.internalOptions())
	if err != nil {
		return nil, &errs.GatewayError{Op: "connect", Err: err}
	}
	g := &Gateway{
		client: client,
		opts:   *opts,
		ids:    idgen.New(opts.ClientOrderIDSeed, 0),
	}
	return g, nil
}

func (g *Gateway) Close() error {
	if err := g.client.Close(); err != nil {
		slog.Error("could not close binance client (ignored)", "err", err)
	}
	return nil
}

// PlaceLimitOrder places a good-till-cancel limit order.
func (g *Gateway) PlaceLimitOrder(ctx context.Context, symbol string, side gateway.Side, quantity, price decimal.Decimal) (*gateway.OrderResult, error) {
	req := &gateway.OrderRequest{
		Symbol:      symbol,
		Side:        side,
		Type:        gateway.Limit,
		Quantity:    quantity,
		Price:       price,
		TimeInForce: gateway.GTC,
	}
	return g.placeOrder(ctx, "place-limit-order", req)
}

func (g *Gateway) PlaceOrder(ctx context.Context, req *gateway.OrderRequest) (*gateway.OrderResult, error) {
	return g.placeOrder(ctx, "place-order", req)
}

func (g *Gateway) placeOrder(ctx context.Context, op string, req *gateway.OrderRequest) (*gateway.OrderResult, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}

	creq := &internal.CreateOrderRequest{
		Symbol:        strings.ToUpper(req.Symbol),
		Side:          string(req.Side),
		Type:          string(req.Type),
		Quantity:      req.Quantity,
		TimeInForce:   string(req.TimeInForce),
		ReduceOnly:    req.ReduceOnly,
		ClientOrderID: req.ClientOrderID,
	}
	switch req.Type {
	case gateway.Limit, gateway.Stop, gateway.TakeProfit:
		creq.Price = req.Price
		if creq.TimeInForce == "" {
			creq.TimeInForce = string(gateway.GTC)
		}
	}
	switch req.Type {
	case gateway.Stop, gateway.StopMarket, gateway.TakeProfit:
		creq.StopPrice = req.StopPrice
	}
	if creq.ClientOrderID == "" {
		creq.ClientOrderID = g.ids.NextClientOrderID(g.opts.ClientOrderIDPrefix)
	}

	start := time.Now()
	order, err := g.client.CreateOrder(ctx, creq)
	observe(op, start, err)
	if err != nil {
		return nil, newGatewayError(op, creq.Symbol, req.Side, req.Quantity, req.Price, err)
	}
	result := toOrderResult(order)
	slog.Info("placed order", "op", op, "symbol", result.Symbol, "side", result.Side, "type", result.Type, "orderID", result.OrderID, "clientOrderID", result.ClientOrderID, "status", result.Status)
	return result, nil
}

func (g *Gateway) CancelOrder(ctx context.Context, symbol string, id gateway.OrderID) (*gateway.CancelResult, error) {
	symbol = strings.ToUpper(symbol)

	start := time.Now()
	order, err := g.client.CancelOrder(ctx, symbol, int64(id))
	observe("cancel-order", start, err)
	if err != nil {
		return nil, newGatewayError("cancel-order", symbol, "", decimal.Zero, decimal.Zero, err)
	}
	result := &gateway.CancelResult{
		OrderID:       gateway.OrderID(order.OrderID),
		ClientOrderID: order.ClientOrderID,
		Symbol:        order.Symbol,
		Status:        order.Status,
		Raw:           order.Raw,
	}
	slog.Info("canceled order", "symbol", symbol, "orderID", id, "status", result.Status)
	return result, nil
}

func (g *Gateway) GetOrder(ctx context.Context, symbol string, id gateway.OrderID) (*gateway.OrderResult, error) {
	symbol = strings.ToUpper(symbol)

	start := time.Now()
	order, err := g.client.GetOrder(ctx, symbol, int64(id))
	observe("get-order", start, err)
	if err != nil {
		return nil, newGatewayError("get-order", symbol, "", decimal.Zero, decimal.Zero, err)
	}
	return toOrderResult(order), nil
}

// Balances returns the account balances for assets with a non-zero balance.
func (g *Gateway) Balances(ctx context.Context) ([]*gateway.Balance, error) {
	start := time.Now()
	balances, err := g.client.GetBalances(ctx)
	observe("balances", start, err)
	if err != nil {
		return nil, newGatewayError("balances", "", "", decimal.Zero, decimal.Zero, err)
	}

	var result []*gateway.Balance
	for _, b := range balances {
		if b.Balance.IsZero() && b.AvailableBalance.IsZero() {
			continue
		}
		result = append(result, &gateway.Balance{
			Asset:            b.Asset,
			Balance:          b.Balance,
			AvailableBalance: b.AvailableBalance,
		})
	}
	return result, nil
}

// Positions returns the open positions.
func (g *Gateway) Positions(ctx context.Context) ([]*gateway.Position, error) {
	start := time.Now()
	positions, err := g.client.GetPositionRisk(ctx, "")
	observe("positions", start, err)
	if err != nil {
		return nil, newGatewayError("positions", "", "", decimal.Zero, decimal.Zero, err)
	}

	var result []*gateway.Position
	for _, p := range positions {
		if p.PositionAmt.IsZero() {
			continue
		}
		result = append(result, &gateway.Position{
			Symbol:           p.Symbol,
			Amount:           p.PositionAmt,
			EntryPrice:       p.EntryPrice,
			MarkPrice:        p.MarkPrice,
			UnrealizedProfit: p.UnRealizedProfit,
			Leverage:         p.LeverageInt(),
		})
	}
	return result, nil
}

// Symbols returns the sorted list of tradable symbols. Exchange information is
// cached for the configured ttl.
func (g *Gateway) Symbols(ctx context.Context) ([]string, error) {
	info, err := g.getExchangeInfo(ctx)
	if err != nil {
		return nil, err
	}
	var symbols []string
	for _, s := range info.Symbols {
		if s.Status == "TRADING" {
			symbols = append(symbols, s.Symbol)
		}
	}
	slices.Sort(symbols)
	return symbols, nil
}

func (g *Gateway) getExchangeInfo(ctx context.Context) (*internal.ExchangeInfoResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.exchangeInfo != nil && time.Since(g.exchangeInfoAt) < g.opts.ExchangeInfoTTL {
		return g.exchangeInfo, nil
	}

	start := time.Now()
	info, err := g.client.GetExchangeInfo(ctx)
	observe("exchange-info", start, err)
	if err != nil {
		if g.exchangeInfo != nil {
			slog.Warn("using stale exchange info after refresh failure", "age", time.Since(g.exchangeInfoAt), "err", err)
			return g.exchangeInfo, nil
		}
		return nil, newGatewayError("exchange-info", "", "", decimal.Zero, decimal.Zero, err)
	}
	g.exchangeInfo, g.exchangeInfoAt = info, time.Now()
	return info, nil
}

// TickerPrice returns the latest traded price for the symbol.
func (g *Gateway) TickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = strings.ToUpper(symbol)

	start := time.Now()
	ticker, err := g.client.GetTickerPrice(ctx, symbol)
	observe("ticker-price", start, err)
	if err != nil {
		return decimal.Zero, newGatewayError("ticker-price", symbol, "", decimal.Zero, decimal.Zero, err)
	}
	return ticker.Price, nil
}

// PriceUpdates returns a receiver for the mark price updates of the symbol.
func (g *Gateway) PriceUpdates(ctx context.Context, symbol string) (*topic.Receiver[*gateway.PriceUpdate], error) {
	tp, err := g.client.WatchMarkPrice(symbol)
	if err != nil {
		return nil, newGatewayError("price-updates", symbol, "", decimal.Zero, decimal.Zero, err)
	}
	fn := func(x *internal.MarkPriceUpdate) *gateway.PriceUpdate {
		return &gateway.PriceUpdate{
			Symbol: x.Symbol,
			Price:  x.MarkPrice,
			At:     x.EventTime.Time(),
		}
	}
	return topic.SubscribeFunc(tp, fn, 1, true)
}

func toOrderResult(order *internal.Order) *gateway.OrderResult {
	return &gateway.OrderResult{
		OrderID:          gateway.OrderID(order.OrderID),
		ClientOrderID:    order.ClientOrderID,
		Symbol:           order.Symbol,
		Side:             gateway.Side(order.Side),
		Type:             gateway.OrderType(order.Type),
		Status:           order.Status,
		Price:            order.Price,
		StopPrice:        order.StopPrice,
		Quantity:         order.OrigQty,
		ExecutedQuantity: order.ExecutedQty,
		AveragePrice:     order.AvgPrice,
		UpdateTime:       order.UpdateTime.Time(),
		Raw:              order.Raw,
	}
}

func newGatewayError(op, symbol string, side gateway.Side, quantity, price decimal.Decimal, err error) error {
	gerr := &errs.GatewayError{
		Op:       op,
		Symbol:   symbol,
		Side:     string(side),
		Quantity: quantity,
		Price:    price,
		Err:      err,
	}
	var apiErr *internal.APIError
	if errors.As(err, &apiErr) {
		gerr.Code = apiErr.Code
		gerr.Message = apiErr.Message
	}
	return gerr
}
