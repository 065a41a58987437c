// Copyright (c) 2025 BVK Chaitanya

// Package gatewaytest provides an in-memory exchange gateway for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bvk/orderbot/errs"
	"github.com/bvk/orderbot/gateway"
	"github.com/shopspring/decimal"
	"github.com/visvasity/topic"
)

// Call records a single gateway invocation.
type Call struct {
	Op      string
	Request gateway.OrderRequest
	OrderID gateway.OrderID
	Err     error
}

// Gateway is a scripted, in-memory gateway. Orders are accepted with
// sequential ids unless FailFunc returns a non-nil error for the request.
type Gateway struct {
	mu sync.Mutex

	// FailFunc, when set, is consulted before every placement. A non-nil
	// return value fails the placement with a gateway error.
	FailFunc func(nplaced int, req *gateway.OrderRequest) error

	// Now is used as the order update time; defaults to time.Now.
	Now func() time.Time

	nextID gateway.OrderID
	calls  []*Call
	orders map[gateway.OrderID]*gateway.OrderResult

	priceTopics map[string]*topic.Topic[*gateway.PriceUpdate]
}

var (
	_ gateway.Gateway      = &Gateway{}
	_ gateway.OrderQuerier = &Gateway{}
	_ gateway.PriceFeed    = &Gateway{}
)

func New() *Gateway {
	return &Gateway{
		nextID:      1000,
		orders:      make(map[gateway.OrderID]*gateway.OrderResult),
		priceTopics: make(map[string]*topic.Topic[*gateway.PriceUpdate]),
	}
}

func (g *Gateway) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *Gateway) PlaceLimitOrder(ctx context.Context, symbol string, side gateway.Side, quantity, price decimal.Decimal) (*gateway.OrderResult, error) {
	req := &gateway.OrderRequest{
		Symbol:      symbol,
		Side:        side,
		Type:        gateway.Limit,
		Quantity:    quantity,
		Price:       price,
		TimeInForce: gateway.GTC,
	}
	return g.place(ctx, "place-limit-order", req)
}

func (g *Gateway) PlaceOrder(ctx context.Context, req *gateway.OrderRequest) (*gateway.OrderResult, error) {
	return g.place(ctx, "place-order", req)
}

func (g *Gateway) place(ctx context.Context, op string, req *gateway.OrderRequest) (*gateway.OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	call := &Call{Op: op, Request: *req}
	g.calls = append(g.calls, call)

	if err := ctx.Err(); err != nil {
		call.Err = &errs.GatewayError{Op: op, Symbol: req.Symbol, Side: string(req.Side), Err: context.Cause(ctx)}
		return nil, call.Err
	}
	if err := req.Check(); err != nil {
		call.Err = &errs.GatewayError{Op: op, Symbol: req.Symbol, Side: string(req.Side), Err: err}
		return nil, call.Err
	}
	if g.FailFunc != nil {
		if err := g.FailFunc(len(g.orders), req); err != nil {
			call.Err = &errs.GatewayError{
				Op:       op,
				Symbol:   req.Symbol,
				Side:     string(req.Side),
				Price:    req.Price,
				Quantity: req.Quantity,
				Err:      err,
			}
			return nil, call.Err
		}
	}

	g.nextID++
	result := &gateway.OrderResult{
		OrderID:       g.nextID,
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Status:        "NEW",
		Price:         req.Price,
		StopPrice:     req.StopPrice,
		Quantity:      req.Quantity,
		UpdateTime:    g.now(),
	}
	if req.Type == gateway.Market {
		result.Status = "FILLED"
		result.ExecutedQuantity = req.Quantity
	}
	if result.ClientOrderID == "" {
		result.ClientOrderID = fmt.Sprintf("fake-%d", result.OrderID)
	}
	g.orders[result.OrderID] = result
	call.OrderID = result.OrderID

	clone := *result
	return &clone, nil
}

func (g *Gateway) CancelOrder(ctx context.Context, symbol string, id gateway.OrderID) (*gateway.CancelResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	call := &Call{Op: "cancel-order", Request: gateway.OrderRequest{Symbol: symbol}, OrderID: id}
	g.calls = append(g.calls, call)

	order, ok := g.orders[id]
	if !ok || order.Symbol != symbol {
		call.Err = &errs.GatewayError{Op: "cancel-order", Symbol: symbol, Code: -2011, Message: "Unknown order sent."}
		return nil, call.Err
	}
	if order.IsDone() {
		call.Err = &errs.GatewayError{Op: "cancel-order", Symbol: symbol, Code: -2011, Message: "Order already done."}
		return nil, call.Err
	}
	order.Status = "CANCELED"
	order.UpdateTime = g.now()
	return &gateway.CancelResult{
		OrderID:       id,
		ClientOrderID: order.ClientOrderID,
		Symbol:        symbol,
		Status:        order.Status,
	}, nil
}

func (g *Gateway) GetOrder(ctx context.Context, symbol string, id gateway.OrderID) (*gateway.OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	order, ok := g.orders[id]
	if !ok || order.Symbol != symbol {
		return nil, &errs.GatewayError{Op: "get-order", Symbol: symbol, Err: os.ErrNotExist}
	}
	clone := *order
	return &clone, nil
}

// Fill marks an open order as completely executed.
func (g *Gateway) Fill(id gateway.OrderID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	order, ok := g.orders[id]
	if !ok {
		return os.ErrNotExist
	}
	if order.IsDone() {
		return os.ErrInvalid
	}
	order.Status = "FILLED"
	order.ExecutedQuantity = order.Quantity
	order.AveragePrice = order.Price
	order.UpdateTime = g.now()
	return nil
}

// Calls returns a copy of all recorded calls in order.
func (g *Gateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()

	calls := make([]Call, 0, len(g.calls))
	for _, c := range g.calls {
		calls = append(calls, *c)
	}
	return calls
}

// Placed returns the successful placement requests in order.
func (g *Gateway) Placed() []gateway.OrderRequest {
	var reqs []gateway.OrderRequest
	for _, c := range g.Calls() {
		if c.Op != "cancel-order" && c.Err == nil {
			reqs = append(reqs, c.Request)
		}
	}
	return reqs
}

func (g *Gateway) priceTopic(symbol string) *topic.Topic[*gateway.PriceUpdate] {
	g.mu.Lock()
	defer g.mu.Unlock()

	tp, ok := g.priceTopics[symbol]
	if !ok {
		tp = topic.New[*gateway.PriceUpdate]()
		g.priceTopics[symbol] = tp
	}
	return tp
}

func (g *Gateway) PriceUpdates(ctx context.Context, symbol string) (*topic.Receiver[*gateway.PriceUpdate], error) {
	return topic.Subscribe(g.priceTopic(symbol), 0, false)
}

// SendPrice publishes a price update to all subscribers of the symbol.
func (g *Gateway) SendPrice(symbol string, price decimal.Decimal) {
	g.priceTopic(symbol).Send(&gateway.PriceUpdate{
		Symbol: symbol,
		Price:  price,
		At:     g.now(),
	})
}

// ClosePrices closes the price topic for the symbol, ending all
// subscriptions.
func (g *Gateway) ClosePrices(symbol string) {
	g.priceTopic(symbol).Close()
}
