// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// APIError is the error response from the exchange.
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance api error (http %d): code=%d msg=%s", e.HTTPStatus, e.Code, e.Message)
}

// MilliTime is a unix timestamp in milliseconds.
type MilliTime int64

func (v MilliTime) Time() time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(v))
}

type ServerTimeResponse struct {
	ServerTime MilliTime `json:"serverTime"`
}

type SymbolFilter struct {
	FilterType string          `json:"filterType"`
	MinPrice   decimal.Decimal `json:"minPrice"`
	MaxPrice   decimal.Decimal `json:"maxPrice"`
	TickSize   decimal.Decimal `json:"tickSize"`
	MinQty     decimal.Decimal `json:"minQty"`
	MaxQty     decimal.Decimal `json:"maxQty"`
	StepSize   decimal.Decimal `json:"stepSize"`
	Notional   decimal.Decimal `json:"notional"`
}

type SymbolInfo struct {
	Symbol            string          `json:"symbol"`
	Status            string          `json:"status"`
	ContractType      string          `json:"contractType"`
	BaseAsset         string          `json:"baseAsset"`
	QuoteAsset        string          `json:"quoteAsset"`
	PricePrecision    int             `json:"pricePrecision"`
	QuantityPrecision int             `json:"quantityPrecision"`
	Filters           []*SymbolFilter `json:"filters"`
}

type ExchangeInfoResponse struct {
	Timezone   string        `json:"timezone"`
	ServerTime MilliTime     `json:"serverTime"`
	Symbols    []*SymbolInfo `json:"symbols"`
}

type TickerPrice struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Time   MilliTime       `json:"time"`
}

// CreateOrderRequest holds the parameters for a new order. Zero values are not
// sent.
type CreateOrderRequest struct {
	Symbol        string
	Side          string
	Type          string
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	StopPrice     decimal.Decimal
	TimeInForce   string
	ReduceOnly    bool
	ClientOrderID string
}

type Order struct {
	OrderID       int64           `json:"orderId"`
	ClientOrderID string          `json:"clientOrderId"`
	Symbol        string          `json:"symbol"`
	Side          string          `json:"side"`
	Type          string          `json:"type"`
	OrigType      string          `json:"origType"`
	Status        string          `json:"status"`
	TimeInForce   string          `json:"timeInForce"`
	Price         decimal.Decimal `json:"price"`
	StopPrice     decimal.Decimal `json:"stopPrice"`
	OrigQty       decimal.Decimal `json:"origQty"`
	ExecutedQty   decimal.Decimal `json:"executedQty"`
	AvgPrice      decimal.Decimal `json:"avgPrice"`
	CumQuote      decimal.Decimal `json:"cumQuote"`
	ReduceOnly    bool            `json:"reduceOnly"`
	UpdateTime    MilliTime       `json:"updateTime"`

	// Raw holds the response as received.
	Raw json.RawMessage `json:"-"`
}

type Balance struct {
	AccountAlias       string          `json:"accountAlias"`
	Asset              string          `json:"asset"`
	Balance            decimal.Decimal `json:"balance"`
	CrossWalletBalance decimal.Decimal `json:"crossWalletBalance"`
	CrossUnPnl         decimal.Decimal `json:"crossUnPnl"`
	AvailableBalance   decimal.Decimal `json:"availableBalance"`
	MaxWithdrawAmount  decimal.Decimal `json:"maxWithdrawAmount"`
	UpdateTime         MilliTime       `json:"updateTime"`
}

type PositionRisk struct {
	Symbol           string          `json:"symbol"`
	PositionAmt      decimal.Decimal `json:"positionAmt"`
	EntryPrice       decimal.Decimal `json:"entryPrice"`
	MarkPrice        decimal.Decimal `json:"markPrice"`
	UnRealizedProfit decimal.Decimal `json:"unRealizedProfit"`
	LiquidationPrice decimal.Decimal `json:"liquidationPrice"`
	Leverage         string          `json:"leverage"`
	MarginType       string          `json:"marginType"`
	PositionSide     string          `json:"positionSide"`
	UpdateTime       MilliTime       `json:"updateTime"`
}

func (v *PositionRisk) LeverageInt() int {
	n, _ := strconv.Atoi(v.Leverage)
	return n
}

// MarkPriceUpdate is the websocket event for the mark price stream.
type MarkPriceUpdate struct {
	EventType       string          `json:"e"`
	EventTime       MilliTime       `json:"E"`
	Symbol          string          `json:"s"`
	MarkPrice       decimal.Decimal `json:"p"`
	IndexPrice      decimal.Decimal `json:"i"`
	FundingRate     decimal.Decimal `json:"r"`
	NextFundingTime MilliTime       `json:"T"`
}
