// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/visvasity/topic"
	"golang.org/x/time/rate"
)

// Error code returned when the request timestamp is outside the recvWindow.
const codeTimestampOutsideWindow = -1021

type Client struct {
	lifeCtx    context.Context
	lifeCancel context.CancelCauseFunc

	wg sync.WaitGroup

	opts Options

	client http.Client

	key, secret string

	restURL      *url.URL
	websocketURL *url.URL

	limiter *rate.Limiter

	// timeAdjustment is the local time minus the server time.
	timeAdjustment atomic.Int64

	mu sync.Mutex

	markPriceTopicMap map[string]*topic.Topic[*MarkPriceUpdate]
}

// New returns a new client instance. Server time is fetched once to find the
// local clock difference, which is refreshed periodically in the background.
func New(ctx context.Context, key, secret string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	restURL, err := url.Parse(opts.RestURL)
	if err != nil {
		return nil, err
	}
	websocketURL, err := url.Parse(opts.WebsocketURL)
	if err != nil {
		return nil, err
	}

	lifeCtx, lifeCancel := context.WithCancelCause(context.Background())
	c := &Client{
		opts:       *opts,
		lifeCtx:    lifeCtx,
		lifeCancel: lifeCancel,
		key:        key,
		secret:     secret,
		client: http.Client{
			Timeout: opts.HttpClientTimeout,
		},
		restURL:           restURL,
		websocketURL:      websocketURL,
		limiter:           rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		markPriceTopicMap: make(map[string]*topic.Topic[*MarkPriceUpdate]),
	}

	if err := c.syncTime(ctx); err != nil {
		lifeCancel(err)
		return nil, err
	}

	c.wg.Add(1)
	go c.goSyncTime(c.lifeCtx)
	return c, nil
}

// Close releases resources and destroys the client instance.
func (c *Client) Close() error {
	c.lifeCancel(os.ErrClosed)
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for symbol, tp := range c.markPriceTopicMap {
		tp.Close()
		delete(c.markPriceTopicMap, symbol)
	}
	return nil
}

// TimeAdjustment returns the local clock difference with the server.
func (c *Client) TimeAdjustment() time.Duration {
	return time.Duration(c.timeAdjustment.Load())
}

// Now returns the current time as per the server clock.
func (c *Client) Now() time.Time {
	return time.Now().Add(-c.TimeAdjustment())
}

func (c *Client) syncTime(ctx context.Context) error {
	stime, err := c.ServerTime(ctx)
	if err != nil {
		return err
	}
	adjustment := time.Since(stime)
	if adjustment.Abs() > c.opts.MaxTimeAdjustment {
		slog.Error("local time and server time differ by more than the limit", "adjustment", adjustment, "limit", c.opts.MaxTimeAdjustment)
		return fmt.Errorf("local time is off from server time by %s: %w", adjustment, os.ErrInvalid)
	}
	c.timeAdjustment.Store(int64(adjustment))
	return nil
}

func (c *Client) goSyncTime(ctx context.Context) {
	defer c.wg.Done()

	for ctx.Err() == nil {
		if err := sleep(ctx, c.opts.TimeSyncInterval); err != nil {
			return
		}
		if err := c.syncTime(ctx); err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, os.ErrClosed) {
				slog.Warn("could not refresh server time adjustment (will retry)", "err", err)
			}
		}
	}
}

// ServerTime returns the exchange server's current time.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	resp := new(ServerTimeResponse)
	if _, err := doJSON(ctx, c, http.MethodGet, "/fapi/v1/time", nil, false, resp); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not get server time", "err", err)
		}
		return time.Time{}, err
	}
	return resp.ServerTime.Time(), nil
}

func (c *Client) GetExchangeInfo(ctx context.Context) (*ExchangeInfoResponse, error) {
	resp := new(ExchangeInfoResponse)
	if _, err := doJSON(ctx, c, http.MethodGet, "/fapi/v1/exchangeInfo", nil, false, resp); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not get exchange info", "err", err)
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetTickerPrice(ctx context.Context, symbol string) (*TickerPrice, error) {
	values := make(url.Values)
	values.Set("symbol", symbol)

	resp := new(TickerPrice)
	if _, err := doJSON(ctx, c, http.MethodGet, "/fapi/v1/ticker/price", values, false, resp); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not get ticker price", "symbol", symbol, "err", err)
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*Order, error) {
	values := make(url.Values)
	values.Set("symbol", req.Symbol)
	values.Set("side", req.Side)
	values.Set("type", req.Type)
	values.Set("newOrderRespType", "RESULT")
	if !req.Quantity.IsZero() {
		values.Set("quantity", req.Quantity.String())
	}
	if !req.Price.IsZero() {
		values.Set("price", req.Price.String())
	}
	if !req.StopPrice.IsZero() {
		values.Set("stopPrice", req.StopPrice.String())
	}
	if req.TimeInForce != "" {
		values.Set("timeInForce", req.TimeInForce)
	}
	if req.ReduceOnly {
		values.Set("reduceOnly", "true")
	}
	if req.ClientOrderID != "" {
		values.Set("newClientOrderId", req.ClientOrderID)
	}

	resp := new(Order)
	raw, err := doJSON(ctx, c, http.MethodPost, "/fapi/v1/order", values, true, resp)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not create order", "symbol", req.Symbol, "side", req.Side, "type", req.Type, "price", req.Price, "size", req.Quantity, "err", err)
		}
		return nil, err
	}
	resp.Raw = raw
	return resp, nil
}

func (c *Client) GetOrder(ctx context.Context, symbol string, orderID int64) (*Order, error) {
	values := make(url.Values)
	values.Set("symbol", symbol)
	values.Set("orderId", strconv.FormatInt(orderID, 10))

	resp := new(Order)
	raw, err := doJSON(ctx, c, http.MethodGet, "/fapi/v1/order", values, true, resp)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not get order", "symbol", symbol, "orderID", orderID, "err", err)
		}
		return nil, err
	}
	resp.Raw = raw
	return resp, nil
}

func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID int64) (*Order, error) {
	values := make(url.Values)
	values.Set("symbol", symbol)
	values.Set("orderId", strconv.FormatInt(orderID, 10))

	resp := new(Order)
	raw, err := doJSON(ctx, c, http.MethodDelete, "/fapi/v1/order", values, true, resp)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not cancel order", "symbol", symbol, "orderID", orderID, "err", err)
		}
		return nil, err
	}
	resp.Raw = raw
	return resp, nil
}

// GetBalances returns the futures account balances for all assets.
func (c *Client) GetBalances(ctx context.Context) ([]*Balance, error) {
	var resp []*Balance
	if _, err := doJSON(ctx, c, http.MethodGet, "/fapi/v2/balance", nil, true, &resp); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not get account balances", "err", err)
		}
		return nil, err
	}
	return resp, nil
}

// GetPositionRisk returns position information for the symbol, or for all
// symbols when symbol is empty.
func (c *Client) GetPositionRisk(ctx context.Context, symbol string) ([]*PositionRisk, error) {
	values := make(url.Values)
	if symbol != "" {
		values.Set("symbol", symbol)
	}

	var resp []*PositionRisk
	if _, err := doJSON(ctx, c, http.MethodGet, "/fapi/v2/positionRisk", values, true, &resp); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not get position risk", "symbol", symbol, "err", err)
		}
		return nil, err
	}
	return resp, nil
}

// sign adds the timestamp and recvWindow parameters to the values and returns
// the encoded query with the HMAC-SHA256 signature appended.
func (c *Client) sign(values url.Values) string {
	values.Set("recvWindow", strconv.FormatInt(c.opts.RecvWindow.Milliseconds(), 10))
	values.Set("timestamp", strconv.FormatInt(c.Now().UnixMilli(), 10))
	query := values.Encode()

	hash := hmac.New(sha256.New, []byte(c.secret))
	io.WriteString(hash, query)
	return query + "&signature=" + hex.EncodeToString(hash.Sum(nil))
}

func doJSON[PT *T, T any](ctx context.Context, c *Client, method, apiPath string, values url.Values, signed bool, response PT) (json.RawMessage, error) {
	resynced := false
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		addrURL := c.restURL.JoinPath(apiPath)
		if signed {
			params := make(url.Values)
			if values != nil {
				params = maps.Clone(values)
			}
			addrURL.RawQuery = c.sign(params)
		} else if values != nil {
			addrURL.RawQuery = values.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, method, addrURL.String(), nil)
		if err != nil {
			slog.Error("could not create http request object with context", "method", method, "path", apiPath, "err", err)
			return nil, err
		}
		if signed {
			req.Header.Add("X-MBX-APIKEY", c.key)
		}

		s := time.Now()
		resp, err := c.client.Do(req)
		if d := time.Since(s); d > c.opts.HttpClientTimeout {
			slog.Warn(fmt.Sprintf("%s request took %s which is more than the http client timeout %s", method, d, c.opts.HttpClientTimeout))
		}
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Error("could not perform http request", "method", method, "path", apiPath, "err", err)
			}
			return nil, err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			slog.Error("could not read http response body", "method", method, "path", apiPath, "err", err)
			return nil, err
		}

		if resp.StatusCode == http.StatusBadGateway {
			slog.Warn("http request returned bad gateway status (will retry)", "method", method, "path", apiPath)
			if err := sleep(ctx, time.Second); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusTeapot {
			timeout := time.Second
			if x := resp.Header.Get("Retry-After"); len(x) != 0 {
				if v, err := strconv.Atoi(x); err == nil {
					timeout = time.Duration(v) * time.Second
				}
			}
			slog.Warn("http request is rate limited (will retry)", "method", method, "path", apiPath, "status", resp.StatusCode, "retry-after", timeout)
			if err := sleep(ctx, timeout); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := &APIError{HTTPStatus: resp.StatusCode}
			if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == 0 {
				apiErr.Message = strings.TrimSpace(string(body))
			}
			if signed && !resynced && apiErr.Code == codeTimestampOutsideWindow {
				resynced = true
				if err := c.syncTime(ctx); err == nil {
					continue
				}
			}
			slog.Warn("http request is unsuccessful", "method", method, "path", apiPath, "status", resp.StatusCode, "code", apiErr.Code, "msg", apiErr.Message)
			return nil, apiErr
		}

		if err := json.Unmarshal(body, response); err != nil {
			slog.Error("could not decode response to json", "method", method, "path", apiPath, "err", err)
			return nil, err
		}
		return json.RawMessage(body), nil
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	sctx, scancel := context.WithTimeout(ctx, d)
	<-sctx.Done()
	scancel()
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return nil
}
