// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bvk/orderbot/ctxutil"
	"github.com/gorilla/websocket"
	"github.com/visvasity/topic"
)

// WatchMarkPrice returns a topic publishing the mark price updates for the
// symbol. Streaming continues, reconnecting as necessary, until the client is
// closed.
func (c *Client) WatchMarkPrice(symbol string) (*topic.Topic[*MarkPriceUpdate], error) {
	if err := c.lifeCtx.Err(); err != nil {
		return nil, os.ErrClosed
	}
	symbol = strings.ToUpper(symbol)

	c.mu.Lock()
	defer c.mu.Unlock()

	if tp, ok := c.markPriceTopicMap[symbol]; ok {
		return tp, nil
	}
	tp := topic.New[*MarkPriceUpdate]()
	c.markPriceTopicMap[symbol] = tp

	c.wg.Add(1)
	go c.goWatchMarkPrice(c.lifeCtx, symbol, tp)
	return tp, nil
}

func (c *Client) goWatchMarkPrice(ctx context.Context, symbol string, tp *topic.Topic[*MarkPriceUpdate]) {
	defer c.wg.Done()

	for i := 0; ctx.Err() == nil; i++ {
		if err := c.streamMarkPrice(ctx, symbol, tp); err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("could not get mark price messages over websocket (may retry)", "symbol", symbol, "err", err)
		}
		if err := sleep(ctx, ctxutil.Backoff(i, time.Second, 32*time.Second)); err != nil {
			return
		}
	}
}

func (c *Client) streamMarkPrice(ctx context.Context, symbol string, tp *topic.Topic[*MarkPriceUpdate]) error {
	addrURL := c.websocketURL.JoinPath(strings.ToLower(symbol) + "@markPrice@1s")

	dialer := websocket.Dialer{
		EnableCompression: true,
	}
	conn, _, err := dialer.DialContext(ctx, addrURL.String(), nil)
	if err != nil {
		slog.Error("could not dial to websocket feed", "url", addrURL, "err", err)
		return err
	}
	defer conn.Close()

	for ctx.Err() == nil {
		msg, err := readMessage(ctx, conn)
		if err != nil {
			return err
		}
		update := new(MarkPriceUpdate)
		if err := json.Unmarshal(msg, update); err != nil {
			slog.Error("could not unmarshal mark price update", "message", string(msg), "err", err)
			continue
		}
		if update.EventType != "markPriceUpdate" || update.Symbol != symbol {
			continue
		}
		tp.Send(update)
	}
	return context.Cause(ctx)
}

func readMessage(ctx context.Context, conn *websocket.Conn) (json.RawMessage, error) {
	stopc := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
		close(stopc)
	})

	_, msg, err := conn.ReadMessage()
	if !stop() {
		// The AfterFunc was started. Wait for it to complete, and reset the Conn's
		// deadline.
		<-stopc
		conn.SetReadDeadline(time.Time{})
		return nil, context.Cause(ctx)
	}
	if err != nil {
		return nil, err
	}

	var m json.RawMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		slog.Error("could not unmarshal websocket message", "err", err)
		return nil, err
	}
	return m, nil
}
