// Copyright (c) 2025 BVK Chaitanya

package grid

import (
	"context"
	"fmt"
	"time"

	"github.com/bvk/orderbot/gateway"
	"github.com/bvk/orderbot/journal"
	"github.com/bvk/orderbot/notify"
	"github.com/visvasity/topic"
)

type RunOptions struct {
	// ID is the job id used to save the grid state in the journal.
	ID string

	// Journal if non-nil receives a grid state snapshot after every price
	// update that executes an order and when the run stops.
	Journal *journal.Journal

	// Notifier if non-nil receives a message for every executed order.
	Notifier notify.Notifier
}

// Run feeds the price updates for the grid symbol into the engine till the
// context is canceled or the price feed is closed. Price updates are
// processed one at a time on the caller's goroutine.
func Run(ctx context.Context, e *Engine, gw gateway.Gateway, feed gateway.PriceFeed, opts *RunOptions) error {
	if opts == nil {
		opts = new(RunOptions)
	}
	logger := e.opts.Logger

	receiver, err := feed.PriceUpdates(ctx, e.Symbol())
	if err != nil {
		return fmt.Errorf("could not subscribe to price updates: %w", err)
	}
	defer receiver.Close()

	priceCh, err := topic.ReceiveCh(receiver)
	if err != nil {
		return fmt.Errorf("could not get price updates channel: %w", err)
	}

	save := func(ctx context.Context) {
		if opts.Journal == nil {
			return
		}
		if err := opts.Journal.SaveGrid(ctx, e.State(opts.ID)); err != nil {
			logger.Error("could not save grid state (ignored)", "id", opts.ID, "err", err)
		}
	}
	defer save(context.WithoutCancel(ctx))

	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)

		case update, ok := <-priceCh:
			if !ok {
				logger.Info("price feed is closed; stopping the grid", "symbol", e.Symbol())
				return nil
			}
			if update.Symbol != "" && update.Symbol != e.Symbol() {
				continue
			}

			nhistory := len(e.history)
			ntriggered := e.OnPriceUpdate(ctx, update.Price, gw)
			if ntriggered == 0 {
				continue
			}
			save(ctx)

			if opts.Notifier != nil {
				for _, order := range e.history[nhistory:] {
					msg := fmt.Sprintf("%s grid order %s executed at price %s", e.Symbol(), order.Point, update.Price)
					if err := opts.Notifier.SendMessage(ctx, time.Now(), msg); err != nil {
						logger.Warn("could not send grid notification (ignored)", "err", err)
					}
				}
			}
		}
	}
}
