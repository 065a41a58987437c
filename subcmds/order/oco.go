// Copyright (c) 2025 BVK Chaitanya

package order

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/bvk/orderbot/gateway"
	"github.com/bvk/orderbot/orders"
	"github.com/bvk/orderbot/subcmds/cmdutil"
	"github.com/bvk/orderbot/validator"
	"github.com/visvasity/cli"
	"golang.org/x/sys/unix"
)

type OCO struct {
	orderFlags

	takeProfit     cmdutil.Decimal
	stopPrice      cmdutil.Decimal
	stopLimitPrice cmdutil.Decimal

	watch         bool
	watchInterval time.Duration
}

func (c *OCO) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("oco", flag.ContinueOnError)
	c.orderFlags.setFlags(fset)
	fset.Var(&c.takeProfit, "take-profit", "limit price for the take-profit leg")
	fset.Var(&c.stopPrice, "stop-price", "trigger price for the stop-loss leg")
	fset.Var(&c.stopLimitPrice, "stop-limit-price", "limit price for the stop-loss leg (stop-market when empty)")
	fset.BoolVar(&c.watch, "watch", false, "when true, waits for one leg to execute and cancels the other")
	fset.DurationVar(&c.watchInterval, "watch-interval", 5*time.Second, "polling interval for the order status when watching")
	return "oco", fset, cli.CmdFunc(c.run)
}

func (c *OCO) Purpose() string {
	return "Places a one-cancels-other take-profit and stop-loss pair"
}

func (c *OCO) Description() string {
	return `

Command "oco" places a reduce-only take-profit limit order and a stop-loss
order on the same side. Side is the closing side of the position being
protected. For example, a long position is protected with a sell pair where the
take-profit price is above the stop price:

  $ orderbot order oco --quantity=0.01 --take-profit=72000 --stop-price=65000 BTCUSDT sell

Exchange does not link the two legs. With the --watch flag, command polls both
legs and cancels the remaining leg when the other one executes.

`
}

func (c *OCO) run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, unix.SIGTERM)
	defer stop()

	symbol, side, err := symbolSide(args)
	if err != nil {
		return err
	}
	s, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	req := &orders.OCORequest{
		Symbol:         symbol,
		Side:           side,
		Quantity:       c.quantity.Decimal,
		TakeProfit:     c.takeProfit.Decimal,
		StopPrice:      c.stopPrice.Decimal,
		StopLimitPrice: c.stopLimitPrice.Decimal,
	}
	pair, err := s.client.OCO(ctx, req)
	if err != nil {
		return err
	}
	results := []*gateway.OrderResult{pair.TakeProfit, pair.StopLoss}
	if !c.watch {
		return s.finish(ctx, validator.KindOCO, symbol, results...)
	}

	fmt.Printf("watching take-profit order %s and stop-loss order %s\n", pair.TakeProfit.OrderID, pair.StopLoss.OrderID)
	done, err := s.client.Watch(ctx, s.gw, pair, c.watchInterval)
	if err != nil {
		return fmt.Errorf("could not complete watching the oco legs: %w", err)
	}
	fmt.Printf("order %s is %s\n", done.OrderID, done.Status)
	return s.finish(ctx, validator.KindOCO, symbol, append(results, done)...)
}
