// Copyright (c) 2025 BVK Chaitanya

package order

import (
	"context"
	"flag"

	"github.com/bvk/orderbot/subcmds/cmdutil"
	"github.com/bvk/orderbot/validator"
	"github.com/visvasity/cli"
)

type StopLimit struct {
	orderFlags

	stopPrice  cmdutil.Decimal
	limitPrice cmdutil.Decimal
}

func (c *StopLimit) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("stop-limit", flag.ContinueOnError)
	c.orderFlags.setFlags(fset)
	fset.Var(&c.stopPrice, "stop-price", "price that triggers the order")
	fset.Var(&c.limitPrice, "limit-price", "limit price for the order once triggered")
	return "stop-limit", fset, cli.CmdFunc(c.run)
}

func (c *StopLimit) Purpose() string {
	return "Places a stop-limit order"
}

func (c *StopLimit) run(ctx context.Context, args []string) error {
	symbol, side, err := symbolSide(args)
	if err != nil {
		return err
	}
	s, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.client.StopLimit(ctx, symbol, side, c.quantity.Decimal, c.stopPrice.Decimal, c.limitPrice.Decimal)
	if err != nil {
		return err
	}
	return s.finish(ctx, validator.KindStopLimit, symbol, result)
}
