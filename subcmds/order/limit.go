// Copyright (c) 2025 BVK Chaitanya

package order

import (
	"context"
	"flag"

	"github.com/bvk/orderbot/subcmds/cmdutil"
	"github.com/bvk/orderbot/validator"
	"github.com/visvasity/cli"
)

type Limit struct {
	orderFlags

	price cmdutil.Decimal
}

func (c *Limit) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("limit", flag.ContinueOnError)
	c.orderFlags.setFlags(fset)
	fset.Var(&c.price, "price", "limit price for the order")
	return "limit", fset, cli.CmdFunc(c.run)
}

func (c *Limit) Purpose() string {
	return "Places a good-till-cancel limit order"
}

func (c *Limit) run(ctx context.Context, args []string) error {
	symbol, side, err := symbolSide(args)
	if err != nil {
		return err
	}
	s, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.client.Limit(ctx, symbol, side, c.quantity.Decimal, c.price.Decimal)
	if err != nil {
		return err
	}
	return s.finish(ctx, validator.KindLimit, symbol, result)
}
