// Copyright (c) 2025 BVK Chaitanya

package order

import (
	"context"
	"flag"

	"github.com/bvk/orderbot/validator"
	"github.com/visvasity/cli"
)

type Market struct {
	orderFlags
}

func (c *Market) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("market", flag.ContinueOnError)
	c.orderFlags.setFlags(fset)
	return "market", fset, cli.CmdFunc(c.run)
}

func (c *Market) Purpose() string {
	return "Places a market order"
}

func (c *Market) Description() string {
	return `

Command "market" places a market order for the symbol at the current price.

  $ orderbot order market --quantity=0.01 BTCUSDT buy

`
}

func (c *Market) run(ctx context.Context, args []string) error {
	symbol, side, err := symbolSide(args)
	if err != nil {
		return err
	}
	s, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.client.Market(ctx, symbol, side, c.quantity.Decimal)
	if err != nil {
		return err
	}
	return s.finish(ctx, validator.KindMarket, symbol, result)
}
