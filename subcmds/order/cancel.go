// Copyright (c) 2025 BVK Chaitanya

package order

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strconv"

	"github.com/bvk/orderbot/gateway"
	"github.com/visvasity/cli"
)

type Cancel struct {
	orderFlags
}

func (c *Cancel) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("cancel", flag.ContinueOnError)
	c.GatewayFlags.SetFlags(fset)
	return "cancel", fset, cli.CmdFunc(c.run)
}

func (c *Cancel) Purpose() string {
	return "Cancels an open order"
}

func (c *Cancel) run(ctx context.Context, args []string) error {
	symbol, id, err := symbolOrderID(args)
	if err != nil {
		return err
	}
	s, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.gw.CancelOrder(ctx, symbol, id)
	if err != nil {
		return err
	}
	js, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", js)
	return nil
}

type Get struct {
	orderFlags
}

func (c *Get) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("get", flag.ContinueOnError)
	c.GatewayFlags.SetFlags(fset)
	return "get", fset, cli.CmdFunc(c.run)
}

func (c *Get) Purpose() string {
	return "Prints the current status of an order"
}

func (c *Get) run(ctx context.Context, args []string) error {
	symbol, id, err := symbolOrderID(args)
	if err != nil {
		return err
	}
	s, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.gw.GetOrder(ctx, symbol, id)
	if err != nil {
		return err
	}
	js, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", js)
	return nil
}

func symbolOrderID(args []string) (string, gateway.OrderID, error) {
	if len(args) != 2 {
		return "", 0, fmt.Errorf("this command takes two (symbol and order id) arguments")
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("invalid order id %q", args[1])
	}
	return args[0], gateway.OrderID(id), nil
}
