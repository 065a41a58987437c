// Copyright (c) 2025 BVK Chaitanya

package account

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/bvk/orderbot/gateway"
	"github.com/bvk/orderbot/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Balances struct {
	cmdutil.GatewayFlags
}

func (c *Balances) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("balances", flag.ContinueOnError)
	c.GatewayFlags.SetFlags(fset)
	return "balances", fset, cli.CmdFunc(c.run)
}

func (c *Balances) Purpose() string {
	return "Prints the futures wallet balances"
}

func (c *Balances) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	s, err := c.GatewayFlags.Settings()
	if err != nil {
		return err
	}
	gw, err := cmdutil.NewGateway(ctx, s, "")
	if err != nil {
		return err
	}
	defer gw.Close()

	return printBalances(ctx, os.Stdout, gw)
}

func printBalances(ctx context.Context, w io.Writer, r gateway.AccountReader) error {
	balances, err := r.Balances(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 8, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Asset\tBalance\tAvailable\t\n")
	for _, b := range balances {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", b.Asset, b.Balance, b.AvailableBalance)
	}
	return tw.Flush()
}

type Positions struct {
	cmdutil.GatewayFlags
}

func (c *Positions) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("positions", flag.ContinueOnError)
	c.GatewayFlags.SetFlags(fset)
	return "positions", fset, cli.CmdFunc(c.run)
}

func (c *Positions) Purpose() string {
	return "Prints the open futures positions"
}

func (c *Positions) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	s, err := c.GatewayFlags.Settings()
	if err != nil {
		return err
	}
	gw, err := cmdutil.NewGateway(ctx, s, "")
	if err != nil {
		return err
	}
	defer gw.Close()

	return printPositions(ctx, os.Stdout, gw)
}

func printPositions(ctx context.Context, w io.Writer, r gateway.AccountReader) error {
	positions, err := r.Positions(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 8, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Symbol\tAmount\tEntry\tMark\tUnrealized\tLeverage\t\n")
	for _, p := range positions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%dx\t\n", p.Symbol, p.Amount, p.EntryPrice, p.MarkPrice, p.UnrealizedProfit, p.Leverage)
	}
	return tw.Flush()
}
