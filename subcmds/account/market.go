// Copyright (c) 2025 BVK Chaitanya

package account

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/bvk/orderbot/subcmds/cmdutil"
	"github.com/visvasity/cli"
	"github.com/visvasity/topic"
	"golang.org/x/sys/unix"
)

type Symbols struct {
	cmdutil.GatewayFlags
}

func (c *Symbols) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("symbols", flag.ContinueOnError)
	c.GatewayFlags.SetFlags(fset)
	return "symbols", fset, cli.CmdFunc(c.run)
}

func (c *Symbols) Purpose() string {
	return "Prints the symbols open for trading"
}

func (c *Symbols) run(ctx context.Context, args []string) error {
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

	symbols, err := gw.Symbols(ctx)
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(symbols, "\n"))
	return nil
}

type Ticker struct {
	cmdutil.GatewayFlags

	watch bool
}

func (c *Ticker) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("ticker", flag.ContinueOnError)
	c.GatewayFlags.SetFlags(fset)
	fset.BoolVar(&c.watch, "watch", false, "when true, prints mark price updates till interrupted")
	return "ticker", fset, cli.CmdFunc(c.run)
}

func (c *Ticker) Purpose() string {
	return "Prints the latest price for a symbol"
}

func (c *Ticker) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("this command takes one (symbol) argument")
	}
	symbol := strings.ToUpper(args[0])

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, unix.SIGTERM)
	defer stop()

	s, err := c.GatewayFlags.Settings()
	if err != nil {
		return err
	}
	gw, err := cmdutil.NewGateway(ctx, s, "")
	if err != nil {
		return err
	}
	defer gw.Close()

	price, err := gw.TickerPrice(ctx, symbol)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", symbol, price)
	if !c.watch {
		return nil
	}

	receiver, err := gw.PriceUpdates(ctx, symbol)
	if err != nil {
		return err
	}
	defer receiver.Close()

	updatesCh, err := topic.ReceiveCh(receiver)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updatesCh:
			if !ok {
				return nil
			}
			fmt.Printf("%s %s %s\n", update.At.Format("15:04:05"), update.Symbol, update.Price)
		}
	}
}
