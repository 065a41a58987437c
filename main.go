// Copyright (c) 2023 BVK Chaitanya

package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/bvk/orderbot/config"
	"github.com/bvk/orderbot/envfile"
	"github.com/bvk/orderbot/logdir"
	"github.com/bvk/orderbot/subcmds"
	"github.com/bvk/orderbot/subcmds/account"
	"github.com/bvk/orderbot/subcmds/job"
	"github.com/bvk/orderbot/subcmds/order"
	"github.com/bvk/orderbot/subcmds/setup"
	"github.com/visvasity/cli"
)

// envFileName holds the dotenv file with the BINANCE_* and ORDERBOT_*
// settings. File in the current or a parent directory is preferred over the
// one in the home directory.
const envFileName = ".orderbot.env"

func main() {
	if err := envfile.UpdateEnv(envFileName, envfile.SearchCurrentDir(true)); err != nil {
		log.Fatal(err)
	}
	if err := envfile.UpdateEnv(envFileName); err != nil {
		log.Fatal(err)
	}

	if settings, err := config.Load(); err == nil && settings.LogDir != "" {
		backend, err := logdir.New(settings.LogDir, "orderbot")
		if err != nil {
			log.Fatal(err)
		}
		defer backend.Close()

		handler := slog.NewTextHandler(io.MultiWriter(os.Stderr, backend), nil)
		slog.SetDefault(slog.New(handler))
	}

	if err := cli.Run(context.Background(), commands(), os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

// commands returns the top-level command tree.
func commands() []cli.Command {
	orderCmds := []cli.Command{
		new(order.Market),
		new(order.Limit),
		new(order.StopLimit),
		new(order.OCO),
		new(order.Cancel),
		new(order.Get),
	}

	jobCmds := []cli.Command{
		new(job.List),
		new(job.Get),
	}

	accountCmds := []cli.Command{
		new(account.Balances),
		new(account.Positions),
		new(account.Symbols),
		new(account.Ticker),
	}

	setupCmds := []cli.Command{
		new(setup.Binance),
		new(setup.PushOver),
		new(setup.Telegram),
	}

	return []cli.Command{
		new(subcmds.TWAP),
		new(subcmds.Grid),
		new(subcmds.Status),
		new(subcmds.IDGen),
		cli.NewGroup("order", "Place, cancel and query one-shot orders", orderCmds...),
		cli.NewGroup("job", "View twap, grid and order records in the journal", jobCmds...),
		cli.NewGroup("account", "View account balances, positions and market data", accountCmds...),
		cli.NewGroup("setup", "Configure exchange and notification credentials", setupCmds...),
	}
}
