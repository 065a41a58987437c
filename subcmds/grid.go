// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/bvk/orderbot/config"
	"github.com/bvk/orderbot/gobs"
	"github.com/bvk/orderbot/grid"
	"github.com/bvk/orderbot/httputil"
	"github.com/bvk/orderbot/subcmds/cmdutil"
	"github.com/bvk/orderbot/validator"
	"github.com/visvasity/cli"
	"golang.org/x/sys/unix"
)

type Grid struct {
	cmdutil.GatewayFlags
	cmdutil.DBFlags

	configPath string
	id         string
	resume     string

	lowerPrice cmdutil.Decimal
	upperPrice cmdutil.Decimal
	grids      int
	investment cmdutil.Decimal
	side       string

	retryFailedLevels bool

	metricsAddr string
}

func (c *Grid) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("grid", flag.ContinueOnError)
	c.GatewayFlags.SetFlags(fset)
	c.DBFlags.SetFlags(fset)
	fset.StringVar(&c.configPath, "config", "", "path to a yaml file with the grid parameters")
	fset.StringVar(&c.id, "id", "", "job id for the journal (generated when empty)")
	fset.StringVar(&c.resume, "resume", "", "job id of a saved grid to resume")
	fset.Var(&c.lowerPrice, "lower-price", "lowest price in the grid")
	fset.Var(&c.upperPrice, "upper-price", "highest price in the grid")
	fset.IntVar(&c.grids, "grids", 0, "number of intervals between the lower and upper prices")
	fset.Var(&c.investment, "investment", "total notional amount split across the grid intervals")
	fset.StringVar(&c.side, "side", "", "side for the even numbered levels (default buy)")
	fset.BoolVar(&c.retryFailedLevels, "retry-failed-levels", false, "when true, retries failed initial levels on every price update")
	fset.StringVar(&c.metricsAddr, "metrics-addr", "", "host:port to serve prometheus metrics (disabled when empty)")
	return "grid", fset, cli.CmdFunc(c.run)
}

func (c *Grid) Purpose() string {
	return "Runs a grid of limit orders between two prices"
}

func (c *Grid) Description() string {
	return `

Command "grid" divides the price range into equal intervals and places a limit
order at every level, alternating between buy and sell orders starting with
the initial side at the lowest level. Every executed order is replaced by an
opposite side order one interval away, as long as the new price is within the
range. Command runs till it is interrupted; grid state is saved in the journal
after every execution.

  $ orderbot grid --lower-price=60000 --upper-price=70000 --grids=10 --investment=1000 BTCUSDT

Parameters can also be read from a yaml file; flags override the file values:

  symbol: BTCUSDT
  lower_price: 60000
  upper_price: 70000
  grids: 10
  investment: 1000
  initial_side: buy

A stopped grid can be continued with the --resume flag, which does not place
the initial orders again:

  $ orderbot grid --resume=grid-btcusdt-20250101-000000

`
}

func (c *Grid) params(args []string) (*config.GridFile, error) {
	gf := new(config.GridFile)
	if c.configPath != "" {
		if err := config.ReadYAML(c.configPath, gf); err != nil {
			return nil, err
		}
	}
	switch len(args) {
	case 0:
	case 1:
		gf.Symbol = args[0]
	default:
		return nil, fmt.Errorf("this command takes one (symbol) argument or a config file")
	}
	if !c.lowerPrice.IsZero() {
		gf.LowerPrice = c.lowerPrice.Decimal
	}
	if !c.upperPrice.IsZero() {
		gf.UpperPrice = c.upperPrice.Decimal
	}
	if c.grids != 0 {
		gf.Grids = c.grids
	}
	if !c.investment.IsZero() {
		gf.Investment = c.investment.Decimal
	}
	if c.side != "" {
		gf.InitialSide = c.side
	}
	if c.retryFailedLevels {
		gf.RetryFailedLevels = true
	}
	return gf, nil
}

func (c *Grid) run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, unix.SIGTERM)
	defer stop()

	if c.resume != "" && len(args) != 0 {
		return fmt.Errorf("resume flag cannot be combined with the symbol argument")
	}

	var cfg *grid.Config
	var gf *config.GridFile
	if c.resume == "" {
		v, err := c.params(args)
		if err != nil {
			return err
		}
		if cfg, err = v.Config(); err != nil {
			return err
		}
		gf = v
		if c.id == "" {
			c.id = fmt.Sprintf("grid-%s-%s", strings.ToLower(cfg.Symbol), time.Now().UTC().Format("20060102-150405"))
		}
	} else {
		c.id = c.resume
	}

	settings, err := c.GatewayFlags.Settings()
	if err != nil {
		return err
	}
	dataDir := c.DBFlags.DataDir(settings)
	unlock, err := cmdutil.LockDataDir(dataDir)
	if err != nil {
		return err
	}
	defer unlock()

	j, err := cmdutil.OpenJournal(dataDir)
	if err != nil {
		return err
	}
	defer j.Close()

	notifier, tg, closeNotifiers, err := cmdutil.Notifiers(ctx, settings, j)
	if err != nil {
		return err
	}
	defer closeNotifiers()

	gw, err := cmdutil.NewGateway(ctx, settings, c.id)
	if err != nil {
		return err
	}
	defer gw.Close()

	if c.metricsAddr != "" {
		addr, err := net.ResolveTCPAddr("tcp", c.metricsAddr)
		if err != nil {
			return fmt.Errorf("could not resolve metrics address %q: %w", c.metricsAddr, err)
		}
		s, err := httputil.NewMetricsServer(nil)
		if err != nil {
			return err
		}
		defer s.Close()

		if _, err := s.StartTCP(ctx, addr); err != nil {
			return fmt.Errorf("could not start metrics server: %w", err)
		}
		slog.Info("serving prometheus metrics", "addr", addr)
	}

	logger := slog.Default().With("grid", c.id)
	var engine *grid.Engine
	if c.resume != "" {
		state, err := j.LoadGrid(ctx, c.resume)
		if err != nil {
			return fmt.Errorf("could not load grid %q: %w", c.resume, err)
		}
		opts := &grid.Options{
			Logger:            logger,
			RetryFailedLevels: state.RetryFailedLevels || c.retryFailedLevels,
		}
		if engine, err = grid.Restore(state, opts); err != nil {
			return err
		}
		logger.Info("resumed grid from the journal", "active", len(engine.Active()), "executed", len(engine.History()))
	} else {
		if err := checkGrid(cmdutil.NewValidator(ctx, gw), cfg); err != nil {
			return err
		}

		ladder, err := grid.NewLadder(cfg)
		if err != nil {
			return err
		}
		engine = grid.New(ladder, &grid.Options{
			Logger:            logger,
			RetryFailedLevels: gf.RetryFailedLevels,
		})
		orders, err := engine.PlaceInitialOrders(ctx, gw)
		if err != nil {
			return err
		}
		for _, order := range orders {
			fmt.Println(order)
		}
		if err := j.SaveGrid(ctx, engine.State(c.id)); err != nil {
			return fmt.Errorf("could not save grid state: %w", err)
		}
		logger.Info("placed initial grid orders", "placed", len(orders), "failed", len(engine.FailedLevels()))
	}

	if tg != nil {
		summary := func(ctx context.Context, _ []string) error {
			state, err := j.LoadGrid(ctx, c.id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cli.Stdout(ctx), gridSummary(state))
			return nil
		}
		if err := tg.AddCommand(ctx, "grid", "Prints the running grid status", summary); err != nil {
			logger.Warn("could not add telegram grid command (ignored)", "err", err)
		}
	}

	runErr := grid.Run(ctx, engine, gw, gw, &grid.RunOptions{
		ID:       c.id,
		Journal:  j,
		Notifier: notifier,
	})
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// checkGrid validates the grid inputs and normalizes the symbol in place.
func checkGrid(v *validator.Validator, cfg *grid.Config) (err error) {
	if cfg.Symbol, err = v.Symbol(cfg.Symbol); err != nil {
		return err
	}
	if err := v.GridRange(cfg.LowerPrice, cfg.UpperPrice, cfg.GridCount, cfg.Investment); err != nil {
		return err
	}
	return v.LevelQuantity(cfg.LowerPrice, cfg.UpperPrice, cfg.OrderSize())
}

func gridSummary(state *gobs.GridState) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "grid %s: %s [%s, %s] grids=%d investment=%s\n", state.ID, state.Config.Symbol,
		state.Config.LowerPrice, state.Config.UpperPrice, state.Config.GridCount, state.Config.Investment)
	fmt.Fprintf(&sb, "active=%d executed=%d failed-levels=%v last-price=%s updated=%s",
		len(state.Active), len(state.History), state.FailedLevels, state.LastPrice, state.UpdatedAt.Format(time.RFC3339))
	return sb.String()
}
