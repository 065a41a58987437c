// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/bvk/orderbot/config"
	"github.com/bvk/orderbot/subcmds/cmdutil"
	"github.com/bvk/orderbot/twap"
	"github.com/bvk/orderbot/validator"
	"github.com/visvasity/cli"
	"golang.org/x/sys/unix"
)

type TWAP struct {
	cmdutil.GatewayFlags
	cmdutil.DBFlags

	configPath string
	id         string

	quantity cmdutil.Decimal
	slices   int
	interval time.Duration

	skipTrailingWait bool
}

func (c *TWAP) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("twap", flag.ContinueOnError)
	c.GatewayFlags.SetFlags(fset)
	c.DBFlags.SetFlags(fset)
	fset.StringVar(&c.configPath, "config", "", "path to a yaml file with the twap parameters")
	fset.StringVar(&c.id, "id", "", "job id for the journal (generated when empty)")
	fset.Var(&c.quantity, "quantity", "total quantity to execute")
	fset.IntVar(&c.slices, "slices", 0, "number of market orders")
	fset.DurationVar(&c.interval, "interval", 0, "wait time after every slice")
	fset.BoolVar(&c.skipTrailingWait, "skip-trailing-wait", false, "when true, does not wait after the last slice")
	return "twap", fset, cli.CmdFunc(c.run)
}

func (c *TWAP) Purpose() string {
	return "Executes a quantity as equal market orders spread over time"
}

func (c *TWAP) Description() string {
	return `

Command "twap" splits the total quantity into equal slices and places one
market order per slice, waiting for the interval after every slice. Failed
slices are logged and are not retried. Progress is saved in the journal after
every slice.

  $ orderbot twap --quantity=0.01 --slices=5 --interval=1m BTCUSDT buy

Parameters can also be read from a yaml file; flags override the file values:

  symbol: BTCUSDT
  side: buy
  quantity: 0.01
  slices: 5
  interval: 1m

`
}

func (c *TWAP) params(args []string) (*config.TWAPFile, error) {
	tf := new(config.TWAPFile)
	if c.configPath != "" {
		if err := config.ReadYAML(c.configPath, tf); err != nil {
			return nil, err
		}
	}
	switch len(args) {
	case 0:
	case 2:
		tf.Symbol, tf.Side = args[0], args[1]
	default:
		return nil, fmt.Errorf("this command takes two (symbol and side) arguments or a config file")
	}
	if !c.quantity.IsZero() {
		tf.Quantity = c.quantity.Decimal
	}
	if c.slices != 0 {
		tf.Slices = c.slices
	}
	if c.interval != 0 {
		tf.Interval = c.interval
	}
	return tf, nil
}

func (c *TWAP) run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, unix.SIGTERM)
	defer stop()

	tf, err := c.params(args)
	if err != nil {
		return err
	}
	cfg, err := tf.Config()
	if err != nil {
		return err
	}

	if c.id == "" {
		c.id = fmt.Sprintf("twap-%s-%s", strings.ToLower(cfg.Symbol), time.Now().UTC().Format("20060102-150405"))
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

	notifier, _, closeNotifiers, err := cmdutil.Notifiers(ctx, settings, j)
	if err != nil {
		return err
	}
	defer closeNotifiers()

	gw, err := cmdutil.NewGateway(ctx, settings, c.id)
	if err != nil {
		return err
	}
	defer gw.Close()

	if err := checkTWAP(cmdutil.NewValidator(ctx, gw), cfg); err != nil {
		return err
	}

	logger := slog.Default().With("twap", c.id)
	opts := &twap.Options{
		Logger:           logger,
		SkipTrailingWait: c.skipTrailingWait,
		OnSlice: func(ctx context.Context, log *twap.Log) {
			if err := j.SaveTWAP(context.WithoutCancel(ctx), log.ToGob(c.id, nil)); err != nil {
				logger.Error("could not save twap progress (ignored)", "err", err)
			}
		},
	}
	log, runErr := twap.Run(ctx, cfg, gw, twap.RealClock{}, opts)
	if log == nil {
		return runErr
	}
	if err := j.SaveTWAP(context.WithoutCancel(ctx), log.ToGob(c.id, runErr)); err != nil {
		logger.Error("could not save twap log", "err", err)
		return err
	}

	summary := log.Summary()
	fmt.Println(summary)
	if err := notifier.SendMessage(context.WithoutCancel(ctx), time.Now(), summary); err != nil {
		logger.Warn("could not send twap notification (ignored)", "err", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// checkTWAP validates the twap inputs and normalizes the symbol in place.
func checkTWAP(v *validator.Validator, cfg *twap.Config) (err error) {
	if cfg.Symbol, err = v.Symbol(cfg.Symbol); err != nil {
		return err
	}
	if err := v.Quantity(cfg.TotalQuantity); err != nil {
		return err
	}
	if err := v.Slicing(cfg.TotalSlices, cfg.Interval); err != nil {
		return err
	}
	return v.SliceQuantity(cfg.SliceQuantity())
}
