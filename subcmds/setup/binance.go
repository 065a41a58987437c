// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bvk/orderbot/binance"
	"github.com/bvk/orderbot/config"
	"github.com/visvasity/cli"
	"golang.org/x/term"
)

type Binance struct {
	secretsFlags

	production bool

	key string
}

func (c *Binance) Purpose() string {
	return "Setup configures Binance futures API keys"
}

func (c *Binance) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("binance", flag.ContinueOnError)
	c.secretsFlags.setFlags(fset)
	fset.StringVar(&c.key, "key", "", "Binance API key")
	fset.BoolVar(&c.production, "production", false, "when true, tests the keys against the production endpoints")
	return "binance", fset, cli.CmdFunc(c.run)
}

func (c *Binance) Description() string {
	return `

Command "binance" saves the Binance USD-M futures API key and secret in the
secrets file. Secret is read from the terminal without echo. Keys are tested
by fetching the account balances unless --skip-testing is given.

  $ orderbot setup binance --key=vmPUZE6mv9SD5V...GrBEx8

Keys in the BINANCE_API_KEY and BINANCE_API_SECRET environment variables take
precedence over the secrets file.

`
}

func (c *Binance) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	if c.key == "" {
		return fmt.Errorf("api key flag is required")
	}

	fmt.Print("Binance API secret: ")
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("could not read api secret: %w", err)
	}

	fpath, secrets, err := c.secretsFlags.load()
	if err != nil {
		return err
	}
	secrets.Binance = &config.BinanceKeys{
		Key:    c.key,
		Secret: strings.TrimSpace(string(data)),
	}
	if err := secrets.Binance.Check(); err != nil {
		return err
	}

	if !c.skipTesting {
		opts := &binance.Options{Testnet: !c.production}
		gw, err := binance.New(ctx, secrets.Binance.Key, secrets.Binance.Secret, opts)
		if err != nil {
			return err
		}
		defer gw.Close()

		if _, err := gw.Balances(ctx); err != nil {
			return fmt.Errorf("could not verify the api keys: %w", err)
		}
	}
	return config.WriteSecrets(fpath, secrets)
}
