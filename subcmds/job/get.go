// Copyright (c) 2025 BVK Chaitanya

package job

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/bvk/orderbot/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Get struct {
	cmdutil.DBFlags
}

func (c *Get) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("get", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	return "get", fset, cli.CmdFunc(c.run)
}

func (c *Get) Purpose() string {
	return "Prints a saved job in json format"
}

func (c *Get) Description() string {
	return `

Command "get" prints the journal record for a job. First argument is the job
type, which must be one of grid, twap or order.

  $ orderbot job get twap twap-btcusdt-20250101-000000

`
}

func (c *Get) run(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("this command takes two (job type and id) arguments")
	}
	typ, id := args[0], args[1]

	j, closer, err := openJournal(&c.DBFlags)
	if err != nil {
		return err
	}
	defer closer()

	var v any
	switch typ {
	case "grid":
		v, err = j.LoadGrid(ctx, id)
	case "twap":
		v, err = j.LoadTWAP(ctx, id)
	case "order":
		v, err = j.LoadOrder(ctx, id)
	default:
		return fmt.Errorf("invalid job type %q", typ)
	}
	if err != nil {
		return fmt.Errorf("could not load %s job %q: %w", typ, id, err)
	}
	js, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.Stdout(ctx), "%s\n", js)
	return nil
}
