// Copyright (c) 2025 BVK Chaitanya

package job

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/orderbot/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type List struct {
	cmdutil.DBFlags

	typ string
}

func (c *List) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	fset.StringVar(&c.typ, "type", "", "job type to list (grid, twap or order); lists all types when empty")
	return "list", fset, cli.CmdFunc(c.run)
}

func (c *List) Purpose() string {
	return "Prints the jobs saved in the journal"
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	switch c.typ {
	case "", "grid", "twap", "order":
	default:
		return fmt.Errorf("invalid job type %q", c.typ)
	}

	j, closer, err := openJournal(&c.DBFlags)
	if err != nil {
		return err
	}
	defer closer()

	lines, err := listJobs(ctx, j, c.typ)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Fprintln(cli.Stdout(ctx), line)
	}
	return nil
}
