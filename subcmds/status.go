// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bvk/orderbot/config"
	"github.com/bvk/orderbot/subcmds/cmdutil"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/visvasity/cli"
)

type Status struct {
	cmdutil.DBFlags
}

func (c *Status) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	return "status", fset, cli.CmdFunc(c.run)
}

func (c *Status) Purpose() string {
	return "Prints the running job process or a summary of the saved jobs"
}

func (c *Status) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	settings, err := config.Load()
	if err != nil {
		return err
	}
	if err := settings.Check(); err != nil {
		return err
	}
	dataDir := c.DBFlags.DataDir(settings)

	owner, err := cmdutil.LockOwner(dataDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if owner != nil && owner.Pid != os.Getpid() {
		p, err := process.NewProcessWithContext(ctx, int32(owner.Pid))
		if err != nil {
			return fmt.Errorf("could not inspect process %d holding the data directory: %w", owner.Pid, err)
		}
		cmdline, _ := p.CmdlineWithContext(ctx)
		fmt.Printf("data directory %s is in use by process %d\n", dataDir, owner.Pid)
		if cmdline != "" {
			fmt.Printf("command: %s\n", cmdline)
		}
		if msecs, err := p.CreateTimeWithContext(ctx); err == nil {
			started := time.UnixMilli(msecs)
			fmt.Printf("started: %s (%s ago)\n", started.Format(time.RFC3339), time.Since(started).Round(time.Second))
		}
		return nil
	}

	if _, err := os.Stat(dataDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Printf("data directory %s does not exist\n", dataDir)
			return nil
		}
		return err
	}

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

	grids, err := j.ListGrids(ctx)
	if err != nil {
		return err
	}
	twaps, err := j.ListTWAPs(ctx)
	if err != nil {
		return err
	}
	records, err := j.ListOrders(ctx)
	if err != nil {
		return err
	}

	executed := 0
	for _, g := range grids {
		executed += len(g.History)
	}
	slices := 0
	for _, t := range twaps {
		slices += len(t.Slices)
	}

	fmt.Printf("no job is running in %s\n\n", dataDir)
	tw := tabwriter.NewWriter(os.Stdout, 8, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Type\tJobs\tOrders\t\n")
	fmt.Fprintf(tw, "grid\t%d\t%d\t\n", len(grids), executed)
	fmt.Fprintf(tw, "twap\t%d\t%d\t\n", len(twaps), slices)
	fmt.Fprintf(tw, "order\t%d\t%d\t\n", len(records), len(records))
	return tw.Flush()
}
