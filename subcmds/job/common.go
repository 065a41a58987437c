// Copyright (c) 2025 BVK Chaitanya

package job

import (
	"context"
	"fmt"

	"github.com/bvk/orderbot/config"
	"github.com/bvk/orderbot/journal"
	"github.com/bvk/orderbot/subcmds/cmdutil"
)

// openJournal opens the journal database in the configured data directory.
// Jobs holding the data directory lock must be stopped first.
func openJournal(f *cmdutil.DBFlags) (*journal.Journal, func(), error) {
	s, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := s.Check(); err != nil {
		return nil, nil, err
	}
	dataDir := f.DataDir(s)
	unlock, err := cmdutil.LockDataDir(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open the journal while a job is running: %w", err)
	}
	j, err := cmdutil.OpenJournal(dataDir)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	closer := func() {
		j.Close()
		unlock()
	}
	return j, closer, nil
}

// listJobs returns one line per saved job of the given type, or all types
// when typ is empty.
func listJobs(ctx context.Context, j *journal.Journal, typ string) ([]string, error) {
	var lines []string
	if typ == "" || typ == "grid" {
		grids, err := j.ListGrids(ctx)
		if err != nil {
			return nil, err
		}
		for _, g := range grids {
			lines = append(lines, fmt.Sprintf("grid  %s  %s active=%d executed=%d", g.ID, g.Config.Symbol, len(g.Active), len(g.History)))
		}
	}
	if typ == "" || typ == "twap" {
		twaps, err := j.ListTWAPs(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range twaps {
			status := "done"
			if t.StopReason != "" {
				status = "stopped: " + t.StopReason
			} else if t.FinishedAt.IsZero() {
				status = "running"
			}
			lines = append(lines, fmt.Sprintf("twap  %s  %s %s slices=%d/%d %s", t.ID, t.Symbol, t.Side, len(t.Slices), t.TotalSlices, status))
		}
	}
	if typ == "" || typ == "order" {
		records, err := j.ListOrders(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			lines = append(lines, fmt.Sprintf("order %s  %s %s orders=%d %s", r.ID, r.Symbol, r.Kind, len(r.Results), r.Note))
		}
	}
	return lines, nil
}
