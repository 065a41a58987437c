// Copyright (c) 2025 BVK Chaitanya

package order

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bvk/orderbot/binance"
	"github.com/bvk/orderbot/gateway"
	"github.com/bvk/orderbot/gobs"
	"github.com/bvk/orderbot/orders"
	"github.com/bvk/orderbot/subcmds/cmdutil"
	"github.com/bvk/orderbot/validator"
	"github.com/google/uuid"
)

type orderFlags struct {
	cmdutil.GatewayFlags
	cmdutil.DBFlags

	quantity cmdutil.Decimal

	record bool
	note   string
}

func (f *orderFlags) setFlags(fset *flag.FlagSet) {
	f.GatewayFlags.SetFlags(fset)
	f.DBFlags.SetFlags(fset)
	fset.Var(&f.quantity, "quantity", "order quantity in the base asset")
	fset.BoolVar(&f.record, "record", false, "when true, saves the order results in the journal")
	fset.StringVar(&f.note, "note", "", "optional note saved with the journal record")
}

// session holds the exchange gateway and the order client for one command.
type session struct {
	flags *orderFlags

	gw     *binance.Gateway
	client *orders.Client

	dataDir string
}

func (f *orderFlags) open(ctx context.Context) (*session, error) {
	s, err := f.GatewayFlags.Settings()
	if err != nil {
		return nil, err
	}
	gw, err := cmdutil.NewGateway(ctx, s, "")
	if err != nil {
		return nil, err
	}
	v := &session{
		flags:   f,
		gw:      gw,
		client:  orders.New(gw, cmdutil.NewValidator(ctx, gw), slog.Default()),
		dataDir: f.DBFlags.DataDir(s),
	}
	return v, nil
}

func (v *session) Close() {
	v.gw.Close()
}

// finish prints the results and optionally records them in the journal.
func (v *session) finish(ctx context.Context, kind validator.OrderKind, symbol string, results ...*gateway.OrderResult) error {
	for _, r := range results {
		js, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", js)
	}
	if !v.flags.record {
		return nil
	}

	j, err := cmdutil.OpenJournal(v.dataDir)
	if err != nil {
		return err
	}
	defer j.Close()

	rec := &gobs.OrderRecord{
		ID:        uuid.NewString(),
		Kind:      string(kind),
		Symbol:    strings.ToUpper(symbol),
		CreatedAt: time.Now(),
		Note:      v.flags.note,
	}
	for _, r := range results {
		rec.Results = append(rec.Results, r.ToGob())
	}
	if err := j.SaveOrder(ctx, rec); err != nil {
		return fmt.Errorf("could not record the order in the journal: %w", err)
	}
	fmt.Printf("recorded as %s\n", rec.ID)
	return nil
}

func symbolSide(args []string) (string, string, error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("this command takes two (symbol and side) arguments")
	}
	return args[0], args[1], nil
}
