// Copyright (c) 2025 BVK Chaitanya

package cmdutil

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDecimalFlag(t *testing.T) {
	var d Decimal
	if err := d.Set(" 0.0125 "); err != nil {
		t.Fatal(err)
	}
	if want := decimal.RequireFromString("0.0125"); !d.Equal(want) {
		t.Fatalf("want %s, got %s", want, d)
	}
	if err := d.Set("abc"); err == nil {
		t.Fatalf("want error, got nil")
	}
}

func TestLockDataDir(t *testing.T) {
	dir := t.TempDir()

	if _, err := LockOwner(dir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want %v, got %v", os.ErrNotExist, err)
	}

	unlock, err := LockDataDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	owner, err := LockOwner(dir)
	if err != nil {
		t.Fatal(err)
	}
	if owner.Pid != os.Getpid() {
		t.Fatalf("want %d, got %d", os.Getpid(), owner.Pid)
	}
	unlock()

	if _, err := LockOwner(dir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want %v, got %v", os.ErrNotExist, err)
	}
}

type fakeLister struct {
	symbols []string
	err     error
}

func (f *fakeLister) Symbols(context.Context) ([]string, error) {
	return f.symbols, f.err
}

func TestNewValidator(t *testing.T) {
	ctx := context.Background()

	v := NewValidator(ctx, &fakeLister{symbols: []string{"DOGEUSDT"}})
	if _, err := v.Symbol("dogeusdt"); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Symbol("BTCUSDT"); err == nil {
		t.Fatalf("want error for unlisted symbol, got nil")
	}

	v = NewValidator(ctx, &fakeLister{err: os.ErrDeadlineExceeded})
	if _, err := v.Symbol("BTCUSDT"); err != nil {
		t.Fatal(err)
	}
}
