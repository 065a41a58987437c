// Copyright (c) 2025 BVK Chaitanya

// Package journal persists the job records (twap logs, grid states and
// one-shot orders) in a key-value database.
package journal

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/bvk/orderbot/gobs"
	"github.com/bvk/orderbot/kvutil"
	"github.com/bvkgo/kv"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
)

const (
	GridsDir  = "/grids"
	TWAPsDir  = "/twaps"
	OrdersDir = "/orders"
)

type Journal struct {
	db kv.Database

	closef func() error
}

// New returns a journal backed by the input database. Caller owns the
// database.
func New(db kv.Database) *Journal {
	return &Journal{db: db}
}

// Open opens or creates a badger database in the data directory.
func Open(dataDir string) (*Journal, error) {
	if len(dataDir) == 0 {
		return nil, fmt.Errorf("data directory cannot be empty: %w", os.ErrInvalid)
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("could not create data directory: %w", err)
	}
	isGoodKey := func(k string) bool {
		return path.IsAbs(k) && k == path.Clean(k)
	}
	bopts := badger.DefaultOptions(dataDir)
	bopts.Logger = nil
	bdb, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("could not open the database: %w", err)
	}
	j := &Journal{
		db:     kvbadger.New(bdb, isGoodKey),
		closef: bdb.Close,
	}
	return j, nil
}

func (j *Journal) Close() error {
	if j.closef != nil {
		return j.closef()
	}
	return nil
}

func (j *Journal) Database() kv.Database {
	return j.db
}

func jobKey(dir, id string) (string, error) {
	if len(id) == 0 || strings.ContainsRune(id, '/') || id != strings.TrimSpace(id) {
		return "", fmt.Errorf("invalid job id %q: %w", id, os.ErrInvalid)
	}
	return path.Join(dir, id), nil
}

func save[T any](ctx context.Context, db kv.Database, dir, id string, value *T) error {
	key, err := jobKey(dir, id)
	if err != nil {
		return err
	}
	return kvutil.SetDB(ctx, db, key, value)
}

func load[T any](ctx context.Context, db kv.Database, dir, id string) (*T, error) {
	key, err := jobKey(dir, id)
	if err != nil {
		return nil, err
	}
	return kvutil.GetDB[T](ctx, db, key)
}

func list[T any](ctx context.Context, db kv.Database, dir string) ([]*T, error) {
	var values []*T
	collect := func(_ context.Context, _ kv.Reader, _ string, v *T) error {
		values = append(values, v)
		return nil
	}
	begin, end := kvutil.PathRange(dir)
	if err := kvutil.AscendDB(ctx, db, begin, end, collect); err != nil {
		return nil, fmt.Errorf("could not scan %q: %w", dir, err)
	}
	return values, nil
}

func (j *Journal) SaveGrid(ctx context.Context, state *gobs.GridState) error {
	return save(ctx, j.db, GridsDir, state.ID, state)
}

func (j *Journal) LoadGrid(ctx context.Context, id string) (*gobs.GridState, error) {
	return load[gobs.GridState](ctx, j.db, GridsDir, id)
}

func (j *Journal) ListGrids(ctx context.Context) ([]*gobs.GridState, error) {
	return list[gobs.GridState](ctx, j.db, GridsDir)
}

func (j *Journal) SaveTWAP(ctx context.Context, log *gobs.TWAPLog) error {
	return save(ctx, j.db, TWAPsDir, log.ID, log)
}

func (j *Journal) LoadTWAP(ctx context.Context, id string) (*gobs.TWAPLog, error) {
	return load[gobs.TWAPLog](ctx, j.db, TWAPsDir, id)
}

func (j *Journal) ListTWAPs(ctx context.Context) ([]*gobs.TWAPLog, error) {
	return list[gobs.TWAPLog](ctx, j.db, TWAPsDir)
}

func (j *Journal) SaveOrder(ctx context.Context, rec *gobs.OrderRecord) error {
	return save(ctx, j.db, OrdersDir, rec.ID, rec)
}

func (j *Journal) LoadOrder(ctx context.Context, id string) (*gobs.OrderRecord, error) {
	return load[gobs.OrderRecord](ctx, j.db, OrdersDir, id)
}

func (j *Journal) ListOrders(ctx context.Context) ([]*gobs.OrderRecord, error) {
	return list[gobs.OrderRecord](ctx, j.db, OrdersDir)
}
