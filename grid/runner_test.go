// Copyright (c) 2025 BVK Chaitanya

package grid

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bvk/orderbot/journal"
	"github.com/bvkgo/kv/kvmemdb"
)

type chanNotifier chan string

func (c chanNotifier) SendMessage(_ context.Context, _ time.Time, msg string) error {
	c <- msg
	return nil
}

// failingNotifier reports every message on the channel and fails to send it.
type failingNotifier chan string

func (c failingNotifier) SendMessage(_ context.Context, _ time.Time, msg string) error {
	c <- msg
	return errors.New("notifier is unavailable")
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun(t *testing.T) {
	e, gw := newTestEngine(t, nil)
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	if _, err := e.PlaceInitialOrders(ctx, gw); err != nil {
		t.Fatal(err)
	}

	j := journal.New(kvmemdb.New())
	notes := make(chanNotifier, 16)
	opts := &RunOptions{
		ID:       "test-grid",
		Journal:  j,
		Notifier: notes,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, e, gw, gw, opts)
	}()

	// Price updates sent before the subscription is ready are lost, so keep
	// sending till the first notification arrives.
	timeout := time.After(10 * time.Second)
	for done := false; !done; {
		gw.SendPrice("BTCUSDT", d("100"))
		select {
		case <-notes:
			done = true
		case <-time.After(10 * time.Millisecond):
		case <-timeout:
			t.Fatal("timed out waiting for the grid notification")
		}
	}

	cancel(os.ErrClosed)
	if err := <-errCh; !errors.Is(err, os.ErrClosed) {
		t.Fatalf("want %v, got %v", os.ErrClosed, err)
	}

	state, err := j.LoadGrid(context.Background(), "test-grid")
	if err != nil {
		t.Fatal(err)
	}
	if len(state.History) != 3 {
		t.Fatalf("want 3 executed orders, got %d", len(state.History))
	}
	if len(state.Active) != 6 {
		t.Fatalf("want 6 active orders, got %d", len(state.Active))
	}
}

func TestRunNotifierErrorUsesEngineLogger(t *testing.T) {
	out := new(lockedBuffer)
	logger := slog.New(slog.NewTextHandler(out, nil)).With("grid", "logged-grid")
	e, gw := newTestEngine(t, &Options{Logger: logger})
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	if _, err := e.PlaceInitialOrders(ctx, gw); err != nil {
		t.Fatal(err)
	}

	notes := make(failingNotifier, 16)
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, e, gw, gw, &RunOptions{ID: "logged-grid", Notifier: notes})
	}()

	timeout := time.After(10 * time.Second)
	for done := false; !done; {
		gw.SendPrice("BTCUSDT", d("100"))
		select {
		case <-notes:
			done = true
		case <-time.After(10 * time.Millisecond):
		case <-timeout:
			t.Fatal("timed out waiting for the grid notification")
		}
	}

	cancel(os.ErrClosed)
	if err := <-errCh; !errors.Is(err, os.ErrClosed) {
		t.Fatalf("want %v, got %v", os.ErrClosed, err)
	}

	var warning string
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.Contains(line, "could not send grid notification") {
			warning = line
			break
		}
	}
	if warning == "" {
		t.Fatalf("want notification warning in the engine logger, got %q", out.String())
	}
	if !strings.Contains(warning, "grid=logged-grid") || !strings.Contains(warning, "notifier is unavailable") {
		t.Fatalf("want warning with grid id and cause, got %q", warning)
	}
}
