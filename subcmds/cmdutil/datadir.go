// Copyright (c) 2025 BVK Chaitanya

package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bvk/orderbot/config"
	"github.com/bvk/orderbot/journal"
	"github.com/bvk/orderbot/notify"
	"github.com/bvk/orderbot/pushover"
	"github.com/bvk/orderbot/telegram"
	"github.com/nightlyone/lockfile"
)

// LockFileName is the name of the lock file in the data directory.
const LockFileName = "orderbot.lock"

// LockDataDir takes an exclusive lock on the data directory. Returned function
// releases the lock.
func LockDataDir(dataDir string) (unlock func(), err error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("could not create data directory %q: %w", dataDir, err)
	}
	dataDir, err = filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("could not determine data-dir %q absolute path: %w", dataDir, err)
	}
	lockPath := filepath.Join(dataDir, LockFileName)
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return nil, fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err != nil {
		if owner, err := flock.GetOwner(); err == nil {
			return nil, fmt.Errorf("data directory %q is in use by process %d: %w", dataDir, owner.Pid, os.ErrExist)
		}
		return nil, fmt.Errorf("could not get lock on file %q: %w", lockPath, err)
	}
	return func() {
		if err := flock.Unlock(); err != nil {
			slog.Warn("could not unlock the data directory (ignored)", "path", lockPath, "err", err)
		}
	}, nil
}

// LockOwner returns the process holding the data directory lock.
func LockOwner(dataDir string) (*os.Process, error) {
	dataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, err
	}
	flock, err := lockfile.New(filepath.Join(dataDir, LockFileName))
	if err != nil {
		return nil, err
	}
	owner, err := flock.GetOwner()
	if err != nil {
		if errors.Is(err, lockfile.ErrDeadOwner) || errors.Is(err, lockfile.ErrInvalidPid) {
			return nil, os.ErrNotExist
		}
		return nil, err
	}
	return owner, nil
}

// OpenJournal opens the journal database in the data directory.
func OpenJournal(dataDir string) (*journal.Journal, error) {
	j, err := journal.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("could not open journal in %q (is another orderbot running?): %w", dataDir, err)
	}
	return j, nil
}

// Notifiers creates the notification clients configured in the secrets file.
// Telegram client, if configured, is also returned so that callers can add
// bot commands.
func Notifiers(ctx context.Context, s *config.Settings, j *journal.Journal) (notify.Notifier, *telegram.Client, func(), error) {
	secrets, err := config.ReadSecrets(s.SecretsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return notify.Discard, nil, func() {}, nil
		}
		return nil, nil, nil, err
	}

	var multi notify.Multi
	var tg *telegram.Client
	if secrets.Pushover != nil {
		client, err := pushover.New(secrets.Pushover)
		if err != nil {
			return nil, nil, nil, err
		}
		multi = append(multi, client)
	}
	if secrets.Telegram != nil {
		client, err := telegram.New(ctx, j.Database(), secrets.Telegram)
		if err != nil {
			return nil, nil, nil, err
		}
		tg = client
		multi = append(multi, client)
	}
	closer := func() {
		if tg != nil {
			tg.Close()
		}
	}
	if len(multi) == 0 {
		return notify.Discard, nil, closer, nil
	}
	return multi, tg, closer, nil
}
