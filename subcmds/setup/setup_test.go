// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/bvk/orderbot/config"
)

func TestLoadMissingFile(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "secrets.json")
	f := &secretsFlags{secretsFile: fpath}
	got, secrets, err := f.load()
	if err != nil {
		t.Fatal(err)
	}
	if got != fpath {
		t.Fatalf("want %s, got %s", fpath, got)
	}
	if secrets == nil || secrets.Binance != nil || secrets.Telegram != nil || secrets.Pushover != nil {
		t.Fatalf("want empty secrets, got %#v", secrets)
	}
}

func TestSetupKeepsOtherSecrets(t *testing.T) {
	ctx := context.Background()
	fpath := filepath.Join(t.TempDir(), "secrets.json")
	initial := &config.Secrets{
		Binance: &config.BinanceKeys{Key: "key", Secret: "secret"},
	}
	if err := config.WriteSecrets(fpath, initial); err != nil {
		t.Fatal(err)
	}

	po := &PushOver{
		secretsFlags: secretsFlags{secretsFile: fpath, skipTesting: true},
		appID:        "app",
		userID:       "user",
	}
	if err := po.run(ctx, nil); err != nil {
		t.Fatal(err)
	}

	tg := &Telegram{
		secretsFlags: secretsFlags{secretsFile: fpath, skipTesting: true},
		ownerID:      "owner",
		otherIDs:     " friend1, ,friend2 ",
		botToken:     "token",
	}
	if err := tg.run(ctx, nil); err != nil {
		t.Fatal(err)
	}

	secrets, err := config.ReadSecrets(fpath)
	if err != nil {
		t.Fatal(err)
	}
	if secrets.Binance == nil || secrets.Binance.Key != "key" {
		t.Fatalf("want binance keys to be preserved, got %#v", secrets.Binance)
	}
	if secrets.Pushover == nil || secrets.Pushover.ApplicationKey != "app" || secrets.Pushover.UserKey != "user" {
		t.Fatalf("want pushover app/user, got %#v", secrets.Pushover)
	}
	if secrets.Telegram == nil || secrets.Telegram.OwnerID != "owner" {
		t.Fatalf("want telegram owner, got %#v", secrets.Telegram)
	}
	if want := []string{"friend1", "friend2"}; !slices.Equal(secrets.Telegram.OtherIDs, want) {
		t.Fatalf("want %v, got %v", want, secrets.Telegram.OtherIDs)
	}
}

func TestSetupRejectsInvalidKeys(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "secrets.json")
	po := &PushOver{
		secretsFlags: secretsFlags{secretsFile: fpath, skipTesting: true},
		appID:        "app",
	}
	if err := po.run(context.Background(), nil); err == nil {
		t.Fatalf("want error for missing user id, got nil")
	}
	if _, err := config.ReadSecrets(fpath); err == nil {
		t.Fatalf("want no secrets file after a failed setup, got one")
	}
	if err := po.run(context.Background(), []string{"extra"}); err == nil {
		t.Fatalf("want error for extra arguments, got nil")
	}
}
