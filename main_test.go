// Copyright (c) 2025 BVK Chaitanya

package main

import (
	"context"
	"testing"

	"github.com/visvasity/cli"
)

func TestCommands(t *testing.T) {
	groups := map[string][]string{
		"order":   {"market", "limit", "stop-limit", "oco", "cancel", "get"},
		"job":     {"list", "get"},
		"account": {"balances", "positions", "symbols", "ticker"},
		"setup":   {"binance", "pushover", "telegram"},
	}

	seen := make(map[string]bool)
	for _, cmd := range commands() {
		if cmd == nil {
			t.Fatalf("want non-nil command, got nil")
		}
		name, fset, fn := cmd.Command()
		if seen[name] {
			t.Fatalf("want unique command names, got %q twice", name)
		}
		seen[name] = true
		if fset == nil {
			t.Fatalf("want a flag set for %q, got nil", name)
		}
		if _, ok := groups[name]; ok && fn != nil {
			t.Fatalf("want nil function for group %q, got non-nil", name)
		}
	}
	for _, name := range []string{"twap", "grid", "status", "idgen", "order", "job", "account", "setup"} {
		if !seen[name] {
			t.Fatalf("want command %q, got %v", name, seen)
		}
	}

	// Groups resolve their subcommands by name.
	ctx := context.Background()
	for group, subs := range groups {
		for _, sub := range subs {
			if err := cliHelp(ctx, group, sub); err != nil {
				t.Fatalf("want nil error for %s %s help, got %v", group, sub, err)
			}
		}
	}
}

func cliHelp(ctx context.Context, group, sub string) error {
	return cli.Run(ctx, commands(), []string{group, sub, "--help"})
}
