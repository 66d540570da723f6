package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate"} {
		if !names[want] {
			t.Fatalf("missing subcommand %s", want)
		}
	}
	if root.PersistentFlags().Lookup("env-file") == nil {
		t.Fatalf("missing --env-file flag")
	}
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	envFile := filepath.Join(t.TempDir(), "empty.env")
	if err := os.WriteFile(envFile, nil, 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"migrate", "--env-file", envFile})

	err := root.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL is empty") {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PORT", "0")
	t.Setenv("APPLICATIONS_FILE", filepath.Join(dir, "applications.csv"))
	t.Setenv("CONTACTS_FILE", filepath.Join(dir, "contacts.csv"))
	t.Setenv("DOWNLOAD_LOG", filepath.Join(dir, "downloads.log"))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("RATE_LIMIT_STORE", "memory")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := serve(ctx, &rootOptions{envFiles: []string{filepath.Join(dir, "none.env")}}); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
}
