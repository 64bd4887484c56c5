package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/amishk599/offerradar/internal/config"
	"github.com/amishk599/offerradar/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecuteRun_SetupFailureReleasesStoreLock(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		ProfilePath: filepath.Join(dir, "missing-profile.yaml"),
		Store: config.StoreConfig{
			Path:       filepath.Join(dir, "data", "matches.json"),
			LedgerPath: filepath.Join(dir, "data", "runs.db"),
		},
	}

	if _, err := executeRun(context.Background(), cfg, discardLogger()); err == nil {
		t.Fatal("expected an error for a missing profile")
	}

	s := store.NewFileStore(cfg.Store.Path)
	if err := s.Lock(); err != nil {
		t.Fatalf("store lock still held after failed setup: %v", err)
	}
	s.Unlock()

	// The ledger was closed too: reopening it works.
	ledger, err := store.NewSQLiteLedger(cfg.Store.LedgerPath)
	if err != nil {
		t.Fatalf("reopen ledger: %v", err)
	}
	ledger.Close()
}

func TestExecuteRun_BusyStoreFailsFast(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Store: config.StoreConfig{
			Path:       filepath.Join(dir, "matches.json"),
			LedgerPath: filepath.Join(dir, "runs.db"),
		},
	}

	held := store.NewFileStore(cfg.Store.Path)
	if err := held.Lock(); err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer held.Unlock()

	_, err := executeRun(context.Background(), cfg, discardLogger())
	if err == nil {
		t.Fatal("expected an error while the store is locked")
	}
}
