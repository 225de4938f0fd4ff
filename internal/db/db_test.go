package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/labtrail/labtrail/internal/config"
)

func TestInitCreatesDatabase(t *testing.T) {
	tmpDir := t.TempDir()

	database, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	if _, err := os.Stat(filepath.Join(tmpDir, "labtrail.db")); err != nil {
		t.Errorf("database file not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "exports")); err != nil {
		t.Errorf("exports directory not created: %v", err)
	}
}

func TestInitSetsSchemaVersion(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	version, err := GetUserVersion(database)
	if err != nil {
		t.Fatalf("GetUserVersion failed: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestInitIdempotent(t *testing.T) {
	tmpDir := t.TempDir()

	first, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	first.Close()

	second, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	second.Close()
}

func TestInitUsesWALMode(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	var mode string
	if err := database.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestConfigurePool(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	// nil config must not panic
	ConfigurePool(database, nil)

	ConfigurePool(database, &config.Config{DBMaxOpenConns: 1, DBMaxIdleConns: 1})
	if got := database.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", got)
	}
}

func TestTablesExist(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	for _, table := range []string{"reports", "periods"} {
		var name string
		err := database.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q missing: %v", table, err)
		}
	}
}
