package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("Load = %+v, want defaults", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"notes_max_chars": 5000, "db_max_open_conns": 1}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NotesMaxChars != 5000 {
		t.Errorf("NotesMaxChars = %d, want 5000", cfg.NotesMaxChars)
	}
	if cfg.DBMaxOpenConns != 1 {
		t.Errorf("DBMaxOpenConns = %d, want 1", cfg.DBMaxOpenConns)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{not json`)

	if _, err := Load(dir); err == nil {
		t.Error("Load should fail on invalid JSON")
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name    string
		base    *Config
		overlay *Config
		check   func(t *testing.T, got *Config)
	}{
		{
			name:    "overlay scalar wins",
			base:    &Config{NotesMaxChars: 1000},
			overlay: &Config{NotesMaxChars: 2000},
			check: func(t *testing.T, got *Config) {
				if got.NotesMaxChars != 2000 {
					t.Errorf("NotesMaxChars = %d, want 2000", got.NotesMaxChars)
				}
			},
		},
		{
			name:    "zero overlay scalar falls back to base",
			base:    &Config{NotesMaxChars: 1000},
			overlay: &Config{},
			check: func(t *testing.T, got *Config) {
				if got.NotesMaxChars != 1000 {
					t.Errorf("NotesMaxChars = %d, want 1000", got.NotesMaxChars)
				}
			},
		},
		{
			name:    "boolean or",
			base:    &Config{AllowUnsafePaths: true},
			overlay: &Config{},
			check: func(t *testing.T, got *Config) {
				if !got.AllowUnsafePaths {
					t.Error("AllowUnsafePaths lost in merge")
				}
			},
		},
		{
			name:    "arrays merged and deduplicated",
			base:    &Config{AllowedPaths: []string{"/a", "/b"}},
			overlay: &Config{AllowedPaths: []string{"/b", "/c", " "}},
			check: func(t *testing.T, got *Config) {
				want := []string{"/a", "/b", "/c"}
				if !reflect.DeepEqual(got.AllowedPaths, want) {
					t.Errorf("AllowedPaths = %v, want %v", got.AllowedPaths, want)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Merge(tt.base, tt.overlay))
		})
	}
}

func TestLoadWithRepo(t *testing.T) {
	globalDir := t.TempDir()
	writeConfig(t, globalDir, `{"notes_max_chars": 8000, "disabled_tools": ["trail_purge"]}`)

	repoRoot := t.TempDir()
	writeConfig(t, filepath.Join(repoRoot, ".labtrail"), `{"notes_max_chars": 4000, "disabled_tools": ["trail_import"]}`)

	// Start from a nested directory; the repo config is found by walking up.
	nested := filepath.Join(repoRoot, "a", "b")
	if err := os.MkdirAll(nested, 0700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, nested)
	if err != nil {
		t.Fatalf("LoadWithRepo: %v", err)
	}

	if cfg.NotesMaxChars != 4000 {
		t.Errorf("NotesMaxChars = %d, want repo value 4000", cfg.NotesMaxChars)
	}
	want := []string{"trail_purge", "trail_import"}
	if !reflect.DeepEqual(cfg.DisabledTools, want) {
		t.Errorf("DisabledTools = %v, want %v", cfg.DisabledTools, want)
	}
}

func TestFindRepoConfigNotFound(t *testing.T) {
	if got := FindRepoConfig(t.TempDir()); got != "" {
		t.Errorf("FindRepoConfig = %q, want empty", got)
	}
}
