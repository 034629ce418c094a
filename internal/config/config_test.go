package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if cfg.DBPath == "" || cfg.PrefsPath == "" {
		t.Fatalf("paths not defaulted: %+v", cfg)
	}
	if cfg.Keys.Quit != "q" || cfg.Keys.Add != "a" {
		t.Fatalf("unexpected default keymap: %+v", cfg.Keys)
	}
}

func TestLoadFillsMissingPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("log_path = \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != filepath.Join(dir, DefaultDBName) {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
	if cfg.PrefsPath != filepath.Join(dir, DefaultPrefsName) {
		t.Fatalf("prefs path = %q", cfg.PrefsPath)
	}
}
