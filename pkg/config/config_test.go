package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dataportal-labs/ontoview/pkg/model"
)

func TestLoadWithoutPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("got %+v, want defaults", cfg)
	}
	if cfg.PageSize != model.DefaultPageSize {
		t.Errorf("default page size = %d", cfg.PageSize)
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "search_api: http://localhost:8000/v1\nquery: influenza\ndebug: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SearchAPI != "http://localhost:8000/v1" {
		t.Errorf("search api = %q", cfg.SearchAPI)
	}
	if cfg.Query != "influenza" || !cfg.Debug {
		t.Errorf("explicit fields lost: %+v", cfg)
	}
	// Unset endpoints keep their defaults.
	if cfg.BioThingsAPI != Default().BioThingsAPI || cfg.OLSAPI != Default().OLSAPI {
		t.Errorf("defaults not merged: %+v", cfg)
	}
	if cfg.PageSize != model.DefaultPageSize {
		t.Errorf("page size = %d", cfg.PageSize)
	}
}

func TestLoadMissingNamedFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for explicitly named missing file")
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\tnot yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed config")
	}
}
