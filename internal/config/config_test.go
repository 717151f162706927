package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/civc-lang/civc/internal/config"
)

func TestLoadMissingFileReturnsZeroValue(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nonexistent.civcrc"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != "" || cfg.Disassemble || cfg.Verbose {
		t.Fatalf("cfg = %#v, want zero value", cfg)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".civcrc")
	content := "output_dir: build\ndisassemble: true\nverbose: true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != "build" || !cfg.Disassemble || !cfg.Verbose {
		t.Fatalf("cfg = %#v, want {build true true}", cfg)
	}
}
