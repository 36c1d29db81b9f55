package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	body := "branch_prefix: refs/remotes/origin/\nfrom_time: 1700000000\nreposurgeon: true\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BranchPrefix != "refs/remotes/origin/" {
		t.Fatalf("branch prefix not overridden: %q", cfg.BranchPrefix)
	}
	if cfg.FromTime != 1700000000 {
		t.Fatalf("from_time not parsed: %d", cfg.FromTime)
	}
	if !cfg.Reposurgeon {
		t.Fatalf("reposurgeon flag not parsed")
	}
	if cfg.BranchOrder {
		t.Fatalf("branch_order should keep its zero-value default")
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}
