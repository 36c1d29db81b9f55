// Package config loads the export core's orchestrator options from an
// optional YAML file.
package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config carries the user-settable fields of export.Options, the
// from-time cutoff and revision-map path that ExportCommits takes as
// arguments, and the blob-spool compression toggle that lives one
// layer down in blobstore. CLI flags
// (see cmd/cvs-fast-export-go) override whatever a loaded file sets.
type Config struct {
	BranchPrefix string `yaml:"branch_prefix"`
	FromTime     int64  `yaml:"from_time"`
	RevisionMap  string `yaml:"revision_map"`
	Reposurgeon  bool   `yaml:"reposurgeon"`
	ForceDates   bool   `yaml:"force_dates"`
	BranchOrder  bool   `yaml:"branch_order"`
	StripLen     int    `yaml:"strip_len"`
	Compress     bool   `yaml:"compress"`
}

// Default returns the zero-value-safe defaults used when no config
// file is supplied.
func Default() Config {
	return Config{BranchPrefix: "refs/heads/"}
}

// Load reads and parses a YAML config file at path, starting from
// Default() so unset fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
