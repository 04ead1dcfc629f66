package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// runConfig holds the resolved settings for one validation run. File values
// overlay the defaults; command line flags overlay the file.
type runConfig struct {
	SnapshotPath   string
	Parallelism    int
	Timeout        time.Duration
	ArchiveReports bool
	UploadInputs   bool
	UploadPrefix   string
	LogLevel       string
}

func defaultRunConfig() runConfig {
	return runConfig{
		Parallelism:  1,
		UploadPrefix: "snapshots/",
		LogLevel:     "info",
	}
}

// lodge-validate config.toml key mapping.
type fileConfig struct {
	Snapshot       string `toml:"snapshot"`
	Parallelism    int    `toml:"parallelism"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	ArchiveReports bool   `toml:"archive_reports"`
	UploadInputs   bool   `toml:"upload_inputs"`
	UploadPrefix   string `toml:"upload_prefix"`
	LogLevel       string `toml:"log_level"`
}

// loadRunConfig reads a TOML file and overlays only the keys it defines onto
// the defaults.
func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runConfig{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("snapshot") {
		cfg.SnapshotPath = strings.TrimSpace(raw.Snapshot)
	}
	if meta.IsDefined("parallelism") {
		cfg.Parallelism = raw.Parallelism
	}
	if meta.IsDefined("timeout_seconds") {
		cfg.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second
	}
	if meta.IsDefined("archive_reports") {
		cfg.ArchiveReports = raw.ArchiveReports
	}
	if meta.IsDefined("upload_inputs") {
		cfg.UploadInputs = raw.UploadInputs
	}
	if meta.IsDefined("upload_prefix") {
		cfg.UploadPrefix = strings.TrimSpace(raw.UploadPrefix)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if cfg.Parallelism < 1 {
		return runConfig{}, fmt.Errorf("load config: parallelism must be at least 1, got %d", cfg.Parallelism)
	}
	if cfg.Timeout < 0 {
		return runConfig{}, fmt.Errorf("load config: timeout must not be negative")
	}
	if cfg.UploadInputs && cfg.UploadPrefix == "" {
		return runConfig{}, fmt.Errorf("load config: upload_prefix is required when upload_inputs=true")
	}
	return cfg, nil
}
