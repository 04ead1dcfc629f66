// Command lodge-validate loads a residence snapshot document, evaluates the
// derived attributes and the invariant catalog against it, and prints the
// validation report as JSON.
//
// Exit codes: 0 when the snapshot is valid, 1 when violations were found or
// the run was cancelled, 2 on load or engine errors.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"lodgecore/internal/archive"
	"lodgecore/internal/blob"
	"lodgecore/internal/core"
	"lodgecore/internal/snapshot"
	"lodgecore/pkg/domain"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("lodge-validate", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to TOML config file")
	snapshotPath := fs.String("snapshot", "", "path to snapshot JSON document")
	parallelism := fs.Int("parallelism", 0, "invariant evaluation parallelism (overrides config)")
	timeout := fs.Duration("timeout", 0, "overall run timeout (overrides config)")
	archiveRuns := fs.Bool("archive", false, "persist the report to the configured archive")
	uploadInputs := fs.Bool("upload", false, "upload the raw snapshot document to the blob store")
	logLevel := fs.String("log-level", "", "zerolog level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := defaultRunConfig()
	if *configPath != "" {
		loaded, err := loadRunConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lodge-validate: %v\n", err)
			return 2
		}
		cfg = loaded
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "snapshot":
			cfg.SnapshotPath = *snapshotPath
		case "parallelism":
			cfg.Parallelism = *parallelism
		case "timeout":
			cfg.Timeout = *timeout
		case "archive":
			cfg.ArchiveReports = *archiveRuns
		case "upload":
			cfg.UploadInputs = *uploadInputs
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if cfg.SnapshotPath == "" {
		fmt.Fprintln(os.Stderr, "lodge-validate: a snapshot document is required (-snapshot or config)")
		return 2
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}

	logger := initLogger(cfg.LogLevel)

	raw, err := os.ReadFile(cfg.SnapshotPath)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.SnapshotPath).Msg("read snapshot")
		return 2
	}
	doc, err := snapshot.Decode(bytes.NewReader(raw))
	if err != nil {
		logger.Error().Err(err).Msg("decode snapshot")
		return 2
	}
	store, err := snapshot.Load(doc)
	if err != nil {
		logger.Error().Err(err).Msg("load snapshot")
		return 2
	}

	ctx := context.Background()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	engine := core.NewEngine(nil,
		core.WithLogger(logger),
		core.WithParallelism(cfg.Parallelism),
	)
	report, err := engine.Validate(ctx, store)
	if err != nil {
		logger.Error().Err(err).Msg("validation run failed")
		return 2
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Error().Err(err).Msg("encode report")
		return 2
	}
	fmt.Println(string(out))

	if cfg.ArchiveReports {
		if err := archiveReport(ctx, report); err != nil {
			logger.Error().Err(err).Msg("archive report")
			return 2
		}
		logger.Info().Str("run_id", report.RunID).Msg("report archived")
	}
	if cfg.UploadInputs {
		if err := uploadSnapshot(ctx, cfg.UploadPrefix, report.RunID, raw); err != nil {
			logger.Error().Err(err).Msg("upload snapshot")
			return 2
		}
		logger.Info().Str("run_id", report.RunID).Msg("snapshot uploaded")
	}

	if report.Status != domain.RunValid {
		return 1
	}
	return 0
}

func archiveReport(ctx context.Context, report domain.Report) error {
	store, err := archive.Open()
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveReport(ctx, report)
}

func uploadSnapshot(ctx context.Context, prefix, runID string, raw []byte) error {
	store, err := blob.Open(ctx)
	if err != nil {
		return err
	}
	_, err = store.Put(ctx, prefix+runID+".json", bytes.NewReader(raw), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"run_id": runID},
	})
	return err
}

func initLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Str("app", "lodge-validate").Logger()
}
