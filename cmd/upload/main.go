// Command upload performs the one-time bulk upload of the raw climate CSV
// into a Firestore collection, resumable from an arbitrary row offset.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tempcast/bulkload"
	"tempcast/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	csvPath := flag.String("csv", "jena_climate_2009_2016.csv", "raw climate CSV")
	startRow := flag.Int("start", cfg.StartRow, "resume upload from this row index")
	flag.Parse()

	if cfg.ProjectID == "" {
		logger.Error("FIRESTORE_PROJECT_ID is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(*csvPath)
	if err != nil {
		logger.Error("failed to open CSV", "path", *csvPath, "error", err)
		os.Exit(1)
	}
	rows, err := bulkload.RowsFromCSV(f)
	f.Close()
	if err != nil {
		logger.Error("failed to parse CSV", "error", err)
		os.Exit(1)
	}
	logger.Info("loaded rows", "count", len(rows), "start", *startRow)

	committer, err := bulkload.NewFirestoreCommitter(ctx, cfg.ProjectID, cfg.CredentialsFile, cfg.Collection)
	if err != nil {
		logger.Error("failed to connect to firestore", "error", err)
		os.Exit(1)
	}
	defer committer.Close()

	opt := bulkload.NewDefaultOptions()
	opt.BatchSize = cfg.BatchSize
	opt.StartRow = *startRow
	opt.BatchPause = cfg.BatchPause

	uploader := bulkload.New(committer, opt, logger)
	if err := uploader.Run(ctx, rows); err != nil {
		logger.Error("upload halted", "error", err)
		os.Exit(1)
	}
	logger.Info("upload complete")
}
