package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	corecfg "github.com/aevon-lab/raster/internal/core/config"
)

func main() {
	configPath := flag.String("config", "raster.yaml", "Path to configuration file")
	inputPath := flag.String("input", "-", "JSON-lines rows to ingest, - for stdin")
	rollupField := flag.String("rollup", "", "Also print per-bucket totals of this field for every model")
	flag.Parse()

	// 0. Initialize Logger (stderr; stdout carries the report)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.Log.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	}
	slog.Info("Loaded config", "logic", cfg.Raster.Logic, "bucket_size", cfg.Raster.BucketSize, "models", len(cfg.Definitions))

	// 2. Open Input
	var in io.Reader = os.Stdin
	if *inputPath != "-" {
		f, err := os.Open(*inputPath)
		if err != nil {
			slog.Error("Failed to open input", "path", *inputPath, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	// 3. Ingest until EOF or signal
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	started := time.Now()
	job := Job{Config: cfg, In: in, Out: os.Stdout, Rollup: *rollupField}
	if _, err := job.Run(ctx); err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Done", "duration", time.Since(started))
}
