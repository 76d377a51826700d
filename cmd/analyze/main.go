// Package main is the entry point for the post-session batch analyzer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/onnwee/livesight/internal/analytics"
	"github.com/onnwee/livesight/internal/archive"
	"github.com/onnwee/livesight/internal/batch"
	"github.com/onnwee/livesight/internal/config"
	"github.com/onnwee/livesight/internal/logging"
	"github.com/onnwee/livesight/internal/render"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	path := flag.String("path", "", "session directory, or room directory with a pending-session ledger")
	chatInterval := flag.Int64("chat-interval", 1, "chat frequency window in minutes")
	robust := flag.Bool("robust", false, "down-select marked messages into a sparse suggestion set")
	robustInterval := flag.Int64("robust-interval", 3, "minimum spacing between down-selected messages in minutes")
	revenueInterval := flag.Int64("revenue-interval", 1, "revenue summing window in minutes")
	viewInterval := flag.Int64("view-interval", 1, "audience curve resampling window in minutes")
	mask := flag.String("mask", "", "optional mask image constraining the word cloud layout")
	fontFile := flag.String("font", "", "font file for the word cloud; empty disables it")
	configFile := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	if *help {
		fmt.Println("Livesight Analyzer")
		fmt.Println()
		fmt.Println("Usage: analyze -path <dir> [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *path == "" {
		fmt.Fprintln(os.Stderr, "-path is required")
		os.Exit(2)
	}

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		// The analyzer never touches the feed, so transport settings may be
		// absent; anything else is fatal.
		fatal := false
		for _, err := range errs {
			if errors.Is(err, config.ErrMissingFeedURL) || errors.Is(err, config.ErrMissingStatusAPIURL) {
				continue
			}
			fmt.Fprintln(os.Stderr, "config:", err)
			fatal = true
		}
		if fatal {
			os.Exit(1)
		}
	}

	logger := logging.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cloud analytics.CloudRenderer
	var seg analytics.Segmenter
	if *fontFile != "" {
		segmenter, err := render.NewSegmenter()
		if err != nil {
			logger.Warn("cannot load the segmenter, word clouds disabled", "error", err)
		} else {
			seg = segmenter
			cloud = render.NewWordCloud(*fontFile)
		}
	}
	pipeline := analytics.NewPipeline(render.NewCharts(), cloud, seg, logger)

	var archiver batch.Archiver
	if cfg.ArchiveBucket != "" {
		uploader, err := archive.NewUploader(archive.Config{
			Bucket:          cfg.ArchiveBucket,
			Endpoint:        cfg.ArchiveEndpoint,
			AccessKeyID:     cfg.ArchiveAccessKey,
			SecretAccessKey: cfg.ArchiveSecretKey,
		}, logger)
		if err != nil {
			logger.Warn("cannot create the artifact uploader", "error", err)
		} else {
			archiver = uploader
		}
	}

	driver := batch.NewDriver(pipeline, archiver, logger)
	opts := analytics.Options{
		ChatWindowSec:     *chatInterval * 60,
		Robust:            *robust,
		RobustIntervalSec: float64(*robustInterval * 60),
		RevenueWindowSec:  *revenueInterval * 60,
		ViewWindowSec:     *viewInterval * 60,
		MaskPath:          *mask,
		FreeGiftID:        cfg.FreeGiftID,
	}
	if err := driver.Run(ctx, *path, opts); err != nil {
		if errors.Is(err, batch.ErrNoSessions) {
			logger.Info("nothing to analyze", "path", *path)
			return
		}
		logger.Error("analysis failed", "path", *path, "error", err)
		os.Exit(1)
	}
	logger.Info("analysis complete", "path", *path)
}
