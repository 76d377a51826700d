// Package main is the entry point for the live-session monitor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/onnwee/livesight/internal/analytics"
	"github.com/onnwee/livesight/internal/archive"
	"github.com/onnwee/livesight/internal/batch"
	"github.com/onnwee/livesight/internal/config"
	"github.com/onnwee/livesight/internal/logging"
	"github.com/onnwee/livesight/internal/monitor"
	"github.com/onnwee/livesight/internal/render"
	"github.com/onnwee/livesight/internal/status"
	"github.com/onnwee/livesight/internal/transport"
)

// outputDir is the directory under the working directory holding per-room
// session data.
const outputDir = "live_output"

func main() {
	help := flag.Bool("help", false, "display help message")
	roomID := flag.Int64("room", 0, "room ID to monitor")
	userID := flag.Int64("user", 0, "user ID whose room to monitor (alternative to -room)")
	saveAllChat := flag.Bool("save-all-chat", false, "persist every chat message, not only marked ones")
	chatDisconnect := flag.Bool("chat-disconnect", false, "disconnect when the stop command arrives in chat")
	autoDisconnect := flag.Bool("auto-disconnect", false, "disconnect when the broadcast ends")
	forever := flag.Bool("forever", false, "reconnect and keep monitoring after the monitor returns")
	analyzeAfter := flag.Bool("analyze-after", false, "run pending session analysis after each monitor return")
	configFile := flag.String("config", "", "optional YAML config file")
	metricsAddr := flag.String("metrics-addr", "", "metrics listen address (overrides config)")
	fontFile := flag.String("font", "", "font file for the word cloud (used with -analyze-after)")
	flag.Parse()

	if *help {
		fmt.Println("Livesight Monitor")
		fmt.Println()
		fmt.Println("Usage: monitor [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	if cfg.WorkDir == "" {
		logger.Warn("no working directory configured, using the current directory")
	}

	if (*roomID == 0) == (*userID == 0) {
		fmt.Fprintln(os.Stderr, "exactly one of -room or -user is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rooms := transport.NewRoomClient(cfg.StatusAPIURL)
	room := *roomID
	if room == 0 {
		resolved, err := rooms.ResolveRoom(ctx, *userID)
		if err != nil {
			logger.Error("cannot resolve the user's room", "user_id", *userID, "error", err)
			os.Exit(1)
		}
		room = resolved
	}

	roomDir := filepath.Join(cfg.EffectiveWorkDir(), outputDir, strconv.FormatInt(room, 10))
	tracker, err := monitor.NewLifecycleTracker(roomDir, logger)
	if err != nil {
		logger.Error("cannot prepare the room directory", "dir", roomDir, "error", err)
		os.Exit(1)
	}

	marks := monitor.LoadMarks(filepath.Join(cfg.EffectiveWorkDir(), cfg.MarkFile), logger)
	publisher := status.NewPublisher(cfg.RedisAddr, logger)
	defer publisher.Close()

	metrics := monitor.NewMetrics()
	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		logger.Error("cannot register metrics", "error", err)
		os.Exit(1)
	}
	addr := cfg.MetricsAddr
	if *metricsAddr != "" {
		addr = *metricsAddr
	}
	if addr != "" {
		go serveMetrics(addr, registry, logger)
	}

	mon := monitor.NewMonitor(room, marks, rooms, tracker, publisher, metrics, logger)
	opts := monitor.Options{
		SaveAllChat:    *saveAllChat,
		ChatDisconnect: *chatDisconnect,
		AutoDisconnect: *autoDisconnect,
	}

	feedConfig := transport.DefaultConfig(feedURL(cfg.FeedURL, room))
	feedConfig.MaxRetry = cfg.MaxRetry
	feedConfig.RetryAfter = cfg.RetryAfter

	for {
		feed, err := transport.NewClient(feedConfig, mon.HandleEvent, logger)
		if err != nil {
			logger.Error("cannot create the feed client", "error", err)
			os.Exit(1)
		}
		err = mon.Run(ctx, feed, opts)

		if *analyzeAfter {
			analyzePending(ctx, cfg, roomDir, *fontFile, logger)
		}

		switch {
		case err == nil:
			logger.Info("monitor disconnected")
		case errors.Is(err, context.Canceled):
			logger.Info("monitor stopped")
			return
		default:
			logger.Error("monitor returned an error", "error", err)
		}
		if !*forever || ctx.Err() != nil {
			return
		}
		logger.Info("reconnecting", "room_id", room)
	}
}

// feedURL composes the per-room feed endpoint from the configured base URL.
func feedURL(base string, roomID int64) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("room_id", strconv.FormatInt(roomID, 10))
	u.RawQuery = q.Encode()
	return u.String()
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitor.MetricsHandler(registry))
	logger.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics endpoint failed", "error", err)
	}
}

// analyzePending runs the batch driver over the room directory so sessions
// recorded in the to-do ledger are analyzed as soon as they end.
func analyzePending(ctx context.Context, cfg *config.Config, roomDir, fontFile string, logger *slog.Logger) {
	var cloud analytics.CloudRenderer
	var seg analytics.Segmenter
	if fontFile != "" {
		segmenter, err := render.NewSegmenter()
		if err != nil {
			logger.Warn("cannot load the segmenter, word clouds disabled", "error", err)
		} else {
			seg = segmenter
			cloud = render.NewWordCloud(fontFile)
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
	opts := analytics.Options{Robust: true, FreeGiftID: cfg.FreeGiftID}
	if err := driver.Run(ctx, roomDir, opts); err != nil && !errors.Is(err, batch.ErrNoSessions) {
		logger.Error("post-session analysis failed", "room_dir", roomDir, "error", err)
	}
}
