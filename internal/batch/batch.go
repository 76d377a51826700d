// Package batch drives post-session analysis over session directories: one
// directory directly, or every pending session recorded in a room's to-do
// ledger.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/onnwee/livesight/internal/analytics"
	"github.com/onnwee/livesight/internal/storage"
)

// Analyzer runs the analysis over one session directory.
type Analyzer interface {
	Analyze(ctx context.Context, sessionDir string, opts analytics.Options) error
}

// Archiver optionally uploads a session's analysis artifacts after a
// successful run.
type Archiver interface {
	ArchiveSession(ctx context.Context, sessionDir string) error
}

// ErrNoSessions reports a room directory with no pending sessions.
var ErrNoSessions = errors.New("no sessions pending analysis")

// Driver resolves what to analyze under a path and tracks ledger state.
type Driver struct {
	analyzer Analyzer
	archiver Archiver
	logger   *slog.Logger
}

// NewDriver creates a batch driver. archiver may be nil.
func NewDriver(analyzer Analyzer, archiver Archiver, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{analyzer: analyzer, archiver: archiver, logger: logger}
}

// Run analyzes the sessions under path. A path that parses as a session
// directory is analyzed directly; any other directory is treated as a room
// directory and every session in its to-do ledger is analyzed. Successful
// ledger entries are removed; failed entries stay for the next run. Run
// returns the first failure after attempting every pending session.
func (d *Driver) Run(ctx context.Context, path string, opts analytics.Options) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	if _, err := storage.OpenSession(path); err == nil {
		return d.analyzeOne(ctx, path, opts)
	} else if !errors.Is(err, storage.ErrBadSessionDir) {
		return err
	}

	ledger := storage.NewTodoLedger(path)
	pending, err := ledger.List()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return ErrNoSessions
	}

	var done []string
	var firstErr error
	for _, dir := range pending {
		if err := ctx.Err(); err != nil {
			break
		}
		if err := d.analyzeOne(ctx, dir, opts); err != nil {
			d.logger.Error("session analysis failed", "session", dir, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		done = append(done, dir)
	}
	if len(done) > 0 {
		if err := ledger.Remove(done); err != nil {
			d.logger.Error("cannot update todo ledger", "ledger", ledger.Path(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (d *Driver) analyzeOne(ctx context.Context, sessionDir string, opts analytics.Options) error {
	if err := d.analyzer.Analyze(ctx, sessionDir, opts); err != nil {
		return err
	}
	if d.archiver != nil {
		// Upload is best-effort: the session still counts as analyzed.
		if err := d.archiver.ArchiveSession(ctx, sessionDir); err != nil {
			d.logger.Warn("artifact upload failed", "session", sessionDir, "error", err)
		}
	}
	return nil
}
