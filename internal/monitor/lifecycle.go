// Package monitor implements the live-session monitor: it tracks session
// lifecycle, routes transport events to typed records and storage sinks, and
// applies the disconnect policies.
package monitor

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/onnwee/livesight/internal/storage"
)

// State is the lifecycle state of a monitored room.
type State int

// Lifecycle states.
const (
	StateUnknown State = iota
	StateNotLive
	StateLive
	StateEnded
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateNotLive:
		return "not-live"
	case StateLive:
		return "live"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// LifecycleTracker maps transport-level signals onto session boundaries. It
// owns per-session directory creation, the room's to-do ledger, and the
// live-info file. One tracker serves one room and is driven by the single
// event loop of that room's monitor, so it needs no locking.
type LifecycleTracker struct {
	roomDir  string
	logger   *slog.Logger
	todo     *storage.TodoLedger
	liveInfo *storage.LiveInfo

	state     State
	session   *storage.Session
	startTime int64
	endTime   int64
}

// NewLifecycleTracker creates a tracker rooted at the given room directory,
// creating the directory if needed.
func NewLifecycleTracker(roomDir string, logger *slog.Logger) (*LifecycleTracker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(roomDir, 0o755); err != nil {
		return nil, fmt.Errorf("create room dir: %w", err)
	}
	return &LifecycleTracker{
		roomDir:  roomDir,
		logger:   logger,
		todo:     storage.NewTodoLedger(roomDir),
		liveInfo: storage.NewLiveInfo(roomDir),
		state:    StateUnknown,
	}, nil
}

// State returns the current lifecycle state.
func (t *LifecycleTracker) State() State { return t.state }

// Session returns the open session, or nil outside a Live session.
func (t *LifecycleTracker) Session() *storage.Session { return t.session }

// RoomDir returns the room directory.
func (t *LifecycleTracker) RoomDir() string { return t.roomDir }

// Todo returns the room's to-do ledger.
func (t *LifecycleTracker) Todo() *storage.TodoLedger { return t.todo }

// LiveInfo returns the room's live-info writer.
func (t *LifecycleTracker) LiveInfo() *storage.LiveInfo { return t.liveInfo }

// MarkNotLive records that the room was found offline at attach time.
func (t *LifecycleTracker) MarkNotLive() {
	if t.state == StateUnknown {
		t.state = StateNotLive
	}
}

// LiveStart transitions the tracker into the Live state, creating the
// session directory on the first signal. Repeated live-start signals within
// one open session are idempotent: the directory is created once and the
// recorded start time never moves backward.
func (t *LifecycleTracker) LiveStart(startTime int64) (*storage.Session, bool, error) {
	if t.state == StateLive {
		if startTime > t.startTime {
			// An authoritative signal arrived after a forced attach-time
			// open; keep the directory, advance the recorded start.
			t.startTime = startTime
		}
		return t.session, false, nil
	}

	session, err := storage.CreateSession(t.roomDir, startTime)
	if err != nil {
		return nil, false, err
	}
	t.session = session
	t.startTime = startTime
	t.endTime = 0
	t.state = StateLive
	t.logger.Info("session opened",
		slog.String("dir", session.Dir()),
		slog.Int64("start_time", startTime))
	return session, true, nil
}

// LiveEnd transitions Live → Ended: records the end time, appends the end
// line to the live-info file, and registers the finished session in the
// to-do ledger so the batch driver finds it across process restarts. A
// live-end signal outside a Live session is ignored.
func (t *LifecycleTracker) LiveEnd(endTime int64) error {
	if t.state != StateLive {
		return nil
	}
	t.endTime = endTime
	t.state = StateEnded

	if err := t.liveInfo.WriteEndTime(endTime); err != nil {
		t.logger.Warn("failed to write session end time",
			slog.String("error", err.Error()))
	}
	if err := t.todo.Add(t.session.Dir()); err != nil {
		return fmt.Errorf("register session for analysis: %w", err)
	}
	t.logger.Warn("session ended",
		slog.String("dir", t.session.Dir()),
		slog.Int64("end_time", endTime))
	return nil
}

// Reset prepares the tracker for a fresh monitor attach after a session has
// ended, keeping the room directory and ledgers.
func (t *LifecycleTracker) Reset() {
	t.state = StateUnknown
	t.session = nil
	t.startTime = 0
	t.endTime = 0
}
