package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/onnwee/livesight/internal/record"
	"github.com/onnwee/livesight/internal/status"
	"github.com/onnwee/livesight/internal/storage"
	"github.com/onnwee/livesight/internal/transport"
)

// DisconnectSentinel is the reserved chat command that disconnects the
// monitor when the chat-disconnect policy is enabled. It is checked before
// persistence and is never written to storage.
const DisconnectSentinel = "###disconnect###"

// Options selects the monitor's routing and disconnect policies for one run.
type Options struct {
	// SaveAllChat persists every chat message, not only marked ones.
	SaveAllChat bool

	// ChatDisconnect disconnects when the sentinel command arrives in chat.
	ChatDisconnect bool

	// AutoDisconnect disconnects when the broadcast ends.
	AutoDisconnect bool
}

// Feed is the event-stream collaborator surface the monitor needs: a
// blocking run loop and an explicit disconnect.
type Feed interface {
	Run(ctx context.Context) error
	Disconnect()
}

// StatusClient is the room-info collaborator surface: status polling and
// metadata lookup.
type StatusClient interface {
	Status(ctx context.Context, roomID int64) (transport.RoomStatus, error)
	Profile(ctx context.Context, roomID int64) (transport.RoomProfile, error)
}

// Monitor routes one room's live events into per-session storage. Events for
// one room are delivered sequentially by the feed's read loop, so the
// monitor's mutable state needs no locking.
type Monitor struct {
	roomID    int64
	marks     []string
	rooms     StatusClient
	tracker   *LifecycleTracker
	publisher *status.Publisher
	metrics   *Metrics
	logger    *slog.Logger

	feed Feed
	opts Options
	ctx  context.Context
}

// NewMonitor creates a monitor for one room. The mark set is read once; a
// changed mark set requires a fresh monitor. publisher may be nil.
func NewMonitor(roomID int64, marks []string, rooms StatusClient, tracker *LifecycleTracker,
	publisher *status.Publisher, metrics *Metrics, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	if len(marks) == 0 {
		marks = DefaultMarks
	}
	return &Monitor{
		roomID:    roomID,
		marks:     marks,
		rooms:     rooms,
		tracker:   tracker,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run blocks until the feed disconnects: by the sentinel command, by the
// auto-disconnect policy, by context cancellation, or by the transport
// exhausting its retries. The returned error is resumable; the caller
// decides whether to invoke Run again.
//
// Before connecting, Run performs one forced status check. A room that is
// already broadcasting opens its session immediately, so no event is dropped
// while storage is prepared.
func (m *Monitor) Run(ctx context.Context, feed Feed, opts Options) error {
	m.feed = feed
	m.opts = opts
	m.ctx = ctx
	m.tracker.Reset()

	roomStatus, err := m.rooms.Status(ctx, m.roomID)
	switch {
	case err != nil:
		m.logger.Warn("forced status check failed, waiting for a live-start signal",
			slog.Int64("room_id", m.roomID),
			slog.String("error", err.Error()))
	case roomStatus.Live():
		startTime := roomStatus.StartTime
		if startTime <= 0 {
			startTime = time.Now().Unix()
		}
		m.openSession(ctx, startTime)
	default:
		m.tracker.MarkNotLive()
		m.logger.Info("room is not broadcasting, waiting for a live-start signal",
			slog.Int64("room_id", m.roomID))
	}

	return feed.Run(ctx)
}

// HandleEvent routes one decoded transport event. It is the feed's event
// callback and runs on the feed's read loop.
func (m *Monitor) HandleEvent(ev transport.Event) {
	switch ev := ev.(type) {
	case transport.ChatEvent:
		m.handleChat(ev)
	case transport.GiftEvent:
		m.handleGift(ev)
	case transport.GuardEvent:
		m.handleGuard(ev)
	case transport.SuperChatEvent:
		m.handleSuperChat(ev)
	case transport.ViewerEvent:
		m.handleSample(storage.ViewerFile, ev.Time, ev.Value, true)
	case transport.HighEnergyEvent:
		m.handleSample(storage.HighEnergyFile, ev.Time, ev.Value, false)
	case transport.WatchedEvent:
		m.handleSample(storage.WatchedFile, ev.Time, ev.Value, false)
	case transport.LiveStartEvent:
		startTime := ev.StartTime
		if startTime <= 0 {
			startTime = time.Now().Unix()
		}
		m.openSession(m.ctx, startTime)
	case transport.PreparingEvent:
		m.handleLiveEnd(ev)
	default:
		// Unhandled category: deliberate no-op.
	}
}

func (m *Monitor) handleChat(ev transport.ChatEvent) {
	m.metrics.IncChatMessages()

	// The sentinel is evaluated before any persistence, so it never shows
	// up in a session's tables under either SaveAllChat setting.
	if m.opts.ChatDisconnect && ev.Text == DisconnectSentinel {
		m.logger.Info("received the stop command, disconnecting from the room")
		m.feed.Disconnect()
		return
	}
	if m.tracker.State() != StateLive {
		return
	}

	msg := record.ChatMessage{
		Time:   m.eventTime(ev.Time),
		UserID: ev.UserID,
		Text:   ev.Text,
	}
	session := m.tracker.Session()
	if m.opts.SaveAllChat {
		if err := session.AppendChat(msg); err != nil {
			m.dropEvent("chat", err)
		}
	}
	if msg.Marked(m.marks) {
		m.logger.Info("got a marked chat message")
		if err := session.AppendMarkedChat(msg); err != nil {
			m.dropEvent("marked chat", err)
			return
		}
		m.metrics.IncMarkedMessages()
	}
}

func (m *Monitor) handleGift(ev transport.GiftEvent) {
	if m.tracker.State() != StateLive {
		return
	}
	m.logger.Info("got a gift")
	gift := record.Gift{
		Time:     m.eventTime(ev.Time),
		UserID:   ev.UserID,
		Price:    ev.Price,
		GiftName: ev.GiftName,
		GiftID:   ev.GiftID,
		Count:    ev.Count,
	}
	if err := m.tracker.Session().AppendGift(gift); err != nil {
		m.dropEvent("gift", err)
		return
	}
	m.appendLedger(gift)
}

func (m *Monitor) handleGuard(ev transport.GuardEvent) {
	if m.tracker.State() != StateLive {
		return
	}
	m.logger.Info("got a guard purchase")
	guard := record.GuardPurchase{
		Time:      m.eventTime(ev.Time),
		UserID:    ev.UserID,
		Price:     ev.Price,
		Level:     ev.Level,
		LevelName: ev.LevelName,
	}
	if err := m.tracker.Session().AppendGuardPurchase(guard); err != nil {
		m.dropEvent("guard purchase", err)
		return
	}
	m.appendLedger(guard)
}

func (m *Monitor) handleSuperChat(ev transport.SuperChatEvent) {
	if m.tracker.State() != StateLive {
		return
	}
	m.logger.Info("got a super message")
	sm := record.SuperMessage{
		Time:   m.eventTime(ev.Time),
		UserID: ev.UserID,
		Price:  ev.Price,
		Text:   ev.Text,
		GiftID: ev.GiftID,
	}
	if err := m.tracker.Session().AppendSuperMessage(sm); err != nil {
		m.dropEvent("super message", err)
		return
	}
	m.appendLedger(sm)
}

// appendLedger writes the flattened revenue projection in the same logical
// step as the typed row. A ledger append failure loses the projection only;
// the model is at-most-once, best-effort, no partial-write recovery.
func (m *Monitor) appendLedger(r record.Revenue) {
	if err := m.tracker.Session().AppendLedger(record.Ledger(r)); err != nil {
		m.dropEvent("revenue ledger", err)
		return
	}
	m.metrics.IncRevenueEvents()
}

// handleSample persists one audience tick. Ticks received before the first
// live-start signal are discarded, never buffered.
func (m *Monitor) handleSample(file string, t, value int64, publish bool) {
	if m.tracker.State() != StateLive {
		return
	}
	sample := record.Sample{Time: m.eventTime(t), Value: value}
	if err := m.tracker.Session().AppendSample(file, sample); err != nil {
		m.dropEvent(file, err)
		return
	}
	m.metrics.IncAudienceTicks()
	if publish {
		m.publisher.PublishViewers(m.ctx, m.roomID, value)
	}
}

func (m *Monitor) openSession(ctx context.Context, startTime int64) {
	session, opened, err := m.tracker.LiveStart(startTime)
	if err != nil {
		m.logger.Error("failed to open session",
			slog.Int64("room_id", m.roomID),
			slog.String("error", err.Error()))
		return
	}
	if !opened {
		return
	}
	m.metrics.IncSessionsOpened()
	m.publisher.PublishState(ctx, m.roomID, "live")
	m.writeSessionInfo(ctx, session)
}

// writeSessionInfo fetches room metadata and records it in the room's
// live-info file. Metadata failures are logged, never fatal.
func (m *Monitor) writeSessionInfo(ctx context.Context, session *storage.Session) {
	profile, err := m.rooms.Profile(ctx, m.roomID)
	if err != nil {
		m.logger.Warn("failed to fetch room profile",
			slog.Int64("room_id", m.roomID),
			slog.String("error", err.Error()))
		return
	}
	liveInfo := m.tracker.LiveInfo()
	if err := liveInfo.WriteRoomHeader(storage.RoomInfo{
		RoomID:   profile.RoomID,
		ShortID:  profile.ShortID,
		UserID:   profile.UserID,
		UserName: profile.UserName,
	}); err != nil {
		m.logger.Warn("failed to write room header", slog.String("error", err.Error()))
	}
	if err := liveInfo.WriteSessionInfo(storage.SessionInfo{
		Title:      profile.Title,
		StartTime:  session.StartTime(),
		AreaName:   profile.AreaName,
		ParentArea: profile.ParentArea,
	}); err != nil {
		m.logger.Warn("failed to write session info", slog.String("error", err.Error()))
	}
}

func (m *Monitor) handleLiveEnd(ev transport.PreparingEvent) {
	if m.tracker.State() != StateLive {
		return
	}
	if err := m.tracker.LiveEnd(m.eventTime(ev.Time)); err != nil {
		m.logger.Error("failed to close session", slog.String("error", err.Error()))
	}
	m.metrics.IncSessionsEnded()
	m.publisher.PublishState(m.ctx, m.roomID, "ended")

	if m.opts.AutoDisconnect {
		m.logger.Warn("broadcast ended, auto disconnecting")
		m.feed.Disconnect()
	}
}

// dropEvent logs a storage append failure. The event is dropped; monitoring
// continues.
func (m *Monitor) dropEvent(kind string, err error) {
	m.metrics.IncAppendErrors()
	m.logger.Warn("storage append failed, event dropped",
		slog.String("kind", kind),
		slog.String("error", err.Error()))
}

func (m *Monitor) eventTime(t int64) int64 {
	if t > 0 {
		return t
	}
	return time.Now().Unix()
}
