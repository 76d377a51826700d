// Package storage provides append-only, per-session persistence for live
// event records: one table per event kind under a session directory, plus the
// room-level live-info file and to-do ledger consumed by the batch analyzer.
package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/onnwee/livesight/internal/record"
)

// Table file names inside a session directory.
const (
	ChatFile       = "chat.jsonl"
	MarkedChatFile = "marked_chat.jsonl"
	RobustChatFile = "robust_chat.jsonl"
	GiftFile       = "gift.jsonl"
	SuperFile      = "super.jsonl"
	GuardFile      = "guard.jsonl"
	LedgerFile     = "revenue.txt"
	ViewerFile     = "viewer.txt"
	HighEnergyFile = "high_energy.txt"
	WatchedFile    = "watched.txt"
)

// Room-level file names.
const (
	LiveInfoFile = "live_info.txt"
	TodoFile     = ".todo"
)

// AnalysisDir is the per-session directory holding analytics artifacts.
const AnalysisDir = "analysis"

// sessionDirLayout is the time layout used to name session directories after
// the session start time.
const sessionDirLayout = "2006-01-02_15-04-05"

// ErrBadSessionDir reports a directory whose name does not parse as a
// session start time.
var ErrBadSessionDir = errors.New("directory name is not a session start time")

// Session is a handle on one session directory. The monitor appends through
// it while the session is live; analytics re-opens the same directory
// read-only after the session has ended.
type Session struct {
	dir       string
	startTime int64
}

// CreateSession creates (or reuses) the session directory for the given start
// time under the room directory and returns a handle on it.
func CreateSession(roomDir string, startTime int64) (*Session, error) {
	name := time.Unix(startTime, 0).Format(sessionDirLayout)
	dir := filepath.Join(roomDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &Session{dir: dir, startTime: startTime}, nil
}

// OpenSession opens an existing session directory, recovering the session
// start time from the directory name.
func OpenSession(dir string) (*Session, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open session dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open session dir %s: not a directory", dir)
	}
	name := filepath.Base(filepath.Clean(dir))
	start, err := time.ParseInLocation(sessionDirLayout, name, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadSessionDir, name)
	}
	return &Session{dir: dir, startTime: start.Unix()}, nil
}

// Dir returns the session directory path.
func (s *Session) Dir() string { return s.dir }

// StartTime returns the session start time in unix seconds.
func (s *Session) StartTime() int64 { return s.startTime }

// Path returns the path of a table file inside the session directory.
func (s *Session) Path(file string) string { return filepath.Join(s.dir, file) }

// AnalysisPath returns the path of an artifact inside the analysis
// subdirectory, creating the subdirectory on first use.
func (s *Session) AnalysisPath(file string) (string, error) {
	dir := filepath.Join(s.dir, AnalysisDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create analysis dir: %w", err)
	}
	return filepath.Join(dir, file), nil
}

// appendLine appends one line to a file with open-append-close semantics, so
// a crash never leaves a handle open across events.
func appendLine(path string, line []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err = f.Write(append(line, '\n')); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// appendJSON appends one record to a JSONL table.
func appendJSON(path string, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return appendLine(path, line)
}

// readJSONL loads every well-formed record from a JSONL table. Malformed
// lines are counted and skipped rather than failing the whole load.
func readJSONL[T any](path string) ([]T, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var out []T
	skipped := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, err
	}
	return out, skipped, nil
}

// AppendChat appends a chat message to the complete chat table.
func (s *Session) AppendChat(m record.ChatMessage) error {
	return appendJSON(s.Path(ChatFile), m)
}

// AppendMarkedChat appends a chat message to the marked chat table.
func (s *Session) AppendMarkedChat(m record.ChatMessage) error {
	return appendJSON(s.Path(MarkedChatFile), m)
}

// AppendRobustChat appends a down-selected marked message. Written by
// analytics, never by the monitor.
func (s *Session) AppendRobustChat(m record.ChatMessage) error {
	return appendJSON(s.Path(RobustChatFile), m)
}

// AppendGift appends a gift record.
func (s *Session) AppendGift(g record.Gift) error {
	return appendJSON(s.Path(GiftFile), g)
}

// AppendSuperMessage appends a super-message record.
func (s *Session) AppendSuperMessage(m record.SuperMessage) error {
	return appendJSON(s.Path(SuperFile), m)
}

// AppendGuardPurchase appends a guard purchase record.
func (s *Session) AppendGuardPurchase(g record.GuardPurchase) error {
	return appendJSON(s.Path(GuardFile), g)
}

// AppendLedger appends the flattened revenue projection as a plain
// "uid,time,price" line.
func (s *Session) AppendLedger(e record.LedgerEntry) error {
	line := fmt.Sprintf("%d,%d,%s", e.UserID, e.Time, strconv.FormatFloat(e.Price, 'f', -1, 64))
	return appendLine(s.Path(LedgerFile), []byte(line))
}

// AppendSample appends one "time,value" line to the named sample file
// (ViewerFile, HighEnergyFile or WatchedFile).
func (s *Session) AppendSample(file string, sm record.Sample) error {
	return appendLine(s.Path(file), []byte(fmt.Sprintf("%d,%d", sm.Time, sm.Value)))
}

// LoadChat bulk-reads the complete chat table.
func (s *Session) LoadChat() ([]record.ChatMessage, int, error) {
	return readJSONL[record.ChatMessage](s.Path(ChatFile))
}

// LoadMarkedChat bulk-reads the marked chat table.
func (s *Session) LoadMarkedChat() ([]record.ChatMessage, int, error) {
	return readJSONL[record.ChatMessage](s.Path(MarkedChatFile))
}

// LoadRobustChat bulk-reads the down-selected robust chat table.
func (s *Session) LoadRobustChat() ([]record.ChatMessage, int, error) {
	return readJSONL[record.ChatMessage](s.Path(RobustChatFile))
}

// LoadGifts bulk-reads the gift table.
func (s *Session) LoadGifts() ([]record.Gift, int, error) {
	return readJSONL[record.Gift](s.Path(GiftFile))
}

// LoadSuperMessages bulk-reads the super-message table.
func (s *Session) LoadSuperMessages() ([]record.SuperMessage, int, error) {
	return readJSONL[record.SuperMessage](s.Path(SuperFile))
}

// LoadGuardPurchases bulk-reads the guard purchase table.
func (s *Session) LoadGuardPurchases() ([]record.GuardPurchase, int, error) {
	return readJSONL[record.GuardPurchase](s.Path(GuardFile))
}

// LoadLedger bulk-reads the revenue ledger. Lines that do not parse as
// "uid,time,price" are skipped.
func (s *Session) LoadLedger() ([]record.LedgerEntry, int, error) {
	f, err := os.Open(s.Path(LedgerFile))
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var out []record.LedgerEntry
	skipped := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		parts := strings.Split(strings.TrimSpace(sc.Text()), ",")
		if len(parts) != 3 {
			skipped++
			continue
		}
		uid, err1 := strconv.ParseInt(parts[0], 10, 64)
		t, err2 := strconv.ParseInt(parts[1], 10, 64)
		price, err3 := strconv.ParseFloat(parts[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			skipped++
			continue
		}
		out = append(out, record.LedgerEntry{UserID: uid, Time: t, Price: price})
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, err
	}
	return out, skipped, nil
}

// LoadSamples bulk-reads a "time,value" sample file. Lines that do not parse
// are skipped.
func (s *Session) LoadSamples(file string) ([]record.Sample, int, error) {
	f, err := os.Open(s.Path(file))
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var out []record.Sample
	skipped := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		parts := strings.Split(strings.TrimSpace(sc.Text()), ",")
		if len(parts) != 2 {
			skipped++
			continue
		}
		t, err1 := strconv.ParseInt(parts[0], 10, 64)
		v, err2 := strconv.ParseInt(parts[1], 10, 64)
		if err1 != nil || err2 != nil {
			skipped++
			continue
		}
		out = append(out, record.Sample{Time: t, Value: v})
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, err
	}
	return out, skipped, nil
}
