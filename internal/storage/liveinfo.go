package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RoomInfo is the room metadata written once at the top of the room's
// live-info file.
type RoomInfo struct {
	RoomID   int64
	ShortID  int64
	UserID   int64
	UserName string
}

// SessionInfo is the per-session metadata block appended when a session
// opens.
type SessionInfo struct {
	Title      string
	StartTime  int64
	AreaName   string
	ParentArea string
}

// LiveInfo appends human-readable session metadata to the room-level
// live-info text file.
type LiveInfo struct {
	path string
}

// NewLiveInfo returns the live-info writer for a room directory.
func NewLiveInfo(roomDir string) *LiveInfo {
	return &LiveInfo{path: filepath.Join(roomDir, LiveInfoFile)}
}

// Path returns the live-info file path.
func (li *LiveInfo) Path() string { return li.path }

// WriteRoomHeader writes the room identity block if the file does not exist
// yet.
func (li *LiveInfo) WriteRoomHeader(info RoomInfo) error {
	if _, err := os.Stat(li.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("live info: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "user_name: %s\n", info.UserName)
	fmt.Fprintf(&b, "user_uid: %d\n", info.UserID)
	fmt.Fprintf(&b, "room_id: %d\n", info.RoomID)
	if info.ShortID != 0 {
		fmt.Fprintf(&b, "short_id: %d\n", info.ShortID)
	} else {
		b.WriteString("short_id: None\n")
	}
	return appendLine(li.path, []byte(strings.TrimSuffix(b.String(), "\n")))
}

// WriteSessionInfo appends a session block. A block whose title and start
// time are already present is not appended again, so replayed live-start
// signals stay idempotent.
func (li *LiveInfo) WriteSessionInfo(info SessionInfo) error {
	startLine := fmt.Sprintf("live_start_time: %s", time.Unix(info.StartTime, 0).Format(time.DateTime))
	present, err := li.contains(startLine)
	if err != nil {
		return err
	}
	if present {
		return nil
	}
	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "title: %s\n", info.Title)
	b.WriteString(startLine + "\n")
	if info.AreaName != "" {
		fmt.Fprintf(&b, "area_name: %s\n", info.AreaName)
	}
	if info.ParentArea != "" {
		fmt.Fprintf(&b, "parent_area_name: %s\n", info.ParentArea)
	}
	return appendLine(li.path, []byte(strings.TrimSuffix(b.String(), "\n")))
}

// WriteEndTime appends the session end time line.
func (li *LiveInfo) WriteEndTime(endTime int64) error {
	line := fmt.Sprintf("live_end_time: %s", time.Unix(endTime, 0).Format(time.DateTime))
	return appendLine(li.path, []byte(line))
}

func (li *LiveInfo) contains(needle string) (bool, error) {
	data, err := os.ReadFile(li.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("live info: %w", err)
	}
	return strings.Contains(string(data), needle), nil
}
