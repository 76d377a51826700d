package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Live status codes reported by the status API.
const (
	StatusNotLive = 0
	StatusLive    = 1
	StatusLoop    = 2
)

// Status API errors.
var (
	ErrStatusRequest = errors.New("room status request failed")
	ErrRoomNotFound  = errors.New("room not found")
)

// RoomStatus is the result of a room status poll.
type RoomStatus struct {
	RoomID     int64 `json:"room_id"`
	LiveStatus int   `json:"live_status"`
	StartTime  int64 `json:"live_time"`
}

// Live reports whether the room is currently broadcasting.
func (s RoomStatus) Live() bool { return s.LiveStatus == StatusLive }

// RoomProfile is the room metadata used for the live-info file.
type RoomProfile struct {
	RoomID     int64  `json:"room_id"`
	ShortID    int64  `json:"short_id"`
	UserID     int64  `json:"uid"`
	UserName   string `json:"uname"`
	Title      string `json:"title"`
	AreaName   string `json:"area_name"`
	ParentArea string `json:"parent_area_name"`
}

// RoomClient queries room status and metadata over HTTP.
type RoomClient struct {
	baseURL string
	http    *http.Client
}

// NewRoomClient creates a status client against the given API base URL.
func NewRoomClient(baseURL string) *RoomClient {
	return &RoomClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Status performs one forced status poll for a room.
func (c *RoomClient) Status(ctx context.Context, roomID int64) (RoomStatus, error) {
	var status RoomStatus
	if err := c.getJSON(ctx, fmt.Sprintf("%s/room/%d/status", c.baseURL, roomID), &status); err != nil {
		return RoomStatus{}, err
	}
	return status, nil
}

// Profile fetches the room metadata block.
func (c *RoomClient) Profile(ctx context.Context, roomID int64) (RoomProfile, error) {
	var profile RoomProfile
	if err := c.getJSON(ctx, fmt.Sprintf("%s/room/%d/info", c.baseURL, roomID), &profile); err != nil {
		return RoomProfile{}, err
	}
	return profile, nil
}

// ResolveRoom looks up the room ID owned by a user.
func (c *RoomClient) ResolveRoom(ctx context.Context, userID int64) (int64, error) {
	var resp struct {
		RoomID int64 `json:"room_id"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/user/%d/room", c.baseURL, userID), &resp); err != nil {
		return 0, err
	}
	if resp.RoomID == 0 {
		return 0, ErrRoomNotFound
	}
	return resp.RoomID, nil
}

func (c *RoomClient) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStatusRequest, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStatusRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrRoomNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrStatusRequest, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrStatusRequest, err)
	}
	return nil
}
