// Package transport provides the live-feed collaborator: a resilient
// WebSocket client delivering typed room events, and an HTTP client for room
// status and metadata queries.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event command names as delivered on the wire.
const (
	CmdChat       = "DANMU_MSG"
	CmdGift       = "SEND_GIFT"
	CmdGuard      = "GUARD_BUY"
	CmdSuperChat  = "SUPER_CHAT_MESSAGE"
	CmdViewer     = "VIEW"
	CmdHighEnergy = "ONLINE_RANK_COUNT"
	CmdWatched    = "WATCHED_CHANGE"
	CmdLiveStart  = "LIVE"
	CmdPreparing  = "PREPARING"
)

// Envelope decoding errors.
var (
	ErrMalformedEnvelope = errors.New("malformed event envelope")
	ErrMalformedPayload  = errors.New("malformed event payload")
)

// Event is the closed set of room events the monitor routes. Categories the
// platform adds later decode as UnknownEvent, which handlers ignore.
type Event interface {
	isEvent()
}

// ChatEvent is one chat message.
type ChatEvent struct {
	Time   int64  `json:"time"`
	UserID int64  `json:"uid"`
	Text   string `json:"text"`
}

// GiftEvent is one paid gift.
type GiftEvent struct {
	Time     int64   `json:"time"`
	UserID   int64   `json:"uid"`
	Price    float64 `json:"price"`
	GiftName string  `json:"gift_name"`
	GiftID   int64   `json:"gift_id"`
	Count    int64   `json:"count"`
}

// GuardEvent is one guard (subscription) purchase.
type GuardEvent struct {
	Time      int64   `json:"time"`
	UserID    int64   `json:"uid"`
	Price     float64 `json:"price"`
	Level     int64   `json:"level"`
	LevelName string  `json:"level_name"`
}

// SuperChatEvent is one paid super message.
type SuperChatEvent struct {
	Time   int64   `json:"time"`
	UserID int64   `json:"uid"`
	Price  float64 `json:"price"`
	Text   string  `json:"text"`
	GiftID int64   `json:"gift_id"`
}

// ViewerEvent is a viewer-count tick.
type ViewerEvent struct {
	Time  int64 `json:"time"`
	Value int64 `json:"value"`
}

// HighEnergyEvent is a high-energy-user-count tick.
type HighEnergyEvent struct {
	Time  int64 `json:"time"`
	Value int64 `json:"value"`
}

// WatchedEvent is a watched-count tick.
type WatchedEvent struct {
	Time  int64 `json:"time"`
	Value int64 `json:"value"`
}

// LiveStartEvent signals that the broadcast has started. StartTime is the
// authoritative session start time.
type LiveStartEvent struct {
	StartTime int64 `json:"live_time"`
}

// PreparingEvent signals that the room has gone offline.
type PreparingEvent struct {
	Time int64 `json:"time"`
}

// UnknownEvent is any event category this client does not handle.
type UnknownEvent struct {
	Cmd string
}

func (ChatEvent) isEvent()       {}
func (GiftEvent) isEvent()       {}
func (GuardEvent) isEvent()      {}
func (SuperChatEvent) isEvent()  {}
func (ViewerEvent) isEvent()     {}
func (HighEnergyEvent) isEvent() {}
func (WatchedEvent) isEvent()    {}
func (LiveStartEvent) isEvent()  {}
func (PreparingEvent) isEvent()  {}
func (UnknownEvent) isEvent()    {}

// envelope is the top-level wire frame: a command name and a command-specific
// payload.
type envelope struct {
	Cmd  string          `json:"cmd"`
	Data json.RawMessage `json:"data"`
}

// DecodeEvent parses one wire frame into its typed event.
func DecodeEvent(payload []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Cmd == "" {
		return nil, fmt.Errorf("%w: missing cmd", ErrMalformedEnvelope)
	}

	decode := func(v Event) (Event, error) {
		if err := json.Unmarshal(env.Data, v); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, env.Cmd, err)
		}
		return v, nil
	}

	switch env.Cmd {
	case CmdChat:
		ev, err := decode(&ChatEvent{})
		if err != nil {
			return nil, err
		}
		return *ev.(*ChatEvent), nil
	case CmdGift:
		ev, err := decode(&GiftEvent{})
		if err != nil {
			return nil, err
		}
		return *ev.(*GiftEvent), nil
	case CmdGuard:
		ev, err := decode(&GuardEvent{})
		if err != nil {
			return nil, err
		}
		return *ev.(*GuardEvent), nil
	case CmdSuperChat:
		ev, err := decode(&SuperChatEvent{})
		if err != nil {
			return nil, err
		}
		return *ev.(*SuperChatEvent), nil
	case CmdViewer:
		ev, err := decode(&ViewerEvent{})
		if err != nil {
			return nil, err
		}
		return *ev.(*ViewerEvent), nil
	case CmdHighEnergy:
		ev, err := decode(&HighEnergyEvent{})
		if err != nil {
			return nil, err
		}
		return *ev.(*HighEnergyEvent), nil
	case CmdWatched:
		ev, err := decode(&WatchedEvent{})
		if err != nil {
			return nil, err
		}
		return *ev.(*WatchedEvent), nil
	case CmdLiveStart:
		ev, err := decode(&LiveStartEvent{})
		if err != nil {
			return nil, err
		}
		return *ev.(*LiveStartEvent), nil
	case CmdPreparing:
		ev, err := decode(&PreparingEvent{})
		if err != nil {
			return nil, err
		}
		return *ev.(*PreparingEvent), nil
	default:
		return UnknownEvent{Cmd: env.Cmd}, nil
	}
}
