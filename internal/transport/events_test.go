package transport

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Event
	}{
		{
			name:    "chat message",
			payload: `{"cmd":"DANMU_MSG","data":{"time":100,"uid":7,"text":"#great"}}`,
			want:    ChatEvent{Time: 100, UserID: 7, Text: "#great"},
		},
		{
			name:    "gift",
			payload: `{"cmd":"SEND_GIFT","data":{"time":100,"uid":7,"price":5.2,"gift_name":"rose","gift_id":3,"count":10}}`,
			want:    GiftEvent{Time: 100, UserID: 7, Price: 5.2, GiftName: "rose", GiftID: 3, Count: 10},
		},
		{
			name:    "guard purchase",
			payload: `{"cmd":"GUARD_BUY","data":{"time":100,"uid":7,"price":198,"level":3,"level_name":"captain"}}`,
			want:    GuardEvent{Time: 100, UserID: 7, Price: 198, Level: 3, LevelName: "captain"},
		},
		{
			name:    "super chat",
			payload: `{"cmd":"SUPER_CHAT_MESSAGE","data":{"time":100,"uid":7,"price":30,"text":"hi"}}`,
			want:    SuperChatEvent{Time: 100, UserID: 7, Price: 30, Text: "hi"},
		},
		{
			name:    "viewer tick",
			payload: `{"cmd":"VIEW","data":{"time":100,"value":1234}}`,
			want:    ViewerEvent{Time: 100, Value: 1234},
		},
		{
			name:    "high energy tick",
			payload: `{"cmd":"ONLINE_RANK_COUNT","data":{"time":100,"value":55}}`,
			want:    HighEnergyEvent{Time: 100, Value: 55},
		},
		{
			name:    "watched tick",
			payload: `{"cmd":"WATCHED_CHANGE","data":{"time":100,"value":9000}}`,
			want:    WatchedEvent{Time: 100, Value: 9000},
		},
		{
			name:    "live start carries the authoritative start time",
			payload: `{"cmd":"LIVE","data":{"live_time":1700000000}}`,
			want:    LiveStartEvent{StartTime: 1700000000},
		},
		{
			name:    "preparing",
			payload: `{"cmd":"PREPARING","data":{"time":1700003600}}`,
			want:    PreparingEvent{Time: 1700003600},
		},
		{
			name:    "unknown command decodes as UnknownEvent",
			payload: `{"cmd":"INTERACT_WORD","data":{"whatever":1}}`,
			want:    UnknownEvent{Cmd: "INTERACT_WORD"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEvent([]byte(tt.payload))
			if err != nil {
				t.Fatalf("DecodeEvent() unexpected error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeEvent() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecodeEvent_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{name: "not json", payload: `}{`, wantErr: ErrMalformedEnvelope},
		{name: "missing cmd", payload: `{"data":{}}`, wantErr: ErrMalformedEnvelope},
		{name: "bad payload type", payload: `{"cmd":"DANMU_MSG","data":{"time":"yes"}}`, wantErr: ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEvent([]byte(tt.payload))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeEvent() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
