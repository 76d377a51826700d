package record

import (
	"testing"
)

func TestChatMessage_Marked(t *testing.T) {
	marks := []string{"#", "＃"}
	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "leading mark", text: "#great moment", want: true},
		{name: "trailing mark", text: "great moment#", want: true},
		{name: "full-width mark", text: "＃名场面", want: true},
		{name: "mark in the middle only", text: "great#moment", want: false},
		{name: "no mark", text: "just chatting", want: false},
		{name: "empty text", text: "", want: false},
		{name: "single rune that is the mark", text: "#", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ChatMessage{Text: tt.text}
			if got := m.Marked(marks); got != tt.want {
				t.Errorf("Marked(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestLedger(t *testing.T) {
	tests := []struct {
		name string
		in   Revenue
		want LedgerEntry
	}{
		{
			name: "gift",
			in:   Gift{Time: 10, UserID: 1, Price: 5.2, GiftName: "x", GiftID: 3, Count: 2},
			want: LedgerEntry{UserID: 1, Time: 10, Price: 5.2},
		},
		{
			name: "super message",
			in:   SuperMessage{Time: 20, UserID: 2, Price: 30, Text: "hi"},
			want: LedgerEntry{UserID: 2, Time: 20, Price: 30},
		},
		{
			name: "guard purchase",
			in:   GuardPurchase{Time: 30, UserID: 3, Price: 198, Level: 3, LevelName: "captain"},
			want: LedgerEntry{UserID: 3, Time: 30, Price: 198},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ledger(tt.in); got != tt.want {
				t.Errorf("Ledger() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{seconds: 0, want: ""},
		{seconds: 5, want: "5s"},
		{seconds: 60, want: "1m"},
		{seconds: 61, want: "1m-1s"},
		{seconds: 3600, want: "1h"},
		{seconds: 3661, want: "1h-1m-1s"},
		{seconds: 86400, want: "1d"},
		{seconds: 90061, want: "1d-1h-1m-1s"},
		{seconds: 7200, want: "2h"},
		{seconds: 86460, want: "1d-1m"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
