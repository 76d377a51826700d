// Package record defines the normalized event records persisted during a
// monitored live session and shared helpers for classifying and formatting them.
package record

import (
	"fmt"
	"strings"
)

// ChatMessage is a single chat message observed during a live session.
// Records are immutable after construction.
type ChatMessage struct {
	Time   int64  `json:"time"`
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

// Marked reports whether the message should be treated as a marked message:
// its first or last rune matches one of the configured marks.
func (m ChatMessage) Marked(marks []string) bool {
	if m.Text == "" {
		return false
	}
	runes := []rune(m.Text)
	first := string(runes[0])
	last := string(runes[len(runes)-1])
	for _, mark := range marks {
		if first == mark || last == mark {
			return true
		}
	}
	return false
}

// Gift is a paid gift event.
type Gift struct {
	Time     int64   `json:"time"`
	UserID   int64   `json:"user_id"`
	Price    float64 `json:"price"`
	GiftName string  `json:"gift_name"`
	GiftID   int64   `json:"gift_id"`
	Count    int64   `json:"count"`
}

// SuperMessage is a paid highlighted chat message (super chat).
type SuperMessage struct {
	Time   int64   `json:"time"`
	UserID int64   `json:"user_id"`
	Price  float64 `json:"price"`
	Text   string  `json:"text"`
	GiftID int64   `json:"gift_id"`
}

// GuardPurchase is a paid subscription (guard) purchase.
type GuardPurchase struct {
	Time      int64   `json:"time"`
	UserID    int64   `json:"user_id"`
	Price     float64 `json:"price"`
	Level     int64   `json:"level"`
	LevelName string  `json:"level_name"`
}

// LedgerEntry is the flattened projection of any revenue event, appended to
// the session ledger at event time. The ledger is the authoritative
// pre-merged time order for revenue analysis.
type LedgerEntry struct {
	UserID int64
	Time   int64
	Price  float64
}

// Sample is one audience-counter tick (viewer, high-energy or watched count).
type Sample struct {
	Time  int64 `json:"time"`
	Value int64 `json:"value"`
}

// Revenue is implemented by every paid event record so the ledger projection
// and the chronological merge can treat them uniformly.
type Revenue interface {
	RevenueTime() int64
	RevenueUser() int64
	RevenuePrice() float64
}

// RevenueTime returns the gift timestamp.
func (g Gift) RevenueTime() int64 { return g.Time }

// RevenueUser returns the paying user ID.
func (g Gift) RevenueUser() int64 { return g.UserID }

// RevenuePrice returns the gift price in RMB.
func (g Gift) RevenuePrice() float64 { return g.Price }

// RevenueTime returns the super-message timestamp.
func (s SuperMessage) RevenueTime() int64 { return s.Time }

// RevenueUser returns the paying user ID.
func (s SuperMessage) RevenueUser() int64 { return s.UserID }

// RevenuePrice returns the super-message price in RMB.
func (s SuperMessage) RevenuePrice() float64 { return s.Price }

// RevenueTime returns the purchase timestamp.
func (g GuardPurchase) RevenueTime() int64 { return g.Time }

// RevenueUser returns the paying user ID.
func (g GuardPurchase) RevenueUser() int64 { return g.UserID }

// RevenuePrice returns the purchase price in RMB.
func (g GuardPurchase) RevenuePrice() float64 { return g.Price }

// Ledger returns the flattened ledger projection of a revenue event.
func Ledger(r Revenue) LedgerEntry {
	return LedgerEntry{
		UserID: r.RevenueUser(),
		Time:   r.RevenueTime(),
		Price:  r.RevenuePrice(),
	}
}

// FormatDuration renders a duration in whole seconds as "Nd-Nh-Nm-Ns",
// omitting zero-valued units. Zero seconds renders as the empty string,
// matching the suggestion-file convention.
func FormatDuration(seconds int64) string {
	minutes, secs := seconds/60, seconds%60
	hours, minutes := minutes/60, minutes%60
	days, hours := hours/24, hours%24

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd-", days)
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%dh-", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dm-", minutes)
	}
	if secs > 0 {
		fmt.Fprintf(&b, "%ds", secs)
	}
	return strings.TrimSuffix(b.String(), "-")
}
