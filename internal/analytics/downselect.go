package analytics

import (
	"github.com/onnwee/livesight/internal/record"
)

// DownSelect returns the minimum-spacing subsequence of chronologically
// sorted marked messages: the first message is always kept, and each later
// message is kept only if it falls strictly after the last kept message plus
// the interval. Greedy leftmost selection, deterministic, O(n); re-applying
// it with the same interval returns the input unchanged.
func DownSelect(msgs []record.ChatMessage, intervalSec float64) []record.ChatMessage {
	if len(msgs) == 0 {
		return nil
	}
	kept := []record.ChatMessage{msgs[0]}
	flag := float64(msgs[0].Time)
	for _, m := range msgs[1:] {
		if float64(m.Time) <= flag+intervalSec {
			continue
		}
		flag = float64(m.Time)
		kept = append(kept, m)
	}
	return kept
}
