package render

import (
	"fmt"

	"github.com/go-ego/gse"
)

// Segmenter tokenizes mixed-script chat text using a dictionary-driven
// segmenter so CJK runs split into words rather than single runes.
type Segmenter struct {
	seg gse.Segmenter
}

// NewSegmenter loads the default dictionary. Loading is slow, so callers
// should construct one segmenter and reuse it across sessions.
func NewSegmenter() (*Segmenter, error) {
	s := &Segmenter{}
	if err := s.seg.LoadDict(); err != nil {
		return nil, fmt.Errorf("load segmenter dict: %w", err)
	}
	return s, nil
}

// Frequencies cuts text into tokens and returns per-token occurrence counts.
func (s *Segmenter) Frequencies(text string) map[string]int {
	freqs := make(map[string]int)
	for _, tok := range s.seg.Cut(text, true) {
		freqs[tok]++
	}
	return freqs
}
