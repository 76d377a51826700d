package analytics

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/onnwee/livesight/internal/record"
	"github.com/onnwee/livesight/internal/storage"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCharts records every render call keyed by artifact file name.
type fakeCharts struct {
	lines map[string][]float64
	pies  map[string][]float64
}

func newFakeCharts() *fakeCharts {
	return &fakeCharts{lines: map[string][]float64{}, pies: map[string][]float64{}}
}

func (f *fakeCharts) Line(path, title string, xLabels []string, ys []float64) error {
	f.lines[filepath.Base(path)] = ys
	return nil
}

func (f *fakeCharts) Pie(path, title string, labels []string, values []float64) error {
	f.pies[filepath.Base(path)] = values
	return nil
}

// fakeCloud records the frequencies it was asked to render.
type fakeCloud struct {
	freqs map[string]int
}

func (f *fakeCloud) Render(path string, freqs map[string]int, maskPath string) error {
	f.freqs = freqs
	return nil
}

// fakeSegmenter splits on spaces.
type fakeSegmenter struct{}

func (fakeSegmenter) Frequencies(text string) map[string]int {
	freqs := make(map[string]int)
	for _, tok := range strings.Fields(strings.ReplaceAll(text, "。", " ")) {
		freqs[tok]++
	}
	return freqs
}

func newTestSession(t *testing.T) *storage.Session {
	t.Helper()
	session, err := storage.CreateSession(t.TempDir(), time.Now().Unix())
	if err != nil {
		t.Fatalf("CreateSession() unexpected error = %v", err)
	}
	return session
}

func TestPipeline_Analyze_EmptySession(t *testing.T) {
	session := newTestSession(t)
	charts := newFakeCharts()
	p := NewPipeline(charts, nil, nil, newTestLogger())

	if err := p.Analyze(context.Background(), session.Dir(), Options{}); err != nil {
		t.Fatalf("Analyze() unexpected error = %v", err)
	}
	if len(charts.lines)+len(charts.pies) != 0 {
		t.Errorf("empty session rendered artifacts: %v %v", charts.lines, charts.pies)
	}
}

func TestPipeline_Analyze_BadSessionDir(t *testing.T) {
	p := NewPipeline(nil, nil, nil, newTestLogger())
	dir := filepath.Join(t.TempDir(), "not-a-session")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := p.Analyze(context.Background(), dir, Options{}); err == nil {
		t.Fatal("Analyze() on a non-session directory should fail")
	}
}

func TestPipeline_Analyze_FullSession(t *testing.T) {
	session := newTestSession(t)
	start := session.StartTime()

	// Two chat windows so a frequency curve is produced.
	chatTimes := []int64{start, start + 10, start + 70, start + 75}
	for _, ct := range chatTimes {
		msg := record.ChatMessage{Time: ct, UserID: 1, Text: "#go"}
		if err := session.AppendChat(msg); err != nil {
			t.Fatal(err)
		}
		if err := session.AppendMarkedChat(msg); err != nil {
			t.Fatal(err)
		}
	}

	// One free gift to be excluded and two paid events across two windows.
	gifts := []record.Gift{
		{Time: start, UserID: 1, Price: 100, GiftID: 31531},
		{Time: start + 5, UserID: 2, Price: 2, GiftID: 1},
		{Time: start + 120, UserID: 2, Price: 3, GiftID: 1},
	}
	for _, g := range gifts {
		if err := session.AppendGift(g); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 4; i++ {
		sm := record.Sample{Time: start + int64(i*40), Value: int64(100 + i)}
		if err := session.AppendSample(storage.ViewerFile, sm); err != nil {
			t.Fatal(err)
		}
	}

	charts := newFakeCharts()
	p := NewPipeline(charts, nil, nil, newTestLogger())
	opts := Options{
		ChatWindowSec:     60,
		Robust:            true,
		RobustIntervalSec: 60,
		RevenueWindowSec:  60,
		ViewWindowSec:     30,
		FreeGiftID:        31531,
	}
	if err := p.Analyze(context.Background(), session.Dir(), opts); err != nil {
		t.Fatalf("Analyze() unexpected error = %v", err)
	}

	for _, artifact := range []string{ChatFreqChart, MarkedFreqChart, RevenueChart, ViewerChart} {
		if _, ok := charts.lines[artifact]; !ok {
			t.Errorf("expected line chart %s, got %v", artifact, charts.lines)
		}
	}
	for _, artifact := range []string{QuotaChart, TypeChart} {
		if _, ok := charts.pies[artifact]; !ok {
			t.Errorf("expected pie chart %s, got %v", artifact, charts.pies)
		}
	}

	// The free gift must not leak into the revenue totals.
	typeValues := charts.pies[TypeChart]
	if len(typeValues) != 1 || typeValues[0] != 5 {
		t.Errorf("type pie = %v, want [5] (free gift excluded)", typeValues)
	}

	// Suggestion files: header plus one line per message.
	completePath := filepath.Join(session.Dir(), storage.AnalysisDir, CompleteSuggestion)
	data, err := os.ReadFile(completePath)
	if err != nil {
		t.Fatalf("complete suggestion file missing: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != suggestionHeader {
		t.Errorf("suggestion header = %q, want %q", lines[0], suggestionHeader)
	}
	if len(lines) != 1+len(chatTimes) {
		t.Errorf("complete suggestion has %d lines, want %d", len(lines), 1+len(chatTimes))
	}

	// The robust table holds the down-selected subset.
	robust, _, err := session.LoadRobustChat()
	if err != nil {
		t.Fatalf("robust table: %v", err)
	}
	want := DownSelect(mustLoadMarked(t, session), opts.RobustIntervalSec)
	if len(robust) != len(want) {
		t.Errorf("robust table has %d rows, want %d", len(robust), len(want))
	}

	sparsePath := filepath.Join(session.Dir(), storage.AnalysisDir, SparseSuggestion)
	if _, err := os.Stat(sparsePath); err != nil {
		t.Errorf("sparse suggestion file missing: %v", err)
	}
}

func mustLoadMarked(t *testing.T, session *storage.Session) []record.ChatMessage {
	t.Helper()
	msgs, _, err := session.LoadMarkedChat()
	if err != nil {
		t.Fatal(err)
	}
	return msgs
}

func TestPipeline_WordCloud_FiltersNonCJKTokens(t *testing.T) {
	session := newTestSession(t)
	start := session.StartTime()
	texts := []string{"你好 世界 hello", "你好 123"}
	for i, text := range texts {
		msg := record.ChatMessage{Time: start + int64(i*70), UserID: 1, Text: text}
		if err := session.AppendChat(msg); err != nil {
			t.Fatal(err)
		}
	}

	charts := newFakeCharts()
	cloud := &fakeCloud{}
	p := NewPipeline(charts, cloud, fakeSegmenter{}, newTestLogger())
	if err := p.Analyze(context.Background(), session.Dir(), Options{}); err != nil {
		t.Fatalf("Analyze() unexpected error = %v", err)
	}

	if cloud.freqs == nil {
		t.Fatal("word cloud was not rendered")
	}
	if cloud.freqs["你好"] != 2 || cloud.freqs["世界"] != 1 {
		t.Errorf("unexpected CJK frequencies: %v", cloud.freqs)
	}
	for tok := range cloud.freqs {
		if tok == "hello" || tok == "123" {
			t.Errorf("non-CJK token %q leaked into the word cloud", tok)
		}
	}
}
