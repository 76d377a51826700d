package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/onnwee/livesight/internal/record"
	"github.com/onnwee/livesight/internal/storage"
)

// ChartRenderer renders line and pie chart artifacts.
type ChartRenderer interface {
	Line(path, title string, xLabels []string, ys []float64) error
	Pie(path, title string, labels []string, values []float64) error
}

// CloudRenderer renders a word cloud artifact from token frequencies.
type CloudRenderer interface {
	Render(path string, freqs map[string]int, maskPath string) error
}

// Segmenter tokenizes chat text into per-token occurrence counts.
type Segmenter interface {
	Frequencies(text string) map[string]int
}

// Analysis artifact file names under <session>/analysis/.
const (
	ChatFreqChart         = "chat_frequency.png"
	ChatFreqSmoothChart   = "chat_frequency_smooth.png"
	MarkedFreqChart       = "marked_frequency.png"
	MarkedFreqSmoothChart = "marked_frequency_smooth.png"
	RevenueChart          = "revenue.png"
	QuotaChart            = "revenue_quota.png"
	TypeChart             = "revenue_type.png"
	ViewerChart           = "viewer_curve.png"
	HighEnergyChart       = "high_energy_curve.png"
	WatchedChart          = "watched_curve.png"
	WordCloudImage        = "word_cloud.png"
	CompleteSuggestion    = "complete_suggestion.txt"
	SparseSuggestion      = "sparse_suggestion.txt"
)

// suggestionHeader is the first line of every suggestion file.
const suggestionHeader = "time from the start of the live, suggested content"

// Options tunes one analysis run. Zero-valued fields fall back to defaults.
type Options struct {
	// ChatWindowSec is the frequency window for chat and marked-chat curves.
	ChatWindowSec int64
	// Robust enables marked-message down-selection and the sparse
	// suggestion file.
	Robust bool
	// RobustIntervalSec is the minimum spacing between down-selected
	// messages.
	RobustIntervalSec float64
	// RevenueWindowSec is the summing window for the revenue curve.
	RevenueWindowSec int64
	// ViewWindowSec is the resampling window for the audience curves.
	ViewWindowSec int64
	// MaskPath optionally constrains the word cloud layout region.
	MaskPath string
	// FreeGiftID is excluded from revenue analysis; 0 disables the filter.
	FreeGiftID int64
}

// Default analysis intervals, in seconds.
const (
	DefaultChatWindowSec     = 60
	DefaultRobustIntervalSec = 180
	DefaultRevenueWindowSec  = 60
	DefaultViewWindowSec     = 60
)

func (o Options) withDefaults() Options {
	if o.ChatWindowSec <= 0 {
		o.ChatWindowSec = DefaultChatWindowSec
	}
	if o.RobustIntervalSec <= 0 {
		o.RobustIntervalSec = DefaultRobustIntervalSec
	}
	if o.RevenueWindowSec <= 0 {
		o.RevenueWindowSec = DefaultRevenueWindowSec
	}
	if o.ViewWindowSec <= 0 {
		o.ViewWindowSec = DefaultViewWindowSec
	}
	return o
}

// Pipeline runs the full post-session analysis over one session directory.
// Collaborators may be nil, in which case the artifacts that need them are
// skipped with a warning.
type Pipeline struct {
	charts ChartRenderer
	cloud  CloudRenderer
	seg    Segmenter
	logger *slog.Logger
}

// NewPipeline creates an analysis pipeline.
func NewPipeline(charts ChartRenderer, cloud CloudRenderer, seg Segmenter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{charts: charts, cloud: cloud, seg: seg, logger: logger}
}

// Analyze runs every analysis step over the session directory. Steps are
// independent: a step whose input table is missing or empty is skipped with
// a warning naming the expected file, and never fails the run. Analyze
// returns an error only when the session directory itself cannot be opened
// or the context is canceled.
func (p *Pipeline) Analyze(ctx context.Context, sessionDir string, opts Options) error {
	opts = opts.withDefaults()

	session, err := storage.OpenSession(sessionDir)
	if err != nil {
		return err
	}
	logger := p.logger.With("run_id", uuid.NewString(), "session", sessionDir)
	logger.Info("analysis started")

	steps := []func(*storage.Session, Options, *slog.Logger){
		p.analyzeChat,
		p.analyzeMarked,
		p.analyzeRevenue,
		p.analyzeCurves,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		step(session, opts, logger)
	}

	logger.Info("analysis finished")
	return nil
}

// analyzeChat produces the chat frequency curve (plus the smoothed variant
// when dense enough) and the word cloud.
func (p *Pipeline) analyzeChat(session *storage.Session, opts Options, logger *slog.Logger) {
	msgs, skipped, err := session.LoadChat()
	if err != nil || len(msgs) == 0 {
		logger.Warn("no chat data, skipping chat analysis", "file", storage.ChatFile)
		return
	}
	if skipped > 0 {
		logger.Warn("skipped malformed chat lines", "file", storage.ChatFile, "skipped", skipped)
	}

	times := make([]int64, len(msgs))
	for i, m := range msgs {
		times[i] = m.Time
	}
	p.renderFrequency(session, logger, "chat frequency",
		WindowFrequency(times, opts.ChatWindowSec), ChatFreqChart, ChatFreqSmoothChart)
	p.renderWordCloud(session, msgs, opts.MaskPath, logger)
}

// analyzeMarked produces the marked-message frequency curve, the suggestion
// files, and (when enabled) the down-selected robust table.
func (p *Pipeline) analyzeMarked(session *storage.Session, opts Options, logger *slog.Logger) {
	msgs, skipped, err := session.LoadMarkedChat()
	if err != nil || len(msgs) == 0 {
		logger.Warn("no marked chat data, skipping marked analysis", "file", storage.MarkedChatFile)
		return
	}
	if skipped > 0 {
		logger.Warn("skipped malformed marked chat lines", "file", storage.MarkedChatFile, "skipped", skipped)
	}

	times := make([]int64, len(msgs))
	for i, m := range msgs {
		times[i] = m.Time
	}
	p.renderFrequency(session, logger, "marked message frequency",
		WindowFrequency(times, opts.ChatWindowSec), MarkedFreqChart, MarkedFreqSmoothChart)
	p.writeSuggestions(session, CompleteSuggestion, msgs, logger)

	if !opts.Robust {
		return
	}
	robust := DownSelect(msgs, opts.RobustIntervalSec)
	// The robust table is rebuilt from scratch on every run.
	if err := os.Remove(session.Path(storage.RobustChatFile)); err != nil && !os.IsNotExist(err) {
		logger.Warn("cannot reset robust chat table", "file", storage.RobustChatFile, "error", err)
		return
	}
	for _, m := range robust {
		if err := session.AppendRobustChat(m); err != nil {
			logger.Warn("append robust chat failed", "file", storage.RobustChatFile, "error", err)
			return
		}
	}
	p.writeSuggestions(session, SparseSuggestion, robust, logger)
}

// analyzeRevenue produces the revenue-over-time curve and the quota and kind
// breakdown pies, cross-checking the merged tables against the ledger.
func (p *Pipeline) analyzeRevenue(session *storage.Session, opts Options, logger *slog.Logger) {
	gifts, _, _ := session.LoadGifts()
	if opts.FreeGiftID != 0 {
		paid := gifts[:0]
		for _, g := range gifts {
			if g.GiftID != opts.FreeGiftID {
				paid = append(paid, g)
			}
		}
		gifts = paid
	}
	supers, _, _ := session.LoadSuperMessages()
	guards, _, _ := session.LoadGuardPurchases()
	if len(gifts)+len(supers)+len(guards) == 0 {
		logger.Warn("no revenue data, skipping revenue analysis",
			"files", strings.Join([]string{storage.GiftFile, storage.SuperFile, storage.GuardFile}, ","))
		return
	}

	merged := MergeRevenue(gifts, supers, guards)
	if ledger, _, err := session.LoadLedger(); err == nil {
		if diff := math.Abs(TotalPrice(ledger) - TotalPrice(merged)); diff > 1e-9 {
			logger.Warn("ledger and merged totals diverge, some appends were likely dropped",
				"file", storage.LedgerFile, "ledger_total", TotalPrice(ledger),
				"merged_total", TotalPrice(merged))
		}
	}

	times := make([]int64, len(merged))
	prices := make([]float64, len(merged))
	for i, e := range merged {
		times[i] = e.Time
		prices[i] = e.Price
	}
	windows := WindowSum(times, prices, opts.RevenueWindowSec)
	if len(windows) >= 2 {
		labels := make([]string, len(windows))
		ys := make([]float64, len(windows))
		for i, w := range windows {
			labels[i] = record.FormatDuration(w.Start - session.StartTime())
			ys[i] = w.Total
		}
		p.renderLine(session, RevenueChart, "revenue over time", labels, ys, logger)
	} else {
		logger.Warn("too few revenue windows for a curve", "windows", len(windows))
	}

	quota := QuotaBuckets(merged)
	var quotaLabels []string
	var quotaValues []float64
	for i, n := range quota {
		if n > 0 {
			quotaLabels = append(quotaLabels, QuotaLabels[i])
			quotaValues = append(quotaValues, float64(n))
		}
	}
	p.renderPie(session, QuotaChart, "payers by session total", quotaLabels, quotaValues, logger)

	totals := TypeTotals(gifts, supers, guards)
	var typeLabels []string
	var typeValues []float64
	for i, t := range totals {
		if t > 0 {
			typeLabels = append(typeLabels, TypeLabels[i])
			typeValues = append(typeValues, t)
		}
	}
	p.renderPie(session, TypeChart, "revenue by kind", typeLabels, typeValues, logger)
}

// analyzeCurves resamples each audience counter series and renders it.
func (p *Pipeline) analyzeCurves(session *storage.Session, opts Options, logger *slog.Logger) {
	curves := []struct {
		file     string
		artifact string
		title    string
	}{
		{storage.ViewerFile, ViewerChart, "viewers"},
		{storage.HighEnergyFile, HighEnergyChart, "high-energy users"},
		{storage.WatchedFile, WatchedChart, "watched count"},
	}
	for _, c := range curves {
		samples, skipped, err := session.LoadSamples(c.file)
		if err != nil || len(samples) == 0 {
			logger.Warn("no samples, skipping curve", "file", c.file)
			continue
		}
		if skipped > 0 {
			logger.Warn("skipped malformed sample lines", "file", c.file, "skipped", skipped)
		}
		resampled := ResampleNearest(samples, opts.ViewWindowSec)
		if len(resampled) < 2 {
			logger.Warn("too few resampled points for a curve", "file", c.file, "points", len(resampled))
			continue
		}
		labels := make([]string, len(resampled))
		ys := make([]float64, len(resampled))
		for i, sm := range resampled {
			labels[i] = record.FormatDuration(sm.Time - session.StartTime())
			ys[i] = float64(sm.Value)
		}
		p.renderLine(session, c.artifact, c.title, labels, ys, logger)
	}
}

// renderFrequency renders a frequency curve and, when the data is dense
// enough, a smoothed variant.
func (p *Pipeline) renderFrequency(session *storage.Session, logger *slog.Logger, title string, windows []Window, artifact, smoothArtifact string) {
	if len(windows) < 2 {
		logger.Warn("too few windows for a curve", "artifact", artifact, "windows", len(windows))
		return
	}
	labels := make([]string, len(windows))
	xs := make([]float64, len(windows))
	ys := make([]float64, len(windows))
	for i, w := range windows {
		labels[i] = record.FormatDuration(w.Start - session.StartTime())
		xs[i] = float64(w.Start)
		ys[i] = float64(w.Count)
	}
	p.renderLine(session, artifact, title, labels, ys, logger)

	if len(windows) <= SmoothThreshold {
		logger.Warn("too few windows for a smoothed curve",
			"artifact", smoothArtifact, "windows", len(windows), "threshold", SmoothThreshold)
		return
	}
	sx, sy, err := Smooth(xs, ys)
	if err != nil {
		logger.Warn("smoothing failed", "artifact", smoothArtifact, "error", err)
		return
	}
	smoothLabels := make([]string, len(sx))
	for i, x := range sx {
		smoothLabels[i] = record.FormatDuration(int64(x) - session.StartTime())
	}
	p.renderLine(session, smoothArtifact, title+" (smoothed)", smoothLabels, sy, logger)
}

var cjkToken = regexp.MustCompile(`^\p{Han}+$`)

// renderWordCloud segments all chat text and renders the CJK token cloud.
func (p *Pipeline) renderWordCloud(session *storage.Session, msgs []record.ChatMessage, maskPath string, logger *slog.Logger) {
	if p.seg == nil || p.cloud == nil {
		logger.Warn("word cloud collaborators not configured, skipping", "artifact", WordCloudImage)
		return
	}
	texts := make([]string, len(msgs))
	for i, m := range msgs {
		texts[i] = m.Text
	}
	freqs := p.seg.Frequencies(strings.Join(texts, "。"))
	for tok := range freqs {
		if !cjkToken.MatchString(tok) {
			delete(freqs, tok)
		}
	}
	if len(freqs) == 0 {
		logger.Warn("no CJK tokens in chat, skipping word cloud", "artifact", WordCloudImage)
		return
	}
	path, err := session.AnalysisPath(WordCloudImage)
	if err != nil {
		logger.Warn("cannot create analysis dir", "error", err)
		return
	}
	if err := p.cloud.Render(path, freqs, maskPath); err != nil {
		logger.Warn("word cloud render failed", "artifact", WordCloudImage, "error", err)
	}
}

// writeSuggestions writes one suggestion file: a header line, then one
// "<offset>, <text>" line per message with the offset formatted relative to
// the session start.
func (p *Pipeline) writeSuggestions(session *storage.Session, artifact string, msgs []record.ChatMessage, logger *slog.Logger) {
	path, err := session.AnalysisPath(artifact)
	if err != nil {
		logger.Warn("cannot create analysis dir", "error", err)
		return
	}
	var b strings.Builder
	b.WriteString(suggestionHeader + "\n")
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s, %s\n", record.FormatDuration(m.Time-session.StartTime()), m.Text)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		logger.Warn("write suggestions failed", "artifact", artifact, "error", err)
	}
}

func (p *Pipeline) renderLine(session *storage.Session, artifact, title string, labels []string, ys []float64, logger *slog.Logger) {
	if p.charts == nil {
		logger.Warn("chart renderer not configured, skipping", "artifact", artifact)
		return
	}
	path, err := session.AnalysisPath(artifact)
	if err != nil {
		logger.Warn("cannot create analysis dir", "error", err)
		return
	}
	if err := p.charts.Line(path, title, labels, ys); err != nil {
		logger.Warn("line chart render failed", "artifact", artifact, "error", err)
	}
}

func (p *Pipeline) renderPie(session *storage.Session, artifact, title string, labels []string, values []float64, logger *slog.Logger) {
	if len(values) == 0 {
		logger.Warn("no data for pie chart", "artifact", artifact)
		return
	}
	if p.charts == nil {
		logger.Warn("chart renderer not configured, skipping", "artifact", artifact)
		return
	}
	path, err := session.AnalysisPath(artifact)
	if err != nil {
		logger.Warn("cannot create analysis dir", "error", err)
		return
	}
	if err := p.charts.Pie(path, title, labels, values); err != nil {
		logger.Warn("pie chart render failed", "artifact", artifact, "error", err)
	}
}
