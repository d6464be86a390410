// Package scheduler polls article feeds, analyzes new entries and raises
// alerts.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"

	"github.com/elonfeng/lens/pkg/alert"
	"github.com/elonfeng/lens/pkg/analysis"
	"github.com/elonfeng/lens/pkg/present"
	"github.com/elonfeng/lens/pkg/source"
)

// Feed lists entries from one feed.
type Feed interface {
	fmt.Stringer
	List(ctx context.Context) ([]source.Entry, error)
}

// Analyzer turns an article URL into an analysis result.
type Analyzer interface {
	Analyze(ctx context.Context, articleURL string) (*analysis.Result, error)
}

// Item is one analyzed feed entry.
type Item struct {
	Entry  source.Entry    `json:"entry"`
	Report *present.Report `json:"report,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// FeedStats summarizes the political entries of one feed in one poll.
type FeedStats struct {
	Political       int     `json:"political"`
	SpectrumMean    float64 `json:"spectrum_mean"`
	SpectrumMedian  float64 `json:"spectrum_median"`
	ClickbaitMean   float64 `json:"clickbait_mean"`
	ClickbaitMedian float64 `json:"clickbait_median"`
}

// Poll is the outcome of one pass over all feeds.
type Poll struct {
	RunID    string               `json:"run_id"`
	Entries  int                  `json:"entries"`
	Analyzed int                  `json:"analyzed"`
	Failed   int                  `json:"failed"`
	Alerted  int                  `json:"alerted"`
	Items    []Item               `json:"items"`
	Stats    map[string]FeedStats `json:"stats"`
}

// Watcher polls feeds on an interval. Entries are analyzed once per process
// lifetime; the seen set is kept in memory only.
type Watcher struct {
	feeds      []Feed
	analyzer   Analyzer
	alerts     *alert.Manager
	thresholds alert.Thresholds
	interval   time.Duration
	limit      int
	log        logrus.FieldLogger

	mu   sync.Mutex
	seen map[string]struct{}
}

// New creates a watcher. limit caps the new entries analyzed per feed and
// poll (0 means no cap).
func New(
	feeds []Feed,
	analyzer Analyzer,
	alerts *alert.Manager,
	thresholds alert.Thresholds,
	interval time.Duration,
	limit int,
	log logrus.FieldLogger,
) *Watcher {
	if interval == 0 {
		interval = 15 * time.Minute
	}
	if alerts == nil {
		alerts = alert.NewManager(nil)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Watcher{
		feeds:      feeds,
		analyzer:   analyzer,
		alerts:     alerts,
		thresholds: thresholds,
		interval:   interval,
		limit:      limit,
		log:        log,
		seen:       make(map[string]struct{}),
	}
}

// Run polls immediately and then on every tick. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.WithField("interval", w.interval).Info("watcher: running")
	w.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher: stopped")
			return ctx.Err()
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll makes one pass over all feeds and analyzes entries not seen before.
func (w *Watcher) Poll(ctx context.Context) *Poll {
	p := &Poll{
		RunID: uuid.NewString(),
		Stats: make(map[string]FeedStats),
	}
	log := w.log.WithField("run", p.RunID)

	for _, feed := range w.feeds {
		if ctx.Err() != nil {
			break
		}
		entries, err := feed.List(ctx)
		if err != nil {
			log.WithError(err).WithField("feed", feed.String()).Warn("list feed")
			continue
		}
		p.Entries += len(entries)

		var spectrum, clickbait []float64
		analyzed := 0
		for _, e := range entries {
			if w.limit > 0 && analyzed >= w.limit {
				break
			}
			if !w.claim(e.Key()) {
				continue
			}
			analyzed++

			item := w.analyze(ctx, log, e)
			if ctx.Err() != nil {
				w.release(e.Key())
				break
			}
			p.Items = append(p.Items, item)
			if item.Error != "" {
				p.Failed++
				continue
			}
			p.Analyzed++

			rep := item.Report
			if rep.IsPolitical {
				spectrum = append(spectrum, rep.Spectrum.Score)
				clickbait = append(clickbait, rep.Clickbait.Score)
			}
			if w.notify(ctx, log, rep, feed.String()) {
				p.Alerted++
			}
		}

		if len(spectrum) > 0 {
			st := summarize(spectrum, clickbait)
			p.Stats[feed.String()] = st
			log.WithFields(logrus.Fields{
				"feed":             feed.String(),
				"political":        st.Political,
				"spectrum_mean":    fmt.Sprintf("%.2f", st.SpectrumMean),
				"spectrum_median":  st.SpectrumMedian,
				"clickbait_mean":   fmt.Sprintf("%.2f", st.ClickbaitMean),
				"clickbait_median": st.ClickbaitMedian,
			}).Info("feed summary")
		}
	}

	log.WithFields(logrus.Fields{
		"entries":  p.Entries,
		"analyzed": p.Analyzed,
		"failed":   p.Failed,
		"alerted":  p.Alerted,
	}).Info("poll done")
	return p
}

func (w *Watcher) analyze(ctx context.Context, log logrus.FieldLogger, e source.Entry) Item {
	item := Item{Entry: e}
	res, err := w.analyzer.Analyze(ctx, e.URL)
	if err != nil {
		item.Error = err.Error()
		entry := log.WithError(err).WithField("url", e.URL)
		var se *analysis.SchemaError
		var ve *analysis.ValidationError
		if errors.As(err, &se) || errors.As(err, &ve) {
			entry.Warn("analysis rejected")
		} else {
			entry.Error("analyze entry")
		}
		return item
	}

	item.Report = present.Build(res)
	fields := logrus.Fields{"url": e.URL, "political": item.Report.IsPolitical}
	if s := item.Report.Spectrum; s != nil && s.Bucket != nil {
		fields["spectrum"] = s.ScoreText
		fields["bucket"] = s.Bucket.Label
	}
	if c := item.Report.Clickbait; c != nil {
		fields["clickbait"] = c.Score
	}
	log.WithFields(fields).Info(e.Title)
	return item
}

func (w *Watcher) notify(ctx context.Context, log logrus.FieldLogger, rep *present.Report, feed string) bool {
	if !w.alerts.HasNotifiers() {
		return false
	}
	n, ok := alert.Evaluate(rep, w.thresholds, feed)
	if !ok {
		return false
	}
	if err := w.alerts.Broadcast(ctx, n); err != nil {
		log.WithError(err).WithField("url", rep.URL).Warn("alert")
		return false
	}
	log.WithField("url", rep.URL).WithField("reasons", n.Reasons).Info("alerted")
	return true
}

// claim marks key as seen and reports whether it was new.
func (w *Watcher) claim(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[key]; ok {
		return false
	}
	w.seen[key] = struct{}{}
	return true
}

func (w *Watcher) release(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.seen, key)
}

// Seen returns how many entries have been claimed so far.
func (w *Watcher) Seen() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.seen)
}

func summarize(spectrum, clickbait []float64) FeedStats {
	st := FeedStats{Political: len(spectrum)}
	// stats only errors on empty input, which callers rule out.
	st.SpectrumMean, _ = stats.Mean(spectrum)
	st.SpectrumMedian, _ = stats.Median(spectrum)
	st.ClickbaitMean, _ = stats.Mean(clickbait)
	st.ClickbaitMedian, _ = stats.Median(clickbait)
	return st
}
