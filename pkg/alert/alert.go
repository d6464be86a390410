// Package alert notifies external destinations about articles whose analysis
// crosses a configured threshold.
package alert

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/elonfeng/lens/pkg/gauge"
	"github.com/elonfeng/lens/pkg/present"
)

// Notification is the data sent to alert destinations.
type Notification struct {
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Feed      string   `json:"feed,omitempty"`
	Summary   string   `json:"summary"`
	Spectrum  float64  `json:"political_spectrum_score"`
	Leaning   string   `json:"leaning"`
	Bucket    string   `json:"bucket,omitempty"`
	Clickbait float64  `json:"clickbait_score"`
	Verdict   string   `json:"clickbait_verdict"`
	Tactic    string   `json:"tactic,omitempty"`
	Reasons   []string `json:"reasons"`
}

// Thresholds decide which reports are worth an alert. A zero field disables
// that check.
type Thresholds struct {
	// Clickbait alerts when the clickbait score is at least this value.
	Clickbait float64 `yaml:"clickbait"`
	// Spectrum alerts when the absolute spectrum score is at least this value.
	Spectrum float64 `yaml:"spectrum"`
}

// Evaluate builds a notification for rep when it crosses a threshold.
// Non-political reports and gauges that failed to encode never alert.
func Evaluate(rep *present.Report, th Thresholds, feed string) (*Notification, bool) {
	if rep == nil || !rep.IsPolitical {
		return nil, false
	}

	n := &Notification{
		Title:   rep.Title,
		URL:     rep.URL,
		Feed:    feed,
		Summary: rep.Summary,
		Tactic:  rep.Tactic,
	}

	if s := rep.Spectrum; s != nil && s.Error == "" {
		n.Spectrum = s.Score
		n.Leaning = s.LeaningLabel
		n.Bucket = s.Bucket.Label
		if th.Spectrum > 0 && math.Abs(s.Score) >= th.Spectrum {
			n.Reasons = append(n.Reasons, fmt.Sprintf("spectrum %s (%s)", gauge.SignedScore(s.Score), s.Bucket.Label))
		}
	}
	if c := rep.Clickbait; c != nil && c.Error == "" {
		n.Clickbait = c.Score
		n.Verdict = c.Verdict
		if th.Clickbait > 0 && c.Score >= th.Clickbait {
			n.Reasons = append(n.Reasons, fmt.Sprintf("clickbait %g (%s)", c.Score, c.Verdict))
		}
	}

	if len(n.Reasons) == 0 {
		return nil, false
	}
	return n, true
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers. Every notifier
// is tried; failures are joined.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}
