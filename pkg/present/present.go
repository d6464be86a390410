// Package present combines an adapted analysis with the gauge encoders and
// bucket classifiers into a report that renderers can draw directly.
package present

import (
	"strings"

	"github.com/elonfeng/lens/pkg/analysis"
	"github.com/elonfeng/lens/pkg/bucket"
	"github.com/elonfeng/lens/pkg/gauge"
)

// NoTactic is the value the service uses when no cognitive tactic was found.
const NoTactic = "無"

// Report is everything a renderer needs for one analysis.
type Report struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	IsPolitical bool   `json:"is_political"`
	Summary     string `json:"summary"`

	// Political track only.
	Spectrum   *SpectrumView  `json:"spectrum,omitempty"`
	Clickbait  *ClickbaitView `json:"clickbait,omitempty"`
	Entities   []EntityView   `json:"entities,omitempty"`
	Commentary string         `json:"commentary,omitempty"`
	Tactic     string         `json:"tactic,omitempty"`
	Narrative  *Narrative     `json:"narrative,omitempty"`
}

// SpectrumView is the radial political gauge with its legend bucket.
type SpectrumView struct {
	Score        float64        `json:"score"`
	ScoreText    string         `json:"score_text"`
	ScoreColor   string         `json:"score_color"`
	LeaningLabel string         `json:"leaning_label"`
	Gauge        *gauge.Radial  `json:"gauge,omitempty"`
	Bucket       *bucket.Bucket `json:"bucket,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// ClickbaitView is the vertical clickbait gauge and verdict pill.
type ClickbaitView struct {
	Score   float64       `json:"score"`
	Verdict string        `json:"verdict"`
	Tone    gauge.Tone    `json:"tone"`
	Gauge   *gauge.Linear `json:"gauge,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// EntityView is one row of the entity stance list.
type EntityView struct {
	Name     string         `json:"name"`
	Score    float64        `json:"score"`
	Stance   string         `json:"stance"`
	Tone     gauge.Tone     `json:"tone"`
	Analysis string         `json:"analysis"`
	Gauge    *gauge.Linear  `json:"gauge,omitempty"`
	Role     *bucket.Bucket `json:"role,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Narrative carries the narrative mode details.
type Narrative struct {
	HeavyQuoting        bool   `json:"heavy_quoting"`
	PrimaryQuotedVoice  string `json:"primary_quoted_voice,omitempty"`
	AuthorVoicePresence string `json:"author_voice_presence,omitempty"`
}

// Failed reports whether any gauge in the report could not be computed.
func (r *Report) Failed() bool {
	if r.Spectrum != nil && r.Spectrum.Error != "" {
		return true
	}
	if r.Clickbait != nil && r.Clickbait.Error != "" {
		return true
	}
	for _, e := range r.Entities {
		if e.Error != "" {
			return true
		}
	}
	return false
}

// Build produces the report for r. Non-political results only carry the
// summary. A gauge that fails to encode records its error and the remaining
// gauges are still built.
func Build(r *analysis.Result) *Report {
	meta := r.Meta()
	critique := r.Critique()

	rep := &Report{
		Title:       r.Title(),
		URL:         r.SourceURL(),
		Content:     r.Content(),
		IsPolitical: meta.IsPolitical,
		Summary:     critique.Summary,
	}
	if !meta.IsPolitical {
		return rep
	}

	rep.Spectrum = spectrumView(meta)
	rep.Clickbait = clickbaitView(meta)
	for _, e := range r.Entities() {
		rep.Entities = append(rep.Entities, entityView(e))
	}
	rep.Commentary = critique.Commentary

	nm := r.NarrativeMode()
	if tactic := strings.TrimSpace(nm.CognitiveTactic); tactic != "" && tactic != NoTactic {
		rep.Tactic = tactic
	}
	rep.Narrative = &Narrative{
		HeavyQuoting:        nm.IsHeavyQuoting,
		PrimaryQuotedVoice:  nm.PrimaryQuotedVoice,
		AuthorVoicePresence: nm.AuthorVoicePresence,
	}
	return rep
}

func spectrumView(m analysis.Meta) *SpectrumView {
	s := m.PoliticalSpectrumScore
	v := &SpectrumView{
		Score:        s,
		ScoreText:    gauge.SignedScore(s),
		ScoreColor:   gauge.ScoreColor(s),
		LeaningLabel: m.PoliticalLeaningLabel,
	}

	g, err := gauge.Political(s)
	if err != nil {
		v.Error = err.Error()
		return v
	}
	b, err := bucket.PoliticalSpectrum.Classify(s)
	if err != nil {
		v.Error = err.Error()
		return v
	}
	v.Gauge = &g
	v.Bucket = &b
	return v
}

func clickbaitView(m analysis.Meta) *ClickbaitView {
	v := &ClickbaitView{
		Score:   m.ClickbaitScore,
		Verdict: m.ClickbaitVerdict,
		Tone:    gauge.VerdictTone(m.ClickbaitScore),
	}
	g, err := gauge.Clickbait(m.ClickbaitScore)
	if err != nil {
		v.Error = err.Error()
		return v
	}
	v.Gauge = &g
	return v
}

func entityView(e analysis.Entity) EntityView {
	v := EntityView{
		Name:     e.Name,
		Score:    e.AlignmentScore,
		Stance:   e.AuthorStance,
		Tone:     gauge.StanceTone(e.AlignmentScore),
		Analysis: e.Analysis,
	}
	g, err := gauge.Alignment(e.AlignmentScore)
	if err != nil {
		v.Error = err.Error()
		return v
	}
	b, err := bucket.EntityRole.Classify(e.AlignmentScore)
	if err != nil {
		v.Error = err.Error()
		return v
	}
	v.Gauge = &g
	v.Role = &b
	return v
}
