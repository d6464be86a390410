package analysis

import (
	"encoding/json"
	"slices"
)

// Meta holds the headline judgment of an article.
type Meta struct {
	IsPolitical            bool
	PoliticalSpectrumScore float64
	PoliticalLeaningLabel  string
	ClickbaitScore         float64
	ClickbaitVerdict       string
}

// NarrativeMode describes the article's voice and framing technique.
type NarrativeMode struct {
	IsHeavyQuoting      bool
	PrimaryQuotedVoice  string
	AuthorVoicePresence string
	CognitiveTactic     string
}

// Entity is the per-entity stance judgment.
type Entity struct {
	Name           string
	AlignmentScore float64
	AuthorStance   string
	Analysis       string
}

// Critique is the closing summary and commentary.
type Critique struct {
	Summary    string
	Commentary string
}

// Result is an adapted, validated analysis. It is immutable: every accessor
// returns a copy.
type Result struct {
	title     string
	sourceURL string
	content   string
	meta      Meta
	narrative NarrativeMode
	entities  []Entity
	critique  Critique
}

// Title returns the article title.
func (r *Result) Title() string { return r.title }

// SourceURL returns the analyzed article URL.
func (r *Result) SourceURL() string { return r.sourceURL }

// Content returns the article excerpt.
func (r *Result) Content() string { return r.content }

// Meta returns the headline scores and labels.
func (r *Result) Meta() Meta { return r.meta }

// NarrativeMode returns how the article is told.
func (r *Result) NarrativeMode() NarrativeMode { return r.narrative }

// Critique returns the closing summary and commentary.
func (r *Result) Critique() Critique { return r.critique }

// IsPolitical reports whether the political views apply.
func (r *Result) IsPolitical() bool { return r.meta.IsPolitical }

// Entities returns the entity judgments in payload order. Duplicate names are
// kept as independent entries unless the adapter was asked to reject them.
func (r *Result) Entities() []Entity { return slices.Clone(r.entities) }

// MarshalJSON writes the result back in wire format, so an adapted result can
// be fed to Adapt again.
func (r *Result) MarshalJSON() ([]byte, error) {
	type meta struct {
		IsPolitical            bool    `json:"is_political"`
		PoliticalSpectrumScore float64 `json:"political_spectrum_score"`
		PoliticalLeaningLabel  string  `json:"political_leaning_label"`
		ClickbaitScore         float64 `json:"clickbait_score"`
		ClickbaitVerdict       string  `json:"clickbait_verdict"`
	}
	type entity struct {
		Name           string  `json:"name"`
		AlignmentScore float64 `json:"alignment_score"`
		AuthorStance   string  `json:"author_stance"`
		Analysis       string  `json:"analysis"`
	}
	type body struct {
		Meta            meta             `json:"meta"`
		NarrativeMode   NarrativePayload `json:"narrative_mode"`
		EntityAnalysis  []entity         `json:"entity_analysis"`
		InsiderCritique CritiquePayload  `json:"insider_critique"`
	}

	entities := make([]entity, len(r.entities))
	for i, e := range r.entities {
		entities[i] = entity(e)
	}
	return json.Marshal(struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		URL      string `json:"url"`
		Analysis body   `json:"analysis"`
	}{
		Title:   r.title,
		Content: r.content,
		URL:     r.sourceURL,
		Analysis: body{
			Meta:            meta(r.meta),
			NarrativeMode:   NarrativePayload(r.narrative),
			EntityAnalysis:  entities,
			InsiderCritique: CritiquePayload(r.critique),
		},
	})
}
