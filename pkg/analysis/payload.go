package analysis

import "encoding/json"

// Payload is the analysis service reply as it appears on the wire. Required
// fields are pointers so that an absent field can be told apart from a zero
// value.
type Payload struct {
	Title    *string          `json:"title"`
	Content  *string          `json:"content"`
	URL      *string          `json:"url"`
	Analysis *AnalysisPayload `json:"analysis"`

	// Error is set instead of the fields above when the service failed.
	Error json.RawMessage `json:"error,omitempty"`
}

// AnalysisPayload is the "analysis" object of a Payload.
type AnalysisPayload struct {
	Meta            *MetaPayload      `json:"meta"`
	NarrativeMode   *NarrativePayload `json:"narrative_mode"`
	EntityAnalysis  *[]EntityPayload  `json:"entity_analysis"`
	InsiderCritique *CritiquePayload  `json:"insider_critique"`

	Error json.RawMessage `json:"error,omitempty"`
}

// MetaPayload carries the headline scores.
type MetaPayload struct {
	IsPolitical            *bool    `json:"is_political"`
	PoliticalSpectrumScore *float64 `json:"political_spectrum_score"`
	PoliticalLeaningLabel  *string  `json:"political_leaning_label"`
	ClickbaitScore         *float64 `json:"clickbait_score"`
	ClickbaitVerdict       *string  `json:"clickbait_verdict"`
}

// NarrativePayload describes how the article is told. All fields are optional.
type NarrativePayload struct {
	IsHeavyQuoting      bool   `json:"is_heavy_quoting"`
	PrimaryQuotedVoice  string `json:"primary_quoted_voice"`
	AuthorVoicePresence string `json:"author_voice_presence"`
	CognitiveTactic     string `json:"cognitive_tactic"`
}

// EntityPayload is one entry of entity_analysis.
type EntityPayload struct {
	Name           *string  `json:"name"`
	AlignmentScore *float64 `json:"alignment_score"`
	AuthorStance   string   `json:"author_stance"`
	Analysis       string   `json:"analysis"`
}

// CritiquePayload is the closing commentary. Commentary may contain Markdown.
type CritiquePayload struct {
	Summary    string `json:"summary"`
	Commentary string `json:"commentary"`
}
