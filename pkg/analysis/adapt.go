// Package analysis validates analysis service replies and turns them into
// immutable Result records.
package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/elonfeng/lens/pkg/score"
)

// SchemaError reports a missing or malformed payload field. Field is the wire
// path, e.g. "analysis.meta.clickbait_score".
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return "schema: " + e.Reason
	}
	return fmt.Sprintf("schema: %s: %s", e.Field, e.Reason)
}

// ValidationError reports a well-formed field whose value is not acceptable:
// a score outside its domain, or a duplicate entity under the uniqueness policy.
type ValidationError struct {
	Field  string
	Value  float64
	Domain score.Domain
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation: %s: %g outside %s", e.Field, e.Value, e.Domain)
}

// Options tunes Adapt. The zero value is the default policy: reject
// out-of-range scores, allow duplicate entity names.
type Options struct {
	// Clamp pulls out-of-range scores to the nearest domain bound instead of
	// failing with ValidationError.
	Clamp bool
	// UniqueEntities rejects payloads that name the same entity twice.
	UniqueEntities bool
}

// Adapt decodes and validates a raw service reply. It fails with *SchemaError
// or *ValidationError and never returns a partial result.
func Adapt(raw []byte, opts Options) (*Result, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, &SchemaError{Reason: "empty payload"}
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, decodeError(err)
	}
	return AdaptPayload(&p, opts)
}

// AdaptPayload validates an already decoded payload. p is not modified.
func AdaptPayload(p *Payload, opts Options) (*Result, error) {
	if p == nil {
		return nil, &SchemaError{Reason: "nil payload"}
	}
	if err := envelopeError("error", p.Error); err != nil {
		return nil, err
	}

	switch {
	case p.Title == nil:
		return nil, missing("title")
	case p.Content == nil:
		return nil, missing("content")
	case p.URL == nil:
		return nil, missing("url")
	case p.Analysis == nil:
		return nil, missing("analysis")
	}

	a := p.Analysis
	if err := envelopeError("analysis.error", a.Error); err != nil {
		return nil, err
	}
	switch {
	case a.Meta == nil:
		return nil, missing("analysis.meta")
	case a.NarrativeMode == nil:
		return nil, missing("analysis.narrative_mode")
	case a.EntityAnalysis == nil:
		return nil, missing("analysis.entity_analysis")
	case a.InsiderCritique == nil:
		return nil, missing("analysis.insider_critique")
	}

	meta, err := adaptMeta(a.Meta, opts)
	if err != nil {
		return nil, err
	}
	entities, err := adaptEntities(*a.EntityAnalysis, opts)
	if err != nil {
		return nil, err
	}

	return &Result{
		title:     *p.Title,
		sourceURL: *p.URL,
		content:   *p.Content,
		meta:      meta,
		narrative: NarrativeMode(*a.NarrativeMode),
		entities:  entities,
		critique:  Critique(*a.InsiderCritique),
	}, nil
}

func adaptMeta(m *MetaPayload, opts Options) (Meta, error) {
	switch {
	case m.IsPolitical == nil:
		return Meta{}, missing("analysis.meta.is_political")
	case m.PoliticalSpectrumScore == nil:
		return Meta{}, missing("analysis.meta.political_spectrum_score")
	case m.PoliticalLeaningLabel == nil:
		return Meta{}, missing("analysis.meta.political_leaning_label")
	case m.ClickbaitScore == nil:
		return Meta{}, missing("analysis.meta.clickbait_score")
	case m.ClickbaitVerdict == nil:
		return Meta{}, missing("analysis.meta.clickbait_verdict")
	}

	spectrum, err := checkScore("analysis.meta.political_spectrum_score", *m.PoliticalSpectrumScore, score.Spectrum, opts)
	if err != nil {
		return Meta{}, err
	}
	clickbait, err := checkScore("analysis.meta.clickbait_score", *m.ClickbaitScore, score.Clickbait, opts)
	if err != nil {
		return Meta{}, err
	}

	return Meta{
		IsPolitical:            *m.IsPolitical,
		PoliticalSpectrumScore: spectrum,
		PoliticalLeaningLabel:  *m.PoliticalLeaningLabel,
		ClickbaitScore:         clickbait,
		ClickbaitVerdict:       *m.ClickbaitVerdict,
	}, nil
}

func adaptEntities(in []EntityPayload, opts Options) ([]Entity, error) {
	out := make([]Entity, 0, len(in))
	seen := make(map[string]int, len(in))

	for i, e := range in {
		prefix := fmt.Sprintf("analysis.entity_analysis[%d]", i)
		if e.Name == nil {
			return nil, missing(prefix + ".name")
		}
		if e.AlignmentScore == nil {
			return nil, missing(prefix + ".alignment_score")
		}

		if opts.UniqueEntities {
			if first, dup := seen[*e.Name]; dup {
				return nil, &ValidationError{
					Field:  prefix + ".name",
					Reason: fmt.Sprintf("duplicate entity %q (first at index %d)", *e.Name, first),
				}
			}
			seen[*e.Name] = i
		}

		alignment, err := checkScore(prefix+".alignment_score", *e.AlignmentScore, score.Alignment, opts)
		if err != nil {
			return nil, err
		}

		out = append(out, Entity{
			Name:           *e.Name,
			AlignmentScore: alignment,
			AuthorStance:   e.AuthorStance,
			Analysis:       e.Analysis,
		})
	}
	return out, nil
}

func checkScore(field string, v float64, d score.Domain, opts Options) (float64, error) {
	if d.Contains(v) {
		return v, nil
	}
	if opts.Clamp && !math.IsNaN(v) {
		return d.Clamp(v), nil
	}
	return 0, &ValidationError{Field: field, Value: v, Domain: d}
}

func missing(field string) *SchemaError {
	return &SchemaError{Field: field, Reason: "required field missing"}
}

// envelopeError turns a service {"error": ...} reply into a SchemaError.
// null, false and a blank string mean no error.
func envelopeError(field string, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return &SchemaError{Field: field, Reason: "analysis service error: " + string(raw)}
	}
	var msg string
	switch e := v.(type) {
	case nil:
		return nil
	case bool:
		if !e {
			return nil
		}
		msg = "true"
	case string:
		if strings.TrimSpace(e) == "" {
			return nil
		}
		msg = e
	default:
		msg = string(raw)
	}
	return &SchemaError{Field: field, Reason: "analysis service error: " + msg}
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "(root)"
		}
		return &SchemaError{
			Field:  field,
			Reason: fmt.Sprintf("expected %s, got JSON %s", typeErr.Type, typeErr.Value),
		}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &SchemaError{Reason: fmt.Sprintf("invalid JSON at offset %d: %v", syntaxErr.Offset, err)}
	}
	return &SchemaError{Reason: strings.TrimPrefix(err.Error(), "json: ")}
}
