// Package gauge turns bounded scores into presentation parameters: pointer
// positions, needle angles and color ramps. Nothing here draws; any renderer
// can replay the same stop sequence with its own primitives.
package gauge

import (
	"fmt"
	"strconv"

	"github.com/elonfeng/lens/pkg/score"
)

// Kind identifies one of the three gauges.
type Kind string

const (
	KindClickbait Kind = "clickbait"
	KindAlignment Kind = "entity_alignment"
	KindPolitical Kind = "political_spectrum"
)

// Linear is a pointer on a straight ramp. Percentage runs 0..100 from the
// ramp start (bottom for clickbait, left for alignment).
type Linear struct {
	Kind       Kind    `json:"kind"`
	Percentage float64 `json:"percentage_position"`
	Stops      []Stop  `json:"gradient_stops"`
}

// Radial is a needle over a 180 degree arc. Rotation is measured from
// vertical: -90 points at the left end, +90 at the right end.
type Radial struct {
	NeedleRotation float64 `json:"needle_rotation_degrees"`
	Offset         float64 `json:"conic_offset"`
	NeedleColor    string  `json:"needle_color"`
	Stops          []Stop  `json:"gradient_stops"`
}

// Clickbait encodes a clickbait score on the vertical gauge.
func Clickbait(s float64) (Linear, error) {
	if err := score.Clickbait.Check(s); err != nil {
		return Linear{}, err
	}
	return Linear{
		Kind:       KindClickbait,
		Percentage: (s / 10) * 100,
		Stops:      ClickbaitStops(),
	}, nil
}

// Alignment encodes an entity alignment score on the horizontal bar.
func Alignment(s float64) (Linear, error) {
	if err := score.Alignment.Check(s); err != nil {
		return Linear{}, err
	}
	return Linear{
		Kind:       KindAlignment,
		Percentage: ((s + 10) / 20) * 100,
		Stops:      AlignmentStops(),
	}, nil
}

// Political encodes a spectrum score on the radial gauge.
func Political(s float64) (Radial, error) {
	if err := score.Spectrum.Check(s); err != nil {
		return Radial{}, err
	}
	stops := PoliticalStops()
	offset := ConicOffset(s)
	return Radial{
		NeedleRotation: (s / 10) * 90,
		Offset:         offset,
		NeedleColor:    ColorAt(stops, offset),
		Stops:          stops,
	}, nil
}

// ConicOffset maps a spectrum score onto the visible half of the conic ramp:
// -10 -> 0, 0 -> 0.25, +10 -> 0.5. The caller validates s.
func ConicOffset(s float64) float64 {
	return (s + 10) / 40
}

// Encoding is the kind-tagged result of Encode. Exactly one of Linear or
// Radial is set.
type Encoding struct {
	Kind   Kind    `json:"kind"`
	Linear *Linear `json:"linear,omitempty"`
	Radial *Radial `json:"radial,omitempty"`
}

var encoders = map[Kind]func(float64) (Encoding, error){
	KindClickbait: func(s float64) (Encoding, error) {
		l, err := Clickbait(s)
		if err != nil {
			return Encoding{}, err
		}
		return Encoding{Kind: KindClickbait, Linear: &l}, nil
	},
	KindAlignment: func(s float64) (Encoding, error) {
		l, err := Alignment(s)
		if err != nil {
			return Encoding{}, err
		}
		return Encoding{Kind: KindAlignment, Linear: &l}, nil
	},
	KindPolitical: func(s float64) (Encoding, error) {
		r, err := Political(s)
		if err != nil {
			return Encoding{}, err
		}
		return Encoding{Kind: KindPolitical, Radial: &r}, nil
	},
}

// Encode dispatches s to the encoder for kind.
func Encode(kind Kind, s float64) (Encoding, error) {
	enc, ok := encoders[kind]
	if !ok {
		return Encoding{}, fmt.Errorf("unknown gauge kind %q", kind)
	}
	return enc(s)
}

// Kinds lists the supported gauge kinds.
func Kinds() []Kind {
	return []Kind{KindPolitical, KindClickbait, KindAlignment}
}

// SignedScore formats a spectrum score the way the gauge prints it: "+3", "0", "-4.5".
func SignedScore(s float64) string {
	v := strconv.FormatFloat(s, 'f', -1, 64)
	if s > 0 {
		return "+" + v
	}
	return v
}

// NeutralScoreColor tints the score text when the spectrum score is exactly 0.
const NeutralScoreColor = "#B8E7FF"

// ScoreColor returns the text color for a spectrum score.
func ScoreColor(s float64) string {
	if s == 0 {
		return NeutralScoreColor
	}
	return "#FFFFFF"
}

// Tone groups a score into a coarse visual register for pills and badges.
type Tone string

const (
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"
	TonePositive Tone = "positive"
	ToneAlarming Tone = "alarming"
	ToneCalm     Tone = "calm"
)

// StanceTone colors an entity's stance pill: below -3 negative, above 3 positive.
func StanceTone(alignment float64) Tone {
	switch {
	case alignment < -3:
		return ToneNegative
	case alignment > 3:
		return TonePositive
	default:
		return ToneNeutral
	}
}

// VerdictTone colors the clickbait verdict pill: above 5 is alarming.
func VerdictTone(clickbait float64) Tone {
	if clickbait > 5 {
		return ToneAlarming
	}
	return ToneCalm
}
