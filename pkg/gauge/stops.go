package gauge

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Stop is one point on a color ramp.
type Stop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// ConicStartRadians is the conic gradient start angle: 9 o'clock.
const ConicStartRadians = math.Pi

var (
	clickbaitStops = mustStops(1, []Stop{
		{0, "#ffffff"},
		{0.3, "#ffcccc"},
		{0.7, "#ff0000"},
		{1, "#8b0000"},
	})

	alignmentStops = mustStops(1, []Stop{
		{0, "#4c1d95"},
		{0.5, "#ffffff"},
		{1, "#facc15"},
	})

	// Only [0, 0.5] of the conic sweep is visible: the upper half circle.
	politicalStops = mustStops(0.5, []Stop{
		{0, "#066020"},
		{0.0375, "#066020"},
		{0.1, "#099030"},
		{0.175, "#3EC20A"},
		{0.225, "#55F316"},
		{0.25, "#FFFFFF"},
		{0.3, "#6DE9D0"},
		{0.355, "#4710E0"},
		{0.4, "#4710E0"},
		{0.45, "#D817B5"},
		{0.48, "#BF121D"},
		{0.5, "#BF121D"},
	})
)

// ClickbaitStops returns the vertical clickbait ramp, bottom to top.
func ClickbaitStops() []Stop { return slices.Clone(clickbaitStops) }

// AlignmentStops returns the horizontal entity ramp, left to right.
func AlignmentStops() []Stop { return slices.Clone(alignmentStops) }

// PoliticalStops returns the conic spectrum ramp.
func PoliticalStops() []Stop { return slices.Clone(politicalStops) }

// ValidateStops checks that stops start at 0, end at end, and never decrease.
func ValidateStops(stops []Stop, end float64) error {
	if len(stops) < 2 {
		return fmt.Errorf("need at least 2 stops, got %d", len(stops))
	}
	if stops[0].Offset != 0 {
		return fmt.Errorf("first stop at %g, want 0", stops[0].Offset)
	}
	if last := stops[len(stops)-1].Offset; last != end {
		return fmt.Errorf("last stop at %g, want %g", last, end)
	}
	for i, s := range stops {
		if s.Offset < 0 || s.Offset > 1 {
			return fmt.Errorf("stop %d offset %g outside [0,1]", i, s.Offset)
		}
		if _, err := colorful.Hex(s.Color); err != nil {
			return fmt.Errorf("stop %d color %q: %w", i, s.Color, err)
		}
		if i > 0 && s.Offset < stops[i-1].Offset {
			return fmt.Errorf("stop %d offset %g decreases from %g", i, s.Offset, stops[i-1].Offset)
		}
	}
	return nil
}

func mustStops(end float64, stops []Stop) []Stop {
	if err := ValidateStops(stops, end); err != nil {
		panic(fmt.Sprintf("gauge: invalid stop table: %v", err))
	}
	return stops
}

// ColorAt returns the interpolated color at offset. Offsets before the first
// stop or after the last stop take the edge color. Exact hits on a stop return
// that stop's color unchanged.
func ColorAt(stops []Stop, offset float64) string {
	if len(stops) == 0 {
		return ""
	}
	if offset <= stops[0].Offset {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if offset == b.Offset {
			return b.Color
		}
		if offset > b.Offset {
			continue
		}
		span := b.Offset - a.Offset
		if span == 0 {
			return b.Color
		}
		return mix(a.Color, b.Color, (offset-a.Offset)/span)
	}
	return stops[len(stops)-1].Color
}

// CSSLinear renders stops as a CSS linear-gradient toward direction.
func CSSLinear(direction string, stops []Stop) string {
	parts := make([]string, 0, len(stops)+1)
	parts = append(parts, direction)
	for _, s := range stops {
		parts = append(parts, fmt.Sprintf("%s %s%%", s.Color, trimFloat(s.Offset*100)))
	}
	return "linear-gradient(" + strings.Join(parts, ", ") + ")"
}

// CSSConic renders stops as a CSS conic-gradient starting at 9 o'clock.
func CSSConic(stops []Stop) string {
	parts := make([]string, 0, len(stops)+1)
	parts = append(parts, "from 270deg")
	for _, s := range stops {
		parts = append(parts, fmt.Sprintf("%s %sturn", s.Color, trimFloat(s.Offset)))
	}
	return "conic-gradient(" + strings.Join(parts, ", ") + ")"
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// mix blends two stop colors in RGB. Stops are validated at init, so a parse
// failure only happens for caller-built lists; the far color wins then.
func mix(from, to string, t float64) string {
	a, errA := colorful.Hex(from)
	b, errB := colorful.Hex(to)
	if errA != nil || errB != nil {
		return to
	}
	return a.BlendRgb(b, t).Hex()
}
