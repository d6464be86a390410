package score

import (
	"fmt"
	"math"
)

// Domain is a closed interval of valid scores.
type Domain struct {
	Name string
	Min  float64
	Max  float64
}

var (
	// Spectrum is the political spectrum domain.
	Spectrum = Domain{Name: "political spectrum", Min: -10, Max: 10}
	// Clickbait is the clickbait intensity domain.
	Clickbait = Domain{Name: "clickbait", Min: 0, Max: 10}
	// Alignment is the per-entity alignment domain.
	Alignment = Domain{Name: "entity alignment", Min: -10, Max: 10}
)

// Contains reports whether v lies in [Min, Max]. NaN is never contained.
func (d Domain) Contains(v float64) bool {
	return v >= d.Min && v <= d.Max
}

// Check returns an *OutOfRangeError when v is outside the domain.
func (d Domain) Check(v float64) error {
	if d.Contains(v) {
		return nil
	}
	return &OutOfRangeError{Domain: d, Value: v}
}

// Clamp pins v into the domain. NaN clamps to the domain midpoint.
func (d Domain) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return (d.Min + d.Max) / 2
	}
	return math.Max(d.Min, math.Min(d.Max, v))
}

// Span returns Max - Min.
func (d Domain) Span() float64 { return d.Max - d.Min }

func (d Domain) String() string {
	return fmt.Sprintf("%s [%g, %g]", d.Name, d.Min, d.Max)
}

// OutOfRangeError is returned when an encoder or classifier receives a score
// outside its domain. Reaching it means validation upstream was skipped.
type OutOfRangeError struct {
	Domain Domain
	Value  float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("score %g out of range for %s", e.Value, e.Domain)
}
