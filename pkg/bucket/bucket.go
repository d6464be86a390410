package bucket

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/elonfeng/lens/pkg/score"
)

// Bucket is a labeled sub-range of a score domain. Both bounds are inclusive.
type Bucket struct {
	LowerBound  float64  `json:"lower_bound"`
	UpperBound  float64  `json:"upper_bound"`
	Range       string   `json:"range"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
	Color       string   `json:"color"`
}

// Contains reports whether v falls inside the bucket bounds.
func (b Bucket) Contains(v float64) bool {
	return v >= b.LowerBound && v <= b.UpperBound
}

func (b Bucket) clone() Bucket {
	b.Examples = slices.Clone(b.Examples)
	return b
}

// Table is an ordered, contiguous partition of a score domain.
type Table struct {
	name    string
	domain  score.Domain
	buckets []Bucket
}

// TableInvariantError reports a malformed bucket table at construction time.
type TableInvariantError struct {
	Table  string
	Index  int
	Reason string
}

func (e *TableInvariantError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("bucket table %s: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("bucket table %s: bucket %d: %s", e.Table, e.Index, e.Reason)
}

// NewTable validates buckets against the domain and returns an immutable table.
// Buckets must be sorted, start at domain.Min, end at domain.Max, and leave no
// gap or overlap: the next representable float after one upper bound is the
// following lower bound.
func NewTable(name string, domain score.Domain, buckets []Bucket) (*Table, error) {
	if len(buckets) == 0 {
		return nil, &TableInvariantError{Table: name, Index: -1, Reason: "no buckets"}
	}
	if buckets[0].LowerBound != domain.Min {
		return nil, &TableInvariantError{Table: name, Index: 0,
			Reason: fmt.Sprintf("lower bound %g does not start domain at %g", buckets[0].LowerBound, domain.Min)}
	}
	last := len(buckets) - 1
	if buckets[last].UpperBound != domain.Max {
		return nil, &TableInvariantError{Table: name, Index: last,
			Reason: fmt.Sprintf("upper bound %g does not end domain at %g", buckets[last].UpperBound, domain.Max)}
	}

	for i, b := range buckets {
		if math.IsNaN(b.LowerBound) || math.IsNaN(b.UpperBound) || b.LowerBound > b.UpperBound {
			return nil, &TableInvariantError{Table: name, Index: i,
				Reason: fmt.Sprintf("invalid bounds [%g, %g]", b.LowerBound, b.UpperBound)}
		}
		if b.Label == "" {
			return nil, &TableInvariantError{Table: name, Index: i, Reason: "empty label"}
		}
		if i == 0 {
			continue
		}
		next := math.Nextafter(buckets[i-1].UpperBound, math.Inf(1))
		switch {
		case b.LowerBound > next:
			return nil, &TableInvariantError{Table: name, Index: i,
				Reason: fmt.Sprintf("gap between %g and %g", buckets[i-1].UpperBound, b.LowerBound)}
		case b.LowerBound < next:
			return nil, &TableInvariantError{Table: name, Index: i,
				Reason: fmt.Sprintf("overlaps previous bucket at %g", b.LowerBound)}
		}
	}

	out := make([]Bucket, len(buckets))
	for i, b := range buckets {
		out[i] = b.clone()
	}
	return &Table{name: name, domain: domain, buckets: out}, nil
}

// MustTable is NewTable for package-level literals. It panics on a malformed table.
func MustTable(name string, domain score.Domain, buckets []Bucket) *Table {
	t, err := NewTable(name, domain, buckets)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Domain returns the score domain partitioned by the table.
func (t *Table) Domain() score.Domain { return t.domain }

// Len returns the number of buckets.
func (t *Table) Len() int { return len(t.buckets) }

// Buckets returns a copy of the buckets in order.
func (t *Table) Buckets() []Bucket {
	out := make([]Bucket, len(t.buckets))
	for i, b := range t.buckets {
		out[i] = b.clone()
	}
	return out
}

// Classify returns the single bucket containing s.
func (t *Table) Classify(s float64) (Bucket, error) {
	if err := t.domain.Check(s); err != nil {
		return Bucket{}, err
	}
	i := sort.Search(len(t.buckets), func(i int) bool {
		return t.buckets[i].UpperBound >= s
	})
	if i == len(t.buckets) || !t.buckets[i].Contains(s) {
		return Bucket{}, &score.OutOfRangeError{Domain: t.domain, Value: s}
	}
	return t.buckets[i].clone(), nil
}

// Classify maps s into a bucket of t.
func Classify(s float64, t *Table) (Bucket, error) {
	return t.Classify(s)
}
