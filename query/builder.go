package query

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/arloliu/logir/ir"
)

// Builder assembles a Query incrementally. Setters return the builder for
// chaining; Build validates the time range and produces an immutable Query.
//
// Defaults: the full timestamp domain and
// DefaultSearchTimeTerminationMargin. The margin is applied with saturation,
// so with the default (unbounded) upper bound the termination timestamp
// clamps to TimestampMax and early termination is effectively disabled.
type Builder struct {
	lowerBound int64
	upperBound int64
	margin     int64
	wildcards  []WildcardQuery
}

// NewBuilder creates a Builder with all settings at their defaults.
func NewBuilder() *Builder {
	b := &Builder{}

	return b.Reset()
}

// SearchTimeLowerBound returns the configured lower bound.
func (b *Builder) SearchTimeLowerBound() int64 { return b.lowerBound }

// SearchTimeUpperBound returns the configured upper bound.
func (b *Builder) SearchTimeUpperBound() int64 { return b.upperBound }

// SearchTimeTerminationMargin returns the configured termination margin.
func (b *Builder) SearchTimeTerminationMargin() int64 { return b.margin }

// WildcardQueries returns a copy of the accumulated wildcard query list.
// Mutating the returned slice does not affect the builder.
func (b *Builder) WildcardQueries() []WildcardQuery {
	out := make([]WildcardQuery, len(b.wildcards))
	copy(out, b.wildcards)

	return out
}

// SetSearchTimeLowerBound sets the inclusive start of the search time range
// in ms since the Unix epoch.
func (b *Builder) SetSearchTimeLowerBound(ts int64) *Builder {
	b.lowerBound = ts
	return b
}

// SetSearchTimeUpperBound sets the inclusive end of the search time range in
// ms since the Unix epoch.
func (b *Builder) SetSearchTimeUpperBound(ts int64) *Builder {
	b.upperBound = ts
	return b
}

// SetSearchTimeTerminationMargin sets the early-termination margin in ms.
func (b *Builder) SetSearchTimeTerminationMargin(margin int64) *Builder {
	b.margin = margin
	return b
}

// AddWildcardQuery appends one wildcard query to the list.
func (b *Builder) AddWildcardQuery(wq WildcardQuery) *Builder {
	b.wildcards = append(b.wildcards, wq)
	return b
}

// AddWildcardQueries appends a list of wildcard queries.
func (b *Builder) AddWildcardQueries(wqs []WildcardQuery) *Builder {
	b.wildcards = append(b.wildcards, wqs...)
	return b
}

// ResetSearchTimeLowerBound restores the default lower bound.
func (b *Builder) ResetSearchTimeLowerBound() *Builder {
	b.lowerBound = TimestampMin
	return b
}

// ResetSearchTimeUpperBound restores the default upper bound.
func (b *Builder) ResetSearchTimeUpperBound() *Builder {
	b.upperBound = TimestampMax
	return b
}

// ResetSearchTimeTerminationMargin restores the default termination margin.
func (b *Builder) ResetSearchTimeTerminationMargin() *Builder {
	b.margin = DefaultSearchTimeTerminationMargin
	return b
}

// ResetWildcardQueries clears the wildcard query list.
func (b *Builder) ResetWildcardQueries() *Builder {
	b.wildcards = nil
	return b
}

// Reset restores every setting to its default.
func (b *Builder) Reset() *Builder {
	return b.ResetWildcardQueries().
		ResetSearchTimeTerminationMargin().
		ResetSearchTimeUpperBound().
		ResetSearchTimeLowerBound()
}

// Build produces the Query. It fails with ir.ErrInvalidInput when the lower
// bound exceeds the upper bound. Wildcard matchers are compiled here so a
// built Query never fails at match time.
func (b *Builder) Build() (*Query, error) {
	if b.lowerBound > b.upperBound {
		return nil, fmt.Errorf(
			"%w: search time lower bound %d exceeds upper bound %d",
			ir.ErrInvalidInput, b.lowerBound, b.upperBound,
		)
	}

	// Saturating add: an unbounded upper bound keeps the termination
	// timestamp at TimestampMax, which disables early termination.
	terminationTs := b.upperBound + b.margin
	if b.margin > 0 && b.upperBound > TimestampMax-b.margin {
		terminationTs = TimestampMax
	}

	wildcards := make([]WildcardQuery, len(b.wildcards))
	copy(wildcards, b.wildcards)
	matchers := make([]glob.Glob, len(wildcards))
	for i, wq := range wildcards {
		m, err := wq.matcher()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ir.ErrInvalidInput, err)
		}
		matchers[i] = m
	}

	return &Query{
		lowerBound:    b.lowerBound,
		upperBound:    b.upperBound,
		terminationTs: terminationTs,
		wildcards:     wildcards,
		matchers:      matchers,
	}, nil
}
