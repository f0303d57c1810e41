package query

import (
	"math"
	"strings"

	"github.com/gobwas/glob"
)

const (
	// TimestampMin is the smallest legal event timestamp, in ms since epoch.
	TimestampMin int64 = 0
	// TimestampMax is the largest legal event timestamp.
	TimestampMax int64 = math.MaxInt64

	// DefaultSearchTimeTerminationMargin is the default slack, in ms, added
	// past the upper bound before a scan terminates early. Timestamps in an
	// IR stream can be locally disordered by thread contention at the
	// producer, so terminating exactly at the upper bound could miss events.
	DefaultSearchTimeTerminationMargin int64 = 60 * 1000
)

// Query is an immutable filter over decoded log events: an inclusive
// timestamp range, a termination timestamp for early scan cut-off, and an
// optional OR'd list of wildcard queries. An empty wildcard list matches any
// message. Construct instances with a Builder; the zero value is not valid.
type Query struct {
	lowerBound    int64
	upperBound    int64
	terminationTs int64
	wildcards     []WildcardQuery
	matchers      []glob.Glob
}

// MatchAll returns a query that matches every event: the full timestamp
// domain and no wildcard queries.
func MatchAll() *Query {
	return &Query{
		lowerBound:    TimestampMin,
		upperBound:    TimestampMax,
		terminationTs: TimestampMax,
	}
}

// LowerBound returns the inclusive start of the search time range.
func (q *Query) LowerBound() int64 { return q.lowerBound }

// UpperBound returns the inclusive end of the search time range.
func (q *Query) UpperBound() int64 { return q.upperBound }

// TerminationMargin returns the margin between the upper bound and the
// timestamp at which scanning terminates.
func (q *Query) TerminationMargin() int64 { return q.terminationTs - q.upperBound }

// WildcardQueries returns a copy of the wildcard query list.
func (q *Query) WildcardQueries() []WildcardQuery {
	out := make([]WildcardQuery, len(q.wildcards))
	copy(out, q.wildcards)

	return out
}

// TimeInRange reports whether ts falls inside the inclusive search range.
func (q *Query) TimeInRange(ts int64) bool {
	return q.lowerBound <= ts && ts <= q.upperBound
}

// SafelyOutsideTimeRange reports whether ts is far enough past the upper
// bound that no further match can appear in a timestamp-ascending scan.
func (q *Query) SafelyOutsideTimeRange(ts int64) bool {
	return ts > q.terminationTs
}

// MatchesMessage reports whether the message matches the wildcard list: true
// when the list is empty, otherwise true if at least one pattern matches.
func (q *Query) MatchesMessage(message string) bool {
	if len(q.matchers) == 0 {
		return true
	}
	lowered := ""
	for i, m := range q.matchers {
		text := message
		if !q.wildcards[i].caseSensitive {
			if lowered == "" {
				lowered = strings.ToLower(message)
			}
			text = lowered
		}
		if m.Match(text) {
			return true
		}
	}

	return false
}

// Matches reports whether an event with the given timestamp and message
// satisfies the query: timestamp in range and message matching the wildcard
// list.
func (q *Query) Matches(ts int64, message string) bool {
	return q.TimeInRange(ts) && q.MatchesMessage(message)
}
