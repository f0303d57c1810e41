// Package ir defines the decoded data model of the logir streams: stream
// metadata, unstructured log events, structured key-value log events, and
// the error taxonomy shared by the codecs.
package ir

import (
	"fmt"
	"time"
)

// Metadata is the immutable per-stream record decoded from an unstructured
// stream preamble. It seeds timestamp reconstruction and carries the display
// hints for rendering events.
type Metadata struct {
	refTimestamp    int64
	timestampFormat string
	timezoneID      string

	// Resolved lazily from timezoneID and cached. Timezone rule objects are
	// shared read-only; identity of the cached value is an optimization, not
	// a correctness requirement.
	location *time.Location
}

// NewMetadata creates stream metadata.
//
// Parameters:
//   - refTimestamp: reference timestamp in milliseconds since the Unix epoch;
//     the first event's delta is applied against it
//   - timestampFormat: display format hint carried verbatim from the stream
//   - timezoneID: IANA timezone identifier, resolved on first use
func NewMetadata(refTimestamp int64, timestampFormat, timezoneID string) *Metadata {
	return &Metadata{
		refTimestamp:    refTimestamp,
		timestampFormat: timestampFormat,
		timezoneID:      timezoneID,
	}
}

// ReferenceTimestamp returns the stream's reference timestamp in ms.
func (m *Metadata) ReferenceTimestamp() int64 { return m.refTimestamp }

// TimestampFormat returns the stream's display format string. It is never
// reparsed by this module.
func (m *Metadata) TimestampFormat() string { return m.timestampFormat }

// TimezoneID returns the stream's IANA timezone identifier.
func (m *Metadata) TimezoneID() string { return m.timezoneID }

// Timezone resolves the stream's timezone id to location rules, caching the
// result. An empty id resolves to UTC. Unknown ids fail with
// ErrInvalidTimezone.
func (m *Metadata) Timezone() (*time.Location, error) {
	if m.location != nil {
		return m.location, nil
	}
	if m.timezoneID == "" {
		m.location = time.UTC
		return m.location, nil
	}
	loc, err := time.LoadLocation(m.timezoneID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, m.timezoneID)
	}
	m.location = loc

	return loc, nil
}

// FormatTimestamp renders a millisecond epoch timestamp in the stream's
// timezone as an ISO-8601 string with millisecond precision.
func (m *Metadata) FormatTimestamp(ts int64) (string, error) {
	loc, err := m.Timezone()
	if err != nil {
		return "", err
	}

	return time.UnixMilli(ts).In(loc).Format("2006-01-02 15:04:05.000-07:00"), nil
}
