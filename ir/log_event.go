package ir

import (
	"fmt"
	"time"
)

// LogEvent is one decoded unstructured log record. Instances are immutable
// and fully owned by the caller; advancing the decoder never invalidates an
// event it has already returned.
type LogEvent struct {
	message   string
	timestamp int64
	index     uint64
}

// NewLogEvent creates a log event.
//
// Parameters:
//   - message: the log message text
//   - timestamp: absolute timestamp in milliseconds since the Unix epoch
//   - index: zero-based position of the event within its stream
func NewLogEvent(message string, timestamp int64, index uint64) *LogEvent {
	return &LogEvent{message: message, timestamp: timestamp, index: index}
}

// Message returns the log message text.
func (e *LogEvent) Message() string { return e.message }

// Timestamp returns the absolute event timestamp in ms since the Unix epoch.
func (e *LogEvent) Timestamp() int64 { return e.timestamp }

// Index returns the zero-based index of the event within its stream.
func (e *LogEvent) Index() uint64 { return e.index }

// FormattedMessage renders the event as "<timestamp> <message>" using the
// given timezone rules. A nil location renders in UTC.
func (e *LogEvent) FormattedMessage(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	ts := time.UnixMilli(e.timestamp).In(loc).Format("2006-01-02 15:04:05.000-07:00")

	return fmt.Sprintf("%s %s", ts, e.message)
}
