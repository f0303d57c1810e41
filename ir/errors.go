package ir

import "errors"

// Error taxonomy shared by every decode surface in this module.
//
// Wrapped values are matched with errors.Is; decode errors always carry
// positional or tag context around these sentinels.
var (
	// ErrCorruptStream indicates malformed framing or an unrecognized tag.
	// The stream is unusable from that point forward and no further decode
	// calls should be issued against it.
	ErrCorruptStream = errors.New("corrupt IR stream")

	// ErrIncompleteStream indicates the stream ended mid-record before the
	// end-of-stream marker. Callers that opt into incomplete-stream tolerance
	// observe a clean end of stream instead of this error.
	ErrIncompleteStream = errors.New("incomplete IR stream")

	// ErrInvalidInput indicates the caller passed invalid arguments, such as
	// a negative skip count or a non-map msgpack payload. It is never retried
	// internally.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTimezone indicates the stream's timezone identifier could not
	// be resolved to timezone rules.
	ErrInvalidTimezone = errors.New("invalid timezone id")

	// ErrTextDecode indicates string bytes could not be decoded under the
	// requested text encoding with the strict error policy.
	ErrTextDecode = errors.New("text decode failure")
)
