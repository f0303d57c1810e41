package fourbyte

import (
	"errors"
	"fmt"

	"github.com/arloliu/logir/cursor"
	"github.com/arloliu/logir/encoding"
	"github.com/arloliu/logir/endian"
	"github.com/arloliu/logir/format"
	"github.com/arloliu/logir/ir"
	"github.com/arloliu/logir/query"
)

// DeserializerOption configures a Deserializer.
type DeserializerOption func(*Deserializer)

// WithAllowIncompleteStream makes a stream that ends without the
// end-of-stream marker report a clean end instead of ir.ErrIncompleteStream.
func WithAllowIncompleteStream(allow bool) DeserializerOption {
	return func(d *Deserializer) {
		d.allowIncomplete = allow
	}
}

// Deserializer incrementally decodes an unstructured IR stream.
//
// Input arrives through a cursor.Cursor; records that arrive fragmented are
// retried after a refill, so callers can feed the deserializer from sockets
// or chunked reads without framing the input themselves.
type Deserializer struct {
	cur    *cursor.Cursor
	engine endian.EndianEngine

	metadata *ir.Metadata
	prevTs   int64
	index    uint64
	decoded  uint64

	allowIncomplete bool
	done            bool
}

// NewDeserializer creates a Deserializer reading from cur.
func NewDeserializer(cur *cursor.Cursor, opts ...DeserializerOption) *Deserializer {
	d := &Deserializer{
		cur:    cur,
		engine: endian.GetLittleEndianEngine(),
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Metadata returns the stream metadata, or nil before DeserializePreamble
// succeeds.
func (d *Deserializer) Metadata() *ir.Metadata {
	return d.metadata
}

// HasMetadata reports whether the preamble has been decoded.
func (d *Deserializer) HasMetadata() bool {
	return d.metadata != nil
}

// EventsDecoded returns the number of events fully decoded so far, counting
// events a query filtered out.
func (d *Deserializer) EventsDecoded() uint64 {
	return d.decoded
}

// DeserializePreamble decodes the stream preamble and seeds the timestamp
// chain. It must be called once, before any event is read.
func (d *Deserializer) DeserializePreamble() (*ir.Metadata, error) {
	if d.metadata != nil {
		return nil, fmt.Errorf("%w: preamble already deserialized", ir.ErrInvalidInput)
	}

	for {
		meta, consumed, err := d.tryDecodePreamble()
		if err == nil {
			d.cur.Consume(consumed)
			d.metadata = meta
			d.prevTs = meta.ReferenceTimestamp()

			return meta, nil
		}
		if !errors.Is(err, encoding.ErrShortBuffer) {
			return nil, err
		}
		if fillErr := d.cur.Fill(); fillErr != nil {
			if errors.Is(fillErr, cursor.ErrInsufficientData) {
				return nil, fmt.Errorf("%w: truncated preamble", ir.ErrIncompleteStream)
			}

			return nil, fillErr
		}
	}
}

func (d *Deserializer) tryDecodePreamble() (*ir.Metadata, int, error) {
	data := d.cur.Unread()
	if len(data) < 1 {
		return nil, 0, encoding.ErrShortBuffer
	}
	if format.Tag(data[0]) != format.TagStreamFourByte {
		return nil, 0, fmt.Errorf("%w: unexpected stream tag 0x%02x", ir.ErrCorruptStream, data[0])
	}
	pos := 1

	tsFormat, n, err := encoding.DecodeString(data[pos:], d.engine)
	if err != nil {
		return nil, 0, corruptOrShort(err, "timestamp format")
	}
	pos += n

	tzID, n, err := encoding.DecodeString(data[pos:], d.engine)
	if err != nil {
		return nil, 0, corruptOrShort(err, "timezone id")
	}
	pos += n

	refTs, n, err := encoding.DecodeInt(data[pos:], d.engine)
	if err != nil {
		return nil, 0, corruptOrShort(err, "reference timestamp")
	}
	pos += n

	return ir.NewMetadata(refTs, tsFormat, tzID), pos, nil
}

// NextLogEvent decodes the next event matching q. Events a query rejects
// still advance the timestamp chain, index, and decoded counter. A nil query
// matches everything.
//
// It returns (nil, nil) at a clean end of stream, and also when q's
// termination timestamp proves no further event can match.
func (d *Deserializer) NextLogEvent(q *query.Query) (*ir.LogEvent, error) {
	if d.metadata == nil {
		return nil, fmt.Errorf("%w: preamble not deserialized yet", ir.ErrInvalidInput)
	}

	for !d.done {
		event, err := d.decodeOne()
		if err != nil {
			return nil, err
		}
		if event == nil {
			break
		}
		if q == nil || q.Matches(event.Timestamp(), event.Message()) {
			return event, nil
		}
		if q.SafelyOutsideTimeRange(event.Timestamp()) {
			return nil, nil
		}
	}

	return nil, nil
}

// SkipNextN skips up to n events without query evaluation and returns how
// many were actually skipped. Skipped events still advance the timestamp
// chain and decoded counter.
func (d *Deserializer) SkipNextN(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative skip count %d", ir.ErrInvalidInput, n)
	}
	if d.metadata == nil {
		return 0, fmt.Errorf("%w: preamble not deserialized yet", ir.ErrInvalidInput)
	}

	skipped := 0
	for skipped < n && !d.done {
		event, err := d.decodeOne()
		if err != nil {
			return skipped, err
		}
		if event == nil {
			break
		}
		skipped++
	}

	return skipped, nil
}

// decodeOne decodes one complete event, retrying after refills until the
// record is whole. It returns (nil, nil) at end of stream.
func (d *Deserializer) decodeOne() (*ir.LogEvent, error) {
	for {
		event, consumed, err := d.tryDecodeEvent()
		if err == nil {
			d.cur.Consume(consumed)
			if event == nil {
				d.done = true

				return nil, nil
			}
			d.decoded++

			return event, nil
		}
		if !errors.Is(err, encoding.ErrShortBuffer) {
			return nil, err
		}
		if fillErr := d.cur.Fill(); fillErr != nil {
			if errors.Is(fillErr, cursor.ErrInsufficientData) {
				if d.allowIncomplete && d.cur.Exhausted() {
					d.done = true

					return nil, nil
				}

				return nil, fmt.Errorf("%w: stream ended mid-event", ir.ErrIncompleteStream)
			}

			return nil, fillErr
		}
	}
}

// tryDecodeEvent decodes one event from the cursor's unread window without
// consuming it. A nil event with nil error means the end-of-stream marker.
func (d *Deserializer) tryDecodeEvent() (*ir.LogEvent, int, error) {
	data := d.cur.Unread()
	if len(data) < 1 {
		return nil, 0, encoding.ErrShortBuffer
	}
	if format.Tag(data[0]) == format.TagEndOfStream {
		return nil, 1, nil
	}

	message, n, err := encoding.DecodeString(data, d.engine)
	if err != nil {
		return nil, 0, corruptOrShort(err, "message")
	}
	pos := n

	delta, n, err := encoding.DecodeInt(data[pos:], d.engine)
	if err != nil {
		return nil, 0, corruptOrShort(err, "timestamp delta")
	}
	pos += n

	timestamp := d.prevTs + delta
	event := ir.NewLogEvent(message, timestamp, d.index)
	d.prevTs = timestamp
	d.index++

	return event, pos, nil
}

func corruptOrShort(err error, what string) error {
	if errors.Is(err, encoding.ErrShortBuffer) {
		return err
	}

	return fmt.Errorf("%w: %s: %v", ir.ErrCorruptStream, what, err)
}
