package keyvalue

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/arloliu/logir/cursor"
	"github.com/arloliu/logir/encoding"
	"github.com/arloliu/logir/endian"
	"github.com/arloliu/logir/format"
	"github.com/arloliu/logir/ir"
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

// Deserializer incrementally decodes a key-value IR stream through a
// cursor.Cursor. Frames that arrive fragmented are retried after a refill.
type Deserializer struct {
	cur    *cursor.Cursor
	engine endian.EndianEngine

	metadata map[string]any
	decoded  uint64

	allowIncomplete bool
	headerDone      bool
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

// UserDefinedMetadata returns the metadata map from the stream header, or nil
// before DeserializeHeader succeeds.
func (d *Deserializer) UserDefinedMetadata() map[string]any {
	return d.metadata
}

// EventsDecoded returns the number of events fully decoded so far.
func (d *Deserializer) EventsDecoded() uint64 {
	return d.decoded
}

// DeserializeHeader decodes the stream header and returns the user-defined
// metadata map. It must be called once, before any event is read.
func (d *Deserializer) DeserializeHeader() (map[string]any, error) {
	if d.headerDone {
		return nil, fmt.Errorf("%w: header already deserialized", ir.ErrInvalidInput)
	}

	for {
		metadata, consumed, err := d.tryDecodeHeader()
		if err == nil {
			d.cur.Consume(consumed)
			d.metadata = metadata
			d.headerDone = true

			return metadata, nil
		}
		if !errors.Is(err, encoding.ErrShortBuffer) {
			return nil, err
		}
		if fillErr := d.fill("truncated stream header"); fillErr != nil {
			return nil, fillErr
		}
	}
}

func (d *Deserializer) tryDecodeHeader() (map[string]any, int, error) {
	data := d.cur.Unread()
	if len(data) < 2 {
		return nil, 0, encoding.ErrShortBuffer
	}
	if format.Tag(data[0]) != format.TagStreamKeyValue {
		return nil, 0, fmt.Errorf("%w: unexpected stream tag 0x%02x", ir.ErrCorruptStream, data[0])
	}
	if format.Tag(data[1]) != format.TagKVMetadata {
		return nil, 0, fmt.Errorf("%w: unexpected metadata tag 0x%02x", ir.ErrCorruptStream, data[1])
	}
	pos := 2

	payload, n, err := d.decodePayload(data[pos:])
	if err != nil {
		return nil, 0, err
	}
	pos += n

	var metadata map[string]any
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	dec.UseLooseInterfaceDecoding(true)
	if metadata, err = dec.DecodeMap(); err != nil {
		return nil, 0, fmt.Errorf("%w: stream metadata: %v", ir.ErrCorruptStream, err)
	}

	return metadata, pos, nil
}

// DeserializeLogEvent decodes the next event. It returns (nil, nil) at a
// clean end of stream.
func (d *Deserializer) DeserializeLogEvent() (*ir.KeyValuePairLogEvent, error) {
	if !d.headerDone {
		return nil, fmt.Errorf("%w: header not deserialized yet", ir.ErrInvalidInput)
	}
	if d.done {
		return nil, nil
	}

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
		if fillErr := d.fill("stream ended mid-event"); fillErr != nil {
			if d.allowIncomplete && errors.Is(fillErr, ir.ErrIncompleteStream) {
				d.done = true

				return nil, nil
			}

			return nil, fillErr
		}
	}
}

// tryDecodeEvent decodes one frame from the cursor's unread window without
// consuming it. A nil event with nil error means the end-of-stream marker.
func (d *Deserializer) tryDecodeEvent() (*ir.KeyValuePairLogEvent, int, error) {
	data := d.cur.Unread()
	if len(data) < 1 {
		return nil, 0, encoding.ErrShortBuffer
	}

	tag := format.Tag(data[0])
	pos := 1
	switch tag {
	case format.TagEndOfStream:
		return nil, pos, nil
	case format.TagKVEventUser:
		userGen, n, err := d.decodePayload(data[pos:])
		if err != nil {
			return nil, 0, err
		}
		pos += n

		return ir.NewKeyValuePairLogEvent(nil, userGen), pos, nil
	case format.TagKVEventPair:
		autoGen, n, err := d.decodePayload(data[pos:])
		if err != nil {
			return nil, 0, err
		}
		pos += n
		userGen, n, err := d.decodePayload(data[pos:])
		if err != nil {
			return nil, 0, err
		}
		pos += n

		return ir.NewKeyValuePairLogEvent(autoGen, userGen), pos, nil
	default:
		return nil, 0, fmt.Errorf("%w: unexpected frame tag 0x%02x", ir.ErrCorruptStream, data[0])
	}
}

// decodePayload decodes one length-prefixed msgpack payload and validates the
// map marker. The returned slice aliases the cursor's buffer; callers must
// copy before the next cursor operation, which ir.NewKeyValuePairLogEvent
// does.
func (d *Deserializer) decodePayload(data []byte) ([]byte, int, error) {
	length, n, err := encoding.DecodeInt(data, d.engine)
	if err != nil {
		if errors.Is(err, encoding.ErrShortBuffer) {
			return nil, 0, err
		}

		return nil, 0, fmt.Errorf("%w: payload length: %v", ir.ErrCorruptStream, err)
	}
	if length <= 0 {
		return nil, 0, fmt.Errorf("%w: non-positive payload length %d", ir.ErrCorruptStream, length)
	}
	if int64(len(data)-n) < length {
		return nil, 0, encoding.ErrShortBuffer
	}
	payload := data[n : n+int(length)]
	if err := validateMsgpackMap(payload, "frame"); err != nil {
		return nil, 0, fmt.Errorf("%w: frame payload is not a msgpack map", ir.ErrCorruptStream)
	}

	return payload, n + int(length), nil
}

// fill refills the cursor, mapping source exhaustion to ErrIncompleteStream.
func (d *Deserializer) fill(what string) error {
	if err := d.cur.Fill(); err != nil {
		if errors.Is(err, cursor.ErrInsufficientData) {
			return fmt.Errorf("%w: %s", ir.ErrIncompleteStream, what)
		}

		return err
	}

	return nil
}
