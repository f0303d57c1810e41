package fourbyte

import (
	"fmt"
	"io"

	"github.com/arloliu/logir/encoding"
	"github.com/arloliu/logir/endian"
	"github.com/arloliu/logir/format"
	"github.com/arloliu/logir/internal/pool"
	"github.com/arloliu/logir/ir"
)

// EncodePreamble encodes the stream preamble: format tag, timestamp format
// string, timezone id, and the reference timestamp.
func EncodePreamble(refTimestamp int64, timestampFormat, timezoneID string) ([]byte, error) {
	engine := endian.GetLittleEndianEngine()
	buf := make([]byte, 0, 2+len(timestampFormat)+len(timezoneID)+16)
	buf = append(buf, byte(format.TagStreamFourByte))

	var err error
	if buf, err = encoding.AppendString(buf, timestampFormat, engine); err != nil {
		return nil, fmt.Errorf("%w: timestamp format: %v", ir.ErrInvalidInput, err)
	}
	if buf, err = encoding.AppendString(buf, timezoneID, engine); err != nil {
		return nil, fmt.Errorf("%w: timezone id: %v", ir.ErrInvalidInput, err)
	}
	buf = encoding.AppendInt(buf, refTimestamp, engine)

	return buf, nil
}

// EncodeMessage encodes a log message as a length-prefixed string.
func EncodeMessage(message string) ([]byte, error) {
	buf, err := encoding.AppendString(nil, message, endian.GetLittleEndianEngine())
	if err != nil {
		return nil, fmt.Errorf("%w: message: %v", ir.ErrInvalidInput, err)
	}

	return buf, nil
}

// EncodeTimestampDelta encodes a signed timestamp delta in ms.
func EncodeTimestampDelta(delta int64) []byte {
	return encoding.AppendInt(nil, delta, endian.GetLittleEndianEngine())
}

// EncodeMessageAndTimestampDelta encodes one complete log event. The result
// is byte-identical to EncodeMessage(message) followed by
// EncodeTimestampDelta(delta).
func EncodeMessageAndTimestampDelta(delta int64, message string) ([]byte, error) {
	engine := endian.GetLittleEndianEngine()
	buf := make([]byte, 0, 2*len(message)+16)
	buf, err := encoding.AppendString(buf, message, engine)
	if err != nil {
		return nil, fmt.Errorf("%w: message: %v", ir.ErrInvalidInput, err)
	}

	return encoding.AppendInt(buf, delta, engine), nil
}

// EncodeEndOfStream encodes the end-of-stream marker.
func EncodeEndOfStream() []byte {
	return []byte{byte(format.TagEndOfStream)}
}

// Serializer writes an unstructured IR stream to an io.Writer, tracking the
// previous event timestamp so callers supply absolute timestamps.
type Serializer struct {
	w      io.Writer
	engine endian.EndianEngine
	buf    *pool.ByteBuffer
	prevTs int64
	opened bool
	closed bool
}

// NewSerializer creates a Serializer targeting w. The preamble is written by
// the first call to SerializePreamble.
func NewSerializer(w io.Writer) *Serializer {
	return &Serializer{
		w:      w,
		engine: endian.GetLittleEndianEngine(),
		buf:    pool.GetBuffer(),
	}
}

// SerializePreamble writes the stream preamble and seeds delta encoding from
// refTimestamp. It must be called exactly once, before any event.
func (s *Serializer) SerializePreamble(refTimestamp int64, timestampFormat, timezoneID string) error {
	if s.closed {
		return fmt.Errorf("%w: serializer is closed", ir.ErrInvalidInput)
	}
	if s.opened {
		return fmt.Errorf("%w: preamble already serialized", ir.ErrInvalidInput)
	}
	preamble, err := EncodePreamble(refTimestamp, timestampFormat, timezoneID)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(preamble); err != nil {
		return fmt.Errorf("write preamble: %w", err)
	}
	s.prevTs = refTimestamp
	s.opened = true

	return nil
}

// SerializeLogEvent writes one event with an absolute timestamp; the delta
// against the previous event (or the reference timestamp) is computed here.
func (s *Serializer) SerializeLogEvent(timestamp int64, message string) error {
	if s.closed {
		return fmt.Errorf("%w: serializer is closed", ir.ErrInvalidInput)
	}
	if !s.opened {
		return fmt.Errorf("%w: preamble not serialized yet", ir.ErrInvalidInput)
	}

	s.buf.Reset()
	b, err := encoding.AppendString(s.buf.B, message, s.engine)
	if err != nil {
		return fmt.Errorf("%w: message: %v", ir.ErrInvalidInput, err)
	}
	s.buf.B = encoding.AppendInt(b, timestamp-s.prevTs, s.engine)
	if _, err := s.w.Write(s.buf.Bytes()); err != nil {
		return fmt.Errorf("write log event: %w", err)
	}
	s.prevTs = timestamp

	return nil
}

// Close writes the end-of-stream marker and releases internal buffers. The
// serializer is unusable afterwards. Close does not close the underlying
// writer.
func (s *Serializer) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	pool.PutBuffer(s.buf)
	s.buf = nil
	if _, err := s.w.Write(EncodeEndOfStream()); err != nil {
		return fmt.Errorf("write end of stream: %w", err)
	}

	return nil
}
