package keyvalue

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/arloliu/logir/encoding"
	"github.com/arloliu/logir/endian"
	"github.com/arloliu/logir/format"
	"github.com/arloliu/logir/internal/pool"
	"github.com/arloliu/logir/ir"
)

// DefaultFlushThreshold is the buffered byte count past which the serializer
// flushes to the underlying writer on its own.
const DefaultFlushThreshold = 4096

// SerializerOption configures a Serializer.
type SerializerOption func(*serializerConfig)

type serializerConfig struct {
	metadata       map[string]any
	flushThreshold int
}

// WithUserDefinedMetadata sets the metadata map serialized into the stream
// header. An empty map is written when none is supplied.
func WithUserDefinedMetadata(metadata map[string]any) SerializerOption {
	return func(cfg *serializerConfig) { cfg.metadata = metadata }
}

// WithFlushThreshold overrides DefaultFlushThreshold. A non-positive value
// flushes after every event.
func WithFlushThreshold(threshold int) SerializerOption {
	return func(cfg *serializerConfig) { cfg.flushThreshold = threshold }
}

// Serializer writes a key-value IR stream to an io.Writer. Frames accumulate
// in an internal buffer and are flushed once it exceeds the flush threshold,
// so small events do not each cost a write syscall.
type Serializer struct {
	w         io.Writer
	engine    endian.EndianEngine
	buf       *pool.ByteBuffer
	threshold int
	closed    bool
}

// NewSerializer creates a Serializer targeting w and stages the stream header
// into the output buffer. The header reaches the writer with the first flush.
func NewSerializer(w io.Writer, opts ...SerializerOption) (*Serializer, error) {
	cfg := serializerConfig{flushThreshold: DefaultFlushThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.metadata == nil {
		cfg.metadata = map[string]any{}
	}
	payload, err := msgpack.Marshal(cfg.metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal stream metadata: %v", ir.ErrInvalidInput, err)
	}

	s := &Serializer{
		w:         w,
		engine:    endian.GetLittleEndianEngine(),
		buf:       pool.GetBuffer(),
		threshold: cfg.flushThreshold,
	}
	s.buf.WriteByte(byte(format.TagStreamKeyValue))
	s.buf.WriteByte(byte(format.TagKVMetadata))
	s.appendPayload(payload)

	return s, nil
}

// BufferedBytes returns the number of staged bytes not yet flushed.
func (s *Serializer) BufferedBytes() int {
	if s.buf == nil {
		return 0
	}

	return s.buf.Len()
}

// SerializeLogEventFromMsgpackMap stages one event frame. userGen must be a
// msgpack-encoded map; autoGen may be nil, in which case a user-only frame is
// written. It returns the number of bytes the frame added to the buffer.
func (s *Serializer) SerializeLogEventFromMsgpackMap(autoGen, userGen []byte) (int, error) {
	if s.closed {
		return 0, fmt.Errorf("%w: serializer is closed", ir.ErrInvalidInput)
	}
	if err := validateMsgpackMap(userGen, "user-generated"); err != nil {
		return 0, err
	}
	if autoGen != nil {
		if err := validateMsgpackMap(autoGen, "auto-generated"); err != nil {
			return 0, err
		}
	}

	before := s.buf.Len()
	if autoGen == nil {
		s.buf.WriteByte(byte(format.TagKVEventUser))
		s.appendPayload(userGen)
	} else {
		s.buf.WriteByte(byte(format.TagKVEventPair))
		s.appendPayload(autoGen)
		s.appendPayload(userGen)
	}
	written := s.buf.Len() - before

	if s.buf.Len() >= s.threshold {
		if err := s.Flush(); err != nil {
			return written, err
		}
	}

	return written, nil
}

// SerializeLogEvent stages one event frame from a decoded event, reusing its
// verbatim payloads.
func (s *Serializer) SerializeLogEvent(event *ir.KeyValuePairLogEvent) (int, error) {
	autoGen := event.AutoGenPayload()
	if len(autoGen) == 0 {
		autoGen = nil
	}

	return s.SerializeLogEventFromMsgpackMap(autoGen, event.UserGenPayload())
}

// Flush writes all staged bytes to the underlying writer.
func (s *Serializer) Flush() error {
	if s.closed {
		return fmt.Errorf("%w: serializer is closed", ir.ErrInvalidInput)
	}
	if s.buf.Len() == 0 {
		return nil
	}
	if _, err := s.w.Write(s.buf.Bytes()); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	s.buf.Reset()

	return nil
}

// Close stages the end-of-stream marker, flushes, and releases internal
// buffers. The serializer rejects further calls. Close does not close the
// underlying writer.
func (s *Serializer) Close() error {
	if s.closed {
		return nil
	}
	s.buf.WriteByte(byte(format.TagEndOfStream))
	err := s.Flush()
	s.closed = true
	pool.PutBuffer(s.buf)
	s.buf = nil

	return err
}

// appendPayload writes a length-prefixed msgpack payload into the buffer.
func (s *Serializer) appendPayload(payload []byte) {
	s.buf.B = encoding.AppendInt(s.buf.B, int64(len(payload)), s.engine)
	s.buf.Write(payload)
}

func validateMsgpackMap(payload []byte, what string) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty %s payload", ir.ErrInvalidInput, what)
	}
	c := payload[0]
	if !msgpcode.IsFixedMap(c) && c != msgpcode.Map16 && c != msgpcode.Map32 {
		return fmt.Errorf("%w: %s payload is not a msgpack map", ir.ErrInvalidInput, what)
	}

	return nil
}
