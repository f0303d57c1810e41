// Package reader provides the high-level streaming reader over unstructured
// IR streams: transport decompression, incremental buffering, querying, and
// time-based skipping in one type.
package reader

import (
	"fmt"
	"io"
	"iter"

	"github.com/arloliu/logir/compress"
	"github.com/arloliu/logir/cursor"
	"github.com/arloliu/logir/format"
	"github.com/arloliu/logir/fourbyte"
	"github.com/arloliu/logir/ir"
	"github.com/arloliu/logir/query"
)

// DefaultBufferSize is the initial capacity of the decode buffer.
const DefaultBufferSize = 64 * 1024

// Option configures a Reader.
type Option func(*config)

type config struct {
	bufferSize      int
	compression     format.CompressionType
	allowIncomplete bool
}

// WithBufferSize overrides DefaultBufferSize for the decode buffer. The
// buffer grows on demand; the size only sets the starting capacity.
func WithBufferSize(size int) Option {
	return func(cfg *config) { cfg.bufferSize = size }
}

// WithCompression selects the transport compression wrapped around the
// stream. The default is format.CompressionZstd.
func WithCompression(compression format.CompressionType) Option {
	return func(cfg *config) { cfg.compression = compression }
}

// WithAllowIncompleteStream makes a stream that ends without the
// end-of-stream marker report a clean end instead of an error.
func WithAllowIncompleteStream(allow bool) Option {
	return func(cfg *config) { cfg.allowIncomplete = allow }
}

// Reader decodes log events from a compressed unstructured IR stream.
//
// A Reader is single-pass: events stream out in stored order and the source
// is never rewound. It is not safe for concurrent use.
type Reader struct {
	transport io.ReadCloser
	cur       *cursor.Cursor
	des       *fourbyte.Deserializer

	// lookahead holds an event decoded by SkipToTime that the next read
	// must return before touching the stream again.
	lookahead *ir.LogEvent
	closed    bool
}

// New creates a Reader over r. The stream is assumed zstd-compressed unless
// WithCompression says otherwise. Closing the Reader does not close r.
func New(r io.Reader, opts ...Option) (*Reader, error) {
	cfg := config{
		bufferSize:  DefaultBufferSize,
		compression: format.CompressionZstd,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.bufferSize <= 0 {
		return nil, fmt.Errorf("%w: buffer size must be positive, got %d", ir.ErrInvalidInput, cfg.bufferSize)
	}

	transport, err := compress.NewReader(cfg.compression, r)
	if err != nil {
		return nil, fmt.Errorf("open transport: %w", err)
	}
	cur := cursor.New(transport, cursor.WithInitialCapacity(cfg.bufferSize))

	var desOpts []fourbyte.DeserializerOption
	if cfg.allowIncomplete {
		desOpts = append(desOpts, fourbyte.WithAllowIncompleteStream(true))
	}

	return &Reader{
		transport: transport,
		cur:       cur,
		des:       fourbyte.NewDeserializer(cur, desOpts...),
	}, nil
}

// Metadata returns the stream metadata, decoding the preamble first if
// needed.
func (r *Reader) Metadata() (*ir.Metadata, error) {
	if err := r.ensurePreamble(); err != nil {
		return nil, err
	}

	return r.des.Metadata(), nil
}

// ReadPreamble decodes the stream preamble. It is idempotent; reads decode
// the preamble on demand, so calling it is optional.
func (r *Reader) ReadPreamble() (*ir.Metadata, error) {
	return r.Metadata()
}

// ReadNextLogEvent returns the next event in stored order, or (nil, nil) at
// the end of the stream.
func (r *Reader) ReadNextLogEvent() (*ir.LogEvent, error) {
	if err := r.ensurePreamble(); err != nil {
		return nil, err
	}
	if r.lookahead != nil {
		event := r.lookahead
		r.lookahead = nil

		return event, nil
	}

	return r.des.NextLogEvent(nil)
}

// Search streams the events matching q in stored order. Iteration stops at
// the end of the stream, past q's termination timestamp, or on the first
// error. The stream is consumed; a Reader supports one pass.
func (r *Reader) Search(q *query.Query) iter.Seq2[*ir.LogEvent, error] {
	return func(yield func(*ir.LogEvent, error) bool) {
		if err := r.ensurePreamble(); err != nil {
			yield(nil, err)

			return
		}
		if r.lookahead != nil {
			event := r.lookahead
			r.lookahead = nil
			if q == nil || q.Matches(event.Timestamp(), event.Message()) {
				if !yield(event, nil) {
					return
				}
			} else if q.SafelyOutsideTimeRange(event.Timestamp()) {
				return
			}
		}
		for {
			event, err := r.des.NextLogEvent(q)
			if err != nil {
				yield(nil, err)

				return
			}
			if event == nil {
				return
			}
			if !yield(event, nil) {
				return
			}
		}
	}
}

// SkipToTime skips events whose timestamp is below ts and returns the number
// skipped. The first event at or past ts is buffered and comes back from the
// next read.
func (r *Reader) SkipToTime(ts int64) (int, error) {
	if err := r.ensurePreamble(); err != nil {
		return 0, err
	}
	if r.lookahead != nil {
		if r.lookahead.Timestamp() >= ts {
			return 0, nil
		}
		// A stale buffered event below the new target is dropped without
		// counting it toward the skipped total.
		r.lookahead = nil
	}

	q, err := query.NewBuilder().SetSearchTimeLowerBound(ts).Build()
	if err != nil {
		return 0, err
	}

	before := r.des.EventsDecoded()
	event, err := r.des.NextLogEvent(q)
	if err != nil {
		return 0, err
	}
	skipped := int(r.des.EventsDecoded() - before)
	if event != nil {
		r.lookahead = event
		skipped--
	}

	return skipped, nil
}

// SkipNextN skips up to n events and returns how many were actually skipped.
func (r *Reader) SkipNextN(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative skip count %d", ir.ErrInvalidInput, n)
	}
	if err := r.ensurePreamble(); err != nil {
		return 0, err
	}

	skipped := 0
	if r.lookahead != nil && n > 0 {
		r.lookahead = nil
		skipped++
	}
	more, err := r.des.SkipNextN(n - skipped)
	skipped += more

	return skipped, err
}

// EventsDecoded returns the number of events fully decoded so far, counting
// skipped and filtered-out events.
func (r *Reader) EventsDecoded() uint64 {
	return r.des.EventsDecoded()
}

// Close releases the decode buffer and the transport decompressor. It does
// not close the reader passed to New.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	return r.cur.Close()
}

func (r *Reader) ensurePreamble() error {
	if r.des.HasMetadata() {
		return nil
	}
	_, err := r.des.DeserializePreamble()

	return err
}
