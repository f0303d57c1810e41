// Package cursor implements the incremental read buffer that feeds the IR
// decoders. A Cursor buffers bytes from an underlying io.Reader and exposes
// them as a contiguous unread window; decoders parse the window and commit
// only the bytes of fully decoded records, so a record split across reads is
// simply retried after a refill.
package cursor

import (
	"errors"
	"fmt"
	"io"
)

// DefaultInitialCapacity is the starting size of a cursor's buffer.
const DefaultInitialCapacity = 4096

// ErrInsufficientData is returned when the underlying source is exhausted
// before the requested number of bytes could be buffered. Whether this means
// a clean end of stream or a truncated stream is for the caller to decide.
var ErrInsufficientData = errors.New("cursor: insufficient data")

// Cursor owns a growable byte buffer over an underlying byte source.
// It is not safe for concurrent use; a single decode pipeline drives it.
type Cursor struct {
	src      io.Reader
	buf      []byte // len(buf) == bytes read from src and not yet discarded
	readHead int    // index of the next unconsumed byte in buf
	eof      bool
}

// Option configures a Cursor.
type Option func(*Cursor)

// WithInitialCapacity sets the initial buffer capacity. Values below 1 are
// ignored.
func WithInitialCapacity(n int) Option {
	return func(c *Cursor) {
		if n > 0 {
			c.buf = make([]byte, 0, n)
		}
	}
}

// New creates a Cursor reading from src.
func New(src io.Reader, opts ...Option) *Cursor {
	c := &Cursor{
		src: src,
		buf: make([]byte, 0, DefaultInitialCapacity),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Unread returns the buffered bytes that have not been consumed yet. The
// slice is invalidated by the next Fill, EnsureAvailable or Compact call.
func (c *Cursor) Unread() []byte {
	return c.buf[c.readHead:]
}

// Consume advances the read head past n unread bytes. It panics if n exceeds
// the unread window; decoders must only commit bytes they have parsed.
func (c *Cursor) Consume(n int) {
	if n < 0 || n > len(c.buf)-c.readHead {
		panic(fmt.Sprintf("cursor: consume %d exceeds %d unread bytes", n, len(c.buf)-c.readHead))
	}
	c.readHead += n
}

// Peek ensures at least n unread bytes are buffered and returns them without
// consuming. It returns ErrInsufficientData if the source ends first.
func (c *Cursor) Peek(n int) ([]byte, error) {
	if err := c.EnsureAvailable(n); err != nil {
		return nil, err
	}

	return c.buf[c.readHead : c.readHead+n], nil
}

// EnsureAvailable pulls from the source until at least n unread bytes are
// buffered. On source exhaustion with fewer bytes it returns
// ErrInsufficientData; I/O failures from the source are returned as-is.
func (c *Cursor) EnsureAvailable(n int) error {
	for len(c.buf)-c.readHead < n {
		if err := c.Fill(); err != nil {
			return err
		}
	}

	return nil
}

// Fill performs one refill step: consumed bytes are compacted away (doubling
// the capacity first when unread bytes occupy more than half of it) and one
// read is issued against the source. A read that yields no bytes at source
// EOF returns ErrInsufficientData.
func (c *Cursor) Fill() error {
	if c.eof {
		return ErrInsufficientData
	}
	c.reserve()

	n, err := c.src.Read(c.buf[len(c.buf):cap(c.buf)])
	c.buf = c.buf[:len(c.buf)+n]
	if err != nil {
		if errors.Is(err, io.EOF) {
			c.eof = true
			if n == 0 {
				return ErrInsufficientData
			}
			return nil
		}
		return fmt.Errorf("cursor: read from source: %w", err)
	}
	if n == 0 {
		// A zero-byte read without an error is treated as a transient
		// condition; the next Fill retries.
		return nil
	}

	return nil
}

// Compact discards consumed bytes, moving the unread window to the start of
// the buffer. Unread byte contents are preserved.
func (c *Cursor) Compact() {
	if c.readHead == 0 {
		return
	}
	unread := len(c.buf) - c.readHead
	copy(c.buf[:unread], c.buf[c.readHead:])
	c.buf = c.buf[:unread]
	c.readHead = 0
}

// reserve makes room for the next read. When the unread bytes exceed half of
// the capacity the buffer is doubled so a single oversized record cannot
// starve refills; otherwise a compaction suffices.
func (c *Cursor) reserve() {
	unread := len(c.buf) - c.readHead
	if unread > cap(c.buf)/2 {
		grown := make([]byte, unread, cap(c.buf)*2)
		copy(grown, c.buf[c.readHead:])
		c.buf = grown
		c.readHead = 0

		return
	}
	c.Compact()
}

// Exhausted reports whether the underlying source has reached EOF. Unread
// buffered bytes may still remain.
func (c *Cursor) Exhausted() bool {
	return c.eof
}

// Close closes the underlying source if it implements io.Closer.
func (c *Cursor) Close() error {
	if closer, ok := c.src.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}
