// Package pool provides a pooled, growable byte buffer used by the IR
// serializers to stage frames before they are flushed to the output stream.
package pool

import (
	"io"
	"sync"
)

const (
	// BufferDefaultSize is the capacity of buffers handed out by the default pool.
	BufferDefaultSize = 16 * 1024
	// BufferMaxThreshold caps the capacity of buffers returned to the pool.
	BufferMaxThreshold = 128 * 1024
)

// ByteBuffer is a thin growable wrapper over a byte slice. The zero value is
// not usable; obtain instances via NewByteBuffer or GetBuffer.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a ByteBuffer with the given initial capacity.
func NewByteBuffer(capacity int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, capacity)}
}

// Bytes returns the buffered bytes. The slice is valid until the next write
// or Reset.
func (bb *ByteBuffer) Bytes() []byte { return bb.B }

// Len returns the number of buffered bytes.
func (bb *ByteBuffer) Len() int { return len(bb.B) }

// Cap returns the buffer capacity.
func (bb *ByteBuffer) Cap() int { return cap(bb.B) }

// Reset empties the buffer, keeping the allocation for reuse.
func (bb *ByteBuffer) Reset() { bb.B = bb.B[:0] }

// WriteByte appends a single byte.
func (bb *ByteBuffer) WriteByte(c byte) error {
	bb.B = append(bb.B, c)
	return nil
}

// Write appends data, growing as needed. It never fails; the error return
// satisfies io.Writer.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteString appends the bytes of s.
func (bb *ByteBuffer) WriteString(s string) (int, error) {
	bb.B = append(bb.B, s...)
	return len(s), nil
}

// Grow ensures the buffer can accept n more bytes without reallocating.
// Small buffers grow in BufferDefaultSize steps; larger ones grow by 25% of
// the current capacity to bound copy cost.
func (bb *ByteBuffer) Grow(n int) {
	if cap(bb.B)-len(bb.B) >= n {
		return
	}
	growBy := BufferDefaultSize
	if cap(bb.B) > 4*BufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < n {
		growBy = n
	}
	grown := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(grown, bb.B)
	bb.B = grown
}

// WriteTo writes the buffered bytes to w without resetting the buffer.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool pools ByteBuffers. Buffers whose capacity exceeds the
// configured threshold are dropped instead of pooled to avoid memory bloat.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool handing out buffers of defaultSize
// capacity and discarding returned buffers above maxThreshold.
func NewByteBufferPool(defaultSize, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any { return NewByteBuffer(defaultSize) },
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a buffer from the pool.
func (p *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a buffer to the pool for reuse.
func (p *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}
	if p.maxThreshold > 0 && cap(bb.B) > p.maxThreshold {
		return
	}
	bb.Reset()
	p.pool.Put(bb)
}

var defaultPool = NewByteBufferPool(BufferDefaultSize, BufferMaxThreshold)

// GetBuffer retrieves a ByteBuffer from the default pool.
func GetBuffer() *ByteBuffer { return defaultPool.Get() }

// PutBuffer returns a ByteBuffer to the default pool.
func PutBuffer(bb *ByteBuffer) { defaultPool.Put(bb) }
