package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteBuffer_Writes(t *testing.T) {
	bb := NewByteBuffer(8)

	require.NoError(t, bb.WriteByte('a'))
	_, err := bb.Write([]byte("bc"))
	require.NoError(t, err)
	_, err = bb.WriteString("de")
	require.NoError(t, err)

	assert.Equal(t, []byte("abcde"), bb.Bytes())
	assert.Equal(t, 5, bb.Len())
}

func TestByteBuffer_Reset(t *testing.T) {
	bb := NewByteBuffer(8)
	_, err := bb.WriteString("payload data")
	require.NoError(t, err)
	capBefore := bb.Cap()

	bb.Reset()

	assert.Zero(t, bb.Len())
	assert.Equal(t, capBefore, bb.Cap(), "reset keeps the allocation")
}

func TestByteBuffer_Grow(t *testing.T) {
	bb := NewByteBuffer(4)
	_, err := bb.WriteString("abcd")
	require.NoError(t, err)

	bb.Grow(100)
	assert.GreaterOrEqual(t, bb.Cap()-bb.Len(), 100)
	assert.Equal(t, []byte("abcd"), bb.Bytes(), "grow preserves contents")
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(8)
	_, err := bb.WriteString("flush me")
	require.NoError(t, err)

	var out bytes.Buffer
	n, err := bb.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, "flush me", out.String())
	assert.Equal(t, 8, bb.Len(), "WriteTo does not reset the buffer")
}

func TestByteBufferPool_ReusesBuffers(t *testing.T) {
	p := NewByteBufferPool(16, 1024)

	bb := p.Get()
	require.NotNil(t, bb)
	_, err := bb.WriteString("dirty")
	require.NoError(t, err)
	p.Put(bb)

	again := p.Get()
	require.NotNil(t, again)
	assert.Zero(t, again.Len(), "pooled buffers come back reset")
}

func TestByteBufferPool_DropsOversized(t *testing.T) {
	p := NewByteBufferPool(16, 32)

	big := NewByteBuffer(64)
	p.Put(big) // must not panic; buffer is silently dropped

	p.Put(nil) // nil is tolerated
}

func TestDefaultPool(t *testing.T) {
	bb := GetBuffer()
	require.NotNil(t, bb)
	assert.GreaterOrEqual(t, bb.Cap(), BufferDefaultSize)
	PutBuffer(bb)
}
