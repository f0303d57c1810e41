package encoding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/logir/endian"
	"github.com/arloliu/logir/format"
)

var testEngine = endian.GetLittleEndianEngine()

func TestAppendInt_WidthSelection(t *testing.T) {
	tests := []struct {
		name string
		v    int64
		tag  format.Tag
		size int
	}{
		{"zero", 0, format.TagIntS8, 2},
		{"max int8", math.MaxInt8, format.TagIntS8, 2},
		{"min int8", math.MinInt8, format.TagIntS8, 2},
		{"max int8 plus one", math.MaxInt8 + 1, format.TagIntS16, 3},
		{"min int16", math.MinInt16, format.TagIntS16, 3},
		{"max int16 plus one", math.MaxInt16 + 1, format.TagIntS32, 5},
		{"min int32", math.MinInt32, format.TagIntS32, 5},
		{"max int32 plus one", math.MaxInt32 + 1, format.TagIntS64, 9},
		{"max int64", math.MaxInt64, format.TagIntS64, 9},
		{"min int64", math.MinInt64, format.TagIntS64, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := AppendInt(nil, tt.v, testEngine)
			require.Len(t, buf, tt.size)
			assert.Equal(t, tt.tag, format.Tag(buf[0]), "smallest fitting tag should be chosen")

			decoded, n, err := DecodeInt(buf, testEngine)
			require.NoError(t, err)
			assert.Equal(t, tt.v, decoded)
			assert.Equal(t, tt.size, n, "decode should consume the whole encoding")
		})
	}
}

func TestAppendUint_WidthSelection(t *testing.T) {
	tests := []struct {
		name string
		v    uint64
		tag  format.Tag
	}{
		{"zero", 0, format.TagIntU8},
		{"max uint8", math.MaxUint8, format.TagIntU8},
		{"max uint8 plus one", math.MaxUint8 + 1, format.TagIntU16},
		{"max uint16 plus one", math.MaxUint16 + 1, format.TagIntU32},
		{"max uint32 plus one", math.MaxUint32 + 1, format.TagIntU64},
		{"max uint64", math.MaxUint64, format.TagIntU64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := AppendUint(nil, tt.v, testEngine)
			assert.Equal(t, tt.tag, format.Tag(buf[0]))

			decoded, n, err := DecodeUint(buf, testEngine)
			require.NoError(t, err)
			assert.Equal(t, tt.v, decoded)
			assert.Equal(t, len(buf), n)
		})
	}
}

func TestDecodeInt_AcceptsUnsignedTags(t *testing.T) {
	buf := AppendUint(nil, 300, testEngine)

	v, _, err := DecodeInt(buf, testEngine)
	require.NoError(t, err)
	assert.Equal(t, int64(300), v)
}

func TestDecodeInt_UnsignedOverflow(t *testing.T) {
	buf := AppendUint(nil, math.MaxUint64, testEngine)

	_, _, err := DecodeInt(buf, testEngine)
	require.ErrorIs(t, err, ErrInvalidTag)
}

func TestDecodeUint_RejectsNegative(t *testing.T) {
	buf := AppendInt(nil, -1, testEngine)

	_, _, err := DecodeUint(buf, testEngine)
	require.ErrorIs(t, err, ErrInvalidTag)
}

func TestDecodeInt_ShortBuffer(t *testing.T) {
	full := AppendInt(nil, math.MaxInt64, testEngine)

	// Every strict prefix of an encoding must report a short buffer, not a
	// decode of partial bytes.
	for i := 0; i < len(full); i++ {
		_, _, err := DecodeInt(full[:i], testEngine)
		require.ErrorIs(t, err, ErrShortBuffer, "prefix length %d", i)
	}
}

func TestDecodeInt_InvalidTag(t *testing.T) {
	_, _, err := DecodeInt([]byte{0xFF, 0x00}, testEngine)
	require.ErrorIs(t, err, ErrInvalidTag)

	// String tags are not integer tags.
	_, _, err = DecodeInt([]byte{byte(format.TagStrLenU8), 0x00}, testEngine)
	require.ErrorIs(t, err, ErrInvalidTag)
}

func TestAppendInt_ExtendsDst(t *testing.T) {
	prefix := []byte{0xAA, 0xBB}
	buf := AppendInt(prefix, 42, testEngine)

	require.Equal(t, []byte{0xAA, 0xBB}, buf[:2], "existing bytes must be preserved")
	v, _, err := DecodeInt(buf[2:], testEngine)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
}
