package encoding

import (
	"errors"
	"math"

	"github.com/arloliu/logir/endian"
	"github.com/arloliu/logir/format"
)

var (
	// ErrShortBuffer indicates the input buffer ends mid-value. The caller
	// should obtain more bytes and retry the decode from the same position.
	ErrShortBuffer = errors.New("encoding: short buffer")
	// ErrInvalidTag indicates the leading tag byte does not select a valid
	// encoding for the expected value kind.
	ErrInvalidTag = errors.New("encoding: invalid tag")
)

// AppendInt appends a tagged signed integer to dst and returns the extended
// slice. The smallest signed width that represents v is chosen.
func AppendInt(dst []byte, v int64, engine endian.EndianEngine) []byte {
	switch {
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return append(dst, byte(format.TagIntS8), byte(int8(v)))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		dst = append(dst, byte(format.TagIntS16))
		return engine.AppendUint16(dst, uint16(int16(v)))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		dst = append(dst, byte(format.TagIntS32))
		return engine.AppendUint32(dst, uint32(int32(v)))
	default:
		dst = append(dst, byte(format.TagIntS64))
		return engine.AppendUint64(dst, uint64(v))
	}
}

// AppendUint appends a tagged unsigned integer to dst and returns the
// extended slice. The smallest unsigned width that represents v is chosen.
func AppendUint(dst []byte, v uint64, engine endian.EndianEngine) []byte {
	switch {
	case v <= math.MaxUint8:
		return append(dst, byte(format.TagIntU8), byte(v))
	case v <= math.MaxUint16:
		dst = append(dst, byte(format.TagIntU16))
		return engine.AppendUint16(dst, uint16(v))
	case v <= math.MaxUint32:
		dst = append(dst, byte(format.TagIntU32))
		return engine.AppendUint32(dst, uint32(v))
	default:
		dst = append(dst, byte(format.TagIntU64))
		return engine.AppendUint64(dst, v)
	}
}

// DecodeInt decodes a tagged integer from the start of data. Both signed and
// unsigned tags are accepted; unsigned values that overflow int64 fail with
// ErrInvalidTag. It returns the value and the number of bytes consumed.
func DecodeInt(data []byte, engine endian.EndianEngine) (int64, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrShortBuffer
	}
	tag := format.Tag(data[0])
	if format.IsSignedIntTag(tag) {
		return decodeSigned(data, tag, engine)
	}
	if format.IsUnsignedIntTag(tag) {
		v, n, err := decodeUnsigned(data, tag, engine)
		if err != nil {
			return 0, 0, err
		}
		if v > math.MaxInt64 {
			return 0, 0, ErrInvalidTag
		}
		return int64(v), n, nil
	}

	return 0, 0, ErrInvalidTag
}

// DecodeUint decodes a tagged unsigned integer from the start of data.
// Signed tags are accepted for non-negative values.
func DecodeUint(data []byte, engine endian.EndianEngine) (uint64, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrShortBuffer
	}
	tag := format.Tag(data[0])
	if format.IsUnsignedIntTag(tag) {
		return decodeUnsigned(data, tag, engine)
	}
	if format.IsSignedIntTag(tag) {
		v, n, err := decodeSigned(data, tag, engine)
		if err != nil {
			return 0, 0, err
		}
		if v < 0 {
			return 0, 0, ErrInvalidTag
		}
		return uint64(v), n, nil
	}

	return 0, 0, ErrInvalidTag
}

func decodeSigned(data []byte, tag format.Tag, engine endian.EndianEngine) (int64, int, error) {
	switch tag {
	case format.TagIntS8:
		if len(data) < 2 {
			return 0, 0, ErrShortBuffer
		}
		return int64(int8(data[1])), 2, nil
	case format.TagIntS16:
		if len(data) < 3 {
			return 0, 0, ErrShortBuffer
		}
		return int64(int16(engine.Uint16(data[1:3]))), 3, nil
	case format.TagIntS32:
		if len(data) < 5 {
			return 0, 0, ErrShortBuffer
		}
		return int64(int32(engine.Uint32(data[1:5]))), 5, nil
	case format.TagIntS64:
		if len(data) < 9 {
			return 0, 0, ErrShortBuffer
		}
		return int64(engine.Uint64(data[1:9])), 9, nil
	default:
		return 0, 0, ErrInvalidTag
	}
}

func decodeUnsigned(data []byte, tag format.Tag, engine endian.EndianEngine) (uint64, int, error) {
	switch tag {
	case format.TagIntU8:
		if len(data) < 2 {
			return 0, 0, ErrShortBuffer
		}
		return uint64(data[1]), 2, nil
	case format.TagIntU16:
		if len(data) < 3 {
			return 0, 0, ErrShortBuffer
		}
		return uint64(engine.Uint16(data[1:3])), 3, nil
	case format.TagIntU32:
		if len(data) < 5 {
			return 0, 0, ErrShortBuffer
		}
		return uint64(engine.Uint32(data[1:5])), 5, nil
	case format.TagIntU64:
		if len(data) < 9 {
			return 0, 0, ErrShortBuffer
		}
		return engine.Uint64(data[1:9]), 9, nil
	default:
		return 0, 0, ErrInvalidTag
	}
}
