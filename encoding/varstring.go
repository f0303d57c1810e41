package encoding

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/arloliu/logir/endian"
	"github.com/arloliu/logir/format"
)

// MaxStringLength is the largest byte length a string value may carry on the
// wire, bounded by the widest length-prefix tag.
const MaxStringLength uint64 = math.MaxUint32

// AppendString appends a length-prefixed string to dst and returns the
// extended slice. The narrowest length-prefix tag that fits len(s) is chosen.
// The string must be valid UTF-8 and no longer than MaxStringLength.
func AppendString(dst []byte, s string, engine endian.EndianEngine) ([]byte, error) {
	if uint64(len(s)) > MaxStringLength {
		return dst, fmt.Errorf("string length %d exceeds maximum %d", len(s), MaxStringLength)
	}
	if !utf8.ValidString(s) {
		return dst, fmt.Errorf("string is not valid UTF-8")
	}

	switch {
	case len(s) <= math.MaxUint8:
		dst = append(dst, byte(format.TagStrLenU8), byte(len(s)))
	case len(s) <= math.MaxUint16:
		dst = append(dst, byte(format.TagStrLenU16))
		dst = engine.AppendUint16(dst, uint16(len(s)))
	default:
		dst = append(dst, byte(format.TagStrLenU32))
		dst = engine.AppendUint32(dst, uint32(len(s)))
	}

	return append(dst, s...), nil
}

// DecodeString decodes a length-prefixed string from the start of data,
// returning the string and the number of bytes consumed.
func DecodeString(data []byte, engine endian.EndianEngine) (string, int, error) {
	length, headerLen, err := decodeStringHeader(data, engine)
	if err != nil {
		return "", 0, err
	}
	end := headerLen + length
	if len(data) < end {
		return "", 0, ErrShortBuffer
	}

	return string(data[headerLen:end]), end, nil
}

// StringSize returns the total encoded size of the length-prefixed string at
// the start of data without materializing it. It allows callers to skip over
// string payloads cheaply.
func StringSize(data []byte, engine endian.EndianEngine) (int, error) {
	length, headerLen, err := decodeStringHeader(data, engine)
	if err != nil {
		return 0, err
	}

	return headerLen + length, nil
}

// decodeStringHeader returns the payload length and the header (tag + length
// field) size of the string at the start of data.
func decodeStringHeader(data []byte, engine endian.EndianEngine) (length, headerLen int, err error) {
	if len(data) == 0 {
		return 0, 0, ErrShortBuffer
	}
	switch format.Tag(data[0]) {
	case format.TagStrLenU8:
		if len(data) < 2 {
			return 0, 0, ErrShortBuffer
		}
		return int(data[1]), 2, nil
	case format.TagStrLenU16:
		if len(data) < 3 {
			return 0, 0, ErrShortBuffer
		}
		return int(engine.Uint16(data[1:3])), 3, nil
	case format.TagStrLenU32:
		if len(data) < 5 {
			return 0, 0, ErrShortBuffer
		}
		n := engine.Uint32(data[1:5])
		if uint64(n) > uint64(math.MaxInt32) {
			return 0, 0, ErrInvalidTag
		}
		return int(n), 5, nil
	default:
		return 0, 0, ErrInvalidTag
	}
}
