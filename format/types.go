// Package format defines the wire-level constants of the logir IR streams:
// the stream-format tags, the tagged integer/string encoding tags, the
// key-value frame tags, and the transport compression types.
//
// Every multi-byte value in an IR stream is introduced by a single tag byte
// from this package. Decoders dispatch on the tag; encoders pick the smallest
// tag whose payload width fits the value.
package format

type (
	// Tag is a single-byte wire marker that introduces the following payload.
	Tag uint8
	// CompressionType identifies the transport compression wrapped around an
	// IR byte stream.
	CompressionType uint8
)

const (
	// TagEndOfStream terminates both the unstructured and the key-value
	// stream. It is a complete record by itself.
	TagEndOfStream Tag = 0x00

	// TagStreamFourByte opens an unstructured (four-byte encoding) stream
	// preamble.
	TagStreamFourByte Tag = 0x01
	// TagStreamKeyValue opens a key-value stream header.
	TagStreamKeyValue Tag = 0x02

	// Unsigned integers, little-endian payload of 1/2/4/8 bytes.
	TagIntU8  Tag = 0x11
	TagIntU16 Tag = 0x12
	TagIntU32 Tag = 0x13
	TagIntU64 Tag = 0x14

	// Signed integers, little-endian two's-complement payload of 1/2/4/8 bytes.
	TagIntS8  Tag = 0x19
	TagIntS16 Tag = 0x1A
	TagIntS32 Tag = 0x1B
	TagIntS64 Tag = 0x1C

	// String length prefix width selectors. The tag is followed by the length
	// field of the selected width, then the raw UTF-8 bytes.
	TagStrLenU8  Tag = 0x21
	TagStrLenU16 Tag = 0x22
	TagStrLenU32 Tag = 0x23

	// Key-value event frames. KVEventUser carries a single user-generated
	// msgpack map payload; KVEventPair carries an auto-generated payload
	// followed by a user-generated one.
	TagKVEventUser Tag = 0x31
	TagKVEventPair Tag = 0x32

	// TagKVMetadata introduces the user-defined metadata map in a key-value
	// stream header.
	TagKVMetadata Tag = 0x41
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone means the stream is not wrapped.
	CompressionZstd CompressionType = 0x2 // CompressionZstd wraps the stream in Zstandard frames.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 wraps the stream in an LZ4 frame.
)

// IsSignedIntTag reports whether t selects a signed fixed-width integer payload.
func IsSignedIntTag(t Tag) bool {
	return t >= TagIntS8 && t <= TagIntS64
}

// IsUnsignedIntTag reports whether t selects an unsigned fixed-width integer payload.
func IsUnsignedIntTag(t Tag) bool {
	return t >= TagIntU8 && t <= TagIntU64
}

// IsStrLenTag reports whether t selects a string length prefix.
func IsStrLenTag(t Tag) bool {
	return t >= TagStrLenU8 && t <= TagStrLenU32
}

func (t Tag) String() string {
	switch t {
	case TagEndOfStream:
		return "EndOfStream"
	case TagStreamFourByte:
		return "StreamFourByte"
	case TagStreamKeyValue:
		return "StreamKeyValue"
	case TagIntU8:
		return "IntU8"
	case TagIntU16:
		return "IntU16"
	case TagIntU32:
		return "IntU32"
	case TagIntU64:
		return "IntU64"
	case TagIntS8:
		return "IntS8"
	case TagIntS16:
		return "IntS16"
	case TagIntS32:
		return "IntS32"
	case TagIntS64:
		return "IntS64"
	case TagStrLenU8:
		return "StrLenU8"
	case TagStrLenU16:
		return "StrLenU16"
	case TagStrLenU32:
		return "StrLenU32"
	case TagKVEventUser:
		return "KVEventUser"
	case TagKVEventPair:
		return "KVEventPair"
	case TagKVMetadata:
		return "KVMetadata"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
