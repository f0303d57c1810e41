// Package endian provides the byte-order engine threaded through the logir
// encoders and decoders.
//
// EndianEngine unifies encoding/binary's ByteOrder and AppendByteOrder
// interfaces so a single engine value covers both read and append paths.
// IR streams are little-endian on the wire; the big-endian engine exists for
// tooling that inspects foreign byte orders.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
// binary.LittleEndian and binary.BigEndian both satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the engine used by all logir wire formats.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns a big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
