package compress

import (
	"fmt"
	"io"

	"github.com/arloliu/logir/format"
)

// NewReader wraps r in a decompressing reader for the given compression type.
// Closing the returned reader releases codec resources; it does not close r.
func NewReader(compression format.CompressionType, r io.Reader) (io.ReadCloser, error) {
	switch compression {
	case format.CompressionNone:
		return newNoopReader(r), nil
	case format.CompressionZstd:
		return newZstdReader(r)
	case format.CompressionLZ4:
		return newLZ4Reader(r), nil
	default:
		return nil, fmt.Errorf("unsupported compression type 0x%02x", uint8(compression))
	}
}

// NewWriter wraps w in a compressing writer for the given compression type.
// Closing the returned writer flushes pending frames; it does not close w.
func NewWriter(compression format.CompressionType, w io.Writer) (io.WriteCloser, error) {
	switch compression {
	case format.CompressionNone:
		return newNoopWriter(w), nil
	case format.CompressionZstd:
		return newZstdWriter(w)
	case format.CompressionLZ4:
		return newLZ4Writer(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression type 0x%02x", uint8(compression))
	}
}
