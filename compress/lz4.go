package compress

import (
	"io"

	"github.com/pierrec/lz4/v4"
)

// lz4Reader adapts lz4.Reader, which has no Close, to io.ReadCloser.
type lz4Reader struct {
	*lz4.Reader
}

func newLZ4Reader(r io.Reader) io.ReadCloser {
	return lz4Reader{Reader: lz4.NewReader(r)}
}

func (lz4Reader) Close() error { return nil }

func newLZ4Writer(w io.Writer) io.WriteCloser {
	return lz4.NewWriter(w)
}
