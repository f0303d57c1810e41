//go:build cgo_zstd

package compress

import (
	"io"

	"github.com/valyala/gozstd"
)

// zstdReader adapts gozstd.Reader, which releases resources through
// Release instead of Close, to io.ReadCloser.
type zstdReader struct {
	dec *gozstd.Reader
}

func newZstdReader(r io.Reader) (io.ReadCloser, error) {
	return &zstdReader{dec: gozstd.NewReader(r)}, nil
}

func (z *zstdReader) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z *zstdReader) Close() error {
	z.dec.Release()

	return nil
}

type zstdWriter struct {
	enc *gozstd.Writer
}

func newZstdWriter(w io.Writer) (io.WriteCloser, error) {
	return &zstdWriter{enc: gozstd.NewWriter(w)}, nil
}

func (z *zstdWriter) Write(p []byte) (int, error) {
	return z.enc.Write(p)
}

func (z *zstdWriter) Close() error {
	err := z.enc.Close()
	z.enc.Release()

	return err
}
