package compress

import "io"

// noopReader passes bytes through untouched for uncompressed streams.
type noopReader struct {
	io.Reader
}

func newNoopReader(r io.Reader) io.ReadCloser {
	return noopReader{Reader: r}
}

func (noopReader) Close() error { return nil }

type noopWriter struct {
	io.Writer
}

func newNoopWriter(w io.Writer) io.WriteCloser {
	return noopWriter{Writer: w}
}

func (noopWriter) Close() error { return nil }
