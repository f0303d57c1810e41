// Package logir implements the CLP IR stream codec: tagged primitive
// encoding, the unstructured four-byte and structured key-value stream
// formats, incremental buffered decoding, and time-range plus wildcard
// querying.
//
// Most programs use the subpackages directly: fourbyte and keyvalue for the
// codecs, reader for high-level streaming reads, query to build filters.
// This package adds small conveniences on top of them.
package logir

import (
	"fmt"
	"os"

	"github.com/arloliu/logir/reader"
)

// FileReader is a reader.Reader bound to the file it reads from. Closing it
// closes the file.
type FileReader struct {
	*reader.Reader
	file *os.File
}

// OpenFile opens path and returns a FileReader over its IR stream. Options
// are passed through to reader.New.
func OpenFile(path string, opts ...reader.Option) (*FileReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open IR file: %w", err)
	}
	r, err := reader.New(file, opts...)
	if err != nil {
		file.Close()

		return nil, err
	}

	return &FileReader{Reader: r, file: file}, nil
}

// Path returns the path of the underlying file.
func (r *FileReader) Path() string {
	return r.file.Name()
}

// Close releases the reader and closes the underlying file.
func (r *FileReader) Close() error {
	err := r.Reader.Close()
	if closeErr := r.file.Close(); err == nil {
		err = closeErr
	}

	return err
}
