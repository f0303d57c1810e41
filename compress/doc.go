// Package compress wraps IR byte streams in transport compression.
//
// The package exposes stream-oriented wrappers: NewReader decompresses from
// an io.Reader, NewWriter compresses into an io.Writer, both dispatched on
// format.CompressionType. Zstandard has two implementations selected at build
// time: the pure-Go klauspost/compress/zstd by default, and the cgo-backed
// valyala/gozstd under the cgo_zstd build tag.
package compress
