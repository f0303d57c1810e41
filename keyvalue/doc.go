// Package keyvalue implements the structured (key-value pair) IR stream
// codec. Events carry msgpack-encoded key-value trees inside length-prefixed
// frames; the stream opens with a header holding a user-defined metadata map.
//
// The Serializer buffers frames and flushes them to an io.Writer past a
// configurable threshold. The Deserializer is incremental, pulling bytes
// through a cursor.Cursor and retrying frames that arrive fragmented.
package keyvalue
