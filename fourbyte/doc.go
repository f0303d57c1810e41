// Package fourbyte implements the unstructured (four-byte encoding) IR
// stream codec: a preamble carrying the stream metadata, a sequence of
// delta-timestamped log events, and a single-byte end-of-stream marker.
//
// Serialization is exposed both as pure Encode* functions producing byte
// slices and as a Serializer writing to an io.Writer. Deserialization is
// incremental: the Deserializer pulls bytes through a cursor.Cursor and
// retries records that arrive fragmented.
package fourbyte
