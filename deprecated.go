package logir

import (
	"io"

	"github.com/arloliu/logir/cursor"
	"github.com/arloliu/logir/fourbyte"
)

// Decoder is the pre-1.0 name of the unstructured stream deserializer.
//
// Deprecated: use fourbyte.Deserializer.
type Decoder = fourbyte.Deserializer

// Encoder is the pre-1.0 name of the unstructured stream serializer.
//
// Deprecated: use fourbyte.Serializer.
type Encoder = fourbyte.Serializer

// NewDecoder creates a Decoder reading from r through a freshly allocated
// decode buffer.
//
// Deprecated: use cursor.New with fourbyte.NewDeserializer.
func NewDecoder(r io.Reader) *Decoder {
	return fourbyte.NewDeserializer(cursor.New(r))
}

// NewEncoder creates an Encoder writing to w.
//
// Deprecated: use fourbyte.NewSerializer.
func NewEncoder(w io.Writer) *Encoder {
	return fourbyte.NewSerializer(w)
}
