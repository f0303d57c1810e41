package logir

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/logir/compress"
	"github.com/arloliu/logir/format"
	"github.com/arloliu/logir/fourbyte"
	"github.com/arloliu/logir/reader"
)

func writeIRFile(t *testing.T, messages []string) string {
	t.Helper()

	var raw bytes.Buffer
	s := fourbyte.NewSerializer(&raw)
	require.NoError(t, s.SerializePreamble(1700000000000, "", "UTC"))
	for i, m := range messages {
		require.NoError(t, s.SerializeLogEvent(1700000000000+int64(i)*100, m))
	}
	require.NoError(t, s.Close())

	var compressed bytes.Buffer
	w, err := compress.NewWriter(format.CompressionZstd, &compressed)
	require.NoError(t, err)
	_, err = w.Write(raw.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "stream.clp.zst")
	require.NoError(t, os.WriteFile(path, compressed.Bytes(), 0o644))

	return path
}

func TestOpenFile(t *testing.T) {
	messages := []string{"first\n", "second\n", "third\n"}
	path := writeIRFile(t, messages)

	r, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, r.Path())

	var got []string
	for {
		event, err := r.ReadNextLogEvent()
		require.NoError(t, err)
		if event == nil {
			break
		}
		got = append(got, event.Message())
	}
	assert.Equal(t, messages, got)

	require.NoError(t, r.Close())
}

func TestOpenFile_Missing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "no-such-file"))
	require.Error(t, err)
}

func TestOpenFile_Options(t *testing.T) {
	// An uncompressed stream read through the option pass-through.
	var raw bytes.Buffer
	s := fourbyte.NewSerializer(&raw)
	require.NoError(t, s.SerializePreamble(0, "", ""))
	require.NoError(t, s.SerializeLogEvent(10, "plain\n"))
	require.NoError(t, s.Close())

	path := filepath.Join(t.TempDir(), "stream.clp")
	require.NoError(t, os.WriteFile(path, raw.Bytes(), 0o644))

	r, err := OpenFile(path, reader.WithCompression(format.CompressionNone))
	require.NoError(t, err)
	defer r.Close()

	event, err := r.ReadNextLogEvent()
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "plain\n", event.Message())
}

func TestDeprecatedAliases(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out)
	require.NoError(t, enc.SerializePreamble(0, "", ""))
	require.NoError(t, enc.SerializeLogEvent(42, "legacy caller\n"))
	require.NoError(t, enc.Close())

	dec := NewDecoder(bytes.NewReader(out.Bytes()))
	_, err := dec.DeserializePreamble()
	require.NoError(t, err)

	event, err := dec.NextLogEvent(nil)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "legacy caller\n", event.Message())
	assert.Equal(t, int64(42), event.Timestamp())
}
