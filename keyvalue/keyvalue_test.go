package keyvalue

import (
	"bytes"
	"fmt"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/arloliu/logir/cursor"
	"github.com/arloliu/logir/ir"
)

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	payload, err := msgpack.Marshal(v)
	require.NoError(t, err)

	return payload
}

func TestRoundTrip(t *testing.T) {
	metadata := map[string]any{"source": "app-7", "version": "1.2.3"}
	events := []struct {
		autoGen map[string]any
		userGen map[string]any
	}{
		{nil, map[string]any{"level": "INFO", "msg": "started"}},
		{map[string]any{"ts": int64(1700000000000)}, map[string]any{"level": "WARN", "retries": int64(2)}},
		{nil, map[string]any{"nested": map[string]any{"a": []any{int64(1), int64(2)}}}},
	}

	var out bytes.Buffer
	s, err := NewSerializer(&out, WithUserDefinedMetadata(metadata))
	require.NoError(t, err)
	for _, e := range events {
		var autoGen []byte
		if e.autoGen != nil {
			autoGen = mustMarshal(t, e.autoGen)
		}
		_, err := s.SerializeLogEventFromMsgpackMap(autoGen, mustMarshal(t, e.userGen))
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	d := NewDeserializer(cursor.New(bytes.NewReader(out.Bytes())))
	gotMeta, err := d.DeserializeHeader()
	require.NoError(t, err)
	assert.Equal(t, metadata, gotMeta)
	assert.Equal(t, metadata, d.UserDefinedMetadata())

	for i, want := range events {
		event, err := d.DeserializeLogEvent()
		require.NoError(t, err)
		require.NotNil(t, event, "event %d", i)

		auto, user, err := event.ToDict()
		require.NoError(t, err)
		assert.Equal(t, want.userGen, user, "event %d", i)
		if want.autoGen == nil {
			assert.Empty(t, auto)
		} else {
			assert.Equal(t, want.autoGen, auto)
		}
	}

	event, err := d.DeserializeLogEvent()
	require.NoError(t, err)
	assert.Nil(t, event, "end of stream")
	assert.Equal(t, uint64(len(events)), d.EventsDecoded())
}

func TestRoundTrip_BufferCapacities(t *testing.T) {
	// The deserializer must be insensitive to how the bytes are chunked.
	for _, capacity := range []int{1, 16, 256, 65536} {
		t.Run(fmt.Sprintf("capacity %d", capacity), func(t *testing.T) {
			var out bytes.Buffer
			s, err := NewSerializer(&out)
			require.NoError(t, err)
			for i := 0; i < 50; i++ {
				_, err := s.SerializeLogEventFromMsgpackMap(nil,
					mustMarshal(t, map[string]any{"seq": int64(i)}))
				require.NoError(t, err)
			}
			require.NoError(t, s.Close())

			cur := cursor.New(iotest.OneByteReader(bytes.NewReader(out.Bytes())),
				cursor.WithInitialCapacity(capacity))
			d := NewDeserializer(cur)
			_, err = d.DeserializeHeader()
			require.NoError(t, err)

			for i := 0; i < 50; i++ {
				event, err := d.DeserializeLogEvent()
				require.NoError(t, err)
				require.NotNil(t, event)
				_, user, err := event.ToDict()
				require.NoError(t, err)
				assert.Equal(t, int64(i), user["seq"])
			}
			event, err := d.DeserializeLogEvent()
			require.NoError(t, err)
			assert.Nil(t, event)
		})
	}
}

func TestRoundTrip_VerbatimPayloads(t *testing.T) {
	userGen := mustMarshal(t, map[string]any{"a": int64(1), "b": "two", "c": []any{int64(3)}})
	autoGen := mustMarshal(t, map[string]any{"ts": int64(42)})

	var out bytes.Buffer
	s, err := NewSerializer(&out)
	require.NoError(t, err)
	_, err = s.SerializeLogEventFromMsgpackMap(autoGen, userGen)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	d := NewDeserializer(cursor.New(bytes.NewReader(out.Bytes())))
	_, err = d.DeserializeHeader()
	require.NoError(t, err)
	event, err := d.DeserializeLogEvent()
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.Equal(t, autoGen, event.AutoGenPayload(), "payload bytes survive framing verbatim")
	assert.Equal(t, userGen, event.UserGenPayload())
}

func TestSerializer_DefaultMetadataIsEmptyMap(t *testing.T) {
	var out bytes.Buffer
	s, err := NewSerializer(&out)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	d := NewDeserializer(cursor.New(bytes.NewReader(out.Bytes())))
	metadata, err := d.DeserializeHeader()
	require.NoError(t, err)
	assert.Empty(t, metadata)
}

func TestSerializer_RejectsNonMapPayload(t *testing.T) {
	var out bytes.Buffer
	s, err := NewSerializer(&out)
	require.NoError(t, err)

	_, err = s.SerializeLogEventFromMsgpackMap(nil, mustMarshal(t, []any{"not", "a", "map"}))
	require.ErrorIs(t, err, ir.ErrInvalidInput)

	_, err = s.SerializeLogEventFromMsgpackMap(nil, nil)
	require.ErrorIs(t, err, ir.ErrInvalidInput)

	_, err = s.SerializeLogEventFromMsgpackMap(mustMarshal(t, "scalar"), mustMarshal(t, map[string]any{}))
	require.ErrorIs(t, err, ir.ErrInvalidInput)
}

func TestSerializer_FlushThreshold(t *testing.T) {
	var out bytes.Buffer
	s, err := NewSerializer(&out, WithFlushThreshold(0))
	require.NoError(t, err)

	// With a zero threshold every event flushes, header included.
	_, err = s.SerializeLogEventFromMsgpackMap(nil, mustMarshal(t, map[string]any{"k": "v"}))
	require.NoError(t, err)
	assert.NotZero(t, out.Len(), "zero threshold flushes immediately")
	assert.Zero(t, s.BufferedBytes())

	require.NoError(t, s.Close())
}

func TestSerializer_BuffersBelowThreshold(t *testing.T) {
	var out bytes.Buffer
	s, err := NewSerializer(&out, WithFlushThreshold(1<<20))
	require.NoError(t, err)

	_, err = s.SerializeLogEventFromMsgpackMap(nil, mustMarshal(t, map[string]any{"k": "v"}))
	require.NoError(t, err)
	assert.Zero(t, out.Len(), "small events stay buffered")
	assert.NotZero(t, s.BufferedBytes())

	require.NoError(t, s.Flush())
	assert.NotZero(t, out.Len())
	assert.Zero(t, s.BufferedBytes())

	require.NoError(t, s.Close())
}

func TestSerializer_ClosedRejectsCalls(t *testing.T) {
	var out bytes.Buffer
	s, err := NewSerializer(&out)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "repeated close is a no-op")

	_, err = s.SerializeLogEventFromMsgpackMap(nil, mustMarshal(t, map[string]any{}))
	require.ErrorIs(t, err, ir.ErrInvalidInput)
	require.Error(t, s.Flush())
}

func TestDeserializeHeader_WrongTag(t *testing.T) {
	d := NewDeserializer(cursor.New(bytes.NewReader([]byte{0x7F, 0x41})))

	_, err := d.DeserializeHeader()
	require.ErrorIs(t, err, ir.ErrCorruptStream)
}

func TestDeserializeLogEvent_BeforeHeader(t *testing.T) {
	d := NewDeserializer(cursor.New(bytes.NewReader(nil)))

	_, err := d.DeserializeLogEvent()
	require.ErrorIs(t, err, ir.ErrInvalidInput)
}

func TestIncompleteStream(t *testing.T) {
	var out bytes.Buffer
	s, err := NewSerializer(&out)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := s.SerializeLogEventFromMsgpackMap(nil, mustMarshal(t, map[string]any{"seq": int64(i)}))
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	// Drop the end marker and part of the last frame.
	truncated := out.Bytes()[:out.Len()-4]

	t.Run("default errors", func(t *testing.T) {
		d := NewDeserializer(cursor.New(bytes.NewReader(truncated)))
		_, err := d.DeserializeHeader()
		require.NoError(t, err)

		var decodeErr error
		for decodeErr == nil {
			var event *ir.KeyValuePairLogEvent
			event, decodeErr = d.DeserializeLogEvent()
			if event == nil {
				break
			}
		}
		require.ErrorIs(t, decodeErr, ir.ErrIncompleteStream)
	})

	t.Run("allow incomplete ends cleanly", func(t *testing.T) {
		d := NewDeserializer(cursor.New(bytes.NewReader(truncated)), WithAllowIncompleteStream(true))
		_, err := d.DeserializeHeader()
		require.NoError(t, err)

		count := 0
		for {
			event, err := d.DeserializeLogEvent()
			require.NoError(t, err)
			if event == nil {
				break
			}
			count++
		}
		assert.Equal(t, 2, count, "fully received frames are not lost")
	})
}

func TestSerializeLogEvent_FromDecodedEvent(t *testing.T) {
	userGen := mustMarshal(t, map[string]any{"k": "v"})
	event := ir.NewKeyValuePairLogEvent(nil, userGen)

	var out bytes.Buffer
	s, err := NewSerializer(&out)
	require.NoError(t, err)
	_, err = s.SerializeLogEvent(event)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	d := NewDeserializer(cursor.New(bytes.NewReader(out.Bytes())))
	_, err = d.DeserializeHeader()
	require.NoError(t, err)
	got, err := d.DeserializeLogEvent()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, userGen, got.UserGenPayload())
}
