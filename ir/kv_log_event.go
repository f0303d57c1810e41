package ir

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vmihailenco/msgpack/v5"
)

// Text encodings supported when projecting msgpack payloads to native maps.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"
)

// Error policies for text decoding: strict fails, ignore drops offending
// bytes, replace substitutes U+FFFD.
const (
	ErrorsStrict  = "strict"
	ErrorsIgnore  = "ignore"
	ErrorsReplace = "replace"
)

// DecodeOption configures the ToDict projection.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	encoding string
	errors   string
}

// WithTextEncoding selects the text encoding applied to string keys and
// values. Supported: EncodingUTF8 (default) and EncodingLatin1.
func WithTextEncoding(encoding string) DecodeOption {
	return func(cfg *decodeConfig) { cfg.encoding = encoding }
}

// WithErrorPolicy selects how text decode failures are handled. Supported:
// ErrorsStrict (default), ErrorsIgnore, ErrorsReplace.
func WithErrorPolicy(policy string) DecodeOption {
	return func(cfg *decodeConfig) { cfg.errors = policy }
}

// KeyValuePairLogEvent is one decoded structured log record: an
// auto-generated and a user-generated key-value tree, held as their original
// msgpack payloads so re-serializing a decoded event is bit-identical.
// Instances are immutable.
type KeyValuePairLogEvent struct {
	autoGen []byte
	userGen []byte
}

// NewKeyValuePairLogEvent creates an event from msgpack map payloads. The
// payloads are copied; the event shares no state with the caller's buffers.
// A nil autoGen stands for an empty auto-generated map.
func NewKeyValuePairLogEvent(autoGen, userGen []byte) *KeyValuePairLogEvent {
	return &KeyValuePairLogEvent{
		autoGen: bytes.Clone(autoGen),
		userGen: bytes.Clone(userGen),
	}
}

// AutoGenPayload returns a copy of the auto-generated msgpack payload, or nil
// when the event carries none.
func (e *KeyValuePairLogEvent) AutoGenPayload() []byte { return bytes.Clone(e.autoGen) }

// UserGenPayload returns a copy of the user-generated msgpack payload.
func (e *KeyValuePairLogEvent) UserGenPayload() []byte { return bytes.Clone(e.userGen) }

// ToDict decodes the msgpack payloads into native map trees. The projection
// is pure: it never mutates the event and repeated calls yield equal
// structures. String keys and values are decoded under the configured text
// encoding and error policy; the default is strict UTF-8, which fails with
// ErrTextDecode on invalid byte sequences.
func (e *KeyValuePairLogEvent) ToDict(opts ...DecodeOption) (autoGen, userGen map[string]any, err error) {
	cfg := decodeConfig{encoding: EncodingUTF8, errors: ErrorsStrict}
	for _, opt := range opts {
		opt(&cfg)
	}
	switch cfg.encoding {
	case EncodingUTF8, EncodingLatin1:
	default:
		return nil, nil, fmt.Errorf("%w: unsupported text encoding %q", ErrInvalidInput, cfg.encoding)
	}
	switch cfg.errors {
	case ErrorsStrict, ErrorsIgnore, ErrorsReplace:
	default:
		return nil, nil, fmt.Errorf("%w: unsupported error policy %q", ErrInvalidInput, cfg.errors)
	}

	autoGen, err = decodeMsgpackMap(e.autoGen, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("decode auto-generated payload: %w", err)
	}
	userGen, err = decodeMsgpackMap(e.userGen, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("decode user-generated payload: %w", err)
	}

	return autoGen, userGen, nil
}

func decodeMsgpackMap(payload []byte, cfg decodeConfig) (map[string]any, error) {
	if len(payload) == 0 {
		return map[string]any{}, nil
	}
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	dec.UseLooseInterfaceDecoding(true)
	raw, err := dec.DecodeMap()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}

	decoded, err := applyTextPolicy(raw, cfg)
	if err != nil {
		return nil, err
	}

	return decoded.(map[string]any), nil
}

// applyTextPolicy walks a decoded value tree and re-decodes every string
// under the configured encoding/policy.
func applyTextPolicy(v any, cfg decodeConfig) (any, error) {
	switch val := v.(type) {
	case string:
		return decodeText(val, cfg)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			decodedKey, err := decodeText(k, cfg)
			if err != nil {
				return nil, err
			}
			decodedVal, err := applyTextPolicy(inner, cfg)
			if err != nil {
				return nil, err
			}
			out[decodedKey] = decodedVal
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			decoded, err := applyTextPolicy(inner, cfg)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil
	default:
		return v, nil
	}
}

func decodeText(s string, cfg decodeConfig) (string, error) {
	if cfg.encoding == EncodingLatin1 {
		// Every byte maps to the code point of the same value.
		runes := make([]rune, 0, len(s))
		for i := 0; i < len(s); i++ {
			runes = append(runes, rune(s[i]))
		}
		return string(runes), nil
	}

	if utf8.ValidString(s) {
		return s, nil
	}
	switch cfg.errors {
	case ErrorsIgnore:
		return strings.ToValidUTF8(s, ""), nil
	case ErrorsReplace:
		return strings.ToValidUTF8(s, string(utf8.RuneError)), nil
	default:
		return "", fmt.Errorf("%w: invalid UTF-8 sequence", ErrTextDecode)
	}
}
