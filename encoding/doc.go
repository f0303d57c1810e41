// Package encoding implements the primitive value encodings shared by the
// logir stream formats: tagged fixed-width integers and length-prefixed
// strings.
//
// Encoders append to caller-provided slices and always pick the smallest tag
// whose payload width fits the value. Decoders accept any valid tag/width
// combination, so a value encoded with a wider-than-necessary tag still
// decodes.
//
// Decode functions distinguish two failure modes:
//
//   - ErrShortBuffer: the input ends before the value does. Incremental
//     callers treat this as "refill the cursor and retry".
//   - ErrInvalidTag: the leading tag byte is not valid in this position.
//     Callers treat this as stream corruption.
package encoding
