package embedding

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrCorruptBlob indicates a stored embedding blob that cannot be decoded
// (empty, or not a whole number of float32 values).
var ErrCorruptBlob = errors.New("corrupt embedding blob")

// EncodeBlob serializes a vector as raw IEEE-754 float32 values in native
// byte order. This is the legacy storage format used by blob-based backends.
func EncodeBlob(v Vector) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.NativeEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// DecodeBlob deserializes a raw float32 blob back into a vector.
// Returns ErrCorruptBlob if the blob is empty or its length is not a
// multiple of 4.
func DecodeBlob(b []byte) (Vector, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, ErrCorruptBlob
	}
	v := make(Vector, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.NativeEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
