// Package embedding defines the face embedding vector type and its
// binary encoding.
package embedding

import "math"

// Vector is a fixed-dimension face embedding produced by the extractor
// model. Treated as immutable once created.
type Vector []float32

// Dim returns the vector dimension.
func (v Vector) Dim() int {
	return len(v)
}

// Clone returns an independent copy of the vector.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// EuclideanDistance computes the L2 distance between two vectors.
// Accumulates in float64 to keep the threshold comparison stable across
// platforms, then narrows to float32.
// Callers must ensure both vectors have the same dimension.
func EuclideanDistance(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}
