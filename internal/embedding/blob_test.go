package embedding

import (
	"errors"
	"math"
	"testing"
)

func TestBlobRoundTrip(t *testing.T) {
	v := Vector{0, 1.5, -2.25, math.MaxFloat32, -0.0001}

	blob := EncodeBlob(v)
	if len(blob) != 4*len(v) {
		t.Fatalf("expected %d bytes, got %d", 4*len(v), len(blob))
	}

	got, err := DecodeBlob(blob)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Dim() != v.Dim() {
		t.Fatalf("expected dim %d, got %d", v.Dim(), got.Dim())
	}
	for i := range v {
		if got[i] != v[i] {
			t.Errorf("element %d: expected %v, got %v", i, v[i], got[i])
		}
	}
}

func TestDecodeBlobCorrupt(t *testing.T) {
	cases := []struct {
		name string
		blob []byte
	}{
		{"empty", nil},
		{"zero length", []byte{}},
		{"truncated", []byte{1, 2, 3}},
		{"not multiple of four", make([]byte, 129)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeBlob(tc.blob); !errors.Is(err, ErrCorruptBlob) {
				t.Errorf("expected ErrCorruptBlob, got %v", err)
			}
		})
	}
}

func TestEuclideanDistanceSelf(t *testing.T) {
	vectors := []Vector{
		{0, 0},
		{1, 2, 3},
		{-4.5, 0.125, 9999},
	}
	for _, v := range vectors {
		if d := EuclideanDistance(v, v); d != 0 {
			t.Errorf("distance(v, v) = %v, expected 0 for %v", d, v)
		}
	}
}

func TestEuclideanDistance(t *testing.T) {
	a := Vector{0, 0}
	b := Vector{3, 4}
	if d := EuclideanDistance(a, b); d != 5 {
		t.Errorf("expected distance 5, got %v", d)
	}
}

func TestClone(t *testing.T) {
	v := Vector{1, 2, 3}
	c := v.Clone()
	c[0] = 42
	if v[0] != 1 {
		t.Error("clone should not share backing array")
	}
	if Vector(nil).Clone() != nil {
		t.Error("clone of nil should be nil")
	}
}
