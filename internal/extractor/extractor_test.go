package extractor

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civreg/faceid/internal/config"
)

func newTestClient(url string) *Client {
	return NewClient(&config.ExtractorConfig{URL: url, Model: "facenet"})
}

func TestExtractSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		if got := r.FormValue("model"); got != "facenet" {
			t.Errorf("expected model facenet, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embedding": [1.5, -2.25, 0.5], "dim": 3, "model": "facenet"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	vec, err := client.Extract(context.Background(), []byte("fake image"))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 1.5 || vec[1] != -2.25 {
		t.Errorf("unexpected embedding: %v", vec)
	}
}

func TestExtractNoFace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error": "no face detected"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Extract(context.Background(), []byte("fake image"))
	if !errors.Is(err, ErrNoFace) {
		t.Fatalf("expected ErrNoFace, got %v", err)
	}
}

func TestExtractEmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embedding": [], "dim": 0}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Extract(context.Background(), []byte("fake image"))
	if !errors.Is(err, ErrNoFace) {
		t.Fatalf("expected ErrNoFace for empty embedding, got %v", err)
	}
}

func TestExtractServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Extract(context.Background(), []byte("fake image")); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestDecodeBase64Image(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff, 0xe0}
	encoded := base64.StdEncoding.EncodeToString(raw)

	for _, payload := range []string{encoded, "data:image/jpeg;base64," + encoded} {
		data, err := DecodeBase64Image(payload)
		if err != nil {
			t.Fatalf("decode failed for %q: %v", payload[:10], err)
		}
		if !bytes.Equal(data, raw) {
			t.Errorf("decoded bytes differ: %v", data)
		}
	}

	if _, err := DecodeBase64Image("not-valid-base64!!!"); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("expected ErrInvalidImage, got %v", err)
	}
	if _, err := DecodeBase64Image(""); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("expected ErrInvalidImage for empty payload, got %v", err)
	}
}

func TestNormalizeImageResizesLarge(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}

	out, err := NormalizeImage(buf.Bytes(), 100)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	decoded, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a valid image: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 50 {
		t.Errorf("expected 100x50, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestNormalizeImageKeepsSmall(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 40))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}

	out, err := NormalizeImage(buf.Bytes(), 100)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	decoded, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a valid image: %v", err)
	}
	if decoded.Bounds().Dx() != 50 || decoded.Bounds().Dy() != 40 {
		t.Errorf("small image must not be resized, got %v", decoded.Bounds())
	}
}

func TestNormalizeImageRejectsGarbage(t *testing.T) {
	if _, err := NormalizeImage([]byte("definitely not an image"), 100); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("expected ErrInvalidImage, got %v", err)
	}
}
