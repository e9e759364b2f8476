// Package extractor is the client for the external face embedding
// service. The service owns face detection and the neural feature
// extractor; this package only consumes its output contract.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/civreg/faceid/internal/config"
	"github.com/civreg/faceid/internal/embedding"
)

const (
	defaultExtractorURL = "http://localhost:8000"
	requestTimeout      = 30 * time.Second
)

// ErrNoFace is returned when the service cannot find a usable face in the
// image. The caller surfaces it as "cannot process this image"; no
// matching is attempted.
var ErrNoFace = errors.New("no usable face detected")

// Extractor produces a face embedding from raw image bytes.
type Extractor interface {
	Extract(ctx context.Context, imageData []byte) (embedding.Vector, error)
}

// Client calls the face embedding HTTP service.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewClient creates an extractor client from config.
func NewClient(cfg *config.ExtractorConfig) *Client {
	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = defaultExtractorURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// extractResponse is the service's wire format.
type extractResponse struct {
	Embedding []float32 `json:"embedding"`
	Dim       int       `json:"dim"`
	Model     string    `json:"model"`
	Error     string    `json:"error,omitempty"`
}

// Extract posts the image to the embedding service and returns the face
// embedding. Returns ErrNoFace when the service reports no detectable
// face (HTTP 422).
func (c *Client) Extract(ctx context.Context, imageData []byte) (embedding.Vector, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "face.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if c.model != "" {
		if err := writer.WriteField("model", c.model); err != nil {
			return nil, fmt.Errorf("failed to write model field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed/face", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnprocessableEntity {
		return nil, ErrNoFace
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extractor error (status %d): %s", resp.StatusCode, string(body))
	}

	var extractResp extractResponse
	if err := json.Unmarshal(body, &extractResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(extractResp.Embedding) == 0 {
		return nil, ErrNoFace
	}

	return embedding.Vector(extractResp.Embedding), nil
}
