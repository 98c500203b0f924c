// Package ocr proxies receipt images to an external extraction service and
// normalizes whatever comes back. The service is an opaque text-in/text-out
// collaborator; nothing about the shape or typing of its response is
// trusted, so every field goes through strict validation with defaulting.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Extractor returns the raw response text for a receipt image. The result
// is expected to be JSON but is treated as untrusted until normalized.
type Extractor interface {
	Extract(ctx context.Context, imageBase64, mimeType string) (string, error)
}

// HTTPExtractor posts the image to an extraction endpoint as JSON.
type HTTPExtractor struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPExtractor(endpoint, apiKey string) *HTTPExtractor {
	return &HTTPExtractor{endpoint: endpoint, apiKey: apiKey, client: &http.Client{}}
}

type extractRequest struct {
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

func (e *HTTPExtractor) Extract(ctx context.Context, imageBase64, mimeType string) (string, error) {
	payload, err := json.Marshal(extractRequest{ImageBase64: imageBase64, MimeType: mimeType})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr endpoint: %s; body: %s", resp.Status, string(body))
	}
	return string(body), nil
}
