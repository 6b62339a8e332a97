package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"lectureq_backend/internal/config"
)

// TextExtractor is the document-to-text collaborator. Parsing PDF, Word and
// PowerPoint is not done in-process; a sidecar service owns it.
type TextExtractor interface {
	Extract(ctx context.Context, r io.Reader, filename string) (string, error)
}

type HTTPExtractor struct {
	config config.ExtractConfig
}

func NewHTTPExtractor(cfg config.ExtractConfig) *HTTPExtractor {
	return &HTTPExtractor{config: cfg}
}

type extractResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

func (e *HTTPExtractor) Extract(ctx context.Context, r io.Reader, filename string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.config.BaseURL+"/extract", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("extraction service error (status %d): %s", resp.StatusCode, string(body))
	}

	var result extractResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.Error != "" {
		return "", fmt.Errorf("extraction failed: %s", result.Error)
	}

	return result.Text, nil
}
