package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

// Transcriber converts spoken audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// HTTPTranscriber calls an OpenAI-compatible audio transcription
// endpoint (Whisper style) with a multipart upload.
type HTTPTranscriber struct {
	client   *resty.Client
	model    string
	endpoint string
}

// TranscriberConfig holds configuration for the transcription client.
type TranscriberConfig struct {
	Model   string
	APIKey  string
	BaseURL string
}

// NewHTTPTranscriber creates a new transcription client.
// Parameters:
//   - cfg: transcriber configuration including model, API key and base URL.
//
// Returns:
//   - *HTTPTranscriber: initialized client wrapper.
func NewHTTPTranscriber(cfg *TranscriberConfig) *HTTPTranscriber {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	// Transcription of long audio can take minutes
	client.SetTimeout(10 * time.Minute)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &HTTPTranscriber{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/audio/transcriptions",
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads audio and returns the recognized text. filename
// carries the extension the endpoint uses to sniff the audio format.
func (c *HTTPTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	var resp transcriptionResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetFileReader("file", filename, audio).
		SetFormData(map[string]string{
			"model": c.model,
		}).
		SetResult(&resp).
		Post(c.endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to call transcription API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return "", fmt.Errorf("transcription API returned HTTP %d: %s",
			httpResp.StatusCode(), string(httpResp.Body()))
	}

	return resp.Text, nil
}
