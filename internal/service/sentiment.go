package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tomaz/vidsent/internal/domain"
)

// SentimentClassifier labels a single piece of text with a sentiment
// class and a confidence in [0, 1].
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (domain.SentimentEntry, error)
}

// HTTPSentimentClassifier calls a hosted text-classification endpoint
// (HuggingFace inference style) for sentiment labels.
type HTTPSentimentClassifier struct {
	client   *resty.Client
	model    string
	endpoint string
}

// SentimentConfig holds configuration for the sentiment classifier.
type SentimentConfig struct {
	Model   string
	APIKey  string
	BaseURL string
}

// NewHTTPSentimentClassifier creates a new sentiment classifier client.
// Parameters:
//   - cfg: classifier configuration including model, API key and base URL.
//
// Returns:
//   - *HTTPSentimentClassifier: initialized client wrapper.
func NewHTTPSentimentClassifier(cfg *SentimentConfig) *HTTPSentimentClassifier {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	// Set timeout to prevent hanging requests
	client.SetTimeout(60 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co"
	}

	return &HTTPSentimentClassifier{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/models/" + cfg.Model,
	}
}

type sentimentRequest struct {
	Inputs string `json:"inputs"`
}

// The inference API returns a nested list of label/score pairs, best
// score first.
type sentimentScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type sentimentResponse [][]sentimentScore

// Classify returns the top sentiment label and score for text.
func (c *HTTPSentimentClassifier) Classify(ctx context.Context, text string) (domain.SentimentEntry, error) {
	req := sentimentRequest{Inputs: text}

	var resp sentimentResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(c.endpoint)

	if err != nil {
		return domain.SentimentEntry{}, fmt.Errorf("failed to call sentiment API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return domain.SentimentEntry{}, fmt.Errorf("sentiment API returned HTTP %d: %s",
			httpResp.StatusCode(), string(httpResp.Body()))
	}

	if len(resp) == 0 || len(resp[0]) == 0 {
		return domain.SentimentEntry{}, fmt.Errorf("sentiment API returned no scores")
	}

	best := resp[0][0]
	return domain.SentimentEntry{
		Label: normalizeSentimentLabel(best.Label),
		Score: best.Score,
	}, nil
}

// Models disagree on label casing; normalize to the canonical values
// the summary document uses.
func normalizeSentimentLabel(label string) string {
	switch label {
	case "POSITIVE", "positive", "LABEL_1":
		return domain.SentimentPositive
	case "NEGATIVE", "negative", "LABEL_0":
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}
