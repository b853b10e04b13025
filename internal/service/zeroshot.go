package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ZeroShotResult maps each candidate label to its relevance
// confidence in [0, 1].
type ZeroShotResult map[string]float64

// ZeroShotClassifier scores a text against a set of candidate labels
// without task-specific training.
type ZeroShotClassifier interface {
	ClassifyLabels(ctx context.Context, text string, labels []string) (ZeroShotResult, error)
}

// HTTPZeroShotClassifier calls a hosted zero-shot classification
// endpoint (HuggingFace inference style).
type HTTPZeroShotClassifier struct {
	client   *resty.Client
	model    string
	endpoint string
}

// ZeroShotConfig holds configuration for the zero-shot classifier.
type ZeroShotConfig struct {
	Model   string
	APIKey  string
	BaseURL string
}

// NewHTTPZeroShotClassifier creates a new zero-shot classifier client.
func NewHTTPZeroShotClassifier(cfg *ZeroShotConfig) *HTTPZeroShotClassifier {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(60 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co"
	}

	return &HTTPZeroShotClassifier{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/models/" + cfg.Model,
	}
}

type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
}

type zeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
}

type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// ClassifyLabels scores text against labels. Single-label mode: the
// scores form a distribution over the candidates and the top one is
// the sentence's feature.
func (c *HTTPZeroShotClassifier) ClassifyLabels(ctx context.Context, text string, labels []string) (ZeroShotResult, error) {
	req := zeroShotRequest{
		Inputs: text,
		Parameters: zeroShotParameters{
			CandidateLabels: labels,
		},
	}

	var resp zeroShotResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(c.endpoint)

	if err != nil {
		return nil, fmt.Errorf("failed to call zero-shot API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return nil, fmt.Errorf("zero-shot API returned HTTP %d: %s",
			httpResp.StatusCode(), string(httpResp.Body()))
	}

	if len(resp.Labels) != len(resp.Scores) {
		return nil, fmt.Errorf("zero-shot API returned %d labels but %d scores",
			len(resp.Labels), len(resp.Scores))
	}

	result := make(ZeroShotResult, len(resp.Labels))
	for i, label := range resp.Labels {
		result[label] = resp.Scores[i]
	}
	return result, nil
}
