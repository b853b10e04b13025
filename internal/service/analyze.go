package service

import (
	"context"
	"math"
	"strings"

	"github.com/tomaz/vidsent/internal/domain"
	"github.com/tomaz/vidsent/internal/logger"
	"github.com/tomaz/vidsent/internal/store"
)

// AnalyzeService runs the final pipeline stage: it turns a transcript
// into the persisted sentiment summary and completes the job.
type AnalyzeService struct {
	jobs      *store.JobStore
	index     JobIndex
	sentiment SentimentClassifier
	zeroshot  ZeroShotClassifier
	device    string
	features  []string
	threshold float64
}

// NewAnalyzeService creates the analysis stage. device names the
// product the feature labels describe; threshold is the zero-shot
// confidence a sentence must exceed to count toward a feature.
func NewAnalyzeService(jobs *store.JobStore, index JobIndex, sentiment SentimentClassifier, zeroshot ZeroShotClassifier, device string, features []string, threshold float64) *AnalyzeService {
	return &AnalyzeService{
		jobs:      jobs,
		index:     index,
		sentiment: sentiment,
		zeroshot:  zeroshot,
		device:    device,
		features:  features,
		threshold: threshold,
	}
}

// Name identifies the stage in logs and dispatch routing.
func (s *AnalyzeService) Name() string {
	return "analyze"
}

// Handle builds and persists the summary for one job. The summary is
// written before the status flips to DONE, so a DONE job always has a
// complete summary; a classifier error leaves no partial summary
// behind.
func (s *AnalyzeService) Handle(ctx context.Context, jobID string) error {
	transcript, err := s.jobs.GetTranscript(ctx, jobID)
	if err != nil {
		return err
	}

	log := logger.With(logger.Fields{
		logger.FieldStage: s.Name(),
		logger.FieldJobID: jobID,
	})

	summary, err := s.Aggregate(ctx, transcript.Text)
	if err != nil {
		return err
	}

	if err := s.jobs.PutSummary(ctx, jobID, summary); err != nil {
		return err
	}

	if _, err := s.jobs.UpdateStatus(ctx, jobID, domain.JobStatusDone); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.SetStatus(ctx, jobID, domain.JobStatusDone); err != nil {
			log.Warn(ctx, "failed to mirror job status to index: %v", err)
		}
	}

	log.WithCount(len(summary.SentimentSeries)).
		WithStatus(summary.Verdict.Label).
		Info(ctx, "job analysis complete")

	return nil
}

// Aggregate computes the full summary for a transcript. Deterministic
// for fixed classifier outputs: rerunning it over the same transcript
// yields a byte-identical document.
func (s *AnalyzeService) Aggregate(ctx context.Context, text string) (*domain.Summary, error) {
	sentences := SegmentSentences(text)

	series := make([]domain.SentimentEntry, 0, len(sentences))
	for _, sentence := range sentences {
		entry, err := s.sentiment.Classify(ctx, sentence)
		if err != nil {
			return nil, err
		}
		if entry.Label == domain.SentimentNegative {
			entry.Score = -entry.Score
		}
		series = append(series, entry)
	}

	features, err := s.featureBreakdown(ctx, sentences, series)
	if err != nil {
		return nil, err
	}

	return &domain.Summary{
		Verdict:            overallVerdict(series),
		SentimentSeries:    series,
		SentimentByFeature: features,
	}, nil
}

func (s *AnalyzeService) featureBreakdown(ctx context.Context, sentences []string, series []domain.SentimentEntry) (domain.FeatureBreakdown, error) {
	breakdown := domain.FeatureBreakdown{
		Device:   s.device,
		Features: make(map[string]domain.FeatureVerdict, len(s.features)),
	}
	if len(s.features) == 0 {
		return breakdown, nil
	}

	buckets := make(map[string][]float64, len(s.features))
	for i, sentence := range sentences {
		scores, err := s.zeroshot.ClassifyLabels(ctx, sentence, s.features)
		if err != nil {
			return domain.FeatureBreakdown{}, err
		}
		// A sentence contributes to at most one bucket: the top-ranked
		// label, and only when its confidence clears the threshold.
		// Ties break on candidate order to keep the output stable.
		top, confidence := "", 0.0
		for _, label := range s.features {
			if scores[label] > confidence {
				top, confidence = label, scores[label]
			}
		}
		if top != "" && confidence > s.threshold {
			buckets[top] = append(buckets[top], series[i].Score)
		}
	}

	for _, feature := range s.features {
		breakdown.Features[feature] = featureVerdict(buckets[feature])
	}
	return breakdown, nil
}

// overallVerdict averages the signed series onto a single score. An
// empty series reads as a flat 0.0 NEUTRAL.
func overallVerdict(series []domain.SentimentEntry) domain.Verdict {
	if len(series) == 0 {
		return domain.Verdict{Score: 0.0, Label: domain.SentimentNeutral}
	}

	var sum float64
	for _, entry := range series {
		sum += entry.Score
	}
	score := round2(sum / float64(len(series)))

	label := domain.SentimentNeutral
	switch {
	case score > 0.5:
		label = domain.SentimentPositive
	case score < -0.5:
		label = domain.SentimentNegative
	}
	return domain.Verdict{Score: score, Label: label}
}

// featureVerdict maps a bucket of signed scores onto the 0-10 scale.
// Empty buckets land on the midpoint rather than being omitted.
func featureVerdict(scores []float64) domain.FeatureVerdict {
	if len(scores) == 0 {
		return domain.FeatureVerdict{Score: 5.0, Label: domain.SentimentNeutral}
	}

	var sum float64
	for _, v := range scores {
		sum += v
	}
	avg := sum / float64(len(scores))

	label := domain.SentimentNeutral
	switch {
	case avg <= -0.5:
		label = domain.SentimentNegative
	case avg >= 0.5:
		label = domain.SentimentPositive
	}
	return domain.FeatureVerdict{
		Score: round1((avg + 1) * 5),
		Label: label,
	}
}

// SegmentSentences splits a transcript on periods, trimming
// whitespace and dropping empty fragments. Decimal numbers and
// abbreviations split too; the series is charted per fragment.
func SegmentSentences(text string) []string {
	var sentences []string
	for _, part := range strings.Split(text, ".") {
		part = strings.TrimSpace(part)
		if part != "" {
			sentences = append(sentences, part)
		}
	}
	return sentences
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
