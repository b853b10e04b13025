package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/tomaz/vidsent/internal/domain"
)

type fakeSentiment struct {
	byText map[string]domain.SentimentEntry
}

func (f *fakeSentiment) Classify(_ context.Context, text string) (domain.SentimentEntry, error) {
	entry, ok := f.byText[text]
	if !ok {
		return domain.SentimentEntry{}, fmt.Errorf("unexpected sentence: %q", text)
	}
	return entry, nil
}

type fakeZeroShot struct {
	byText map[string]ZeroShotResult
}

func (f *fakeZeroShot) ClassifyLabels(_ context.Context, text string, labels []string) (ZeroShotResult, error) {
	scores, ok := f.byText[text]
	if !ok {
		return nil, fmt.Errorf("unexpected sentence: %q", text)
	}
	return scores, nil
}

func TestSegmentSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "simple sentences",
			text: "Great phone. Bad camera.",
			want: []string{"Great phone", "Bad camera"},
		},
		{
			name: "trailing and repeated periods",
			text: "Okay then... Sure.",
			want: []string{"Okay then", "Sure"},
		},
		{
			name: "whitespace only fragments dropped",
			text: " .  . ",
			want: nil,
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
		{
			name: "decimal numbers split",
			text: "It scored 4.5 stars",
			want: []string{"It scored 4", "5 stars"},
		},
		{
			name: "newlines trimmed",
			text: "First line.\nSecond line.",
			want: []string{"First line", "Second line"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SegmentSentences(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SegmentSentences(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func newReviewAnalyzer() *AnalyzeService {
	sentiment := &fakeSentiment{byText: map[string]domain.SentimentEntry{
		"The battery life is amazing and lasts the whole day": {Label: domain.SentimentPositive, Score: 0.9},
		"The camera at night is quite bad":                    {Label: domain.SentimentNegative, Score: 0.8},
		"Charging is fast enough":                             {Label: domain.SentimentPositive, Score: 0.6},
		"The camera app keeps crashing":                       {Label: domain.SentimentNegative, Score: 0.7},
		"The design looks fantastic":                          {Label: domain.SentimentPositive, Score: 0.95},
	}}
	zeroshot := &fakeZeroShot{byText: map[string]ZeroShotResult{
		"The battery life is amazing and lasts the whole day": {"battery": 0.9, "camera": 0.1, "screen": 0.05, "design": 0.02},
		"The camera at night is quite bad":                    {"battery": 0.05, "camera": 0.8, "screen": 0.1, "design": 0.02},
		"Charging is fast enough":                             {"battery": 0.4, "camera": 0.02, "screen": 0.01, "design": 0.01},
		"The camera app keeps crashing":                       {"battery": 0.02, "camera": 0.5, "screen": 0.2, "design": 0.01},
		"The design looks fantastic":                          {"battery": 0.01, "camera": 0.05, "screen": 0.1, "design": 0.6},
	}}
	return NewAnalyzeService(nil, nil, sentiment, zeroshot,
		"test-phone", []string{"battery", "camera", "screen", "design"}, 0.3)
}

const reviewTranscript = "The battery life is amazing and lasts the whole day. " +
	"The camera at night is quite bad. Charging is fast enough. " +
	"The camera app keeps crashing. The design looks fantastic."

func TestAggregateReviewTranscript(t *testing.T) {
	svc := newReviewAnalyzer()

	summary, err := svc.Aggregate(context.Background(), reviewTranscript)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	// Signed series: 0.9, -0.8, 0.6, -0.7, 0.95; mean 0.19.
	if got := len(summary.SentimentSeries); got != 5 {
		t.Fatalf("series length = %d, want 5", got)
	}
	if summary.SentimentSeries[1].Score != -0.8 {
		t.Errorf("negative entry score = %v, want -0.8", summary.SentimentSeries[1].Score)
	}
	if summary.Verdict.Score != 0.19 {
		t.Errorf("verdict score = %v, want 0.19", summary.Verdict.Score)
	}
	if summary.Verdict.Label != domain.SentimentNeutral {
		t.Errorf("verdict label = %q, want NEUTRAL", summary.Verdict.Label)
	}

	if summary.SentimentByFeature.Device != "test-phone" {
		t.Errorf("device = %q, want test-phone", summary.SentimentByFeature.Device)
	}

	wantFeatures := map[string]domain.FeatureVerdict{
		// battery bucket {0.9, 0.6}: avg 0.75 -> 8.8 POSITIVE
		"battery": {Score: 8.8, Label: domain.SentimentPositive},
		// camera bucket {-0.8, -0.7}: avg -0.75 -> 1.3 NEGATIVE
		"camera": {Score: 1.3, Label: domain.SentimentNegative},
		// screen got no sentences above the threshold
		"screen": {Score: 5.0, Label: domain.SentimentNeutral},
		// design bucket {0.95}: -> 9.8 POSITIVE
		"design": {Score: 9.8, Label: domain.SentimentPositive},
	}
	if !reflect.DeepEqual(summary.SentimentByFeature.Features, wantFeatures) {
		t.Errorf("features = %+v, want %+v", summary.SentimentByFeature.Features, wantFeatures)
	}
}

func TestAggregateEmptyTranscript(t *testing.T) {
	svc := newReviewAnalyzer()

	summary, err := svc.Aggregate(context.Background(), "")
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if summary.Verdict.Score != 0.0 || summary.Verdict.Label != domain.SentimentNeutral {
		t.Errorf("verdict = %+v, want {0 NEUTRAL}", summary.Verdict)
	}
	if len(summary.SentimentSeries) != 0 {
		t.Errorf("series = %v, want empty", summary.SentimentSeries)
	}
	// Every candidate feature still appears, at the midpoint.
	for _, feature := range []string{"battery", "camera", "screen", "design"} {
		got, ok := summary.SentimentByFeature.Features[feature]
		if !ok {
			t.Fatalf("feature %q missing from breakdown", feature)
		}
		want := domain.FeatureVerdict{Score: 5.0, Label: domain.SentimentNeutral}
		if got != want {
			t.Errorf("feature %q = %+v, want %+v", feature, got, want)
		}
	}
}

func TestAggregateDeterministic(t *testing.T) {
	svc := newReviewAnalyzer()

	first, err := svc.Aggregate(context.Background(), reviewTranscript)
	if err != nil {
		t.Fatalf("first Aggregate() error = %v", err)
	}
	second, err := svc.Aggregate(context.Background(), reviewTranscript)
	if err != nil {
		t.Fatalf("second Aggregate() error = %v", err)
	}

	firstJSON, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal first: %v", err)
	}
	secondJSON, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal second: %v", err)
	}
	if !bytes.Equal(firstJSON, secondJSON) {
		t.Errorf("summaries differ across runs:\n%s\n%s", firstJSON, secondJSON)
	}
}

func TestFeatureThresholdIsExclusive(t *testing.T) {
	sentiment := &fakeSentiment{byText: map[string]domain.SentimentEntry{
		"Battery holds up": {Label: domain.SentimentPositive, Score: 1.0},
	}}
	zeroshot := &fakeZeroShot{byText: map[string]ZeroShotResult{
		// Exactly at the threshold does not count; just above does.
		"Battery holds up": {"battery": 0.3, "camera": 0.31},
	}}
	svc := NewAnalyzeService(nil, nil, sentiment, zeroshot,
		"test-phone", []string{"battery", "camera"}, 0.3)

	summary, err := svc.Aggregate(context.Background(), "Battery holds up.")
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if got := summary.SentimentByFeature.Features["battery"]; got.Score != 5.0 {
		t.Errorf("battery at threshold bucketed anyway: %+v", got)
	}
	if got := summary.SentimentByFeature.Features["camera"]; got.Score != 10.0 {
		t.Errorf("camera above threshold = %+v, want score 10.0", got)
	}
}

func TestFeatureAssignmentTopLabelOnly(t *testing.T) {
	sentiment := &fakeSentiment{byText: map[string]domain.SentimentEntry{
		"The battery drains while the camera runs": {Label: domain.SentimentNegative, Score: 0.9},
	}}
	zeroshot := &fakeZeroShot{byText: map[string]ZeroShotResult{
		// Both labels clear the threshold; only the higher one counts.
		"The battery drains while the camera runs": {"battery": 0.6, "camera": 0.4},
	}}
	svc := NewAnalyzeService(nil, nil, sentiment, zeroshot,
		"test-phone", []string{"battery", "camera"}, 0.3)

	summary, err := svc.Aggregate(context.Background(), "The battery drains while the camera runs.")
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if got := summary.SentimentByFeature.Features["battery"]; got.Score != 0.5 || got.Label != domain.SentimentNegative {
		t.Errorf("battery = %+v, want {0.5 NEGATIVE}", got)
	}
	if got := summary.SentimentByFeature.Features["camera"]; got.Score != 5.0 || got.Label != domain.SentimentNeutral {
		t.Errorf("camera = %+v, want untouched midpoint", got)
	}
}

func TestFeatureScoreBounds(t *testing.T) {
	tests := []struct {
		name      string
		scores    []float64
		wantScore float64
		wantLabel string
	}{
		{"fully negative", []float64{-1, -1}, 0.0, domain.SentimentNegative},
		{"fully positive", []float64{1, 1}, 10.0, domain.SentimentPositive},
		{"exactly negative boundary", []float64{-0.5}, 2.5, domain.SentimentNegative},
		{"exactly positive boundary", []float64{0.5}, 7.5, domain.SentimentPositive},
		{"just inside neutral band", []float64{0.49}, 7.5, domain.SentimentNeutral},
		{"empty bucket", nil, 5.0, domain.SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := featureVerdict(tt.scores)
			if got.Score != tt.wantScore || got.Label != tt.wantLabel {
				t.Errorf("featureVerdict(%v) = %+v, want {%v %s}",
					tt.scores, got, tt.wantScore, tt.wantLabel)
			}
		})
	}
}

func TestOverallVerdictBoundaries(t *testing.T) {
	entry := func(score float64) domain.SentimentEntry {
		label := domain.SentimentPositive
		if score < 0 {
			label = domain.SentimentNegative
		}
		return domain.SentimentEntry{Label: label, Score: score}
	}

	tests := []struct {
		name      string
		series    []domain.SentimentEntry
		wantScore float64
		wantLabel string
	}{
		{"exactly 0.5 is neutral", []domain.SentimentEntry{entry(0.5)}, 0.5, domain.SentimentNeutral},
		{"above 0.5 is positive", []domain.SentimentEntry{entry(0.51)}, 0.51, domain.SentimentPositive},
		{"exactly -0.5 is neutral", []domain.SentimentEntry{entry(-0.5)}, -0.5, domain.SentimentNeutral},
		{"below -0.5 is negative", []domain.SentimentEntry{entry(-0.51)}, -0.51, domain.SentimentNegative},
		{"rounded to two decimals", []domain.SentimentEntry{entry(0.333), entry(0.333), entry(0.334)}, 0.33, domain.SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := overallVerdict(tt.series)
			if got.Score != tt.wantScore || got.Label != tt.wantLabel {
				t.Errorf("overallVerdict() = %+v, want {%v %s}", got, tt.wantScore, tt.wantLabel)
			}
		})
	}
}
