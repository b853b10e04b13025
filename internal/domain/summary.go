package domain

// Sentiment labels produced by the binary classifier and the aggregate
// verdict. The classifier only ever emits POSITIVE or NEGATIVE; NEUTRAL
// exists at the aggregate level.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// SentimentEntry is the signed sentiment of one transcript sentence.
// Score is the classifier confidence, negated for NEGATIVE labels, so
// it always sits in [-1, 1]. Entries form a time series in sentence
// order.
type SentimentEntry struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Verdict is the overall sentiment of the whole transcript.
type Verdict struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// FeatureVerdict is the aggregated sentiment for one candidate feature,
// mapped onto a 0-10 scale. A feature no sentence was assigned to gets
// the midpoint {5.0, NEUTRAL} rather than being omitted.
type FeatureVerdict struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// FeatureBreakdown groups per-feature verdicts under the device they
// describe.
type FeatureBreakdown struct {
	Device   string                    `json:"device"`
	Features map[string]FeatureVerdict `json:"features"`
}

// Summary is the final report for a job. Written once by the analyze
// stage, immutable afterward; no partial summary is ever persisted.
type Summary struct {
	Verdict            Verdict          `json:"verdict"`
	SentimentSeries    []SentimentEntry `json:"sentiment_series"`
	SentimentByFeature FeatureBreakdown `json:"sentiment_by_feature"`
}
