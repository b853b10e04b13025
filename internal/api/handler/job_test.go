package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tomaz/vidsent/internal/domain"
	"github.com/tomaz/vidsent/internal/service"
	"github.com/tomaz/vidsent/internal/storage"
	"github.com/tomaz/vidsent/internal/store"
)

type fakeQueue struct {
	queues   []string
	payloads [][]byte
}

func (q *fakeQueue) Enqueue(_ context.Context, queueName string, payload []byte) error {
	q.queues = append(q.queues, queueName)
	q.payloads = append(q.payloads, payload)
	return nil
}

type fakeIndex struct {
	records map[string]domain.JobRecord
}

func (f *fakeIndex) Upsert(_ context.Context, rec *domain.JobRecord) error {
	if f.records == nil {
		f.records = make(map[string]domain.JobRecord)
	}
	f.records[rec.ID] = *rec
	return nil
}

func (f *fakeIndex) List(_ context.Context, _, _ int) ([]domain.JobRecord, error) {
	var out []domain.JobRecord
	for _, rec := range f.records {
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeIndex) CountByStatus(_ context.Context) (map[domain.JobStatus]int64, error) {
	counts := make(map[domain.JobStatus]int64)
	for _, rec := range f.records {
		counts[rec.Status]++
	}
	return counts, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *store.JobStore, *fakeQueue, *fakeIndex) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jobs := store.NewJobStore(storage.NewMemoryStorage())
	q := &fakeQueue{}
	index := &fakeIndex{}
	h := NewJobHandler(jobs, index, q, "new-queue")

	r := gin.New()
	r.POST("/", h.Create)
	r.GET("/", h.Get)
	r.GET("/jobs", h.List)
	return r, jobs, q, index
}

func doJSON(r *gin.Engine, method, target string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateJobGeneratesID(t *testing.T) {
	r, jobs, q, index := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/", gin.H{"url": "https://www.youtube.com/watch?v=abc"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body)
	}

	var resp struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.ID == "" {
		t.Fatal("response id is empty")
	}
	if resp.URL != "https://www.youtube.com/watch?v=abc" {
		t.Errorf("response url = %q", resp.URL)
	}

	job, err := jobs.Get(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
	if job.Status != domain.JobStatusCreated {
		t.Errorf("status = %s, want CREATED", job.Status)
	}

	if len(q.queues) != 1 || q.queues[0] != "new-queue" {
		t.Fatalf("enqueued on %v, want new-queue", q.queues)
	}
	id, err := service.DecodeJobMessage(q.payloads[0])
	if err != nil || id != resp.ID {
		t.Errorf("queued message decoded to (%q, %v), want %q", id, err, resp.ID)
	}

	if _, ok := index.records[resp.ID]; !ok {
		t.Error("job missing from index")
	}
}

func TestCreateJobKeepsCallerID(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/", gin.H{"url": "https://youtu.be/abc", "id": "caller-chosen"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["id"] != "caller-chosen" {
		t.Errorf("id = %q, want caller-chosen", resp["id"])
	}
}

func TestCreateJobRequiresURL(t *testing.T) {
	r, _, q, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/", gin.H{"id": "no-url"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(q.queues) != 0 {
		t.Errorf("enqueued %v, want nothing", q.queues)
	}
}

func TestGetJobRecord(t *testing.T) {
	r, jobs, _, _ := newTestRouter(t)
	seed := &domain.Job{ID: "job-1", URL: "https://youtu.be/abc", Status: domain.JobStatusDone}
	if err := jobs.Put(context.Background(), seed); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	w := doJSON(r, http.MethodGet, "/?id=job-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var got domain.Job
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != *seed {
		t.Errorf("job = %+v, want %+v", got, *seed)
	}
}

func TestGetTranscriptShape(t *testing.T) {
	r, jobs, _, _ := newTestRouter(t)
	ctx := context.Background()
	if err := jobs.Put(ctx, &domain.Job{ID: "job-1", URL: "https://youtu.be/abc", Status: domain.JobStatusDone}); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	if err := jobs.PutTranscript(ctx, &domain.Transcript{ID: "job-1", Text: "Some words."}); err != nil {
		t.Fatalf("seed transcript: %v", err)
	}

	w := doJSON(r, http.MethodGet, "/?id=job-1&action=transcript", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		FullText struct {
			ID         string `json:"id"`
			Transcript string `json:"transcript"`
		} `json:"full-text"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.FullText.ID != "job-1" || resp.FullText.Transcript != "Some words." {
		t.Errorf("full-text = %+v", resp.FullText)
	}
}

func TestGetSummary(t *testing.T) {
	r, jobs, _, _ := newTestRouter(t)
	ctx := context.Background()
	sum := &domain.Summary{
		Verdict:         domain.Verdict{Score: 0.75, Label: domain.SentimentPositive},
		SentimentSeries: []domain.SentimentEntry{{Label: domain.SentimentPositive, Score: 0.75}},
		SentimentByFeature: domain.FeatureBreakdown{
			Device:   "test-phone",
			Features: map[string]domain.FeatureVerdict{"battery": {Score: 8.8, Label: domain.SentimentPositive}},
		},
	}
	if err := jobs.PutSummary(ctx, "job-1", sum); err != nil {
		t.Fatalf("seed summary: %v", err)
	}

	w := doJSON(r, http.MethodGet, "/?id=job-1&action=summary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var got domain.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Verdict != sum.Verdict {
		t.Errorf("verdict = %+v, want %+v", got.Verdict, sum.Verdict)
	}
}

func TestGetVideoMetadata(t *testing.T) {
	r, jobs, _, _ := newTestRouter(t)
	meta := &domain.VideoMetadata{Title: "Review", Duration: 300, SubtitleType: domain.SubtitleTypeManual}
	if err := jobs.PutVideoMetadata(context.Background(), "job-1", meta); err != nil {
		t.Fatalf("seed metadata: %v", err)
	}

	w := doJSON(r, http.MethodGet, "/?id=job-1&action=metadata", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var got domain.VideoMetadata
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != *meta {
		t.Errorf("metadata = %+v, want %+v", got, *meta)
	}
}

func TestGetUnknownJobIs404(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	for _, target := range []string{
		"/?id=missing",
		"/?id=missing&action=summary",
		"/?id=missing&action=metadata",
		"/?id=missing&action=transcript",
	} {
		w := doJSON(r, http.MethodGet, target, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", target, w.Code)
		}
	}
}

func TestGetRejectsBadRequests(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	if w := doJSON(r, http.MethodGet, "/", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing id status = %d, want 400", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/?id=job-1&action=bogus", nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown action status = %d, want 400", w.Code)
	}
}

func TestListJobs(t *testing.T) {
	r, _, _, index := newTestRouter(t)
	index.Upsert(context.Background(), &domain.JobRecord{ID: "a", URL: "u1", Status: domain.JobStatusDone})
	index.Upsert(context.Background(), &domain.JobRecord{ID: "b", URL: "u2", Status: domain.JobStatusCreated})

	w := doJSON(r, http.MethodGet, "/jobs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Jobs         []domain.JobRecord          `json:"jobs"`
		Count        int                         `json:"count"`
		StatusCounts map[domain.JobStatus]int64 `json:"status_counts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 2 || len(resp.Jobs) != 2 {
		t.Errorf("count = %d with %d jobs, want 2", resp.Count, len(resp.Jobs))
	}
	if resp.StatusCounts[domain.JobStatusDone] != 1 || resp.StatusCounts[domain.JobStatusCreated] != 1 {
		t.Errorf("status_counts = %v", resp.StatusCounts)
	}
}
