package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tomaz/vidsent/internal/domain"
	"github.com/tomaz/vidsent/internal/storage"
)

// ErrNotFound is returned when a job or one of its documents does not
// exist in the container.
var ErrNotFound = errors.New("not found")

// Document filenames within a job's namespace. Each document is an
// independent, individually overwritable JSON blob.
const (
	JobMetadataFilename   = "job_metadata.json"
	VideoMetadataFilename = "video_metadata.json"
	TranscriptFilename    = "transcript.json"
	SummaryFilename       = "summary.json"
)

const keyPrefix = "results"

// JobStore persists per-job records as JSON documents under a job-scoped
// namespace in object storage. Put is a full overwrite with no
// compare-and-swap; callers read-modify-write to avoid losing fields.
type JobStore struct {
	storage storage.ObjectStorage
}

// NewJobStore creates a JobStore on top of the given object storage.
func NewJobStore(objectStorage storage.ObjectStorage) *JobStore {
	return &JobStore{storage: objectStorage}
}

// Key returns the storage key for one of a job's documents.
func (s *JobStore) Key(jobID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", keyPrefix, jobID, filename)
}

func (s *JobStore) readJSON(ctx context.Context, key string, out interface{}) error {
	reader, err := s.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (s *JobStore) writeJSON(ctx context.Context, key string, in interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Get reads a job's status record.
func (s *JobStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	var job domain.Job
	if err := s.readJSON(ctx, s.Key(jobID, JobMetadataFilename), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Put overwrites a job's status record. Last writer wins.
func (s *JobStore) Put(ctx context.Context, job *domain.Job) error {
	return s.writeJSON(ctx, s.Key(job.ID, JobMetadataFilename), job)
}

// UpdateStatus performs the read-modify-write status transition: the
// current record is re-read so the URL is carried through verbatim, the
// transition is validated against the domain table, and the whole
// record is overwritten.
func (s *JobStore) UpdateStatus(ctx context.Context, jobID string, next domain.JobStatus) (*domain.Job, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	status, err := job.Status.Transition(next)
	if err != nil {
		return nil, err
	}
	job.Status = status

	if err := s.Put(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// GetTranscript reads a job's transcript document.
func (s *JobStore) GetTranscript(ctx context.Context, jobID string) (*domain.Transcript, error) {
	var t domain.Transcript
	if err := s.readJSON(ctx, s.Key(jobID, TranscriptFilename), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// PutTranscript writes a job's transcript document.
func (s *JobStore) PutTranscript(ctx context.Context, t *domain.Transcript) error {
	return s.writeJSON(ctx, s.Key(t.ID, TranscriptFilename), t)
}

// GetVideoMetadata reads a job's video metadata document.
func (s *JobStore) GetVideoMetadata(ctx context.Context, jobID string) (*domain.VideoMetadata, error) {
	var m domain.VideoMetadata
	if err := s.readJSON(ctx, s.Key(jobID, VideoMetadataFilename), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// PutVideoMetadata writes a job's video metadata document.
func (s *JobStore) PutVideoMetadata(ctx context.Context, jobID string, m *domain.VideoMetadata) error {
	return s.writeJSON(ctx, s.Key(jobID, VideoMetadataFilename), m)
}

// GetSummary reads a job's summary document.
func (s *JobStore) GetSummary(ctx context.Context, jobID string) (*domain.Summary, error) {
	var sum domain.Summary
	if err := s.readJSON(ctx, s.Key(jobID, SummaryFilename), &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// PutSummary writes a job's summary document.
func (s *JobStore) PutSummary(ctx context.Context, jobID string, sum *domain.Summary) error {
	return s.writeJSON(ctx, s.Key(jobID, SummaryFilename), sum)
}

// AudioKey returns the storage key of a job's raw audio artifact.
func AudioKey(jobID, ext string) string {
	return keyPrefix + "/" + jobID + "/audio" + ext
}

// PutAudio stores a job's raw audio artifact and returns its key.
func (s *JobStore) PutAudio(ctx context.Context, jobID, ext string, reader io.Reader, size int64) (string, error) {
	key := AudioKey(jobID, ext)
	if err := s.storage.Upload(ctx, key, reader, size, "application/octet-stream"); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	return key, nil
}

// HasAudio reports whether a job's audio artifact is already staged.
func (s *JobStore) HasAudio(ctx context.Context, jobID, ext string) (bool, error) {
	return s.storage.Exists(ctx, AudioKey(jobID, ext))
}

// AudioURL returns the externally addressable URL of a job's audio.
func (s *JobStore) AudioURL(jobID, ext string) string {
	return s.storage.GetURL(AudioKey(jobID, ext))
}

// DeleteAudio removes a job's staged audio artifact. Missing objects
// are not an error.
func (s *JobStore) DeleteAudio(ctx context.Context, jobID, ext string) error {
	return s.storage.Delete(ctx, AudioKey(jobID, ext))
}

// GetAudio opens a job's stored audio artifact.
func (s *JobStore) GetAudio(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, err
	}
	return reader, nil
}
