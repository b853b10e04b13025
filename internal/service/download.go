package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/tomaz/vidsent/internal/domain"
	"github.com/tomaz/vidsent/internal/logger"
	"github.com/tomaz/vidsent/internal/store"
)

// Enqueuer is the producing half of the queue, all the stages need.
type Enqueuer interface {
	Enqueue(ctx context.Context, queueName string, payload []byte) error
}

// JobIndex mirrors job status into the relational listing index.
// Index writes are best-effort; object storage stays the source of
// truth for job state.
type JobIndex interface {
	SetStatus(ctx context.Context, id string, status domain.JobStatus) error
}

// MediaProber inspects a video URL and fetches caption payloads and
// raw audio.
type MediaProber interface {
	Probe(ctx context.Context, videoURL string) (*MediaInfo, error)
	FetchCaption(ctx context.Context, captionURL string) ([]byte, error)
	FetchAudio(ctx context.Context, audioURL string) (io.ReadCloser, int64, error)
}

// captionPick is the outcome of caption selection: either a concrete
// track plus its provenance, or nothing, which is a legitimate result
// and not an error.
type captionPick struct {
	track        CaptionTrack
	subtitleType string
	found        bool
}

// DownloadService runs the first pipeline stage. For caption-bearing
// videos it extracts the transcript directly and skips the audio
// stages entirely; for direct audio URLs it stages the audio for
// speech recognition.
type DownloadService struct {
	jobs             *store.JobStore
	index            JobIndex
	queue            Enqueuer
	prober           MediaProber
	subtitleLangs    []string
	downloadedQueue  string
	transcribedQueue string
}

// NewDownloadService creates the download stage. subtitleLangs orders
// the caption languages to try before falling back to any language.
func NewDownloadService(jobs *store.JobStore, index JobIndex, q Enqueuer, prober MediaProber, subtitleLangs []string, downloadedQueue, transcribedQueue string) *DownloadService {
	return &DownloadService{
		jobs:             jobs,
		index:            index,
		queue:            q,
		prober:           prober,
		subtitleLangs:    subtitleLangs,
		downloadedQueue:  downloadedQueue,
		transcribedQueue: transcribedQueue,
	}
}

// Name identifies the stage in logs and dispatch routing.
func (s *DownloadService) Name() string {
	return "download"
}

// Handle processes one job. Rerunning a finished job repeats the same
// writes, so duplicate queue deliveries converge on the same state.
func (s *DownloadService) Handle(ctx context.Context, jobID string) error {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}

	log := logger.With(logger.Fields{
		logger.FieldStage: s.Name(),
		logger.FieldJobID: jobID,
	})

	switch domain.ResolvePlatform(job.URL) {
	case domain.PlatformYouTube:
		return s.handleYouTube(ctx, job, log)
	case domain.PlatformDirectAudio:
		return s.handleDirectAudio(ctx, job, log)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedPlatform, job.URL)
	}
}

func (s *DownloadService) handleYouTube(ctx context.Context, job *domain.Job, log *logger.Entry) error {
	info, err := s.prober.Probe(ctx, job.URL)
	if err != nil {
		return fmt.Errorf("failed to probe video: %w", err)
	}

	pick := pickCaptionTrack(info, s.subtitleLangs)
	if !pick.found {
		// No speech to analyze. Terminal, and not a failure.
		log.Info(ctx, "no caption tracks available, marking job as no-speech")
		if _, err := s.jobs.UpdateStatus(ctx, job.ID, domain.JobStatusNoSpeech); err != nil {
			return err
		}
		s.mirrorStatus(ctx, job.ID, domain.JobStatusNoSpeech, log)
		return nil
	}

	raw, err := s.prober.FetchCaption(ctx, pick.track.URL)
	if err != nil {
		return err
	}
	text, err := ParseJSON3(raw)
	if err != nil {
		return err
	}

	if err := s.jobs.PutTranscript(ctx, &domain.Transcript{ID: job.ID, Text: text}); err != nil {
		return err
	}

	meta := &domain.VideoMetadata{
		Title:        info.Title,
		Duration:     info.Duration,
		Uploader:     info.Uploader,
		UploadDate:   info.UploadDate,
		ViewCount:    info.ViewCount,
		SubtitleType: pick.subtitleType,
	}
	if err := s.jobs.PutVideoMetadata(ctx, job.ID, meta); err != nil {
		return err
	}

	if _, err := s.jobs.UpdateStatus(ctx, job.ID, domain.JobStatusTranscribed); err != nil {
		return err
	}
	s.mirrorStatus(ctx, job.ID, domain.JobStatusTranscribed, log)

	log.WithField("subtitle_type", pick.subtitleType).
		WithSize(len(text)).
		Info(ctx, "extracted transcript from captions")

	return s.queue.Enqueue(ctx, s.transcribedQueue, EncodeJobMessage(job.ID))
}

func (s *DownloadService) handleDirectAudio(ctx context.Context, job *domain.Job, log *logger.Entry) error {
	ext := AudioExt(job.URL)

	// A redelivered message may find the audio already staged; the
	// fetch is the only part worth skipping.
	staged, err := s.jobs.HasAudio(ctx, job.ID, ext)
	if err != nil {
		return err
	}
	if !staged {
		body, size, err := s.prober.FetchAudio(ctx, job.URL)
		if err != nil {
			return err
		}
		defer body.Close()

		if _, err := s.jobs.PutAudio(ctx, job.ID, ext, body, size); err != nil {
			return err
		}
	}

	if _, err := s.jobs.UpdateStatus(ctx, job.ID, domain.JobStatusDownloaded); err != nil {
		return err
	}
	s.mirrorStatus(ctx, job.ID, domain.JobStatusDownloaded, log)

	log.WithField("url", s.jobs.AudioURL(job.ID, ext)).Info(ctx, "staged audio for transcription")

	return s.queue.Enqueue(ctx, s.downloadedQueue, EncodeJobMessage(job.ID))
}

func (s *DownloadService) mirrorStatus(ctx context.Context, jobID string, status domain.JobStatus, log *logger.Entry) {
	if s.index == nil {
		return
	}
	if err := s.index.SetStatus(ctx, jobID, status); err != nil {
		log.WithStatus(string(status)).Warn(ctx, "failed to mirror job status to index: %v", err)
	}
}

// pickCaptionTrack selects the transcript source. Manually authored
// subtitles win over auto-generated captions, any language; within a
// listing, preferred languages are tried first and the first json3
// track wins.
func pickCaptionTrack(info *MediaInfo, langs []string) captionPick {
	if track, ok := firstJSON3Track(info.Subtitles, langs); ok {
		return captionPick{track: track, subtitleType: domain.SubtitleTypeManual, found: true}
	}
	if track, ok := firstJSON3Track(info.AutomaticCaptions, langs); ok {
		return captionPick{track: track, subtitleType: domain.SubtitleTypeAuto, found: true}
	}
	return captionPick{}
}

func firstJSON3Track(tracks map[string][]CaptionTrack, langs []string) (CaptionTrack, bool) {
	for _, lang := range langs {
		for _, t := range tracks[lang] {
			if t.Ext == "json3" {
				return t, true
			}
		}
	}
	for _, list := range tracks {
		for _, t := range list {
			if t.Ext == "json3" {
				return t, true
			}
		}
	}
	return CaptionTrack{}, false
}

// AudioExt returns the lowercase file extension of a direct audio URL,
// without any query string.
func AudioExt(rawURL string) string {
	trimmed := rawURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return strings.ToLower(path.Ext(trimmed))
}
