package service

import (
	"context"

	"github.com/tomaz/vidsent/internal/domain"
	"github.com/tomaz/vidsent/internal/logger"
	"github.com/tomaz/vidsent/internal/store"
)

// TranscribeService runs the speech-recognition stage for jobs whose
// audio was staged by the download stage.
type TranscribeService struct {
	jobs             *store.JobStore
	index            JobIndex
	queue            Enqueuer
	transcriber      Transcriber
	transcribedQueue string
}

// NewTranscribeService creates the transcription stage.
func NewTranscribeService(jobs *store.JobStore, index JobIndex, q Enqueuer, t Transcriber, transcribedQueue string) *TranscribeService {
	return &TranscribeService{
		jobs:             jobs,
		index:            index,
		queue:            q,
		transcriber:      t,
		transcribedQueue: transcribedQueue,
	}
}

// Name identifies the stage in logs and dispatch routing.
func (s *TranscribeService) Name() string {
	return "transcribe"
}

// Handle transcribes the staged audio for one job and advances it to
// the analysis stage.
func (s *TranscribeService) Handle(ctx context.Context, jobID string) error {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}

	log := logger.With(logger.Fields{
		logger.FieldStage: s.Name(),
		logger.FieldJobID: jobID,
	})

	ext := AudioExt(job.URL)
	key := store.AudioKey(jobID, ext)

	audio, err := s.jobs.GetAudio(ctx, key)
	if err != nil {
		return err
	}
	defer audio.Close()

	text, err := s.transcriber.Transcribe(ctx, audio, "audio"+ext)
	if err != nil {
		return err
	}

	if err := s.jobs.PutTranscript(ctx, &domain.Transcript{ID: jobID, Text: text}); err != nil {
		return err
	}

	if _, err := s.jobs.UpdateStatus(ctx, jobID, domain.JobStatusTranscribed); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.SetStatus(ctx, jobID, domain.JobStatusTranscribed); err != nil {
			log.Warn(ctx, "failed to mirror job status to index: %v", err)
		}
	}

	log.WithSize(len(text)).Info(ctx, "transcribed staged audio")

	return s.queue.Enqueue(ctx, s.transcribedQueue, EncodeJobMessage(jobID))
}
