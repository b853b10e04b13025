package domain

import (
	"errors"
	"fmt"
)

// JobStatus represents the lifecycle state of an analysis job.
// A job only ever moves forward; DONE, FAILED, and NO_SPEECH are terminal.
type JobStatus string

const (
	JobStatusCreated     JobStatus = "CREATED"
	JobStatusDownloaded  JobStatus = "DOWNLOADED"
	JobStatusTranscribed JobStatus = "TRANSCRIBED"
	JobStatusDone        JobStatus = "DONE"
	JobStatusFailed      JobStatus = "FAILED"
	JobStatusNoSpeech    JobStatus = "NO_SPEECH"
)

// ErrInvalidTransition is returned when a status write would move a job
// backwards or out of a terminal state.
var ErrInvalidTransition = errors.New("invalid job status transition")

// transitions is the closed set of legal forward moves. Rewriting the
// current status is always legal so that redelivered messages can re-run
// a completed stage without corrupting the record.
var transitions = map[JobStatus][]JobStatus{
	JobStatusCreated:     {JobStatusDownloaded, JobStatusTranscribed, JobStatusNoSpeech, JobStatusFailed},
	JobStatusDownloaded:  {JobStatusTranscribed, JobStatusFailed},
	JobStatusTranscribed: {JobStatusDone, JobStatusFailed},
	JobStatusDone:        {},
	JobStatusFailed:      {},
	JobStatusNoSpeech:    {},
}

// IsTerminal reports whether no further transitions are possible.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusDone || s == JobStatusFailed || s == JobStatusNoSpeech
}

// IsValid reports whether s is a known status value.
func (s JobStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether moving from s to next is legal.
// A self-transition (idempotent rewrite) is always allowed.
func (s JobStatus) CanTransition(next JobStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if s == next {
		return true
	}
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Transition validates the move from s to next and returns next.
func (s JobStatus) Transition(next JobStatus) (JobStatus, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return next, nil
}

// Job is one submitted video-analysis request tracked through the
// status lifecycle. The record is overwritten whole on every status
// change; URL must be carried through every rewrite.
type Job struct {
	ID     string    `json:"id"`
	URL    string    `json:"url"`
	Status JobStatus `json:"status"`
}
