package domain

import (
	"errors"
	"testing"
)

func TestJobStatusCanTransition(t *testing.T) {
	testCases := []struct {
		name  string
		from  JobStatus
		to    JobStatus
		legal bool
	}{
		{name: "created to transcribed", from: JobStatusCreated, to: JobStatusTranscribed, legal: true},
		{name: "created to downloaded", from: JobStatusCreated, to: JobStatusDownloaded, legal: true},
		{name: "created to no_speech", from: JobStatusCreated, to: JobStatusNoSpeech, legal: true},
		{name: "created to failed", from: JobStatusCreated, to: JobStatusFailed, legal: true},
		{name: "downloaded to transcribed", from: JobStatusDownloaded, to: JobStatusTranscribed, legal: true},
		{name: "transcribed to done", from: JobStatusTranscribed, to: JobStatusDone, legal: true},
		{name: "created straight to done", from: JobStatusCreated, to: JobStatusDone, legal: false},
		{name: "transcribed back to created", from: JobStatusTranscribed, to: JobStatusCreated, legal: false},
		{name: "done back to transcribed", from: JobStatusDone, to: JobStatusTranscribed, legal: false},
		{name: "done to failed", from: JobStatusDone, to: JobStatusFailed, legal: false},
		{name: "failed to created", from: JobStatusFailed, to: JobStatusCreated, legal: false},
		{name: "no_speech to transcribed", from: JobStatusNoSpeech, to: JobStatusTranscribed, legal: false},
		{name: "idempotent rewrite of done", from: JobStatusDone, to: JobStatusDone, legal: true},
		{name: "idempotent rewrite of transcribed", from: JobStatusTranscribed, to: JobStatusTranscribed, legal: true},
		{name: "idempotent rewrite of no_speech", from: JobStatusNoSpeech, to: JobStatusNoSpeech, legal: true},
		{name: "unknown target", from: JobStatusCreated, to: JobStatus("PENDING"), legal: false},
		{name: "unknown source", from: JobStatus(""), to: JobStatusCreated, legal: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.from.CanTransition(tc.to); got != tc.legal {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.legal)
			}
		})
	}
}

func TestJobStatusTransitionError(t *testing.T) {
	if _, err := JobStatusDone.Transition(JobStatusFailed); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	next, err := JobStatusCreated.Transition(JobStatusNoSpeech)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != JobStatusNoSpeech {
		t.Errorf("expected NO_SPEECH, got %s", next)
	}
}

func TestJobStatusIsTerminal(t *testing.T) {
	terminal := []JobStatus{JobStatusDone, JobStatusFailed, JobStatusNoSpeech}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	active := []JobStatus{JobStatusCreated, JobStatusDownloaded, JobStatusTranscribed}
	for _, s := range active {
		if s.IsTerminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}
