package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tomaz/vidsent/internal/domain"
	"github.com/tomaz/vidsent/internal/logger"
	"github.com/tomaz/vidsent/internal/queue"
	"github.com/tomaz/vidsent/internal/store"
)

// jobMessage is the queue payload linking a delivery to its job. The
// payload carries only the id; all job state lives in object storage.
type jobMessage struct {
	ID string `json:"id"`
}

// EncodeJobMessage builds the queue payload for a job id.
func EncodeJobMessage(jobID string) []byte {
	data, _ := json.Marshal(jobMessage{ID: jobID})
	return data
}

// DecodeJobMessage extracts the job id from a queue payload.
func DecodeJobMessage(payload []byte) (string, error) {
	var msg jobMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return "", fmt.Errorf("malformed queue message: %w", err)
	}
	if msg.ID == "" {
		return "", fmt.Errorf("queue message has no job id")
	}
	return msg.ID, nil
}

// StageHandler is one pipeline stage as seen by the dispatcher.
type StageHandler interface {
	Name() string
	Handle(ctx context.Context, jobID string) error
}

// RetryPolicy decides when a failing delivery stops being retried and
// what happens to the job when it does. MaxAttempts counts deliveries,
// not errors: a job whose delivery count reaches the limit goes to
// OnExhausted even if this attempt's error was transient.
type RetryPolicy struct {
	MaxAttempts int
	OnExhausted func(ctx context.Context, jobID string, cause error) error
}

// Dispatcher routes queue deliveries to stage handlers and applies the
// retry policy. A handler error leaves the message on the queue for
// redelivery until the policy exhausts it.
type Dispatcher struct {
	routes map[string]StageHandler
	policy RetryPolicy
}

// NewDispatcher creates a dispatcher with the given retry policy.
func NewDispatcher(policy RetryPolicy) *Dispatcher {
	return &Dispatcher{
		routes: make(map[string]StageHandler),
		policy: policy,
	}
}

// Register binds a stage handler to the queue it consumes.
func (d *Dispatcher) Register(queueName string, h StageHandler) {
	d.routes[queueName] = h
}

// HandlerFunc adapts the dispatcher to the queue consumer contract.
func (d *Dispatcher) HandlerFunc() queue.Handler {
	return d.dispatch
}

func (d *Dispatcher) dispatch(ctx context.Context, queueName string, delivery queue.Delivery) error {
	log := logger.With(logger.Fields{
		logger.FieldComponent: "dispatcher",
		logger.FieldQueue:     queueName,
	})

	jobID, err := DecodeJobMessage(delivery.Payload)
	if err != nil {
		// A payload that cannot name a job will never succeed; drop it.
		log.Error(ctx, "dropping undecodable message: %v", err)
		return nil
	}
	log = log.WithField(logger.FieldJobID, jobID)

	handler, ok := d.routes[queueName]
	if !ok {
		log.Error(ctx, "no handler registered for queue, dropping message")
		return nil
	}

	err = handler.Handle(ctx, jobID)
	if err == nil {
		return nil
	}

	if isNonRetryable(err) || delivery.DequeueCount >= d.policy.MaxAttempts {
		log.WithDequeueCount(delivery.DequeueCount).
			Error(ctx, "giving up on delivery for stage %s: %v", handler.Name(), err)
		if d.policy.OnExhausted != nil {
			if exhaustErr := d.policy.OnExhausted(ctx, jobID, err); exhaustErr != nil {
				log.Error(ctx, "failed to record exhausted job: %v", exhaustErr)
			}
		}
		// Swallow the error so the message is acked and never redelivered.
		return nil
	}

	log.WithDequeueCount(delivery.DequeueCount).
		Warn(ctx, "stage %s failed, leaving message for redelivery: %v", handler.Name(), err)
	return err
}

// isNonRetryable reports whether retrying a delivery can ever change
// the outcome. Unsupported platforms, missing job documents and state
// machine violations are stable across retries.
func isNonRetryable(err error) bool {
	return errors.Is(err, domain.ErrUnsupportedPlatform) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, store.ErrNotFound)
}

// MarkJobFailed returns an OnExhausted hook that flips the job to
// FAILED in object storage and mirrors it to the index. Jobs already
// in a terminal state are left untouched.
func MarkJobFailed(jobs *store.JobStore, index JobIndex) func(ctx context.Context, jobID string, cause error) error {
	return func(ctx context.Context, jobID string, cause error) error {
		job, err := jobs.Get(ctx, jobID)
		if err != nil {
			return err
		}
		if job.Status.IsTerminal() && job.Status != domain.JobStatusFailed {
			return nil
		}
		if _, err := jobs.UpdateStatus(ctx, jobID, domain.JobStatusFailed); err != nil {
			return err
		}

		// A failed direct-audio job will never be transcribed; drop the
		// staged artifact.
		if domain.ResolvePlatform(job.URL) == domain.PlatformDirectAudio {
			if err := jobs.DeleteAudio(ctx, jobID, AudioExt(job.URL)); err != nil {
				logger.With(logger.Fields{logger.FieldJobID: jobID}).
					Warn(ctx, "failed to clean up staged audio: %v", err)
			}
		}

		if index != nil {
			return index.SetStatus(ctx, jobID, domain.JobStatusFailed)
		}
		return nil
	}
}
