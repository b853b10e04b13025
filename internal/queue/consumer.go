package queue

import (
	"context"
	"time"

	"github.com/tomaz/vidsent/internal/logger"
)

// Retrier is implemented by queues that can shorten a failed message's
// invisibility window. Without it a failed delivery simply waits out
// the visibility timeout.
type Retrier interface {
	Retry(ctx context.Context, msg *Message, delay time.Duration) error
}

// ConsumerConfig holds the polling behavior for one queue consumer.
type ConsumerConfig struct {
	PollInterval time.Duration
	RetryDelay   time.Duration
}

// Consumer runs the consume loop for a single queue, delivering each
// claimed message to the handler at least once.
type Consumer struct {
	queue        Queue
	queueName    string
	handler      Handler
	pollInterval time.Duration
	retryDelay   time.Duration
	log          *logger.Logger
}

// NewConsumer creates a consumer for queueName delivering to handler.
func NewConsumer(q Queue, queueName string, handler Handler, cfg *ConsumerConfig, log *logger.Logger) *Consumer {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	return &Consumer{
		queue:        q,
		queueName:    queueName,
		handler:      handler,
		pollInterval: pollInterval,
		retryDelay:   retryDelay,
		log:          log,
	}
}

// Run polls the queue until ctx is cancelled. A handler error leaves
// the message unacknowledged so the queue redelivers it; the handler
// owns terminal-failure bookkeeping.
func (c *Consumer) Run(ctx context.Context) {
	c.log.WithFields(logger.Fields{
		logger.FieldQueue: c.queueName,
	}).Info("Consumer started")

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.WithField(logger.FieldQueue, c.queueName).Info("Consumer stopped")
			return
		case <-ticker.C:
			c.drain(ctx)
		}
	}
}

// drain processes messages until the queue is empty or ctx is done.
func (c *Consumer) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		msg, err := c.queue.Receive(ctx, c.queueName)
		if err != nil {
			c.log.WithField(logger.FieldQueue, c.queueName).WithError(err).Error("Failed to receive message")
			return
		}
		if msg == nil {
			return
		}

		c.deliver(ctx, msg)
	}
}

func (c *Consumer) deliver(ctx context.Context, msg *Message) {
	delivery := Delivery{Payload: msg.Payload, DequeueCount: msg.DequeueCount}

	if err := c.handler(ctx, c.queueName, delivery); err != nil {
		c.log.WithFields(logger.Fields{
			logger.FieldQueue:        c.queueName,
			logger.FieldDequeueCount: msg.DequeueCount,
		}).WithError(err).Warn("Handler failed, message will be redelivered")

		if r, ok := c.queue.(Retrier); ok {
			if retryErr := r.Retry(ctx, msg, c.retryDelay); retryErr != nil {
				c.log.WithField(logger.FieldQueue, c.queueName).WithError(retryErr).Error("Failed to schedule retry")
			}
		}
		return
	}

	if err := c.queue.Ack(ctx, msg); err != nil {
		// The handler succeeded but the ack failed; the message will be
		// redelivered, which is why handlers must be idempotent.
		c.log.WithField(logger.FieldQueue, c.queueName).WithError(err).Error("Failed to ack message")
	}
}
