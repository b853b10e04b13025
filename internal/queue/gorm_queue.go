package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GormQueue implements Queue on a relational table. It works on SQLite
// and Postgres through the same gorm handle the job index uses, which
// keeps local deployments to a single database file.
type GormQueue struct {
	db                *gorm.DB
	visibilityTimeout time.Duration
}

// NewGormQueue creates a queue bound to db. visibilityTimeout is how
// long a claimed message stays invisible before it is redelivered.
func NewGormQueue(db *gorm.DB, visibilityTimeout time.Duration) *GormQueue {
	return &GormQueue{
		db:                db,
		visibilityTimeout: visibilityTimeout,
	}
}

// Enqueue appends a message to the named queue.
func (q *GormQueue) Enqueue(ctx context.Context, queueName string, payload []byte) error {
	msg := &Message{
		Queue:     queueName,
		Payload:   payload,
		VisibleAt: time.Now(),
	}
	if err := q.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to enqueue to %s: %w", queueName, err)
	}
	return nil
}

// Receive claims the next visible message. The claim is a transaction:
// the oldest visible row is locked, its dequeue count incremented, and
// its visibility pushed forward, so concurrent consumers never process
// the same delivery twice at once.
func (q *GormQueue) Receive(ctx context.Context, queueName string) (*Message, error) {
	var claimed *Message

	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msg Message
		err := tx.
			Where("queue = ? AND visible_at <= ?", queueName, time.Now()).
			Order("id").
			First(&msg).Error
		if err != nil {
			return err
		}

		msg.DequeueCount++
		msg.VisibleAt = time.Now().Add(q.visibilityTimeout)
		if err := tx.Save(&msg).Error; err != nil {
			return err
		}

		claimed = &msg
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to receive from %s: %w", queueName, err)
	}

	return claimed, nil
}

// Ack removes a processed message.
func (q *GormQueue) Ack(ctx context.Context, msg *Message) error {
	if err := q.db.WithContext(ctx).Delete(&Message{}, msg.ID).Error; err != nil {
		return fmt.Errorf("failed to ack message %d: %w", msg.ID, err)
	}
	return nil
}

// Retry shortens a failed message's invisibility so it is redelivered
// after delay instead of waiting out the full visibility timeout.
func (q *GormQueue) Retry(ctx context.Context, msg *Message, delay time.Duration) error {
	err := q.db.WithContext(ctx).
		Model(&Message{}).
		Where("id = ?", msg.ID).
		Update("visible_at", time.Now().Add(delay)).Error
	if err != nil {
		return fmt.Errorf("failed to schedule retry for message %d: %w", msg.ID, err)
	}
	return nil
}

// Depth reports the number of messages currently in the named queue,
// visible or not.
func (q *GormQueue) Depth(ctx context.Context, queueName string) (int64, error) {
	var n int64
	err := q.db.WithContext(ctx).
		Model(&Message{}).
		Where("queue = ?", queueName).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count queue %s: %w", queueName, err)
	}
	return n, nil
}
