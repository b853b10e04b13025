package queue

import "context"

// Handler processes one delivery. A nil return acknowledges the
// message; any error makes it visible again after the redelivery delay.
type Handler func(ctx context.Context, queueName string, d Delivery) error

// Queue is a durable at-least-once message queue. Payloads are opaque
// bytes; delivery order is best-effort FIFO per queue.
type Queue interface {
	// Enqueue appends a message to the named queue.
	Enqueue(ctx context.Context, queueName string, payload []byte) error

	// Receive claims the next visible message from the named queue,
	// incrementing its dequeue count. Returns (nil, nil) when the queue
	// is empty. The caller must Ack or let the visibility timeout
	// expire for redelivery.
	Receive(ctx context.Context, queueName string) (*Message, error)

	// Ack removes a processed message.
	Ack(ctx context.Context, msg *Message) error
}
