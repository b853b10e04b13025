package queue

import "time"

// Message is one durable queue entry. A message stays in the table
// until its handler returns nil; every claim increments DequeueCount
// and pushes VisibleAt forward by the visibility timeout, so a crashed
// or failing consumer leads to redelivery, never loss.
type Message struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	Queue        string    `gorm:"type:text;not null;index:idx_messages_queue_visible,priority:1"`
	Payload      []byte    `gorm:"type:blob;not null"`
	DequeueCount int       `gorm:"default:0"`
	VisibleAt    time.Time `gorm:"index:idx_messages_queue_visible,priority:2"`
	CreatedAt    time.Time
}

// TableName returns the database table name for Message.
func (Message) TableName() string {
	return "queue_messages"
}

// Delivery is what the consume loop hands to a handler: the payload
// plus how many times this message has been delivered (1 on the first
// attempt).
type Delivery struct {
	Payload      []byte
	DequeueCount int
}
