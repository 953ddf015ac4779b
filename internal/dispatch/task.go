package dispatch

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusInFlight  Status = "IN_FLIGHT"
	StatusDelivered Status = "DELIVERED"
	StatusFailed    Status = "FAILED"
)

type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
	ChannelTelegram Channel = "telegram"
)

// Task is one outbound message. The worker owns a task exclusively
// from dequeue until it reaches a terminal status. Delivery is
// at-least-once; payloads must tolerate duplicate sends.
type Task struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Channel     Channel
	Destination string
	Payload     string
	Attempts    int
	Status      Status
	EnqueuedAt  time.Time
}

// NewTask builds a pending task for the given destination.
func NewTask(userID uuid.UUID, channel Channel, destination, payload string) *Task {
	return &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Channel:     channel,
		Destination: destination,
		Payload:     payload,
		Status:      StatusPending,
		EnqueuedAt:  time.Now(),
	}
}
