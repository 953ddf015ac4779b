package models

import (
	"time"

	"github.com/google/uuid"
)

// User is one chat identity. The chat_id is supplied by the transport
// (Telegram numeric chat id or the WhatsApp sender address) and is the
// lookup key for everything else.
type User struct {
	ID        uuid.UUID `json:"id"`
	ChatID    string    `json:"chat_id"`
	Phone     *string   `json:"phone,omitempty"`
	PinSalt   *string   `json:"-"`
	PinHash   *string   `json:"-"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) HasPhone() bool {
	return u.Phone != nil && *u.Phone != ""
}
