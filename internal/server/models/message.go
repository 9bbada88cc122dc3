package models

import "time"

// MessageStatus is the delivery lifecycle of a persisted message.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusSeen      MessageStatus = "seen"
)

// Valid reports whether s is one of the known statuses.
func (s MessageStatus) Valid() bool {
	switch s {
	case StatusSent, StatusDelivered, StatusSeen:
		return true
	}
	return false
}

// Message is immutable once persisted. Sender and Receiver carry identities;
// the numeric user ids stay inside the store.
type Message struct {
	ID        int64
	Sender    string
	Receiver  string
	Content   string
	Status    MessageStatus
	Timestamp time.Time
}
