package router

import (
	"time"

	"github.com/dmitrijs2005/chatbook/internal/server/models"
)

// Error texts sent to the originating session.
const (
	ErrTextInvalidFormat = "Invalid message format."
	ErrTextUserNotFound  = "User not found."
	ErrTextInternal      = "Internal error."
)

type inboundFrame struct {
	To      string `json:"to" validate:"required"`
	Content string `json:"content" validate:"required,notblank"`
}

// InboundEnvelope is pushed to the recipient.
type InboundEnvelope struct {
	From      string               `json:"from"`
	Content   string               `json:"content"`
	Status    models.MessageStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
	ID        int64                `json:"id"`
}

// AckEnvelope confirms a persisted message to its sender.
type AckEnvelope struct {
	To        string               `json:"to"`
	Content   string               `json:"content"`
	Status    models.MessageStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
	ID        int64                `json:"id"`
}

type ErrorEnvelope struct {
	Error string `json:"error"`
}

func inboundFor(m *models.Message) InboundEnvelope {
	return InboundEnvelope{From: m.Sender, Content: m.Content, Status: m.Status, Timestamp: m.Timestamp.UTC(), ID: m.ID}
}

func ackFor(m *models.Message) AckEnvelope {
	return AckEnvelope{To: m.Receiver, Content: m.Content, Status: m.Status, Timestamp: m.Timestamp.UTC(), ID: m.ID}
}
