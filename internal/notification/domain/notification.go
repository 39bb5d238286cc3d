package domain

import (
	"time"

	"github.com/google/uuid"
)

type Channel string

const (
	ChannelEmail Channel = "email"
)

// Notification registra un aviso enviado (o simulado) a un destinatario.
// EventID es el id del evento consumido: es la clave de deduplicación, una
// reentrega del mismo evento no produce un segundo aviso.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"eventId"`
	EventType string    `json:"eventType"`
	Channel   Channel   `json:"channel"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sentAt"`
}

func NewNotification(eventID uuid.UUID, eventType, recipient, subject, body string) *Notification {
	return &Notification{
		ID:        uuid.New(),
		EventID:   eventID,
		EventType: eventType,
		Channel:   ChannelEmail,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		SentAt:    time.Now().UTC(),
	}
}
