package events

import (
	"time"

	"github.com/tikets-io/tikets/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketStateChanged EventType = "ticket_state_changed"
	EventTicketMessageAdded EventType = "ticket_message_added"
)

// Event represents a domain event emitted by services. Notification delivery
// hangs off these events and never feeds back into the originating request.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Description string `json:"description"`
	Attachments int    `json:"attachments"`
}

// TicketStateChangedPayload payload.
type TicketStateChangedPayload struct {
	Email    string             `json:"email"`
	OldState domain.TicketState `json:"old_state"`
	NewState domain.TicketState `json:"new_state"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	Email  string             `json:"email"`
	Kind   domain.MessageKind `json:"kind"`
	Author string             `json:"author"`
	Text   string             `json:"text"`
}
