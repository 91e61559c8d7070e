package domain

import "time"

// MessageKind indicates who authored a message.
type MessageKind string

const (
	MessageKindClient  MessageKind = "client"
	MessageKindSupport MessageKind = "support"
	MessageKindSystem  MessageKind = "system"
)

// Default author display labels per kind.
const (
	AuthorLabelClient  = "Client"
	AuthorLabelSupport = "Admin"
	AuthorLabelSystem  = "System"
)

// ValidMessageKind reports whether k is a known kind.
func ValidMessageKind(k MessageKind) bool {
	switch k {
	case MessageKindClient, MessageKindSupport, MessageKindSystem:
		return true
	}
	return false
}

// Message is one entry in a ticket's append-only conversation log. Messages
// are never reordered or edited in place; system-kind messages are
// synthesized on state transitions.
type Message struct {
	Author    string      `json:"author"`
	Kind      MessageKind `json:"kind"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewSystemMessage builds the synthesized log entry recording a state
// transition.
func NewSystemMessage(state TicketState, at time.Time) Message {
	return Message{
		Author:    AuthorLabelSystem,
		Kind:      MessageKindSystem,
		Text:      "State changed to: " + string(state),
		Timestamp: at,
	}
}
