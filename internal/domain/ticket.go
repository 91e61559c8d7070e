package domain

import "time"

// TicketState enumerates lifecycle states for tickets. The external
// representation is fixed and case-sensitive; there is no transition graph,
// any member is reachable from any other.
type TicketState string

const (
	TicketStateSubmitted    TicketState = "submitted"
	TicketStateUnderReview  TicketState = "under_review"
	TicketStateInResolution TicketState = "in_resolution"
	TicketStateClosed       TicketState = "closed"
)

// AllTicketStates lists the enumeration in triage order.
var AllTicketStates = []TicketState{
	TicketStateSubmitted,
	TicketStateUnderReview,
	TicketStateInResolution,
	TicketStateClosed,
}

// ValidTicketState reports whether s belongs to the fixed enumeration.
func ValidTicketState(s TicketState) bool {
	for _, candidate := range AllTicketStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// MaxAttachments bounds the number of files accepted per ticket.
const MaxAttachments = 6

// Ticket is the aggregate for a single support case. It is created once,
// never deleted, and mutated only through message appends and state changes.
type Ticket struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	NationalID     string      `json:"nationalId,omitempty"`
	Email          string      `json:"email"`
	Phone          string      `json:"phone,omitempty"`
	Description    string      `json:"description"`
	Attachments    []string    `json:"attachments"`
	State          TicketState `json:"state"`
	CreatedAt      time.Time   `json:"createdAt"`
	LastModifiedAt time.Time   `json:"lastModifiedAt"`
	Messages       []Message   `json:"messages"`
}
