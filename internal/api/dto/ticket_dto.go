package dto

import (
	"time"

	"github.com/tikets-io/tikets/internal/domain"
)

// ContactFields are the alias-resolved client-supplied fields of a ticket
// submission.
type ContactFields struct {
	Name        string
	NationalID  string
	Email       string
	Phone       string
	Description string
}

// Historical clients submit the contact form under several field names,
// including the Spanish-first set still in the wild. Each logical field
// accepts an ordered alias list; the first non-empty value wins. Resolution
// happens here, at the parsing boundary, and nowhere else.
var contactFieldAliases = struct {
	name        []string
	nationalID  []string
	email       []string
	phone       []string
	description []string
}{
	name:        []string{"name", "fullName", "nombre"},
	nationalID:  []string{"nationalId", "national_id", "cedula"},
	email:       []string{"email", "correo"},
	phone:       []string{"phone", "telefono"},
	description: []string{"description", "descripcion", "message"},
}

// ResolveContactFields extracts contact fields from multipart form values.
func ResolveContactFields(values map[string][]string) ContactFields {
	return ContactFields{
		Name:        firstNonEmpty(values, contactFieldAliases.name),
		NationalID:  firstNonEmpty(values, contactFieldAliases.nationalID),
		Email:       firstNonEmpty(values, contactFieldAliases.email),
		Phone:       firstNonEmpty(values, contactFieldAliases.phone),
		Description: firstNonEmpty(values, contactFieldAliases.description),
	}
}

func firstNonEmpty(values map[string][]string, aliases []string) string {
	for _, alias := range aliases {
		if vals, ok := values[alias]; ok {
			for _, v := range vals {
				if v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// AppendMessageRequest payload. Text, kind and author each accept the legacy
// Spanish field name as an alias.
type AppendMessageRequest struct {
	Text   string `json:"text"`
	Texto  string `json:"texto"`
	Kind   string `json:"kind"`
	Tipo   string `json:"tipo"`
	Author string `json:"author"`
	Sender string `json:"sender"`
}

// ResolvedText returns the message text under either alias.
func (r AppendMessageRequest) ResolvedText() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Texto
}

// ResolvedKind returns the explicit kind under either alias, or empty when
// the caller left it to the service-side default.
func (r AppendMessageRequest) ResolvedKind() domain.MessageKind {
	if r.Kind != "" {
		return domain.MessageKind(r.Kind)
	}
	return domain.MessageKind(r.Tipo)
}

// ResolvedAuthor returns the author label under either alias.
func (r AppendMessageRequest) ResolvedAuthor() string {
	if r.Author != "" {
		return r.Author
	}
	return r.Sender
}

// ChangeStateRequest payload.
type ChangeStateRequest struct {
	State  string `json:"state"`
	Estado string `json:"estado"`
}

// ResolvedState returns the requested state under either alias.
func (r ChangeStateRequest) ResolvedState() domain.TicketState {
	if r.State != "" {
		return domain.TicketState(r.State)
	}
	return domain.TicketState(r.Estado)
}

// CreateTicketResponse is returned from ticket submission.
type CreateTicketResponse struct {
	Success  bool          `json:"success"`
	TicketID string        `json:"ticketId"`
	Ticket   domain.Ticket `json:"ticket"`
}

// LoginRequest payload; user and pass each accept historical aliases.
type LoginRequest struct {
	User     string `json:"user"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Pass     string `json:"pass"`
	Password string `json:"password"`
}

// ResolvedUser returns the login user under its alias list.
func (r LoginRequest) ResolvedUser() string {
	for _, v := range []string{r.User, r.Username, r.Email} {
		if v != "" {
			return v
		}
	}
	return ""
}

// ResolvedPass returns the login password under its alias list.
func (r LoginRequest) ResolvedPass() string {
	if r.Pass != "" {
		return r.Pass
	}
	return r.Password
}

// LoginResponse carries the issued admin token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
