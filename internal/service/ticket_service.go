package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tikets-io/tikets/internal/domain"
	"github.com/tikets-io/tikets/internal/events"
	"github.com/tikets-io/tikets/internal/persistence"
	"github.com/tikets-io/tikets/internal/store"
	apperrors "github.com/tikets-io/tikets/pkg/util"
)

// TicketService enforces ticket and message invariants. It is the sole
// mutator of the store; every mutation is a whole-collection
// read-modify-write, serialized through a single-writer mutex.
type TicketService struct {
	mu         sync.Mutex
	store      store.TicketStore
	dispatcher events.Dispatcher
	cache      *persistence.ListCache
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      store.TicketStore
	Dispatcher events.Dispatcher
	Cache      *persistence.ListCache
	Logger     *zap.Logger
}

// CreateTicketInput describes the alias-resolved contact fields and the
// already-stored attachment references for a new ticket.
type CreateTicketInput struct {
	Name        string
	NationalID  string
	Email       string
	Phone       string
	Description string
	Attachments []string
}

// TicketSummary is the listing projection.
type TicketSummary struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	State     domain.TicketState `json:"state"`
	CreatedAt time.Time          `json:"createdAt"`
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// CreateTicket generates a fresh id, seeds the message log with one
// client-kind message equal to the description (possibly empty) and persists
// the ticket in state "submitted".
//
// Contact fields are stored as given; malformed email or phone values are
// accepted as-is. Existing records already contain such values and the
// service does not silently correct them.
func (s *TicketService) CreateTicket(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	if len(input.Attachments) > domain.MaxAttachments {
		return nil, apperrors.NewInvalidInput("too many attachments",
			map[string]any{"max": domain.MaxAttachments, "got": len(input.Attachments)})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.store.Load(ctx)
	if err != nil {
		return nil, apperrors.NewStorageFailure(err)
	}

	now := s.now()
	attachments := input.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	ticket := domain.Ticket{
		ID:             generateTicketID(tickets),
		Name:           input.Name,
		NationalID:     input.NationalID,
		Email:          input.Email,
		Phone:          input.Phone,
		Description:    input.Description,
		Attachments:    attachments,
		State:          domain.TicketStateSubmitted,
		CreatedAt:      now,
		LastModifiedAt: now,
		Messages: []domain.Message{{
			Author:    domain.AuthorLabelClient,
			Kind:      domain.MessageKindClient,
			Text:      input.Description,
			Timestamp: now,
		}},
	}

	tickets = append(tickets, ticket)
	if err := s.store.ReplaceAll(ctx, tickets); err != nil {
		return nil, apperrors.NewStorageFailure(err)
	}
	s.cache.Invalidate(ctx)

	s.publish(events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Name:        ticket.Name,
			Email:       ticket.Email,
			Description: ticket.Description,
			Attachments: len(ticket.Attachments),
		},
	})
	return &ticket, nil
}

// ListTickets returns the listing projection in store insertion order. A
// failing read degrades to an empty listing; availability over correctness.
func (s *TicketService) ListTickets(ctx context.Context) ([]TicketSummary, error) {
	if cached := s.cache.Get(ctx); cached != nil {
		var summaries []TicketSummary
		if err := json.Unmarshal(cached, &summaries); err == nil {
			return summaries, nil
		}
		s.cache.Invalidate(ctx)
	}

	tickets, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error("ticket listing degraded to empty", zap.Error(err))
		return []TicketSummary{}, nil
	}

	summaries := make([]TicketSummary, 0, len(tickets))
	for i := range tickets {
		summaries = append(summaries, TicketSummary{
			ID:        tickets[i].ID,
			Name:      tickets[i].Name,
			State:     tickets[i].State,
			CreatedAt: tickets[i].CreatedAt,
		})
	}

	if data, err := json.Marshal(summaries); err == nil {
		s.cache.Set(ctx, data)
	}
	return summaries, nil
}

// GetTicket returns the full ticket or a not-found error.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, id)
	}
	return ticket, nil
}

// AppendMessage appends a message to the ticket's conversation log and bumps
// lastModifiedAt. Empty text is accepted. When kind is empty it is inferred
// from the author string: anything mentioning "admin" counts as support.
func (s *TicketService) AppendMessage(ctx context.Context, id, text string, kind domain.MessageKind, author string) (*domain.Ticket, error) {
	kind, err := resolveKind(kind, author)
	if err != nil {
		return nil, err
	}
	message := domain.Message{
		Author: resolveAuthor(author, kind),
		Kind:   kind,
		Text:   text,
	}

	ticket, err := s.mutateTicket(ctx, id, func(t *domain.Ticket, now time.Time) {
		message.Timestamp = now
		t.Messages = append(t.Messages, message)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: ticket.ID,
		Payload: events.TicketMessageAddedPayload{
			Email:  ticket.Email,
			Kind:   message.Kind,
			Author: message.Author,
			Text:   message.Text,
		},
	})
	return ticket, nil
}

// ChangeState sets the ticket state and appends the synthesized system
// message recording the transition. The state is validated before any
// mutation; an unlisted value has no partial effect. There is no transition
// graph: any member of the enumeration is reachable from any other,
// including itself.
func (s *TicketService) ChangeState(ctx context.Context, id string, newState domain.TicketState) (*domain.Ticket, error) {
	if !domain.ValidTicketState(newState) {
		return nil, apperrors.NewInvalidInput("invalid state",
			map[string]any{"state": string(newState)})
	}

	var oldState domain.TicketState
	ticket, err := s.mutateTicket(ctx, id, func(t *domain.Ticket, now time.Time) {
		oldState = t.State
		t.State = newState
		t.Messages = append(t.Messages, domain.NewSystemMessage(newState, now))
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.Event{
		Type:     events.EventTicketStateChanged,
		TicketID: ticket.ID,
		Payload: events.TicketStateChangedPayload{
			Email:    ticket.Email,
			OldState: oldState,
			NewState: newState,
		},
	})
	return ticket, nil
}

// mutateTicket runs one serialized read-modify-write cycle against the
// store: load everything, apply the mutation to the matching ticket, bump
// lastModifiedAt, persist the whole collection.
func (s *TicketService) mutateTicket(ctx context.Context, id string, mutate func(*domain.Ticket, time.Time)) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.store.Load(ctx)
	if err != nil {
		return nil, apperrors.NewStorageFailure(err)
	}

	idx := -1
	for i := range tickets {
		if tickets[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}

	now := s.now()
	mutate(&tickets[idx], now)
	tickets[idx].LastModifiedAt = now

	if err := s.store.ReplaceAll(ctx, tickets); err != nil {
		return nil, apperrors.NewStorageFailure(err)
	}
	s.cache.Invalidate(ctx)

	ticket := tickets[idx]
	return &ticket, nil
}

// publish dispatches the event off the request path; notification side
// effects never delay or fail the originating operation.
func (s *TicketService) publish(event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.dispatcher.Publish(ctx, event)
	}()
}

// resolveKind applies the legacy default: an explicit kind wins, otherwise
// messages whose author mentions "admin" count as support replies and
// everything else as client messages.
func resolveKind(kind domain.MessageKind, author string) (domain.MessageKind, error) {
	if kind == "admin" {
		// legacy clients label support replies "admin"
		return domain.MessageKindSupport, nil
	}
	if kind != "" {
		if !domain.ValidMessageKind(kind) {
			return "", apperrors.NewInvalidInput("invalid message kind",
				map[string]any{"kind": string(kind)})
		}
		return kind, nil
	}
	if strings.Contains(strings.ToLower(author), "admin") {
		return domain.MessageKindSupport, nil
	}
	return domain.MessageKindClient, nil
}

func resolveAuthor(author string, kind domain.MessageKind) string {
	if author != "" {
		return author
	}
	switch kind {
	case domain.MessageKindSupport:
		return domain.AuthorLabelSupport
	case domain.MessageKindSystem:
		return domain.AuthorLabelSystem
	default:
		return domain.AuthorLabelClient
	}
}

// generateTicketID returns a fresh short id not present in the collection.
func generateTicketID(existing []domain.Ticket) string {
	taken := make(map[string]struct{}, len(existing))
	for i := range existing {
		taken[existing[i].ID] = struct{}{}
	}
	for {
		id := "TKT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		if _, exists := taken[id]; !exists {
			return id
		}
	}
}

func mapStoreError(err error, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return apperrors.NewStorageFailure(err)
}
