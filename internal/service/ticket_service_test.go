package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tikets-io/tikets/internal/domain"
	"github.com/tikets-io/tikets/internal/events"
	"github.com/tikets-io/tikets/internal/store"
	apperrors "github.com/tikets-io/tikets/pkg/util"
)

func newTestService(t *testing.T) *TicketService {
	t.Helper()
	fileStore := store.NewFileStore(filepath.Join(t.TempDir(), "tickets.json"), zap.NewNop())
	return NewTicketService(TicketDependencies{
		Store:  fileStore,
		Logger: zap.NewNop(),
	})
}

func mustCreate(t *testing.T, svc *TicketService, input CreateTicketInput) *domain.Ticket {
	t.Helper()
	ticket, err := svc.CreateTicket(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateTicket error: %v", err)
	}
	return ticket
}

func TestCreateTicketSeedsSubmittedTicket(t *testing.T) {
	svc := newTestService(t)

	ticket := mustCreate(t, svc, CreateTicketInput{
		Name:        "Carlos Pérez",
		Email:       "c@example.com",
		Description: "Item broken",
	})

	if !strings.HasPrefix(ticket.ID, "TKT-") {
		t.Fatalf("unexpected id format: %s", ticket.ID)
	}
	if ticket.State != domain.TicketStateSubmitted {
		t.Fatalf("expected submitted state, got %s", ticket.State)
	}
	if len(ticket.Attachments) != 0 {
		t.Fatalf("expected no attachments, got %v", ticket.Attachments)
	}
	if len(ticket.Messages) != 1 {
		t.Fatalf("expected exactly one seeded message, got %d", len(ticket.Messages))
	}
	msg := ticket.Messages[0]
	if msg.Kind != domain.MessageKindClient || msg.Text != "Item broken" || msg.Author != domain.AuthorLabelClient {
		t.Fatalf("unexpected seeded message: %+v", msg)
	}
	if !ticket.CreatedAt.Equal(ticket.LastModifiedAt) {
		t.Fatalf("createdAt and lastModifiedAt should match at creation")
	}
}

func TestCreateTicketEmptyDescriptionSeedsEmptyMessage(t *testing.T) {
	svc := newTestService(t)

	ticket := mustCreate(t, svc, CreateTicketInput{Name: "Ana", Email: "a@example.com"})

	if len(ticket.Messages) != 1 || ticket.Messages[0].Text != "" {
		t.Fatalf("expected one empty client message, got %+v", ticket.Messages)
	}
}

func TestCreateTicketIDsAreUnique(t *testing.T) {
	svc := newTestService(t)

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		ticket := mustCreate(t, svc, CreateTicketInput{Name: "Ana", Email: "a@example.com"})
		if _, dup := seen[ticket.ID]; dup {
			t.Fatalf("duplicate ticket id generated: %s", ticket.ID)
		}
		seen[ticket.ID] = struct{}{}
	}
}

func TestCreateTicketRejectsTooManyAttachments(t *testing.T) {
	svc := newTestService(t)

	attachments := make([]string, domain.MaxAttachments+1)
	for i := range attachments {
		attachments[i] = "file.txt"
	}
	_, err := svc.CreateTicket(context.Background(), CreateTicketInput{
		Name: "Ana", Email: "a@example.com", Attachments: attachments,
	})
	if code := errorCode(err); code != "INVALID_INPUT" {
		t.Fatalf("expected INVALID_INPUT, got %v (code %s)", err, code)
	}
}

func TestListTicketsPreservesInsertionOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first := mustCreate(t, svc, CreateTicketInput{Name: "First", Email: "f@example.com"})
	second := mustCreate(t, svc, CreateTicketInput{Name: "Second", Email: "s@example.com"})

	summaries, err := svc.ListTickets(ctx)
	if err != nil {
		t.Fatalf("ListTickets error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].ID != first.ID || summaries[1].ID != second.ID {
		t.Fatalf("listing not in insertion order: %+v", summaries)
	}
	if summaries[0].Name != "First" || summaries[0].State != domain.TicketStateSubmitted {
		t.Fatalf("unexpected projection: %+v", summaries[0])
	}
}

func TestGetTicketNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetTicket(context.Background(), "unknown-id")
	if code := errorCode(err); code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %v (code %s)", err, code)
	}
}

func TestAppendMessageAppendsExactlyOne(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ticket := mustCreate(t, svc, CreateTicketInput{Name: "Ana", Email: "a@example.com", Description: "hi"})

	updated, err := svc.AppendMessage(ctx, ticket.ID, "hello", domain.MessageKindClient, "")
	if err != nil {
		t.Fatalf("AppendMessage error: %v", err)
	}
	if len(updated.Messages) != len(ticket.Messages)+1 {
		t.Fatalf("expected %d messages, got %d", len(ticket.Messages)+1, len(updated.Messages))
	}
	tail := updated.Messages[len(updated.Messages)-1]
	if tail.Text != "hello" || tail.Kind != domain.MessageKindClient || tail.Author != domain.AuthorLabelClient {
		t.Fatalf("unexpected tail message: %+v", tail)
	}
	if !updated.LastModifiedAt.After(ticket.LastModifiedAt) && !updated.LastModifiedAt.Equal(ticket.LastModifiedAt) {
		t.Fatalf("lastModifiedAt not bumped")
	}
}

func TestAppendMessagePreservesOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ticket := mustCreate(t, svc, CreateTicketInput{Name: "Ana", Email: "a@example.com", Description: "start"})

	if _, err := svc.AppendMessage(ctx, ticket.ID, "first", domain.MessageKindClient, ""); err != nil {
		t.Fatalf("first append error: %v", err)
	}
	updated, err := svc.AppendMessage(ctx, ticket.ID, "second", domain.MessageKindClient, "")
	if err != nil {
		t.Fatalf("second append error: %v", err)
	}

	// messages[0] is the seeded description message
	if updated.Messages[1].Text != "first" || updated.Messages[2].Text != "second" {
		t.Fatalf("messages out of order: %+v", updated.Messages)
	}
}

func TestAppendMessageKindHeuristic(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ticket := mustCreate(t, svc, CreateTicketInput{Name: "Ana", Email: "a@example.com"})

	updated, err := svc.AppendMessage(ctx, ticket.ID, "checking in", "", "Admin Rodríguez")
	if err != nil {
		t.Fatalf("AppendMessage error: %v", err)
	}
	tail := updated.Messages[len(updated.Messages)-1]
	if tail.Kind != domain.MessageKindSupport || tail.Author != "Admin Rodríguez" {
		t.Fatalf("expected support message inferred from author, got %+v", tail)
	}

	updated, err = svc.AppendMessage(ctx, ticket.ID, "still broken", "", "")
	if err != nil {
		t.Fatalf("AppendMessage error: %v", err)
	}
	tail = updated.Messages[len(updated.Messages)-1]
	if tail.Kind != domain.MessageKindClient || tail.Author != domain.AuthorLabelClient {
		t.Fatalf("expected client default, got %+v", tail)
	}
}

func TestAppendMessageLegacyAdminKind(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ticket := mustCreate(t, svc, CreateTicketInput{Name: "Ana", Email: "a@example.com"})

	updated, err := svc.AppendMessage(ctx, ticket.ID, "hola", "admin", "")
	if err != nil {
		t.Fatalf("AppendMessage error: %v", err)
	}
	tail := updated.Messages[len(updated.Messages)-1]
	if tail.Kind != domain.MessageKindSupport {
		t.Fatalf("legacy admin kind should map to support, got %s", tail.Kind)
	}
}

func TestAppendMessageRejectsUnknownKind(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ticket := mustCreate(t, svc, CreateTicketInput{Name: "Ana", Email: "a@example.com"})

	_, err := svc.AppendMessage(ctx, ticket.ID, "x", "broadcast", "")
	if code := errorCode(err); code != "INVALID_INPUT" {
		t.Fatalf("expected INVALID_INPUT, got %v (code %s)", err, code)
	}
}

func TestAppendMessageSupportDefaultsAdminAuthor(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ticket := mustCreate(t, svc, CreateTicketInput{Name: "Ana", Email: "a@example.com"})

	updated, err := svc.AppendMessage(ctx, ticket.ID, "we are on it", domain.MessageKindSupport, "")
	if err != nil {
		t.Fatalf("AppendMessage error: %v", err)
	}
	tail := updated.Messages[len(updated.Messages)-1]
	if tail.Author != domain.AuthorLabelSupport {
		t.Fatalf("expected Admin author label, got %q", tail.Author)
	}
}

func TestAppendMessageEmptyTextAccepted(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ticket := mustCreate(t, svc, CreateTicketInput{Name: "Ana", Email: "a@example.com"})

	updated, err := svc.AppendMessage(ctx, ticket.ID, "", domain.MessageKindClient, "")
	if err != nil {
		t.Fatalf("AppendMessage error: %v", err)
	}
	if updated.Messages[len(updated.Messages)-1].Text != "" {
		t.Fatalf("empty text should be stored as-is")
	}
}

func TestAppendMessageNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.AppendMessage(context.Background(), "unknown-id", "hello", domain.MessageKindClient, "")
	if code := errorCode(err); code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %v (code %s)", err, code)
	}
}

func TestChangeStateAppendsSystemMessage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ticket := mustCreate(t, svc, CreateTicketInput{Name: "Ana", Email: "a@example.com"})

	updated, err := svc.ChangeState(ctx, ticket.ID, domain.TicketStateInResolution)
	if err != nil {
		t.Fatalf("ChangeState error: %v", err)
	}
	if updated.State != domain.TicketStateInResolution {
		t.Fatalf("expected in_resolution, got %s", updated.State)
	}
	tail := updated.Messages[len(updated.Messages)-1]
	if tail.Kind != domain.MessageKindSystem || tail.Text != "State changed to: in_resolution" {
		t.Fatalf("unexpected system message: %+v", tail)
	}
	if tail.Author != domain.AuthorLabelSystem {
		t.Fatalf("expected System author, got %q", tail.Author)
	}
}

func TestChangeStateSelfTransitionStillLogs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ticket := mustCreate(t, svc, CreateTicketInput{Name: "Ana", Email: "a@example.com"})

	updated, err := svc.ChangeState(ctx, ticket.ID, domain.TicketStateSubmitted)
	if err != nil {
		t.Fatalf("ChangeState error: %v", err)
	}
	if len(updated.Messages) != len(ticket.Messages)+1 {
		t.Fatalf("self-transition must still append a system message")
	}
}

func TestChangeStateInvalidLeavesTicketUnchanged(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ticket := mustCreate(t, svc, CreateTicketInput{Name: "Ana", Email: "a@example.com", Description: "hi"})

	_, err := svc.ChangeState(ctx, ticket.ID, "bogus")
	if code := errorCode(err); code != "INVALID_INPUT" {
		t.Fatalf("expected INVALID_INPUT, got %v (code %s)", err, code)
	}

	after, err := svc.GetTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("GetTicket error: %v", err)
	}
	if after.State != domain.TicketStateSubmitted {
		t.Fatalf("state mutated on invalid input: %s", after.State)
	}
	if len(after.Messages) != len(ticket.Messages) {
		t.Fatalf("messages mutated on invalid input: %d vs %d", len(after.Messages), len(ticket.Messages))
	}
	if !after.LastModifiedAt.Equal(ticket.LastModifiedAt) {
		t.Fatalf("lastModifiedAt mutated on invalid input")
	}
}

func TestChangeStateNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ChangeState(context.Background(), "unknown-id", domain.TicketStateClosed)
	if code := errorCode(err); code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %v (code %s)", err, code)
	}
}

// flakyStore fails on demand so storage error handling can be observed.
type flakyStore struct {
	tickets    []domain.Ticket
	loadErr    error
	replaceErr error
}

func (s *flakyStore) Load(context.Context) ([]domain.Ticket, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]domain.Ticket{}, s.tickets...), nil
}

func (s *flakyStore) FindByID(_ context.Context, id string) (*domain.Ticket, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	for i := range s.tickets {
		if s.tickets[i].ID == id {
			ticket := s.tickets[i]
			return &ticket, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *flakyStore) ReplaceAll(_ context.Context, tickets []domain.Ticket) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.tickets = tickets
	return nil
}

type countingDispatcher struct {
	mu        sync.Mutex
	published int
}

func (d *countingDispatcher) Publish(context.Context, events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published++
	return nil
}

func (d *countingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *countingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.published
}

func existingTicket() domain.Ticket {
	created := time.Date(2025, 11, 12, 10, 30, 0, 0, time.UTC)
	return domain.Ticket{
		ID:             "TKT-AAAA1111",
		Name:           "Ana",
		Email:          "a@example.com",
		State:          domain.TicketStateSubmitted,
		CreatedAt:      created,
		LastModifiedAt: created,
		Messages: []domain.Message{
			{Author: domain.AuthorLabelClient, Kind: domain.MessageKindClient, Timestamp: created},
		},
	}
}

func TestCreateTicketSurfacesWriteFailure(t *testing.T) {
	dispatcher := &countingDispatcher{}
	svc := NewTicketService(TicketDependencies{
		Store:      &flakyStore{replaceErr: errors.New("disk full")},
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})

	_, err := svc.CreateTicket(context.Background(), CreateTicketInput{Name: "Ana", Email: "a@example.com"})
	if code := errorCode(err); code != "STORAGE_FAILURE" {
		t.Fatalf("expected STORAGE_FAILURE, got %v (code %s)", err, code)
	}
	if dispatcher.count() != 0 {
		t.Fatalf("no event may be published for a write that did not apply")
	}
}

func TestAppendMessageSurfacesWriteFailure(t *testing.T) {
	dispatcher := &countingDispatcher{}
	flaky := &flakyStore{
		tickets:    []domain.Ticket{existingTicket()},
		replaceErr: errors.New("disk full"),
	}
	svc := NewTicketService(TicketDependencies{
		Store:      flaky,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})

	_, err := svc.AppendMessage(context.Background(), "TKT-AAAA1111", "hello", domain.MessageKindClient, "")
	if code := errorCode(err); code != "STORAGE_FAILURE" {
		t.Fatalf("expected STORAGE_FAILURE, got %v (code %s)", err, code)
	}
	if len(flaky.tickets[0].Messages) != 1 {
		t.Fatalf("stored collection mutated despite failed write")
	}
	if dispatcher.count() != 0 {
		t.Fatalf("no event may be published for a write that did not apply")
	}
}

func TestChangeStateSurfacesWriteFailure(t *testing.T) {
	flaky := &flakyStore{
		tickets:    []domain.Ticket{existingTicket()},
		replaceErr: errors.New("disk full"),
	}
	svc := NewTicketService(TicketDependencies{Store: flaky, Logger: zap.NewNop()})

	_, err := svc.ChangeState(context.Background(), "TKT-AAAA1111", domain.TicketStateClosed)
	if code := errorCode(err); code != "STORAGE_FAILURE" {
		t.Fatalf("expected STORAGE_FAILURE, got %v (code %s)", err, code)
	}
	if flaky.tickets[0].State != domain.TicketStateSubmitted {
		t.Fatalf("stored collection mutated despite failed write")
	}
}

func TestListTicketsDegradesOnReadFailure(t *testing.T) {
	svc := NewTicketService(TicketDependencies{
		Store:  &flakyStore{loadErr: errors.New("io error")},
		Logger: zap.NewNop(),
	})

	summaries, err := svc.ListTickets(context.Background())
	if err != nil {
		t.Fatalf("listing must stay available, got %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("expected empty listing, got %+v", summaries)
	}
}

func errorCode(err error) string {
	domainErr := apperrors.ToDomainError(err)
	if domainErr == nil {
		return ""
	}
	return domainErr.Code
}
