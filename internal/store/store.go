package store

import (
	"context"
	"errors"

	"github.com/tikets-io/tikets/internal/domain"
)

// ErrNotFound is returned when no ticket matches the requested id.
var ErrNotFound = errors.New("ticket not found")

// TicketStore is a durable mapping of id to Ticket. The collection is loaded
// and persisted as a whole; there are no partial or streaming writes, so
// callers must serialize read-modify-write cycles themselves.
type TicketStore interface {
	// Load returns every ticket in insertion order. A missing or malformed
	// backing document degrades to an empty collection rather than failing
	// the caller; only infrastructure-level read errors are surfaced.
	Load(ctx context.Context) ([]domain.Ticket, error)

	// FindByID returns the ticket with the given id or ErrNotFound.
	FindByID(ctx context.Context, id string) (*domain.Ticket, error)

	// ReplaceAll persists the full collection, overwriting prior contents.
	// Write errors must be surfaced; a failed write means the mutation did
	// not durably apply.
	ReplaceAll(ctx context.Context, tickets []domain.Ticket) error
}
