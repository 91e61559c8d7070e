package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tikets-io/tikets/internal/domain"
)

// PostgresStore keeps the ticket collection in a single table, messages and
// attachments embedded as JSONB. It implements the same whole-collection
// contract as the file store: ReplaceAll truncates and reinserts inside one
// transaction.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore instantiates the store over an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Load returns every ticket in insertion order.
func (s *PostgresStore) Load(ctx context.Context) ([]domain.Ticket, error) {
	const query = `
        SELECT id, name, national_id, email, phone, description, attachments,
               state, created_at, last_modified_at, messages
        FROM tickets ORDER BY seq`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

// FindByID returns the ticket with the given id or ErrNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, name, national_id, email, phone, description, attachments,
               state, created_at, last_modified_at, messages
        FROM tickets WHERE id=$1`
	ticket, err := scanTicket(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find ticket: %w", err)
	}
	return ticket, nil
}

// ReplaceAll rewrites the collection in a single transaction.
func (s *PostgresStore) ReplaceAll(ctx context.Context, tickets []domain.Ticket) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `TRUNCATE tickets`); err != nil {
		return fmt.Errorf("truncate tickets: %w", err)
	}

	const query = `
        INSERT INTO tickets (id, name, national_id, email, phone, description,
                             attachments, state, created_at, last_modified_at, messages)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	for i := range tickets {
		ticket := &tickets[i]
		attachments, err := json.Marshal(attachmentsOrEmpty(ticket.Attachments))
		if err != nil {
			return fmt.Errorf("encode attachments: %w", err)
		}
		messages, err := json.Marshal(messagesOrEmpty(ticket.Messages))
		if err != nil {
			return fmt.Errorf("encode messages: %w", err)
		}
		if _, err := tx.Exec(ctx, query,
			ticket.ID,
			ticket.Name,
			ticket.NationalID,
			ticket.Email,
			ticket.Phone,
			ticket.Description,
			attachments,
			ticket.State,
			ticket.CreatedAt,
			ticket.LastModifiedAt,
			messages,
		); err != nil {
			return fmt.Errorf("insert ticket %s: %w", ticket.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket      domain.Ticket
		attachments []byte
		messages    []byte
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Name,
		&ticket.NationalID,
		&ticket.Email,
		&ticket.Phone,
		&ticket.Description,
		&attachments,
		&ticket.State,
		&ticket.CreatedAt,
		&ticket.LastModifiedAt,
		&messages,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(attachments, &ticket.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	if err := json.Unmarshal(messages, &ticket.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func attachmentsOrEmpty(attachments []string) []string {
	if attachments == nil {
		return []string{}
	}
	return attachments
}

func messagesOrEmpty(messages []domain.Message) []domain.Message {
	if messages == nil {
		return []domain.Message{}
	}
	return messages
}
