package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/tikets-io/tikets/internal/domain"
)

// FileStore persists the ticket collection as a single JSON array on disk.
// All access is serialized behind a mutex, so two in-process mutators can
// never race a lost update against each other. Writes go through a temp file
// and rename so a crash mid-write cannot corrupt the document.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewFileStore builds a store backed by the JSON document at path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Load reads the whole collection. A missing or malformed document returns
// an empty collection; listing stays available even when the file is bad.
func (s *FileStore) Load(_ context.Context) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// FindByID scans the collection for the given id.
func (s *FileStore) FindByID(_ context.Context, id string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].ID == id {
			ticket := tickets[i]
			return &ticket, nil
		}
	}
	return nil, ErrNotFound
}

// ReplaceAll rewrites the entire persisted collection.
func (s *FileStore) ReplaceAll(_ context.Context, tickets []domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	data, err := json.MarshalIndent(tickets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tickets: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tickets-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write tickets: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace tickets file: %w", err)
	}
	return nil
}

func (s *FileStore) loadLocked() ([]domain.Ticket, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Ticket{}, nil
		}
		return nil, fmt.Errorf("read tickets file: %w", err)
	}

	var tickets []domain.Ticket
	if err := json.Unmarshal(data, &tickets); err != nil {
		if s.logger != nil {
			s.logger.Warn("tickets file malformed; starting from empty collection",
				zap.String("path", s.path), zap.Error(err))
		}
		return []domain.Ticket{}, nil
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}
