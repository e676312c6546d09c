package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/satriahrh/arunika/sttconsole/domain"
	"github.com/satriahrh/arunika/sttconsole/domain/entities"
	"github.com/satriahrh/arunika/sttconsole/domain/repositories"
)

// TranscriptRepository is an in-memory implementation of repositories.TranscriptRepository.
// It is the archive used when no MongoDB URI is configured.
type TranscriptRepository struct {
	mu      sync.RWMutex
	records map[string]*entities.TranscriptRecord
}

// NewTranscriptRepository creates a new in-memory transcript archive
func NewTranscriptRepository() repositories.TranscriptRepository {
	return &TranscriptRepository{
		records: make(map[string]*entities.TranscriptRecord),
	}
}

// Save implements repositories.TranscriptRepository
func (m *TranscriptRepository) Save(ctx context.Context, record *entities.TranscriptRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if err := record.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[record.ID] = copyRecord(record)
	return nil
}

// GetByID implements repositories.TranscriptRepository
func (m *TranscriptRepository) GetByID(ctx context.Context, id string) (*entities.TranscriptRecord, error) {
	if id == "" {
		return nil, errors.New("record ID cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	record, exists := m.records[id]
	if !exists {
		return nil, domain.ErrRecordNotFound
	}
	return copyRecord(record), nil
}

// ListRecent implements repositories.TranscriptRepository
func (m *TranscriptRepository) ListRecent(ctx context.Context, limit int) ([]*entities.TranscriptRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*entities.TranscriptRecord, 0, len(m.records))
	for _, record := range m.records {
		result = append(result, copyRecord(record))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EndedAt.After(result[j].EndedAt)
	})

	if limit < 0 {
		limit = 0
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// copyRecord prevents callers from mutating stored records
func copyRecord(record *entities.TranscriptRecord) *entities.TranscriptRecord {
	cp := *record
	cp.Segments = append([]string(nil), record.Segments...)
	return &cp
}
