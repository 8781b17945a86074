package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/abgdnv/catalogsearch/internal/catalog"
	serrors "github.com/abgdnv/catalogsearch/internal/errors"
)

// inMemory implements ProductStore over a fixed record set.
type inMemory struct {
	mu      sync.RWMutex
	records []catalog.Record
	index   map[string]int
}

// NewInMemoryStore creates a ProductStore holding a copy of records.
// Records keep their order; a later duplicate ID replaces the earlier record.
func NewInMemoryStore(records []catalog.Record) ProductStore {
	s := &inMemory{
		records: make([]catalog.Record, 0, len(records)),
		index:   make(map[string]int, len(records)),
	}
	for _, r := range records {
		if i, ok := s.index[r.ID]; ok {
			s.records[i] = r
			continue
		}
		s.index[r.ID] = len(s.records)
		s.records = append(s.records, r)
	}
	return s
}

// LoadSeedFile reads a JSON array of records from path.
func LoadSeedFile(path string) ([]catalog.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var records []catalog.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return records, nil
}

// FindByID retrieves a record by its ID.
func (s *inMemory) FindByID(_ context.Context, id string) (*catalog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, serrors.ErrRecordNotFound
	}
	r := s.records[i]
	return &r, nil
}

// FindAll retrieves all records.
func (s *inMemory) FindAll(_ context.Context) ([]catalog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]catalog.Record, len(s.records))
	copy(list, s.records)
	return list, nil
}
