package documents

import (
	"context"
	"fmt"
	"sync"

	"taxiye-driver-server/models"
)

// MemoryRecordStore mirrors the upsert-by-(phone, type) semantics in memory;
// used by tests and local development.
type MemoryRecordStore struct {
	mu   sync.Mutex
	rows map[string]models.DriverDocument
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{rows: map[string]models.DriverDocument{}}
}

func (s *MemoryRecordStore) Upsert(ctx context.Context, rec *models.DriverDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rec.DriverPhoneRef + "/" + string(rec.Type)
	existing, ok := s.rows[key]
	if ok {
		rec.ID = existing.ID
	} else {
		rec.ID = uint(len(s.rows) + 1)
	}
	s.rows[key] = *rec
	return nil
}

func (s *MemoryRecordStore) ListByPhone(ctx context.Context, phone string) ([]models.DriverDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DriverDocument
	for _, rec := range s.rows {
		if rec.DriverPhoneRef == phone {
			out = append(out, rec)
		}
	}
	return out, nil
}

// MemoryObjectStore fakes the hosted object storage and returns deterministic
// public URLs.
type MemoryObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// FailNext makes the next Upload call fail; used to exercise the
	// failed branch of the state machine.
	FailNext error
}

func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: map[string][]byte{}}
}

func (s *MemoryObjectStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNext != nil {
		err := s.FailNext
		s.FailNext = nil
		return "", err
	}
	s.objects[path] = data
	return fmt.Sprintf("https://media.test/%s", path), nil
}

// Len reports how many objects were stored.
func (s *MemoryObjectStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
