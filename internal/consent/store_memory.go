package consent

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"consentdesk/pkg/requestcontext"
	"consentdesk/pkg/sentinel"
)

// InMemoryStore keeps records in process memory. It intentionally favors
// clarity over performance: lookups are map hits, everything else is a linear
// scan over insertion order.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[int64]ConsentRecord
	order   []int64 // insertion order, the ListAll tie-break
	nextID  int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[int64]ConsentRecord),
		nextID:  1,
	}
}

func (s *InMemoryStore) Create(ctx context.Context, rec NewRecord) (ConsentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := ConsentRecord{
		ID:            s.nextID,
		DocumentName:  rec.DocumentName,
		DataAccessed:  rec.DataAccessed,
		DocumentSize:  rec.DocumentSize,
		DocumentType:  rec.DocumentType,
		HostUserID:    rec.HostUserID,
		HostUserName:  rec.HostUserName,
		GuestUserID:   rec.GuestUserID,
		GuestUserName: rec.GuestUserName,
		AccessDate:    rec.AccessDate,
		ExpiryDate:    rec.ExpiryDate,
		Status:        rec.Status,
		AccessLevel:   rec.AccessLevel,
		Purpose:       rec.Purpose,
		CreatedAt:     requestcontext.Now(ctx),
	}
	if stored.Status == "" {
		stored.Status = StatusActive
	}
	if stored.AccessLevel == "" {
		stored.AccessLevel = "read"
	}

	s.nextID++
	s.records[stored.ID] = stored
	s.order = append(s.order, stored.ID)
	return stored, nil
}

func (s *InMemoryStore) Get(_ context.Context, id int64) (ConsentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[id]; ok {
		return rec, nil
	}
	return ConsentRecord{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]ConsentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snapshot()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AccessDate.After(out[j].AccessDate)
	})
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, id int64, patch RecordPatch) (ConsentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[id]
	if !ok {
		return ConsentRecord{}, sentinel.ErrNotFound
	}
	merged := patch.Apply(existing)
	s.records[id] = merged
	return merged, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *InMemoryStore) Search(_ context.Context, query string) ([]ConsentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(query)
	var out []ConsentRecord
	for _, rec := range s.snapshot() {
		if strings.Contains(strings.ToLower(rec.DocumentName), needle) ||
			strings.Contains(strings.ToLower(rec.DataAccessed), needle) ||
			strings.Contains(strings.ToLower(rec.HostUserName), needle) ||
			strings.Contains(strings.ToLower(rec.GuestUserName), needle) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListByStatus(_ context.Context, status Status) ([]ConsentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ConsentRecord
	for _, rec := range s.snapshot() {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID int64) ([]ConsentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ConsentRecord
	for _, rec := range s.snapshot() {
		if rec.HostUserID == userID || rec.GuestUserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListByDateRange(_ context.Context, start, end time.Time) ([]ConsentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ConsentRecord
	for _, rec := range s.snapshot() {
		if !rec.AccessDate.Before(start) && !rec.AccessDate.After(end) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// snapshot copies records in insertion order. Callers must hold at least the
// read lock.
func (s *InMemoryStore) snapshot() []ConsentRecord {
	out := make([]ConsentRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}
