package rejected

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vanshavali/internal/payload"
	"vanshavali/internal/scope"
	"vanshavali/pkg/sentinel"
)

// InMemory keeps snapshots in a map. Used in tests and as the fallback when
// no database is configured.
type InMemory struct {
	mu   sync.RWMutex
	docs map[string]payload.Document
}

func NewInMemory() *InMemory {
	return &InMemory{docs: make(map[string]payload.Document)}
}

func (s *InMemory) Insert(_ context.Context, doc payload.Document) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.docs[id] = doc.Clone()
	return Record{ID: id, Doc: doc.Clone()}, nil
}

func (s *InMemory) List(_ context.Context, sc scope.Filter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []Record
	for id, doc := range s.docs {
		if !sc.MatchesDocument(doc) {
			continue
		}
		records = append(records, Record{ID: id, Doc: payload.StripImages(doc.Clone())})
	}
	sort.Slice(records, func(i, j int) bool {
		return rejectedAt(records[i].Doc).After(rejectedAt(records[j].Doc))
	})
	return records, nil
}

func (s *InMemory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *InMemory) Clear(_ context.Context, sc scope.Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, doc := range s.docs {
		if !sc.MatchesDocument(doc) {
			continue
		}
		delete(s.docs, id)
		removed++
	}
	return removed, nil
}

func rejectedAt(doc payload.Document) time.Time {
	if t, ok := doc["rejectedAt"].(time.Time); ok {
		return t
	}
	return time.Time{}
}
