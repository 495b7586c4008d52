package registration

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

// InMemory is a mutex-guarded registration store for tests and local runs.
// Documents are deep-copied on the way in and out so callers never share
// state with the store.
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

func (s *InMemory) FindByID(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return Record{ID: id, Doc: doc.Clone()}, nil
}

func (s *InMemory) List(_ context.Context, f scope.Filter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]Record, 0, len(s.docs))
	for id, doc := range s.docs {
		if !f.MatchesDocument(doc) {
			continue
		}
		records = append(records, Record{ID: id, Doc: payload.StripImages(doc)})
	}
	sort.Slice(records, func(i, j int) bool {
		return createdAt(records[i].Doc).After(createdAt(records[j].Doc))
	})
	return records, nil
}

func (s *InMemory) UpdateReview(_ context.Context, id, status, adminNotes string, reviewedAt time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	doc["status"] = status
	doc["adminNotes"] = adminNotes
	doc["reviewedAt"] = reviewedAt
	return Record{ID: id, Doc: doc.Clone()}, nil
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

func createdAt(doc payload.Document) time.Time {
	if t, ok := doc["createdAt"].(time.Time); ok {
		return t
	}
	return time.Time{}
}
