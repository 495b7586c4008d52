package member

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vanshavali/internal/payload"
	"vanshavali/internal/scope"
	"vanshavali/pkg/sentinel"
)

// InMemory is a mutex-guarded member store. It enforces serNo uniqueness on
// insert and update exactly like the unique index the mongo store relies
// on, so service tests exercise the same conflict paths.
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
	if serNo := SerNo(doc); serNo > 0 && s.serNoHolder(serNo) != "" {
		return Record{}, sentinel.ErrConflict
	}
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

func (s *InMemory) FindByName(_ context.Context, firstName, lastName string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, doc := range s.docs {
		nested := doc.GetString("personalDetails.firstName") == firstName &&
			doc.GetString("personalDetails.lastName") == lastName
		legacy := doc.GetString("firstName") == firstName &&
			doc.GetString("lastName") == lastName
		if nested || legacy {
			return Record{ID: id, Doc: doc.Clone()}, nil
		}
	}
	return Record{}, sentinel.ErrNotFound
}

func (s *InMemory) MaxSerNo(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var max int64
	for _, doc := range s.docs {
		if n := SerNo(doc); n > max {
			max = n
		}
	}
	return max, nil
}

func (s *InMemory) SerNoTakenByOther(_ context.Context, serNo int64, excludeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	holder := s.serNoHolder(serNo)
	return holder != "" && holder != excludeID, nil
}

func (s *InMemory) List(_ context.Context, q ListQuery) ([]Record, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]Record, 0, len(s.docs))
	for id, doc := range s.docs {
		if !q.Scope.MatchesDocument(doc) {
			continue
		}
		if q.Search != "" && !matchesSearch(doc, q.Search) {
			continue
		}
		matched = append(matched, Record{ID: id, Doc: payload.StripImages(doc)})
	}
	sort.Slice(matched, func(i, j int) bool {
		return createdAt(matched[i].Doc).After(createdAt(matched[j].Doc))
	})

	total := int64(len(matched))
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1000
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return []Record{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *InMemory) SearchByNamePrefix(_ context.Context, query string, vansh scope.Vansh, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := strings.ToLower(query)
	var records []Record
	for id, doc := range s.docs {
		value, ok := doc.GetPath("personalDetails.vansh")
		if !ok || !vansh.Matches(value) {
			continue
		}
		if !hasNamePrefix(doc, prefix) {
			continue
		}
		records = append(records, Record{ID: id, Doc: doc.Clone()})
		if len(records) == limit {
			break
		}
	}
	return records, nil
}

func (s *InMemory) Update(_ context.Context, id string, sets map[string]any) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	if raw, present := sets["serNo"]; present {
		serNo := SerNo(payload.Document{"serNo": raw})
		if holder := s.serNoHolder(serNo); holder != "" && holder != id {
			return Record{}, sentinel.ErrConflict
		}
	}
	for path, value := range sets {
		doc.SetPath(path, value)
	}
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

func (s *InMemory) DeleteBySerNo(_ context.Context, serNo int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id := s.serNoHolder(serNo); id != "" {
		delete(s.docs, id)
	}
	return nil
}

// serNoHolder returns the id of the member holding serNo, or "".
// Callers must hold the lock.
func (s *InMemory) serNoHolder(serNo int64) string {
	for id, doc := range s.docs {
		if SerNo(doc) == serNo {
			return id
		}
	}
	return ""
}

func matchesSearch(doc payload.Document, search string) bool {
	needle := strings.ToLower(search)
	for _, path := range []string{
		"personalDetails.firstName",
		"personalDetails.middleName",
		"personalDetails.lastName",
		"personalDetails.email",
		"personalDetails.mobileNumber",
		"personalDetails.vansh",
	} {
		if v, ok := doc.GetPath(path); ok {
			if str, isStr := v.(string); isStr && strings.Contains(strings.ToLower(str), needle) {
				return true
			}
		}
	}
	if n, err := strconv.ParseInt(search, 10, 64); err == nil && SerNo(doc) == n {
		return true
	}
	return false
}

func hasNamePrefix(doc payload.Document, prefix string) bool {
	for _, path := range []string{
		"personalDetails.firstName",
		"personalDetails.middleName",
		"personalDetails.lastName",
	} {
		if strings.HasPrefix(strings.ToLower(doc.GetString(path)), prefix) {
			return true
		}
	}
	return false
}

func createdAt(doc payload.Document) time.Time {
	if t, ok := doc["createdAt"].(time.Time); ok {
		return t
	}
	return time.Time{}
}
