package contentsvc

import (
	"context"
	"sync"

	"github.com/edulane/darasa/core/content"
)

// DummyStore is an in-memory content.Store for tests and local development.
type DummyStore struct {
	mu     sync.RWMutex
	tables map[string][]content.Item // {type: items}
}

var _ content.Store = (*DummyStore)(nil)

func NewDummyStore() *DummyStore {
	return &DummyStore{tables: make(map[string][]content.Item)}
}

// Add seeds items into one content type table.
func (s *DummyStore) Add(typ string, items ...content.Item) {
	s.mu.Lock()
	s.tables[typ] = append(s.tables[typ], items...)
	s.mu.Unlock()
}

func (s *DummyStore) FindByClassroom(_ context.Context, classroomID, typ string) ([]content.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]content.Item, 0)
	for _, it := range s.tables[typ] {
		if it.ClassroomID == classroomID {
			items = append(items, it)
		}
	}
	return items, nil
}

func (s *DummyStore) FindBySlug(_ context.Context, slug, typ string) ([]content.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]content.Item, 0)
	for _, it := range s.tables[typ] {
		if it.SubjectSlug == slug {
			items = append(items, it)
		}
	}
	return items, nil
}
