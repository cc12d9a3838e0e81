package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dewdew978/GBI-BI-Agent/pipeline"
)

// resultStore keeps recent analyses for the export endpoints, keyed by
// a generated ID handed back to the client. Entries are isolated per
// request; concurrent analyses never observe each other. Oldest
// entries are evicted first once the bound is reached.
type resultStore struct {
	mu      sync.Mutex
	limit   int
	order   []string
	entries map[string]*pipeline.Analysis
}

func newResultStore(limit int) *resultStore {
	return &resultStore{
		limit:   limit,
		entries: make(map[string]*pipeline.Analysis),
	}
}

// Put stores the analysis and returns its ID.
func (s *resultStore) Put(a *pipeline.Analysis) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = a
	s.order = append(s.order, id)
	for len(s.order) > s.limit {
		delete(s.entries, s.order[0])
		s.order = s.order[1:]
	}
	return id
}

// Get looks up a stored analysis.
func (s *resultStore) Get(id string) (*pipeline.Analysis, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.entries[id]
	return a, ok
}
