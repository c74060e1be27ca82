package registry

import (
	"context"
	"sort"
	"sync"

	"carbonledger/internal/ledger"
	"carbonledger/pkg/domain"
	"carbonledger/pkg/platform/sentinel"
)

// InMemoryStore keeps projects in process memory. It is the default store
// and the reference semantics for the postgres implementation.
type InMemoryStore struct {
	mu       sync.RWMutex
	projects map[domain.ProjectID]ledger.Project
	nextID   domain.ProjectID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		projects: make(map[domain.ProjectID]ledger.Project),
		nextID:   1,
	}
}

func (s *InMemoryStore) NextID(_ context.Context) (domain.ProjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id, nil
}

func (s *InMemoryStore) Save(_ context.Context, project ledger.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.projects[project.ID]; exists {
		return sentinel.ErrConflict
	}
	s.projects[project.ID] = project
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, id domain.ProjectID) (ledger.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.projects[id]
	if !ok {
		return ledger.Project{}, sentinel.ErrNotFound
	}
	return project, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]ledger.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	projects := make([]ledger.Project, 0, len(s.projects))
	for _, p := range s.projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

func (s *InMemoryStore) RecordIssuance(_ context.Context, id domain.ProjectID, amount domain.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	total, err := project.TotalCreditsIssued.Add(amount)
	if err != nil {
		return err
	}
	project.TotalCreditsIssued = total
	s.projects[id] = project
	return nil
}
