package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nominaops/staffbulk/internal/models"
)

// CompanyStore implements store.CompanyStore using in-memory storage.
type CompanyStore struct {
	mu sync.RWMutex

	companies map[string]*models.Company // id -> Company
}

// NewCompanyStore creates a new in-memory company store.
func NewCompanyStore() *CompanyStore {
	return &CompanyStore{
		companies: make(map[string]*models.Company),
	}
}

// Seed inserts a company, replacing any existing row with the same ID.
func (s *CompanyStore) Seed(c models.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := c
	s.companies[c.ID] = &clone
}

// ListActive returns all companies flagged active, ordered by name.
func (s *CompanyStore) ListActive(ctx context.Context) ([]models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Company
	for _, c := range s.companies {
		if c.Active {
			result = append(result, *c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// nameOf looks up a company's display name. The full universe is consulted,
// not just active companies, matching the listing join.
func (s *CompanyStore) nameOf(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.companies[id]
	if !exists {
		return "", false
	}
	return c.Name, true
}
