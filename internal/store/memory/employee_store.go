package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nominaops/staffbulk/internal/models"
	"github.com/nominaops/staffbulk/internal/store"
)

// EmployeeStore implements store.EmployeeStore using in-memory storage.
// This implementation is for testing and development only.
type EmployeeStore struct {
	mu sync.RWMutex

	employees map[string]*models.Employee // id -> Employee
	companies *CompanyStore               // for the company-name join
}

// NewEmployeeStore creates a new in-memory employee store. The company
// store supplies display names for the listing join.
func NewEmployeeStore(companies *CompanyStore) *EmployeeStore {
	return &EmployeeStore{
		employees: make(map[string]*models.Employee),
		companies: companies,
	}
}

// Seed inserts an employee, replacing any existing row with the same ID.
func (s *EmployeeStore) Seed(e models.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := e
	s.employees[e.ID] = &clone
}

// List returns all employees joined with their company name, ordered by
// full name ascending.
func (s *EmployeeStore) List(ctx context.Context) ([]models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		clone := *e
		if s.companies != nil {
			if name, ok := s.companies.nameOf(e.CompanyID); ok {
				clone.CompanyName = name
			}
		}
		result = append(result, clone)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].FullName == result[j].FullName {
			return result[i].ID < result[j].ID
		}
		return result[i].FullName < result[j].FullName
	})

	return result, nil
}

// Update replaces the mutable fields of an existing employee.
func (s *EmployeeStore) Update(ctx context.Context, upd models.EmployeeUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.employees[upd.ID]
	if !exists {
		return store.ErrEmployeeNotFound
	}

	clone := *e
	clone.DocumentNumber = upd.DocumentNumber
	clone.FullName = upd.FullName
	clone.Phone = upd.Phone
	clone.Email = upd.Email
	clone.Active = upd.Active
	clone.UpdatedAt = time.Now()
	s.employees[upd.ID] = &clone

	return nil
}
