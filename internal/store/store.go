package store

import (
	"context"
	"errors"

	"github.com/nominaops/staffbulk/internal/models"
)

// Sentinel errors for common error conditions
var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrCompanyNotFound  = errors.New("company not found")
)

// EmployeeStore defines the remote-store operations the bulk-edit screen
// depends on: a joined, name-ordered listing and a per-record update.
type EmployeeStore interface {
	// List returns all employees joined with their company's display name,
	// ordered by full name ascending.
	List(ctx context.Context) ([]models.Employee, error)

	// Update persists the mutable fields of a single employee keyed by ID.
	// Each call is its own transaction boundary; callers must not assume
	// any atomicity across a batch of updates.
	Update(ctx context.Context, upd models.EmployeeUpdate) error
}

// CompanyStore provides the read-only company listing used by the filter.
type CompanyStore interface {
	// ListActive returns all companies flagged active.
	ListActive(ctx context.Context) ([]models.Company, error)
}
