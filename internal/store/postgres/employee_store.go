package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nominaops/staffbulk/internal/models"
	"github.com/nominaops/staffbulk/internal/store"
	"github.com/rs/zerolog/log"
)

// EmployeeStore implements store.EmployeeStore using PostgreSQL.
type EmployeeStore struct {
	pool *pgxpool.Pool
}

// NewEmployeeStore creates a new PostgreSQL-backed employee store.
// It shares the connection pool with other stores.
func NewEmployeeStore(pool *pgxpool.Pool) *EmployeeStore {
	return &EmployeeStore{
		pool: pool,
	}
}

// List returns all employees joined with their company's display name,
// ordered by full name ascending.
func (s *EmployeeStore) List(ctx context.Context) ([]models.Employee, error) {
	query := `
		SELECT
			e.id, e.company_id, e.document_number, e.full_name,
			e.phone, e.email, e.access_code, e.active,
			c.name, e.created_at, e.updated_at
		FROM employees e
		JOIN companies c ON c.id = e.company_id
		ORDER BY e.full_name ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var employees []models.Employee
	for rows.Next() {
		var e models.Employee
		err := rows.Scan(
			&e.ID,
			&e.CompanyID,
			&e.DocumentNumber,
			&e.FullName,
			&e.Phone,
			&e.Email,
			&e.AccessCode,
			&e.Active,
			&e.CompanyName,
			&e.CreatedAt,
			&e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}

	return employees, nil
}

// Update persists the mutable fields of a single employee. AccessCode and
// the denormalized company name are never written.
func (s *EmployeeStore) Update(ctx context.Context, upd models.EmployeeUpdate) error {
	query := `
		UPDATE employees SET
			document_number = $2,
			full_name = $3,
			phone = $4,
			email = $5,
			active = $6,
			updated_at = $7
		WHERE id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		upd.ID,
		upd.DocumentNumber,
		upd.FullName,
		upd.Phone,
		upd.Email,
		upd.Active,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to update employee: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrEmployeeNotFound
	}

	log.Debug().
		Str("employee_id", upd.ID).
		Msg("Updated employee")

	return nil
}
