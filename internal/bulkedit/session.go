package bulkedit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nominaops/staffbulk/internal/models"
	"github.com/nominaops/staffbulk/internal/store"
	"github.com/nominaops/staffbulk/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// Field identifies an editable cell column. Only these five fields are
// mutable through the bulk-edit screen; access_code and the denormalized
// company name are display-only.
type Field string

const (
	FieldDocumentNumber Field = "document_number"
	FieldFullName       Field = "full_name"
	FieldPhone          Field = "phone"
	FieldEmail          Field = "email"
	FieldActive         Field = "active"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidValue = errors.New("invalid value for field")
)

// User-facing notification messages. The wording is kept verbatim from the
// admin screen this service backs.
const (
	msgLoadFailed = "Error al cargar los empleados"
	msgNoChanges  = "No hay cambios para guardar"
)

func msgSaved(updated int) string {
	return fmt.Sprintf("%d actualizados correctamente", updated)
}

func msgPartial(updated, failed int) string {
	return fmt.Sprintf("%d actualizados, %d errores", updated, failed)
}

// Session owns the in-memory working copy of the bulk-edit screen: the
// loaded personnel and company lists, the current filter selection, and
// the set of rows with unsaved edits.
//
// All methods are safe for concurrent use; the HTTP layer may call them
// from multiple request goroutines.
type Session struct {
	employees store.EmployeeStore
	companies store.CompanyStore
	notifier  Notifier

	mu            sync.Mutex
	list          []models.Employee
	companyList   []models.Company
	dirty         map[string]struct{}
	companyFilter string
	searchTerm    string
	loading       bool
	saving        bool
}

// State is a point-in-time snapshot of the session for rendering.
// Employees holds the visible (filtered) subset.
type State struct {
	Employees     []models.Employee `json:"employees"`
	Companies     []models.Company  `json:"companies"`
	DirtyIDs      []string          `json:"dirty_ids"`
	CompanyFilter string            `json:"company_filter"`
	SearchTerm    string            `json:"search_term"`
	Loading       bool              `json:"loading"`
	Saving        bool              `json:"saving"`
}

// NewSession creates a session over the given stores. Nothing is loaded
// until Load is called.
func NewSession(employees store.EmployeeStore, companies store.CompanyStore, notifier Notifier) *Session {
	return &Session{
		employees:     employees,
		companies:     companies,
		notifier:      notifier,
		dirty:         make(map[string]struct{}),
		companyFilter: CompanyAll,
	}
}

// Load fetches the personnel and company lists concurrently and replaces
// the in-memory copies. A failed personnel read surfaces one destructive
// notification and retains the previous list; a failed company read only
// degrades the filter options. The loading flag spans both requests and is
// always cleared once both have settled.
func (s *Session) Load(ctx context.Context) {
	metrics := telemetry.GetMetrics()
	started := time.Now()

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	var (
		employees []models.Employee
		companies []models.Company
		empErr    error
		compErr   error
	)

	// Both reads run concurrently and both are always waited for; failure
	// of one must not cancel the other.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		employees, empErr = s.employees.List(ctx)
	}()
	go func() {
		defer wg.Done()
		companies, compErr = s.companies.ListActive(ctx)
	}()
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false
	metrics.LoadsTotal.Add(ctx, 1)
	metrics.LoadDuration.Record(ctx, float64(time.Since(started).Milliseconds()))

	if empErr != nil {
		metrics.LoadErrorsTotal.Add(ctx, 1)
		log.Error().Err(empErr).Msg("Failed to load employees")
		s.notifier.Notify(SeverityDestructive, msgLoadFailed)
	} else {
		s.list = dedupeByID(employees)
		s.dirty = make(map[string]struct{})
	}

	if compErr != nil {
		// Non-fatal: the company filter degrades to its previous options.
		log.Warn().Err(compErr).Msg("Failed to load companies")
	} else {
		s.companyList = companies
	}

	log.Debug().
		Int("employees", len(s.list)).
		Int("companies", len(s.companyList)).
		Dur("duration", time.Since(started)).
		Msg("Loaded bulk-edit data")
}

// SetFilter updates the company selection and search term. The visible
// subset is recomputed on the next Snapshot.
func (s *Session) SetFilter(companyID, term string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if companyID == "" {
		companyID = CompanyAll
	}
	s.companyFilter = companyID
	s.searchTerm = term
}

// EditCell replaces one field's value in the matching record and marks the
// record dirty. The replacement is structural: the list is rebuilt with a
// fresh element so identity-based change detection stays correct.
// Re-editing an already-dirty row leaves the dirty set unchanged.
func (s *Session) EditCell(recordID string, field Field, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.list {
		if s.list[i].ID == recordID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return store.ErrEmployeeNotFound
	}

	next := make([]models.Employee, len(s.list))
	copy(next, s.list)
	e := &next[idx]

	switch field {
	case FieldDocumentNumber:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w %q: expected string", ErrInvalidValue, field)
		}
		e.DocumentNumber = v
	case FieldFullName:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w %q: expected string", ErrInvalidValue, field)
		}
		e.FullName = v
	case FieldPhone:
		v, err := optionalString(field, value)
		if err != nil {
			return err
		}
		e.Phone = v
	case FieldEmail:
		v, err := optionalString(field, value)
		if err != nil {
			return err
		}
		e.Email = v
	case FieldActive:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w %q: expected bool", ErrInvalidValue, field)
		}
		e.Active = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	s.list = next
	s.dirty[recordID] = struct{}{}

	telemetry.GetMetrics().EditsTotal.Add(context.Background(), 1)

	return nil
}

// SaveAll submits every dirty row as an independent update, reports one
// aggregate notification, clears the dirty set regardless of per-row
// outcome, and reloads the canonical data. A save with no pending edits
// performs no network calls.
func (s *Session) SaveAll(ctx context.Context) {
	metrics := telemetry.GetMetrics()
	started := time.Now()

	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		log.Debug().Msg("Save already in progress, ignoring")
		return
	}
	if len(s.dirty) == 0 {
		s.mu.Unlock()
		s.notifier.Notify(SeverityNormal, msgNoChanges)
		return
	}
	s.saving = true

	// Snapshot the dirty rows in list order; each row becomes one
	// independent update with no shared transactional state.
	pending := make([]models.EmployeeUpdate, 0, len(s.dirty))
	for _, e := range s.list {
		if _, ok := s.dirty[e.ID]; ok {
			pending = append(pending, models.UpdateOf(e))
		}
	}
	s.mu.Unlock()

	var updated, failed int
	for _, upd := range pending {
		if err := s.employees.Update(ctx, upd); err != nil {
			failed++
			log.Warn().Err(err).Str("employee_id", upd.ID).Msg("Failed to update employee")
			continue
		}
		updated++
	}

	metrics.SaveBatchesTotal.Add(ctx, 1)
	metrics.RowsUpdatedTotal.Add(ctx, int64(updated))
	metrics.RowsFailedTotal.Add(ctx, int64(failed))
	metrics.SaveDuration.Record(ctx, float64(time.Since(started).Milliseconds()))

	if failed == 0 {
		s.notifier.Notify(SeverityNormal, msgSaved(updated))
	} else {
		// Partial success still surfaces as an error-flavored notice.
		s.notifier.Notify(SeverityDestructive, msgPartial(updated, failed))
	}

	s.mu.Lock()
	s.dirty = make(map[string]struct{})
	s.saving = false
	s.mu.Unlock()

	log.Info().
		Int("updated", updated).
		Int("failed", failed).
		Dur("duration", time.Since(started)).
		Msg("Batch save completed")

	// Resynchronize with the remote store. Rows whose write failed revert
	// to their stored values on screen.
	s.Load(ctx)
}

// Snapshot returns the current rendering state with the filter applied.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirtyIDs := make([]string, 0, len(s.dirty))
	for id := range s.dirty {
		dirtyIDs = append(dirtyIDs, id)
	}
	sort.Strings(dirtyIDs)

	companies := make([]models.Company, len(s.companyList))
	copy(companies, s.companyList)

	return State{
		Employees:     DeriveVisible(s.list, s.companyFilter, s.searchTerm),
		Companies:     companies,
		DirtyIDs:      dirtyIDs,
		CompanyFilter: s.companyFilter,
		SearchTerm:    s.searchTerm,
		Loading:       s.loading,
		Saving:        s.saving,
	}
}

func optionalString(field Field, value any) (*string, error) {
	if value == nil {
		return nil, nil
	}
	v, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w %q: expected string or null", ErrInvalidValue, field)
	}
	return &v, nil
}

// dedupeByID guards the unique-identifier invariant the loader trusts the
// remote store to uphold. A duplicate ID keeps the last occurrence at the
// first occurrence's position.
func dedupeByID(list []models.Employee) []models.Employee {
	seen := make(map[string]int, len(list))
	out := make([]models.Employee, 0, len(list))
	for _, e := range list {
		if idx, ok := seen[e.ID]; ok {
			log.Warn().Str("employee_id", e.ID).Msg("Duplicate employee ID in load result, keeping last occurrence")
			out[idx] = e
			continue
		}
		seen[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}
