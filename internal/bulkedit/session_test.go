package bulkedit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nominaops/staffbulk/internal/models"
	"github.com/nominaops/staffbulk/internal/store"
	"github.com/stretchr/testify/require"
)

type fakeEmployeeStore struct {
	mu        sync.Mutex
	list      []models.Employee
	listErr   error
	listCalls int

	updates   []models.EmployeeUpdate
	updateErr func(upd models.EmployeeUpdate) error
}

func (f *fakeEmployeeStore) List(ctx context.Context) ([]models.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Employee, len(f.list))
	copy(out, f.list)
	return out, nil
}

func (f *fakeEmployeeStore) Update(ctx context.Context, upd models.EmployeeUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updates = append(f.updates, upd)
	if f.updateErr != nil {
		return f.updateErr(upd)
	}
	return nil
}

func (f *fakeEmployeeStore) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeEmployeeStore) Updates() []models.EmployeeUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.EmployeeUpdate, len(f.updates))
	copy(out, f.updates)
	return out
}

type fakeCompanyStore struct {
	mu      sync.Mutex
	list    []models.Company
	listErr error
}

func (f *fakeCompanyStore) ListActive(ctx context.Context) ([]models.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Company, len(f.list))
	copy(out, f.list)
	return out, nil
}

func newTestSession(t *testing.T) (*Session, *fakeEmployeeStore, *fakeCompanyStore, *Collector) {
	t.Helper()

	employees := &fakeEmployeeStore{list: sampleList()}
	companies := &fakeCompanyStore{list: []models.Company{
		{ID: "co-a", Name: "Acme", Active: true},
		{ID: "co-b", Name: "Globex", Active: true},
	}}
	collector := NewCollector()
	session := NewSession(employees, companies, collector)

	return session, employees, companies, collector
}

func TestSession_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces both lists and resets the dirty set", func(t *testing.T) {
		session, _, _, _ := newTestSession(t)

		session.Load(ctx)

		state := session.Snapshot()
		require.Len(t, state.Employees, 3)
		require.Len(t, state.Companies, 2)
		require.Empty(t, state.DirtyIDs)
		require.False(t, state.Loading)
	})

	t.Run("employee failure notifies and keeps the previous list", func(t *testing.T) {
		session, employees, _, collector := newTestSession(t)

		session.Load(ctx)
		require.Len(t, session.Snapshot().Employees, 3)
		collector.Drain()

		employees.mu.Lock()
		employees.listErr = errors.New("connection refused")
		employees.mu.Unlock()

		session.Load(ctx)

		notes := collector.Drain()
		require.Len(t, notes, 1)
		require.Equal(t, SeverityDestructive, notes[0].Severity)
		require.Equal(t, "Error al cargar los empleados", notes[0].Message)

		state := session.Snapshot()
		require.Len(t, state.Employees, 3)
		require.False(t, state.Loading)
	})

	t.Run("company failure is silent and does not block employees", func(t *testing.T) {
		session, _, companies, collector := newTestSession(t)

		companies.mu.Lock()
		companies.listErr = errors.New("connection refused")
		companies.mu.Unlock()

		session.Load(ctx)

		require.Empty(t, collector.Drain())
		state := session.Snapshot()
		require.Len(t, state.Employees, 3)
		require.Empty(t, state.Companies)
	})

	t.Run("duplicate IDs keep the last occurrence", func(t *testing.T) {
		session, employees, _, _ := newTestSession(t)

		employees.mu.Lock()
		employees.list = []models.Employee{
			{ID: "emp-1", CompanyID: "co-a", FullName: "Ana Duarte", DocumentNumber: "1"},
			{ID: "emp-1", CompanyID: "co-a", FullName: "Ana D. Duarte", DocumentNumber: "2"},
		}
		employees.mu.Unlock()

		session.Load(ctx)

		state := session.Snapshot()
		require.Len(t, state.Employees, 1)
		require.Equal(t, "Ana D. Duarte", state.Employees[0].FullName)
	})
}

func TestSession_EditCell(t *testing.T) {
	ctx := context.Background()

	t.Run("edits a field and marks the row dirty exactly once", func(t *testing.T) {
		session, _, _, _ := newTestSession(t)
		session.Load(ctx)

		require.NoError(t, session.EditCell("emp-1", FieldFullName, "Ana Edited"))
		require.NoError(t, session.EditCell("emp-1", FieldDocumentNumber, "42"))
		require.NoError(t, session.EditCell("emp-1", FieldFullName, "Ana Edited Twice"))

		state := session.Snapshot()
		require.Equal(t, []string{"emp-1"}, state.DirtyIDs)
		require.Equal(t, "Ana Edited Twice", state.Employees[0].FullName)
		require.Equal(t, "42", state.Employees[0].DocumentNumber)
	})

	t.Run("clears an optional field with null", func(t *testing.T) {
		session, _, _, _ := newTestSession(t)
		session.Load(ctx)

		require.NoError(t, session.EditCell("emp-1", FieldPhone, nil))

		state := session.Snapshot()
		require.Nil(t, state.Employees[0].Phone)
	})

	t.Run("rejects unknown fields and records", func(t *testing.T) {
		session, _, _, _ := newTestSession(t)
		session.Load(ctx)

		err := session.EditCell("emp-1", Field("access_code"), "nope")
		require.ErrorIs(t, err, ErrUnknownField)

		err = session.EditCell("emp-missing", FieldFullName, "Nobody")
		require.ErrorIs(t, err, store.ErrEmployeeNotFound)

		require.Empty(t, session.Snapshot().DirtyIDs)
	})

	t.Run("rejects mistyped values", func(t *testing.T) {
		session, _, _, _ := newTestSession(t)
		session.Load(ctx)

		err := session.EditCell("emp-1", FieldActive, "yes")
		require.ErrorIs(t, err, ErrInvalidValue)

		err = session.EditCell("emp-1", FieldFullName, 7)
		require.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("editing a searched field changes visibility immediately", func(t *testing.T) {
		session, _, _, _ := newTestSession(t)
		session.Load(ctx)
		session.SetFilter(CompanyAll, "zzz")

		require.Empty(t, session.Snapshot().Employees)

		require.NoError(t, session.EditCell("emp-2", FieldFullName, "Carla Zzz"))

		state := session.Snapshot()
		require.Len(t, state.Employees, 1)
		require.Equal(t, "emp-2", state.Employees[0].ID)
	})
}

func TestSession_SaveAll(t *testing.T) {
	ctx := context.Background()

	t.Run("empty dirty set performs no network calls", func(t *testing.T) {
		session, employees, _, collector := newTestSession(t)
		session.Load(ctx)
		collector.Drain()
		before := session.Snapshot().Employees
		listCalls := employees.ListCalls()

		session.SaveAll(ctx)

		notes := collector.Drain()
		require.Len(t, notes, 1)
		require.Equal(t, SeverityNormal, notes[0].Severity)
		require.Equal(t, "No hay cambios para guardar", notes[0].Message)
		require.Empty(t, employees.Updates())
		require.Equal(t, listCalls, employees.ListCalls())
		require.Equal(t, before, session.Snapshot().Employees)
	})

	t.Run("all rows succeed", func(t *testing.T) {
		session, employees, _, collector := newTestSession(t)
		session.Load(ctx)
		collector.Drain()

		require.NoError(t, session.EditCell("emp-1", FieldFullName, "Ana Edited"))
		require.NoError(t, session.EditCell("emp-3", FieldActive, true))

		session.SaveAll(ctx)

		notes := collector.Drain()
		require.Len(t, notes, 1)
		require.Equal(t, SeverityNormal, notes[0].Severity)
		require.Equal(t, "2 actualizados correctamente", notes[0].Message)
		require.Len(t, employees.Updates(), 2)
		require.Empty(t, session.Snapshot().DirtyIDs)
	})

	t.Run("mixed outcome reports a destructive aggregate and reloads once", func(t *testing.T) {
		session, employees, _, collector := newTestSession(t)
		session.Load(ctx)
		collector.Drain()

		require.NoError(t, session.EditCell("emp-1", FieldFullName, "A"))
		require.NoError(t, session.EditCell("emp-2", FieldFullName, "B"))
		require.NoError(t, session.EditCell("emp-3", FieldFullName, "C"))

		employees.mu.Lock()
		employees.updateErr = func(upd models.EmployeeUpdate) error {
			if upd.ID == "emp-2" {
				return errors.New("row level security violation")
			}
			return nil
		}
		listCallsBefore := employees.listCalls
		employees.mu.Unlock()

		session.SaveAll(ctx)

		notes := collector.Drain()
		require.Len(t, notes, 1)
		require.Equal(t, SeverityDestructive, notes[0].Severity)
		require.Equal(t, "2 actualizados, 1 errores", notes[0].Message)

		// Dirty set cleared despite the failure; exactly one reload issued.
		require.Empty(t, session.Snapshot().DirtyIDs)
		require.Equal(t, listCallsBefore+1, employees.ListCalls())

		// The failed row reverts to its stored value after the reload.
		state := session.Snapshot()
		require.Equal(t, "Carla Mendez", state.Employees[1].FullName)
	})

	t.Run("update payload carries the five mutable fields only", func(t *testing.T) {
		session, employees, _, _ := newTestSession(t)
		session.Load(ctx)

		require.NoError(t, session.EditCell("emp-1", FieldActive, false))

		session.SaveAll(ctx)

		updates := employees.Updates()
		require.Len(t, updates, 1)
		require.Equal(t, models.EmployeeUpdate{
			ID:             "emp-1",
			DocumentNumber: "30111222",
			FullName:       "Ana Duarte",
			Phone:          strptr("555-0100"),
			Email:          strptr("Ana.Duarte@acme.test"),
			Active:         false,
		}, updates[0])
	})
}

func TestSession_FilterScenario(t *testing.T) {
	ctx := context.Background()

	// 2 companies, 3 rows (2 under co-a, 1 under co-b): selecting co-a with
	// an empty search returns exactly the co-a rows in name order.
	session, _, _, _ := newTestSession(t)
	session.Load(ctx)
	session.SetFilter("co-a", "")

	state := session.Snapshot()
	require.Len(t, state.Employees, 2)
	require.Equal(t, "emp-1", state.Employees[0].ID)
	require.Equal(t, "emp-2", state.Employees[1].ID)
}
