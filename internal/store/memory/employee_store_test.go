package memory

import (
	"context"
	"testing"

	"github.com/nominaops/staffbulk/internal/models"
	"github.com/nominaops/staffbulk/internal/store"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func seedStores() (*EmployeeStore, *CompanyStore) {
	companies := NewCompanyStore()
	companies.Seed(models.Company{ID: "co-acme", Name: "Acme", Active: true})
	companies.Seed(models.Company{ID: "co-globex", Name: "Globex", Active: false})

	employees := NewEmployeeStore(companies)
	employees.Seed(models.Employee{
		ID:             "emp-1",
		CompanyID:      "co-acme",
		DocumentNumber: "11111111",
		FullName:       "Ana Duarte",
		Email:          strptr("ana@acme.test"),
		Active:         true,
	})
	employees.Seed(models.Employee{
		ID:             "emp-2",
		CompanyID:      "co-globex",
		DocumentNumber: "22222222",
		FullName:       "Bruno Vidal",
		Active:         true,
	})

	return employees, companies
}

func TestEmployeeStore_List(t *testing.T) {
	ctx := context.Background()
	employees, _ := seedStores()

	t.Run("ordered by full name with company join", func(t *testing.T) {
		list, err := employees.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "Ana Duarte", list[0].FullName)
		require.Equal(t, "Acme", list[0].CompanyName)
		require.Equal(t, "Bruno Vidal", list[1].FullName)
		require.Equal(t, "Globex", list[1].CompanyName)
	})

	t.Run("inactive companies still resolve in the join", func(t *testing.T) {
		list, err := employees.List(ctx)
		require.NoError(t, err)
		require.Equal(t, "Globex", list[1].CompanyName)
	})
}

func TestEmployeeStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("updates mutable fields only", func(t *testing.T) {
		employees, _ := seedStores()

		err := employees.Update(ctx, models.EmployeeUpdate{
			ID:             "emp-1",
			DocumentNumber: "99999999",
			FullName:       "Ana D. Duarte",
			Phone:          strptr("555-0100"),
			Email:          strptr("ana@acme.test"),
			Active:         false,
		})
		require.NoError(t, err)

		list, err := employees.List(ctx)
		require.NoError(t, err)
		require.Equal(t, "99999999", list[0].DocumentNumber)
		require.Equal(t, "Ana D. Duarte", list[0].FullName)
		require.False(t, list[0].Active)
	})

	t.Run("unknown employee returns sentinel error", func(t *testing.T) {
		employees, _ := seedStores()

		err := employees.Update(ctx, models.EmployeeUpdate{ID: "emp-missing"})
		require.ErrorIs(t, err, store.ErrEmployeeNotFound)
	})
}

func TestCompanyStore_ListActive(t *testing.T) {
	ctx := context.Background()
	_, companies := seedStores()

	list, err := companies.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "co-acme", list[0].ID)
}
