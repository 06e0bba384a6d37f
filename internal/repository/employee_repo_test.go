package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/byggkontor/timesheet/internal/domain/engine"
	"github.com/byggkontor/timesheet/internal/domain/entity"
	"github.com/byggkontor/timesheet/pkg/database"
)

func newEmployeeRepo(t *testing.T) (*database.DB, *EmployeeRepository) {
	db := newTestDB(t)
	_, err := db.Exec(`INSERT INTO employees (id, tenant_id, name, hourly_rate, classification) VALUES
		(3, 1, 'Nils Holm', '300', 'temporary'),
		(4, 2, 'Maria Falk', '380', 'full_time')`)
	require.NoError(t, err)
	return db, NewEmployeeRepository(db.DB, zap.NewNop())
}

func TestEmployeeGetByID(t *testing.T) {
	db, repo := newEmployeeRepo(t)
	defer db.Close()
	ctx := context.Background()

	got, err := repo.GetByID(ctx, tenantOne, adminID)
	require.NoError(t, err)
	assert.Equal(t, "Eva Lind", got.Name)
	assert.Equal(t, "400", got.HourlyRate.String())
	assert.True(t, got.IsAdmin())

	// A tenant cannot see another tenant's employees.
	_, err = repo.GetByID(ctx, tenantOne, 4)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestListByTenant(t *testing.T) {
	db, repo := newEmployeeRepo(t)
	defer db.Close()
	ctx := context.Background()

	all, err := repo.ListByTenant(ctx, tenantOne, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)

	byID, err := repo.ListByTenant(ctx, tenantOne, []int64{workerID}, nil)
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "Johan Berg", byID[0].Name)

	fullTime, err := repo.ListByTenant(ctx, tenantOne, nil,
		[]entity.Classification{entity.ClassificationFullTime})
	require.NoError(t, err)
	require.Len(t, fullTime, 2)
	for _, e := range fullTime {
		assert.Equal(t, entity.ClassificationFullTime, e.Classification)
	}
}
