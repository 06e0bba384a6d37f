package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/byggkontor/timesheet/internal/domain/engine"
	"github.com/byggkontor/timesheet/internal/domain/entity"
)

// ProjectRepository handles project database operations
type ProjectRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a project within the tenant scope.
func (r *ProjectRepository) GetByID(ctx context.Context, tenantID, id int64) (*entity.Project, error) {
	query := `
		SELECT id, tenant_id, name, hourly_rate, created_at
		FROM projects
		WHERE id = ? AND tenant_id = ?
	`

	var (
		p    entity.Project
		rate sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&p.ID,
		&p.TenantID,
		&p.Name,
		&rate,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &engine.NotFoundError{Kind: "project", ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get project", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	p.HourlyRate, err = parseNullDecimal(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid hourly_rate for project %d: %w", p.ID, err)
	}
	return &p, nil
}
