package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/domain"
	portsrepo "github.com/renderdesk/renderdesk/internal/core/ports/repositories"
)

// PgxProjectRepository persists projects in PostgreSQL.
type PgxProjectRepository struct {
	BaseRepository
}

func newPgxProjectRepository(pool *pgxpool.Pool) portsrepo.ProjectRepository {
	return &PgxProjectRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ProjectRepository = (*PgxProjectRepository)(nil)

const projectColumns = `project_id, user_id, name, created_at, created_by, last_updated_at, last_updated_by`

// SaveProject inserts a new project.
func (r *PgxProjectRepository) SaveProject(ctx context.Context, project domain.Project) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO projects (project_id, user_id, name, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`, project.ProjectID, project.UserID, project.Name,
		project.CreatedAt, project.CreatedBy, project.LastUpdatedAt, project.LastUpdatedBy)
	if err != nil {
		return fmt.Errorf("failed to insert project %s: %w", project.ProjectID, err)
	}
	return nil
}

// FindProjectByID retrieves a project by ID.
func (r *PgxProjectRepository) FindProjectByID(ctx context.Context, projectID string) (*domain.Project, error) {
	var project domain.Project
	err := r.Pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE project_id = $1;`, projectID,
	).Scan(&project.ProjectID, &project.UserID, &project.Name,
		&project.CreatedAt, &project.CreatedBy, &project.LastUpdatedAt, &project.LastUpdatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan project row: %w", err)
	}
	return &project, nil
}

// ListProjectsByUser returns a user's projects, newest first.
func (r *PgxProjectRepository) ListProjectsByUser(ctx context.Context, userID string, limit int, offset int) ([]domain.Project, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.Pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3;`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects for user %s: %w", userID, err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		var project domain.Project
		if err := rows.Scan(&project.ProjectID, &project.UserID, &project.Name,
			&project.CreatedAt, &project.CreatedBy, &project.LastUpdatedAt, &project.LastUpdatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return projects, nil
}
