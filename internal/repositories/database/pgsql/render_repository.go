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

// PgxRenderRepository persists render records in PostgreSQL.
type PgxRenderRepository struct {
	BaseRepository
}

func newPgxRenderRepository(pool *pgxpool.Pool) portsrepo.RenderRepository {
	return &PgxRenderRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RenderRepository = (*PgxRenderRepository)(nil)

const renderColumns = `render_id, project_id, user_id, style_id, before_path, after_path, provider, created_at`

// SaveRender inserts a completed render record.
func (r *PgxRenderRepository) SaveRender(ctx context.Context, render domain.Render) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO renders (render_id, project_id, user_id, style_id, before_path, after_path, provider, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`, render.RenderID, render.ProjectID, render.UserID, render.StyleID,
		render.BeforePath, render.AfterPath, render.Provider, render.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert render %s: %w", render.RenderID, err)
	}
	return nil
}

// FindRenderByID retrieves a single render record.
func (r *PgxRenderRepository) FindRenderByID(ctx context.Context, renderID string) (*domain.Render, error) {
	var render domain.Render
	err := r.Pool.QueryRow(ctx,
		`SELECT `+renderColumns+` FROM renders WHERE render_id = $1;`, renderID,
	).Scan(&render.RenderID, &render.ProjectID, &render.UserID, &render.StyleID,
		&render.BeforePath, &render.AfterPath, &render.Provider, &render.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan render row: %w", err)
	}
	return &render, nil
}

// ListRendersByProject returns a project's renders, newest first.
func (r *PgxRenderRepository) ListRendersByProject(ctx context.Context, projectID string, limit int, offset int) ([]domain.Render, error) {
	return r.listRenders(ctx, `project_id`, projectID, limit, offset)
}

// ListRendersByUser returns a user's renders across all projects, newest first.
func (r *PgxRenderRepository) ListRendersByUser(ctx context.Context, userID string, limit int, offset int) ([]domain.Render, error) {
	return r.listRenders(ctx, `user_id`, userID, limit, offset)
}

func (r *PgxRenderRepository) listRenders(ctx context.Context, column string, value string, limit int, offset int) ([]domain.Render, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.Pool.Query(ctx,
		`SELECT `+renderColumns+` FROM renders WHERE `+column+` = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3;`, value, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query renders by %s: %w", column, err)
	}
	defer rows.Close()

	renders := []domain.Render{}
	for rows.Next() {
		var render domain.Render
		if err := rows.Scan(&render.RenderID, &render.ProjectID, &render.UserID, &render.StyleID,
			&render.BeforePath, &render.AfterPath, &render.Provider, &render.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan render row: %w", err)
		}
		renders = append(renders, render)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating render rows: %w", err)
	}
	return renders, nil
}
