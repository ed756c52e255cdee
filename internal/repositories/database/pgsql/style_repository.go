package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/domain"
	portsrepo "github.com/renderdesk/renderdesk/internal/core/ports/repositories"
)

// PgxStyleRepository persists the style catalog in PostgreSQL.
type PgxStyleRepository struct {
	BaseRepository
}

func newPgxStyleRepository(pool *pgxpool.Pool) portsrepo.StyleRepository {
	return &PgxStyleRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.StyleRepository = (*PgxStyleRepository)(nil)

const styleColumns = `style_id, name, description, prompt, is_active, created_at, created_by, last_updated_at, last_updated_by`

// SaveStyle inserts a new style.
func (r *PgxStyleRepository) SaveStyle(ctx context.Context, style domain.Style) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO styles (style_id, name, description, prompt, is_active, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`, style.StyleID, style.Name, style.Description, style.Prompt, style.IsActive,
		style.CreatedAt, style.CreatedBy, style.LastUpdatedAt, style.LastUpdatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%w: style name %s already exists", apperrors.ErrDuplicate, style.Name)
		}
		return fmt.Errorf("failed to insert style %s: %w", style.StyleID, err)
	}
	return nil
}

// FindStyleByID retrieves a style by ID.
func (r *PgxStyleRepository) FindStyleByID(ctx context.Context, styleID string) (*domain.Style, error) {
	var style domain.Style
	err := r.Pool.QueryRow(ctx,
		`SELECT `+styleColumns+` FROM styles WHERE style_id = $1;`, styleID,
	).Scan(&style.StyleID, &style.Name, &style.Description, &style.Prompt, &style.IsActive,
		&style.CreatedAt, &style.CreatedBy, &style.LastUpdatedAt, &style.LastUpdatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan style row: %w", err)
	}
	return &style, nil
}

// UpdateStyle rewrites a style's mutable fields.
func (r *PgxStyleRepository) UpdateStyle(ctx context.Context, style domain.Style) error {
	tag, err := r.Pool.Exec(ctx, `
		UPDATE styles
		SET name = $2, description = $3, prompt = $4, is_active = $5, last_updated_at = $6, last_updated_by = $7
		WHERE style_id = $1;
	`, style.StyleID, style.Name, style.Description, style.Prompt, style.IsActive,
		style.LastUpdatedAt, style.LastUpdatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%w: style name %s already exists", apperrors.ErrDuplicate, style.Name)
		}
		return fmt.Errorf("failed to update style %s: %w", style.StyleID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListStyles returns the catalog ordered by name. Inactive styles are
// included only when requested (the admin catalog view).
func (r *PgxStyleRepository) ListStyles(ctx context.Context, includeInactive bool) ([]domain.Style, error) {
	query := `SELECT ` + styleColumns + ` FROM styles`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC;`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query styles: %w", err)
	}
	defer rows.Close()

	styles := []domain.Style{}
	for rows.Next() {
		var style domain.Style
		if err := rows.Scan(&style.StyleID, &style.Name, &style.Description, &style.Prompt, &style.IsActive,
			&style.CreatedAt, &style.CreatedBy, &style.LastUpdatedAt, &style.LastUpdatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan style row: %w", err)
		}
		styles = append(styles, style)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating style rows: %w", err)
	}
	return styles, nil
}
