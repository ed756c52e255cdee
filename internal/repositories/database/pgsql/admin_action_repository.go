package pgsql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/renderdesk/renderdesk/internal/core/ports/repositories"
)

// PgxAdminActionRepository records the admin audit trail.
type PgxAdminActionRepository struct {
	BaseRepository
}

func newPgxAdminActionRepository(pool *pgxpool.Pool) portsrepo.AdminActionRepository {
	return &PgxAdminActionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AdminActionRepository = (*PgxAdminActionRepository)(nil)

// SaveAdminAction inserts one audit record.
func (r *PgxAdminActionRepository) SaveAdminAction(ctx context.Context, action portsrepo.AdminAction) error {
	var details []byte
	if action.Details != nil {
		var err error
		details, err = json.Marshal(action.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal admin action details: %w", err)
		}
	}

	_, err := r.Pool.Exec(ctx, `
		INSERT INTO admin_actions (action_id, admin_id, action_type, target_user_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`, action.ActionID, action.AdminID, action.ActionType, action.TargetUserID, details, action.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert admin action %s: %w", action.ActionID, err)
	}
	return nil
}
