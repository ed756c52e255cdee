package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/renderdesk/renderdesk/internal/core/domain"
	portsrepo "github.com/renderdesk/renderdesk/internal/core/ports/repositories"
)

// PgxReportingRepository answers aggregate queries over the ledger and render
// tables. All queries are read-only.
type PgxReportingRepository struct {
	BaseRepository
}

func newPgxReportingRepository(pool *pgxpool.Pool) portsrepo.ReportingRepository {
	return &PgxReportingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReportingRepository = (*PgxReportingRepository)(nil)

// CountSignups counts users created at or after the cutoff.
func (r *PgxReportingRepository) CountSignups(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE created_at >= $1 AND deleted_at IS NULL;`, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count signups: %w", err)
	}
	return count, nil
}

// DailyUsageSince aggregates render debits per day. Credits spent is the
// absolute sum of render-type ledger entries, so refunded renders net out.
func (r *PgxReportingRepository) DailyUsageSince(ctx context.Context, since time.Time) ([]portsrepo.DailyUsage, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day,
		       COUNT(*) FILTER (WHERE entry_type = $2),
		       -COALESCE(SUM(amount) FILTER (WHERE entry_type IN ($2, $3)), 0)
		FROM credit_entries
		WHERE created_at >= $1 AND entry_type IN ($2, $3)
		GROUP BY day
		ORDER BY day ASC;
	`, since, string(domain.EntryTypeRender), string(domain.EntryTypeRenderRefund))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	usage := []portsrepo.DailyUsage{}
	for rows.Next() {
		var point portsrepo.DailyUsage
		if err := rows.Scan(&point.Date, &point.Renders, &point.Credits); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage row: %w", err)
		}
		usage = append(usage, point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily usage rows: %w", err)
	}
	return usage, nil
}

// StylePopularitySince counts completed renders per style.
func (r *PgxReportingRepository) StylePopularitySince(ctx context.Context, since time.Time) ([]portsrepo.StyleCount, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT s.name, COUNT(r.render_id)
		FROM renders r
		JOIN styles s ON s.style_id = r.style_id
		WHERE r.created_at >= $1
		GROUP BY s.name
		ORDER BY COUNT(r.render_id) DESC;
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query style popularity: %w", err)
	}
	defer rows.Close()

	counts := []portsrepo.StyleCount{}
	for rows.Next() {
		var count portsrepo.StyleCount
		if err := rows.Scan(&count.Name, &count.Count); err != nil {
			return nil, fmt.Errorf("failed to scan style popularity row: %w", err)
		}
		counts = append(counts, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating style popularity rows: %w", err)
	}
	return counts, nil
}

// TopUsersSince ranks users by completed renders in the period.
func (r *PgxReportingRepository) TopUsersSince(ctx context.Context, since time.Time, limit int) ([]portsrepo.UserUsage, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.Pool.Query(ctx, `
		SELECT u.user_id, u.display_name,
		       COUNT(r.render_id),
		       COALESCE((
		           SELECT -SUM(e.amount)
		           FROM credit_entries e
		           WHERE e.user_id = u.user_id
		             AND e.created_at >= $1
		             AND e.entry_type IN ($2, $3)
		       ), 0)
		FROM users u
		JOIN renders r ON r.user_id = u.user_id AND r.created_at >= $1
		GROUP BY u.user_id, u.display_name
		ORDER BY COUNT(r.render_id) DESC
		LIMIT $4;
	`, since, string(domain.EntryTypeRender), string(domain.EntryTypeRenderRefund), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top users: %w", err)
	}
	defer rows.Close()

	users := []portsrepo.UserUsage{}
	for rows.Next() {
		var usage portsrepo.UserUsage
		if err := rows.Scan(&usage.UserID, &usage.DisplayName, &usage.Renders, &usage.CreditsSpent); err != nil {
			return nil, fmt.Errorf("failed to scan top user row: %w", err)
		}
		users = append(users, usage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top user rows: %w", err)
	}
	return users, nil
}
