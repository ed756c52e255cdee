package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/renderdesk/renderdesk/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every PostgreSQL repository over one shared pool.
func NewRepositoryProvider(pool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		UserRepo:        newPgxUserRepository(pool),
		LedgerRepo:      newPgxLedgerRepository(pool),
		RenderRepo:      newPgxRenderRepository(pool),
		StyleRepo:       newPgxStyleRepository(pool),
		ProjectRepo:     newPgxProjectRepository(pool),
		AdminActionRepo: newPgxAdminActionRepository(pool),
		ReportingRepo:   newPgxReportingRepository(pool),
	}
}
