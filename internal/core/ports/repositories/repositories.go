package repositories

// RepositoryProvider bundles every repository implementation for injection
// into the service container.
type RepositoryProvider struct {
	UserRepo        UserRepository
	LedgerRepo      LedgerRepository
	RenderRepo      RenderRepository
	StyleRepo       StyleRepository
	ProjectRepo     ProjectRepository
	AdminActionRepo AdminActionRepository
	ReportingRepo   ReportingRepository
}
