package services

import (
	"github.com/renderdesk/renderdesk/internal/core/ports"
	portsrepo "github.com/renderdesk/renderdesk/internal/core/ports/repositories"
	portssvc "github.com/renderdesk/renderdesk/internal/core/ports/services"
	"github.com/renderdesk/renderdesk/internal/utils"
	"github.com/renderdesk/renderdesk/pkg/config"
)

// ContainerDeps carries the infrastructure the services are built on.
// Publisher and Posthog may be nil; everything else is required.
type ContainerDeps struct {
	Store     ports.ContentStore
	Executor  ports.RenderExecutor
	Publisher ports.UsageEventPublisher
	Posthog   *utils.PosthogClientWrapper
}

// NewServiceContainer wires the service graph.
func NewServiceContainer(cfg *config.Config, repos *portsrepo.RepositoryProvider, deps ContainerDeps) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Ledger = NewLedgerService(repos.LedgerRepo, repos.UserRepo, repos.AdminActionRepo, deps.Publisher)
	container.User = NewUserService(cfg.SignupGrant, repos.UserRepo, repos.AdminActionRepo, container.Ledger)
	container.Style = NewStyleService(repos.StyleRepo, repos.UserRepo)
	container.Project = NewProjectService(repos.ProjectRepo)
	container.Reporting = NewReportingService(repos.ReportingRepo, repos.UserRepo)

	container.Render = NewRenderService(
		cfg.RenderCost,
		cfg.SignedURLTTL,
		container.Ledger,
		container.Project,
		container.Style,
		repos.RenderRepo,
		deps.Store,
		deps.Executor,
		deps.Posthog,
	)

	container.Token = NewTokenService(cfg, container.User)
	container.GoogleOAuth = NewGoogleOAuthService(cfg)

	return container
}
