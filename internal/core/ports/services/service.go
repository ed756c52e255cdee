package services

// ServiceContainer bundles the service facades for handler registration.
type ServiceContainer struct {
	User        UserSvcFacade
	Ledger      LedgerSvcFacade
	Render      RenderSvcFacade
	Style       StyleSvcFacade
	Project     ProjectSvcFacade
	Reporting   ReportingSvcFacade
	Token       TokenSvcFacade
	GoogleOAuth GoogleOAuthSvcFacade
}
