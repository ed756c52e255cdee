package services

import (
	"context"

	"github.com/renderdesk/renderdesk/internal/dto"
)

// ReportingSvcFacade produces the admin analytics report.
type ReportingSvcFacade interface {
	UsageReport(ctx context.Context, adminUserID string, periodDays int) (*dto.UsageReport, error)
}
