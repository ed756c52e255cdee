package services

import (
	"context"
	"fmt"
	"time"

	"github.com/renderdesk/renderdesk/internal/apperrors"
	portsrepo "github.com/renderdesk/renderdesk/internal/core/ports/repositories"
	portssvc "github.com/renderdesk/renderdesk/internal/core/ports/services"
	"github.com/renderdesk/renderdesk/internal/dto"
	"github.com/shopspring/decimal"
)

const topUsersLimit = 10

// reportingService produces the admin usage report from the ledger and render
// aggregates.
type reportingService struct {
	BaseService
	reportingRepo portsrepo.ReportingRepository
	userRepo      portsrepo.UserRepository
}

// NewReportingService creates the reporting service.
func NewReportingService(reportingRepo portsrepo.ReportingRepository, userRepo portsrepo.UserRepository) portssvc.ReportingSvcFacade {
	return &reportingService{reportingRepo: reportingRepo, userRepo: userRepo}
}

var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

// UsageReport builds the analytics payload for the trailing periodDays days.
func (s *reportingService) UsageReport(ctx context.Context, adminUserID string, periodDays int) (*dto.UsageReport, error) {
	admin, err := s.userRepo.FindUserByID(ctx, adminUserID)
	if err != nil {
		return nil, err
	}
	if !admin.IsAdmin {
		return nil, fmt.Errorf("%w: user %s is not an administrator", apperrors.ErrForbidden, adminUserID)
	}

	if periodDays <= 0 {
		periodDays = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -periodDays)

	newUsers, err := s.reportingRepo.CountSignups(ctx, since)
	if err != nil {
		return nil, err
	}
	daily, err := s.reportingRepo.DailyUsageSince(ctx, since)
	if err != nil {
		return nil, err
	}
	styles, err := s.reportingRepo.StylePopularitySince(ctx, since)
	if err != nil {
		return nil, err
	}
	topUsers, err := s.reportingRepo.TopUsersSince(ctx, since, topUsersLimit)
	if err != nil {
		return nil, err
	}

	report := &dto.UsageReport{
		PeriodDays:      periodDays,
		NewUsers:        newUsers,
		Daily:           make([]dto.DailyUsagePoint, 0, len(daily)),
		StylePopularity: make([]dto.StylePopularityEntry, 0, len(styles)),
		TopUsers:        make([]dto.TopUserEntry, 0, len(topUsers)),
	}

	for _, point := range daily {
		report.TotalRenders += point.Renders
		report.CreditsSpent += point.Credits
		report.Daily = append(report.Daily, dto.DailyUsagePoint{
			Date:    point.Date.Format("2006-01-02"),
			Renders: point.Renders,
			Credits: point.Credits,
		})
	}
	for _, style := range styles {
		report.StylePopularity = append(report.StylePopularity, dto.StylePopularityEntry{
			Name:  style.Name,
			Count: style.Count,
		})
	}
	for _, usage := range topUsers {
		report.TopUsers = append(report.TopUsers, dto.TopUserEntry{
			UserID:       usage.UserID,
			DisplayName:  usage.DisplayName,
			Renders:      usage.Renders,
			CreditsSpent: usage.CreditsSpent,
		})
	}

	if report.TotalRenders > 0 {
		report.AvgCreditsPerRender = decimal.NewFromInt(report.CreditsSpent).
			Div(decimal.NewFromInt(report.TotalRenders)).Round(2)
	}
	report.AvgRendersPerDay = decimal.NewFromInt(report.TotalRenders).
		Div(decimal.NewFromInt(int64(periodDays))).Round(2)

	return report, nil
}
