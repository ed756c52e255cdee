package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/domain"
	portsrepo "github.com/renderdesk/renderdesk/internal/core/ports/repositories"
	portssvc "github.com/renderdesk/renderdesk/internal/core/ports/services"
	"github.com/renderdesk/renderdesk/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockReportingRepository struct{ mock.Mock }

var _ portsrepo.ReportingRepository = (*MockReportingRepository)(nil)

func (m *MockReportingRepository) CountSignups(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReportingRepository) DailyUsageSince(ctx context.Context, since time.Time) ([]portsrepo.DailyUsage, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]portsrepo.DailyUsage), args.Error(1)
}

func (m *MockReportingRepository) StylePopularitySince(ctx context.Context, since time.Time) ([]portsrepo.StyleCount, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]portsrepo.StyleCount), args.Error(1)
}

func (m *MockReportingRepository) TopUsersSince(ctx context.Context, since time.Time, limit int) ([]portsrepo.UserUsage, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]portsrepo.UserUsage), args.Error(1)
}

type ReportingServiceTestSuite struct {
	suite.Suite
	ctx context.Context

	mockReportingRepo *MockReportingRepository
	mockUserRepo      *MockUserRepository
	service           portssvc.ReportingSvcFacade

	admin *domain.User
}

func (s *ReportingServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.mockReportingRepo = new(MockReportingRepository)
	s.mockUserRepo = new(MockUserRepository)
	s.service = services.NewReportingService(s.mockReportingRepo, s.mockUserRepo)

	s.admin = &domain.User{UserID: uuid.NewString(), Username: "admin", IsAdmin: true}
}

func (s *ReportingServiceTestSuite) TestUsageReportAggregates() {
	s.mockUserRepo.On("FindUserByID", mock.Anything, s.admin.UserID).Return(s.admin, nil)
	s.mockReportingRepo.On("CountSignups", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(4), nil)
	s.mockReportingRepo.On("DailyUsageSince", mock.Anything, mock.AnythingOfType("time.Time")).Return([]portsrepo.DailyUsage{
		{Date: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), Renders: 3, Credits: 15},
		{Date: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), Renders: 5, Credits: 20},
	}, nil)
	s.mockReportingRepo.On("StylePopularitySince", mock.Anything, mock.AnythingOfType("time.Time")).Return([]portsrepo.StyleCount{
		{Name: "Modern", Count: 6},
		{Name: "Industrial", Count: 2},
	}, nil)
	s.mockReportingRepo.On("TopUsersSince", mock.Anything, mock.AnythingOfType("time.Time"), 10).Return([]portsrepo.UserUsage{
		{UserID: uuid.NewString(), DisplayName: "Alice", Renders: 8, CreditsSpent: 35},
	}, nil)

	report, err := s.service.UsageReport(s.ctx, s.admin.UserID, 7)

	s.Require().NoError(err)
	s.Equal(7, report.PeriodDays)
	s.Equal(int64(4), report.NewUsers)
	s.Equal(int64(8), report.TotalRenders)
	s.Equal(int64(35), report.CreditsSpent)
	s.Len(report.Daily, 2)
	s.Equal("2026-08-29", report.Daily[0].Date)
	// 35 credits over 8 renders includes a refunded attempt, so not a clean 5
	s.Equal("4.38", report.AvgCreditsPerRender.StringFixed(2))
	s.Equal("1.14", report.AvgRendersPerDay.StringFixed(2))
}

func (s *ReportingServiceTestSuite) TestUsageReportDefaultsPeriod() {
	s.mockUserRepo.On("FindUserByID", mock.Anything, s.admin.UserID).Return(s.admin, nil)
	s.mockReportingRepo.On("CountSignups", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(0), nil)
	s.mockReportingRepo.On("DailyUsageSince", mock.Anything, mock.AnythingOfType("time.Time")).Return([]portsrepo.DailyUsage{}, nil)
	s.mockReportingRepo.On("StylePopularitySince", mock.Anything, mock.AnythingOfType("time.Time")).Return([]portsrepo.StyleCount{}, nil)
	s.mockReportingRepo.On("TopUsersSince", mock.Anything, mock.AnythingOfType("time.Time"), 10).Return([]portsrepo.UserUsage{}, nil)

	report, err := s.service.UsageReport(s.ctx, s.admin.UserID, 0)

	s.Require().NoError(err)
	s.Equal(30, report.PeriodDays)
	s.True(report.AvgCreditsPerRender.IsZero())
	s.True(report.AvgRendersPerDay.IsZero())
}

func (s *ReportingServiceTestSuite) TestUsageReportRequiresAdmin() {
	member := &domain.User{UserID: uuid.NewString(), Username: "member"}
	s.mockUserRepo.On("FindUserByID", mock.Anything, member.UserID).Return(member, nil)

	_, err := s.service.UsageReport(s.ctx, member.UserID, 7)

	s.ErrorIs(err, apperrors.ErrForbidden)
	s.mockReportingRepo.AssertNotCalled(s.T(), "DailyUsageSince", mock.Anything, mock.Anything)
}

func TestReportingService(t *testing.T) {
	suite.Run(t, new(ReportingServiceTestSuite))
}
