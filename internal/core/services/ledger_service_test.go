package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/domain"
	"github.com/renderdesk/renderdesk/internal/core/ports"
	portsrepo "github.com/renderdesk/renderdesk/internal/core/ports/repositories"
	portssvc "github.com/renderdesk/renderdesk/internal/core/ports/services"
	"github.com/renderdesk/renderdesk/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockLedgerRepository struct{ mock.Mock }

var _ portsrepo.LedgerRepository = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) TryDebit(ctx context.Context, userID string, amount int64, entry domain.CreditEntry) error {
	args := m.Called(ctx, userID, amount, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) Credit(ctx context.Context, userID string, amount int64, entry domain.CreditEntry) error {
	args := m.Called(ctx, userID, amount, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListEntries(ctx context.Context, userID string, limit int, offset int) ([]domain.CreditEntry, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CreditEntry), args.Error(1)
}

func (m *MockLedgerRepository) SumEntries(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserRepository struct{ mock.Mock }

var _ portsrepo.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, limit int, offset int) ([]domain.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateDisplayName(ctx context.Context, userID string, displayName string, updatedBy string, now time.Time) error {
	args := m.Called(ctx, userID, displayName, updatedBy, now)
	return args.Error(0)
}

func (m *MockUserRepository) SetBlocked(ctx context.Context, userID string, blocked bool, updatedBy string, now time.Time) error {
	args := m.Called(ctx, userID, blocked, updatedBy, now)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateRefreshToken(ctx context.Context, userID string, tokenHash string, expiry time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiry)
	return args.Error(0)
}

func (m *MockUserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockAdminActionRepository struct{ mock.Mock }

var _ portsrepo.AdminActionRepository = (*MockAdminActionRepository)(nil)

func (m *MockAdminActionRepository) SaveAdminAction(ctx context.Context, action portsrepo.AdminAction) error {
	args := m.Called(ctx, action)
	return args.Error(0)
}

// recordingPublisher captures published entries in-process.
type recordingPublisher struct {
	entries []domain.CreditEntry
	err     error
}

var _ ports.UsageEventPublisher = (*recordingPublisher)(nil)

func (p *recordingPublisher) PublishCreditEntry(_ context.Context, entry domain.CreditEntry) error {
	if p.err != nil {
		return p.err
	}
	p.entries = append(p.entries, entry)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type LedgerServiceTestSuite struct {
	suite.Suite
	ctx context.Context

	mockLedgerRepo *MockLedgerRepository
	mockUserRepo   *MockUserRepository
	mockActionRepo *MockAdminActionRepository
	publisher      *recordingPublisher
	service        portssvc.LedgerSvcFacade

	admin  *domain.User
	member *domain.User
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.mockLedgerRepo = new(MockLedgerRepository)
	s.mockUserRepo = new(MockUserRepository)
	s.mockActionRepo = new(MockAdminActionRepository)
	s.publisher = new(recordingPublisher)
	s.service = services.NewLedgerService(s.mockLedgerRepo, s.mockUserRepo, s.mockActionRepo, s.publisher)

	s.admin = &domain.User{UserID: uuid.NewString(), Username: "admin", IsAdmin: true}
	s.member = &domain.User{UserID: uuid.NewString(), Username: "member"}
}

func (s *LedgerServiceTestSuite) TestTryDebitBuildsEntryAndPublishes() {
	projectID := uuid.NewString()
	s.mockLedgerRepo.On("TryDebit", mock.Anything, s.member.UserID, int64(5),
		mock.MatchedBy(func(e domain.CreditEntry) bool {
			return e.UserID == s.member.UserID &&
				e.EntryType == domain.EntryTypeRender &&
				e.ProjectID != nil && *e.ProjectID == projectID &&
				e.EntryID != ""
		})).Return(nil)

	err := s.service.TryDebit(s.ctx, s.member.UserID, 5, domain.EntryTypeRender, &projectID, map[string]any{"provider": "huggingface"})

	s.Require().NoError(err)
	s.Require().Len(s.publisher.entries, 1)
	s.Equal(int64(-5), s.publisher.entries[0].Amount)
	s.mockLedgerRepo.AssertExpectations(s.T())
}

func (s *LedgerServiceTestSuite) TestTryDebitFailureDoesNotPublish() {
	s.mockLedgerRepo.On("TryDebit", mock.Anything, s.member.UserID, int64(5), mock.AnythingOfType("domain.CreditEntry")).
		Return(fmt.Errorf("%w: balance 3, requested 5", apperrors.ErrInsufficientCredits))

	err := s.service.TryDebit(s.ctx, s.member.UserID, 5, domain.EntryTypeRender, nil, nil)

	s.ErrorIs(err, apperrors.ErrInsufficientCredits)
	s.Empty(s.publisher.entries)
}

func (s *LedgerServiceTestSuite) TestCreditPublishesPositiveAmount() {
	s.mockLedgerRepo.On("Credit", mock.Anything, s.member.UserID, int64(5), mock.AnythingOfType("domain.CreditEntry")).Return(nil)

	err := s.service.Credit(s.ctx, s.member.UserID, 5, domain.EntryTypeRenderRefund, nil, map[string]any{"reason": "timeout"})

	s.Require().NoError(err)
	s.Require().Len(s.publisher.entries, 1)
	s.Equal(int64(5), s.publisher.entries[0].Amount)
	s.Equal(domain.EntryTypeRenderRefund, s.publisher.entries[0].EntryType)
}

func (s *LedgerServiceTestSuite) TestPublishFailureDoesNotFailOperation() {
	s.publisher.err = fmt.Errorf("broker unavailable")
	s.mockLedgerRepo.On("Credit", mock.Anything, s.member.UserID, int64(10), mock.AnythingOfType("domain.CreditEntry")).Return(nil)

	err := s.service.Credit(s.ctx, s.member.UserID, 10, domain.EntryTypeSignupGrant, nil, nil)

	s.NoError(err)
}

func (s *LedgerServiceTestSuite) TestAdjustCreditsRejectsZeroDelta() {
	_, err := s.service.AdjustCredits(s.ctx, s.admin.UserID, s.member.UserID, 0, "noop")

	s.ErrorIs(err, apperrors.ErrValidation)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestAdjustCreditsRejectsNonAdmin() {
	s.mockUserRepo.On("FindUserByID", mock.Anything, s.member.UserID).Return(s.member, nil)

	_, err := s.service.AdjustCredits(s.ctx, s.member.UserID, s.admin.UserID, 10, "self grant")

	s.ErrorIs(err, apperrors.ErrForbidden)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestAdjustCreditsPositiveDelta() {
	s.mockUserRepo.On("FindUserByID", mock.Anything, s.admin.UserID).Return(s.admin, nil)
	s.mockLedgerRepo.On("Credit", mock.Anything, s.member.UserID, int64(20),
		mock.MatchedBy(func(e domain.CreditEntry) bool {
			return e.EntryType == domain.EntryTypeAdminCredit && e.Detail["adminId"] == s.admin.UserID
		})).Return(nil)
	s.mockActionRepo.On("SaveAdminAction", mock.Anything, mock.AnythingOfType("repositories.AdminAction")).Return(nil)
	s.mockLedgerRepo.On("GetBalance", mock.Anything, s.member.UserID).Return(int64(70), nil)

	balance, err := s.service.AdjustCredits(s.ctx, s.admin.UserID, s.member.UserID, 20, "support compensation")

	s.Require().NoError(err)
	s.Equal(int64(70), balance)
	s.mockActionRepo.AssertExpectations(s.T())
}

func (s *LedgerServiceTestSuite) TestAdjustCreditsNegativeDeltaUsesConditionalDebit() {
	s.mockUserRepo.On("FindUserByID", mock.Anything, s.admin.UserID).Return(s.admin, nil)
	s.mockLedgerRepo.On("TryDebit", mock.Anything, s.member.UserID, int64(15), mock.AnythingOfType("domain.CreditEntry")).
		Return(fmt.Errorf("%w: balance 10, requested 15", apperrors.ErrInsufficientCredits))

	_, err := s.service.AdjustCredits(s.ctx, s.admin.UserID, s.member.UserID, -15, "clawback")

	s.ErrorIs(err, apperrors.ErrInsufficientCredits)
	s.mockActionRepo.AssertNotCalled(s.T(), "SaveAdminAction", mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestReconcileConsistent() {
	s.mockLedgerRepo.On("GetBalance", mock.Anything, s.member.UserID).Return(int64(45), nil)
	s.mockLedgerRepo.On("SumEntries", mock.Anything, s.member.UserID).Return(int64(45), nil)

	consistent, err := s.service.Reconcile(s.ctx, s.member.UserID)

	s.Require().NoError(err)
	s.True(consistent)
}

func (s *LedgerServiceTestSuite) TestReconcileMismatch() {
	s.mockLedgerRepo.On("GetBalance", mock.Anything, s.member.UserID).Return(int64(45), nil)
	s.mockLedgerRepo.On("SumEntries", mock.Anything, s.member.UserID).Return(int64(40), nil)

	consistent, err := s.service.Reconcile(s.ctx, s.member.UserID)

	s.Require().NoError(err)
	s.False(consistent)
}

func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
