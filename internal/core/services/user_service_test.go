package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/domain"
	portsrepo "github.com/renderdesk/renderdesk/internal/core/ports/repositories"
	portssvc "github.com/renderdesk/renderdesk/internal/core/ports/services"
	"github.com/renderdesk/renderdesk/internal/core/services"
	"github.com/renderdesk/renderdesk/internal/dto"
	"github.com/renderdesk/renderdesk/internal/utils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const signupGrant = int64(50)

type UserServiceTestSuite struct {
	suite.Suite
	ctx context.Context

	mockUserRepo   *MockUserRepository
	mockActionRepo *MockAdminActionRepository
	ledger         *fakeLedger
	service        portssvc.UserSvcFacade
}

func (s *UserServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.mockUserRepo = new(MockUserRepository)
	s.mockActionRepo = new(MockAdminActionRepository)
	s.ledger = newFakeLedger()
	s.service = services.NewUserService(signupGrant, s.mockUserRepo, s.mockActionRepo, s.ledger)
}

func (s *UserServiceTestSuite) TestRegisterUserGrantsSignupCredits() {
	var savedID string
	s.mockUserRepo.On("SaveUser", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		savedID = u.UserID
		// the grant goes through the ledger, never the stored row
		s.ledger.balances[u.UserID] = 0
		return u.Username == "alice" && u.Credits == 0 && u.PasswordHash != "hunter2secret"
	})).Return(nil)

	user, err := s.service.RegisterUser(s.ctx, dto.RegisterRequest{
		Username: "alice",
		Password: "hunter2secret",
	})

	s.Require().NoError(err)
	s.Equal(savedID, user.UserID)
	s.Equal("alice", user.DisplayName) // defaults to username
	s.Equal(signupGrant, user.Credits)
	s.Equal(signupGrant, s.ledger.balances[user.UserID])
	s.Require().Equal(1, s.ledger.entryCount(user.UserID))
	entries, _ := s.ledger.ListEntries(s.ctx, user.UserID, 10, 0)
	s.Equal(domain.EntryTypeSignupGrant, entries[0].EntryType)
}

func (s *UserServiceTestSuite) TestRegisterUserDuplicateUsername() {
	s.mockUserRepo.On("SaveUser", mock.Anything, mock.AnythingOfType("domain.User")).
		Return(fmt.Errorf("%w: username alice already exists", apperrors.ErrDuplicate))

	_, err := s.service.RegisterUser(s.ctx, dto.RegisterRequest{
		Username: "alice",
		Password: "hunter2secret",
	})

	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *UserServiceTestSuite) TestGrantFailureLeavesAccountUsable() {
	s.ledger.failCredit = true
	s.mockUserRepo.On("SaveUser", mock.Anything, mock.AnythingOfType("domain.User")).Return(nil)

	user, err := s.service.RegisterUser(s.ctx, dto.RegisterRequest{
		Username: "bob",
		Password: "hunter2secret",
	})

	s.Require().NoError(err)
	s.Zero(user.Credits)
}

func (s *UserServiceTestSuite) TestAuthenticateUser() {
	hash, err := utils.HashPassword("hunter2secret")
	s.Require().NoError(err)
	user := &domain.User{UserID: uuid.NewString(), Username: "alice", PasswordHash: hash}
	s.mockUserRepo.On("FindUserByUsername", mock.Anything, "alice").Return(user, nil)

	got, err := s.service.AuthenticateUser(s.ctx, "alice", "hunter2secret")

	s.Require().NoError(err)
	s.Equal(user.UserID, got.UserID)
}

func (s *UserServiceTestSuite) TestAuthenticateFailuresAreIndistinguishable() {
	hash, err := utils.HashPassword("hunter2secret")
	s.Require().NoError(err)
	user := &domain.User{UserID: uuid.NewString(), Username: "alice", PasswordHash: hash}
	s.mockUserRepo.On("FindUserByUsername", mock.Anything, "alice").Return(user, nil)
	s.mockUserRepo.On("FindUserByUsername", mock.Anything, "nobody").Return(nil, apperrors.ErrNotFound)

	_, wrongPassword := s.service.AuthenticateUser(s.ctx, "alice", "wrong")
	_, unknownUser := s.service.AuthenticateUser(s.ctx, "nobody", "whatever")

	s.ErrorIs(wrongPassword, apperrors.ErrUnauthorized)
	s.ErrorIs(unknownUser, apperrors.ErrUnauthorized)
	s.Equal(wrongPassword.Error(), unknownUser.Error())
}

func (s *UserServiceTestSuite) TestEnsureOAuthProfileCreatesOnFirstSignIn() {
	s.mockUserRepo.On("FindUserByUsername", mock.Anything, "google:sub-123").Return(nil, apperrors.ErrNotFound)
	s.mockUserRepo.On("SaveUser", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		s.ledger.balances[u.UserID] = 0
		return u.Username == "google:sub-123" && u.PasswordHash == ""
	})).Return(nil)

	user, err := s.service.EnsureOAuthProfile(s.ctx, "sub-123", "Alice")

	s.Require().NoError(err)
	s.Equal("Alice", user.DisplayName)
	s.Equal(signupGrant, user.Credits)
}

func (s *UserServiceTestSuite) TestEnsureOAuthProfileReturnsExisting() {
	existing := &domain.User{UserID: uuid.NewString(), Username: "google:sub-123", Credits: 12}
	s.mockUserRepo.On("FindUserByUsername", mock.Anything, "google:sub-123").Return(existing, nil)

	user, err := s.service.EnsureOAuthProfile(s.ctx, "sub-123", "Alice")

	s.Require().NoError(err)
	s.Equal(existing.UserID, user.UserID)
	s.mockUserRepo.AssertNotCalled(s.T(), "SaveUser", mock.Anything, mock.Anything)
	s.Zero(s.ledger.entryCount(existing.UserID))
}

func (s *UserServiceTestSuite) TestEnsureOAuthProfileLosesInsertRace() {
	winner := &domain.User{UserID: uuid.NewString(), Username: "google:sub-123"}
	s.mockUserRepo.On("FindUserByUsername", mock.Anything, "google:sub-123").Return(nil, apperrors.ErrNotFound).Once()
	s.mockUserRepo.On("SaveUser", mock.Anything, mock.AnythingOfType("domain.User")).
		Return(fmt.Errorf("%w: username google:sub-123 already exists", apperrors.ErrDuplicate))
	s.mockUserRepo.On("FindUserByUsername", mock.Anything, "google:sub-123").Return(winner, nil)

	user, err := s.service.EnsureOAuthProfile(s.ctx, "sub-123", "Alice")

	s.Require().NoError(err)
	s.Equal(winner.UserID, user.UserID)
}

func (s *UserServiceTestSuite) TestSetBlockedRequiresAdmin() {
	member := &domain.User{UserID: uuid.NewString(), Username: "member"}
	s.mockUserRepo.On("FindUserByID", mock.Anything, member.UserID).Return(member, nil)

	err := s.service.SetBlocked(s.ctx, member.UserID, uuid.NewString(), true, "abuse")

	s.ErrorIs(err, apperrors.ErrForbidden)
	s.mockUserRepo.AssertNotCalled(s.T(), "SetBlocked",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *UserServiceTestSuite) TestSetBlockedRecordsAuditAction() {
	admin := &domain.User{UserID: uuid.NewString(), Username: "admin", IsAdmin: true}
	target := uuid.NewString()
	s.mockUserRepo.On("FindUserByID", mock.Anything, admin.UserID).Return(admin, nil)
	s.mockUserRepo.On("SetBlocked", mock.Anything, target, true, admin.UserID, mock.AnythingOfType("time.Time")).Return(nil)
	s.mockActionRepo.On("SaveAdminAction", mock.Anything, mock.MatchedBy(func(a portsrepo.AdminAction) bool {
		return a.ActionType == "block_user" && a.TargetUserID == target
	})).Return(nil)

	err := s.service.SetBlocked(s.ctx, admin.UserID, target, true, "abuse")

	s.Require().NoError(err)
	s.mockActionRepo.AssertExpectations(s.T())
}

func TestUserService(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
