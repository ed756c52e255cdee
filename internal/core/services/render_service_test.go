package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/domain"
	"github.com/renderdesk/renderdesk/internal/core/ports"
	portsrepo "github.com/renderdesk/renderdesk/internal/core/ports/repositories"
	portssvc "github.com/renderdesk/renderdesk/internal/core/ports/services"
	"github.com/renderdesk/renderdesk/internal/core/services"
	"github.com/renderdesk/renderdesk/internal/dto"
	"github.com/renderdesk/renderdesk/internal/storage/memory"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- fake ledger ---
// An in-memory ledger that enforces the same invariants as the real one, so
// the tests can assert balances and entry sums after each workflow.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	seeded   map[string]int64
	blocked  map[string]bool
	entries  []domain.CreditEntry

	failCredit bool
}

var _ portssvc.LedgerSvcFacade = (*fakeLedger)(nil)

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances: make(map[string]int64),
		seeded:   make(map[string]int64),
		blocked:  make(map[string]bool),
	}
}

// seed sets the starting balance and records it as the initial grant, so
// Reconcile can honor the spec's "entries plus initial grant equals balance"
// invariant without the grant appearing as a countable entry.
func (l *fakeLedger) seed(userID string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] = amount
	l.seeded[userID] = amount
}

func (l *fakeLedger) GetBalance(_ context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, ok := l.balances[userID]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	return balance, nil
}

func (l *fakeLedger) TryDebit(_ context.Context, userID string, amount int64, entryType domain.CreditEntryType, projectID *string, detail map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, ok := l.balances[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if l.blocked[userID] {
		return apperrors.ErrUserBlocked
	}
	if balance < amount {
		return fmt.Errorf("%w: balance %d, requested %d", apperrors.ErrInsufficientCredits, balance, amount)
	}
	l.balances[userID] = balance - amount
	l.entries = append(l.entries, domain.CreditEntry{
		EntryID: uuid.NewString(), UserID: userID, ProjectID: projectID,
		EntryType: entryType, Amount: -amount, Detail: detail, CreatedAt: time.Now(),
	})
	return nil
}

func (l *fakeLedger) Credit(_ context.Context, userID string, amount int64, entryType domain.CreditEntryType, projectID *string, detail map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failCredit {
		return errors.New("credit unavailable")
	}
	if _, ok := l.balances[userID]; !ok {
		return apperrors.ErrNotFound
	}
	l.balances[userID] += amount
	l.entries = append(l.entries, domain.CreditEntry{
		EntryID: uuid.NewString(), UserID: userID, ProjectID: projectID,
		EntryType: entryType, Amount: amount, Detail: detail, CreatedAt: time.Now(),
	})
	return nil
}

func (l *fakeLedger) AdjustCredits(context.Context, string, string, int64, string) (int64, error) {
	panic("not used in render tests")
}

func (l *fakeLedger) ListEntries(_ context.Context, userID string, _ int, _ int) ([]domain.CreditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.CreditEntry
	for _, e := range l.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *fakeLedger) Reconcile(_ context.Context, userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sum int64
	for _, e := range l.entries {
		if e.UserID == userID {
			sum += e.Amount
		}
	}
	return sum+l.seeded[userID] == l.balances[userID], nil
}

func (l *fakeLedger) entryCount(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for _, e := range l.entries {
		if e.UserID == userID {
			count++
		}
	}
	return count
}

// --- mock project and style services ---
type MockProjectService struct{ mock.Mock }

var _ portssvc.ProjectSvcFacade = (*MockProjectService)(nil)

func (m *MockProjectService) CreateProject(ctx context.Context, userID string, req dto.CreateProjectRequest) (*domain.Project, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectService) GetProjectForUser(ctx context.Context, userID string, projectID string) (*domain.Project, error) {
	args := m.Called(ctx, userID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectService) ListProjects(ctx context.Context, userID string, limit int, offset int) ([]domain.Project, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Project), args.Error(1)
}

type MockStyleService struct{ mock.Mock }

var _ portssvc.StyleSvcFacade = (*MockStyleService)(nil)

func (m *MockStyleService) CreateStyle(ctx context.Context, adminUserID string, req dto.CreateStyleRequest) (*domain.Style, error) {
	args := m.Called(ctx, adminUserID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Style), args.Error(1)
}

func (m *MockStyleService) UpdateStyle(ctx context.Context, adminUserID string, styleID string, req dto.UpdateStyleRequest) (*domain.Style, error) {
	args := m.Called(ctx, adminUserID, styleID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Style), args.Error(1)
}

func (m *MockStyleService) GetStyleByID(ctx context.Context, styleID string) (*domain.Style, error) {
	args := m.Called(ctx, styleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Style), args.Error(1)
}

func (m *MockStyleService) ListStyles(ctx context.Context, includeInactive bool) ([]domain.Style, error) {
	args := m.Called(ctx, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Style), args.Error(1)
}

// --- mock render repository ---
type MockRenderRepository struct{ mock.Mock }

var _ portsrepo.RenderRepository = (*MockRenderRepository)(nil)

func (m *MockRenderRepository) SaveRender(ctx context.Context, render domain.Render) error {
	args := m.Called(ctx, render)
	return args.Error(0)
}

func (m *MockRenderRepository) FindRenderByID(ctx context.Context, renderID string) (*domain.Render, error) {
	args := m.Called(ctx, renderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Render), args.Error(1)
}

func (m *MockRenderRepository) ListRendersByProject(ctx context.Context, projectID string, limit int, offset int) ([]domain.Render, error) {
	args := m.Called(ctx, projectID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Render), args.Error(1)
}

func (m *MockRenderRepository) ListRendersByUser(ctx context.Context, userID string, limit int, offset int) ([]domain.Render, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Render), args.Error(1)
}

// --- stub executor ---
type stubExecutor struct {
	name   string
	data   []byte
	err    error
	called atomic.Int32
}

var _ ports.RenderExecutor = (*stubExecutor)(nil)

func (e *stubExecutor) ProviderName() string { return e.name }

func (e *stubExecutor) Execute(_ context.Context, _ ports.GenerateRequest) ([]byte, error) {
	e.called.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	return e.data, nil
}

// --- failing content store ---
type failingPutStore struct {
	*memory.ContentStore
}

func (s *failingPutStore) Put(context.Context, string, []byte, string) error {
	return fmt.Errorf("%w: bucket unreachable", apperrors.ErrStorage)
}

// --- suite ---
const renderCost = int64(5)

type RenderServiceTestSuite struct {
	suite.Suite
	ctx context.Context

	ledger     *fakeLedger
	projects   *MockProjectService
	styles     *MockStyleService
	renderRepo *MockRenderRepository
	store      *memory.ContentStore
	executor   *stubExecutor
	service    portssvc.RenderSvcFacade

	userID  string
	project *domain.Project
	style   *domain.Style
	req     dto.RenderRequest
}

func (s *RenderServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ledger = newFakeLedger()
	s.projects = new(MockProjectService)
	s.styles = new(MockStyleService)
	s.renderRepo = new(MockRenderRepository)
	s.store = memory.NewContentStore()
	s.executor = &stubExecutor{name: "huggingface", data: []byte("png-bytes")}

	s.userID = uuid.NewString()
	s.ledger.seed(s.userID, 55)

	s.project = &domain.Project{ProjectID: uuid.NewString(), UserID: s.userID, Name: "Living room"}
	s.style = &domain.Style{StyleID: uuid.NewString(), Name: "Modern", Prompt: "modern interior", IsActive: true}
	s.req = dto.RenderRequest{
		ProjectID:  s.project.ProjectID,
		StyleID:    s.style.StyleID,
		BeforePath: "uploads/" + s.userID + "/before.png",
	}
	s.Require().NoError(s.store.Put(s.ctx, s.req.BeforePath, []byte("before"), "image/png"))

	s.service = s.buildService(s.store)
}

func (s *RenderServiceTestSuite) buildService(store ports.ContentStore) portssvc.RenderSvcFacade {
	return services.NewRenderService(
		renderCost, 5*time.Minute,
		s.ledger, s.projects, s.styles,
		s.renderRepo, store, s.executor, nil,
	)
}

func (s *RenderServiceTestSuite) expectHappyLookups() {
	s.projects.On("GetProjectForUser", mock.Anything, s.userID, s.project.ProjectID).Return(s.project, nil)
	s.styles.On("GetStyleByID", mock.Anything, s.style.StyleID).Return(s.style, nil)
}

func (s *RenderServiceTestSuite) TestRenderSuccessDebitsOnce() {
	s.expectHappyLookups()
	s.renderRepo.On("SaveRender", mock.Anything, mock.AnythingOfType("domain.Render")).Return(nil)

	resp, err := s.service.Render(s.ctx, s.userID, s.req)

	s.Require().NoError(err)
	s.Equal("huggingface", resp.Provider)
	s.Equal(int64(50), resp.CreditsRemaining)
	s.NotEmpty(resp.AfterPath)

	data, ok := s.store.Get(resp.AfterPath)
	s.True(ok)
	s.Equal([]byte("png-bytes"), data)

	// exactly one debit entry, no refund
	s.Equal(1, s.ledger.entryCount(s.userID))
	consistent, err := s.ledger.Reconcile(s.ctx, s.userID)
	s.Require().NoError(err)
	s.True(consistent)
	s.renderRepo.AssertExpectations(s.T())
}

func (s *RenderServiceTestSuite) TestInsufficientCreditsSkipsProvider() {
	s.ledger.seed(s.userID, renderCost-1)
	s.expectHappyLookups()

	_, err := s.service.Render(s.ctx, s.userID, s.req)

	s.ErrorIs(err, apperrors.ErrInsufficientCredits)
	s.Zero(s.executor.called.Load())
	s.Equal(renderCost-1, s.ledger.balances[s.userID])
	s.renderRepo.AssertNotCalled(s.T(), "SaveRender", mock.Anything, mock.Anything)
}

func (s *RenderServiceTestSuite) TestBlockedUserSkipsProvider() {
	s.ledger.blocked[s.userID] = true
	s.expectHappyLookups()

	_, err := s.service.Render(s.ctx, s.userID, s.req)

	s.ErrorIs(err, apperrors.ErrUserBlocked)
	s.Zero(s.executor.called.Load())
	s.Equal(int64(55), s.ledger.balances[s.userID])
}

func (s *RenderServiceTestSuite) TestConcurrentRendersAtExactBalanceSingleWinner() {
	s.ledger.seed(s.userID, renderCost)
	s.expectHappyLookups()
	s.renderRepo.On("SaveRender", mock.Anything, mock.AnythingOfType("domain.Render")).Return(nil)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Render(s.ctx, s.userID, s.req)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, apperrors.ErrInsufficientCredits):
			insufficient++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}

	// the check-and-decrement is atomic, so the race has exactly one winner
	s.Equal(1, successes)
	s.Equal(1, insufficient)
	s.Zero(s.ledger.balances[s.userID])
	s.Equal(1, s.ledger.entryCount(s.userID))
	s.Equal(int32(1), s.executor.called.Load())
}

func (s *RenderServiceTestSuite) TestRetryableFailureRefunds() {
	s.expectHappyLookups()
	s.executor.err = &apperrors.RetryableError{
		Reason:     apperrors.ReasonProviderUnavailable,
		RetryAfter: 30 * time.Second,
	}

	_, err := s.service.Render(s.ctx, s.userID, s.req)

	var retryable *apperrors.RetryableError
	s.Require().ErrorAs(err, &retryable)
	s.Equal(30*time.Second, retryable.RetryAfter)

	// debit and matching refund, balance restored
	s.Equal(int64(55), s.ledger.balances[s.userID])
	s.Equal(2, s.ledger.entryCount(s.userID))
	consistent, _ := s.ledger.Reconcile(s.ctx, s.userID)
	s.True(consistent)
	s.renderRepo.AssertNotCalled(s.T(), "SaveRender", mock.Anything, mock.Anything)
}

func (s *RenderServiceTestSuite) TestTimeoutRefunds() {
	s.expectHappyLookups()
	s.executor.err = &apperrors.RetryableError{Reason: apperrors.ReasonTimeout}

	_, err := s.service.Render(s.ctx, s.userID, s.req)

	var retryable *apperrors.RetryableError
	s.Require().ErrorAs(err, &retryable)
	s.Equal(apperrors.ReasonTimeout, retryable.Reason)
	s.Equal(int64(55), s.ledger.balances[s.userID])
}

func (s *RenderServiceTestSuite) TestFatalFailureRefunds() {
	s.expectHappyLookups()
	s.executor.err = &apperrors.FatalError{Reason: apperrors.ReasonInvalidRequest}

	_, err := s.service.Render(s.ctx, s.userID, s.req)

	var fatal *apperrors.FatalError
	s.Require().ErrorAs(err, &fatal)
	s.Equal(int64(55), s.ledger.balances[s.userID])
}

func (s *RenderServiceTestSuite) TestStorageFailureRefunds() {
	s.expectHappyLookups()

	failing := &failingPutStore{ContentStore: s.store}
	service := s.buildService(failing)

	_, err := service.Render(s.ctx, s.userID, s.req)

	s.ErrorIs(err, apperrors.ErrStorage)
	s.Equal(int64(55), s.ledger.balances[s.userID])
	s.renderRepo.AssertNotCalled(s.T(), "SaveRender", mock.Anything, mock.Anything)
}

func (s *RenderServiceTestSuite) TestRecordFailureRefunds() {
	s.expectHappyLookups()
	s.renderRepo.On("SaveRender", mock.Anything, mock.AnythingOfType("domain.Render")).Return(errors.New("insert failed"))

	_, err := s.service.Render(s.ctx, s.userID, s.req)

	s.Error(err)
	s.Equal(int64(55), s.ledger.balances[s.userID])
	consistent, _ := s.ledger.Reconcile(s.ctx, s.userID)
	s.True(consistent)
}

func (s *RenderServiceTestSuite) TestInactiveStyleRejectedBeforeDebit() {
	inactive := *s.style
	inactive.IsActive = false
	s.projects.On("GetProjectForUser", mock.Anything, s.userID, s.project.ProjectID).Return(s.project, nil)
	s.styles.On("GetStyleByID", mock.Anything, s.style.StyleID).Return(&inactive, nil)

	_, err := s.service.Render(s.ctx, s.userID, s.req)

	s.ErrorIs(err, apperrors.ErrValidation)
	s.Equal(int64(55), s.ledger.balances[s.userID])
	s.Zero(s.executor.called.Load())
}

func (s *RenderServiceTestSuite) TestForeignProjectRejected() {
	s.projects.On("GetProjectForUser", mock.Anything, s.userID, s.project.ProjectID).
		Return(nil, fmt.Errorf("%w: project does not belong to user", apperrors.ErrForbidden))

	_, err := s.service.Render(s.ctx, s.userID, s.req)

	s.ErrorIs(err, apperrors.ErrForbidden)
	s.Equal(int64(55), s.ledger.balances[s.userID])
}

func (s *RenderServiceTestSuite) TestRefundFailureStillReturnsProviderError() {
	s.expectHappyLookups()
	s.executor.err = &apperrors.RetryableError{Reason: apperrors.ReasonProviderUnavailable}
	s.ledger.failCredit = true

	_, err := s.service.Render(s.ctx, s.userID, s.req)

	var retryable *apperrors.RetryableError
	s.ErrorAs(err, &retryable)
	// debit stands until reconciliation; the user sees the provider error
	s.Equal(int64(50), s.ledger.balances[s.userID])
}

func (s *RenderServiceTestSuite) TestUploadBeforeStoresPhoto() {
	s.projects.On("GetProjectForUser", mock.Anything, s.userID, s.project.ProjectID).Return(s.project, nil)

	resp, err := s.service.UploadBefore(s.ctx, s.userID, s.project.ProjectID, "kitchen.png", "image/png", []byte("photo"))

	s.Require().NoError(err)
	s.Contains(resp.Path, "uploads/"+s.userID+"/"+s.project.ProjectID+"/")
	s.Contains(resp.Path, "_kitchen.png")
	data, ok := s.store.Get(resp.Path)
	s.True(ok)
	s.Equal([]byte("photo"), data)
}

func (s *RenderServiceTestSuite) TestUploadBeforeRejectsEmptyFile() {
	s.projects.On("GetProjectForUser", mock.Anything, s.userID, s.project.ProjectID).Return(s.project, nil)

	_, err := s.service.UploadBefore(s.ctx, s.userID, s.project.ProjectID, "kitchen.png", "image/png", nil)

	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *RenderServiceTestSuite) TestUploadBeforeChecksOwnership() {
	s.projects.On("GetProjectForUser", mock.Anything, s.userID, s.project.ProjectID).
		Return(nil, fmt.Errorf("%w: access denied", apperrors.ErrForbidden))

	_, err := s.service.UploadBefore(s.ctx, s.userID, s.project.ProjectID, "kitchen.png", "image/png", []byte("photo"))

	s.ErrorIs(err, apperrors.ErrForbidden)
	s.Equal(1, s.store.Len()) // only the seeded before image
}

func (s *RenderServiceTestSuite) TestListProjectRendersChecksOwnership() {
	s.projects.On("GetProjectForUser", mock.Anything, s.userID, s.project.ProjectID).
		Return(nil, fmt.Errorf("%w: access denied", apperrors.ErrForbidden))

	_, err := s.service.ListProjectRenders(s.ctx, s.userID, s.project.ProjectID, 20, 0)

	s.ErrorIs(err, apperrors.ErrForbidden)
	s.renderRepo.AssertNotCalled(s.T(), "ListRendersByProject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRenderService(t *testing.T) {
	suite.Run(t, new(RenderServiceTestSuite))
}
