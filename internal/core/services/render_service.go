package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/domain"
	"github.com/renderdesk/renderdesk/internal/core/ports"
	portsrepo "github.com/renderdesk/renderdesk/internal/core/ports/repositories"
	portssvc "github.com/renderdesk/renderdesk/internal/core/ports/services"
	"github.com/renderdesk/renderdesk/internal/dto"
	"github.com/renderdesk/renderdesk/internal/metrics"
	"github.com/renderdesk/renderdesk/internal/utils"
)

// renderService runs the metered render workflow. Credits are debited before
// the provider call and refunded on any failure after the debit, so a user
// only ever pays for renders whose output exists in the content store.
type renderService struct {
	BaseService
	renderCost   int64
	signedURLTTL time.Duration

	ledger   portssvc.LedgerSvcFacade
	projects portssvc.ProjectSvcFacade
	styles   portssvc.StyleSvcFacade

	renderRepo portsrepo.RenderRepository
	store      ports.ContentStore
	executor   ports.RenderExecutor
	posthog    *utils.PosthogClientWrapper
}

// NewRenderService creates the render workflow service. posthog may be nil.
func NewRenderService(
	renderCost int64,
	signedURLTTL time.Duration,
	ledger portssvc.LedgerSvcFacade,
	projects portssvc.ProjectSvcFacade,
	styles portssvc.StyleSvcFacade,
	renderRepo portsrepo.RenderRepository,
	store ports.ContentStore,
	executor ports.RenderExecutor,
	posthog *utils.PosthogClientWrapper,
) portssvc.RenderSvcFacade {
	return &renderService{
		renderCost:   renderCost,
		signedURLTTL: signedURLTTL,
		ledger:       ledger,
		projects:     projects,
		styles:       styles,
		renderRepo:   renderRepo,
		store:        store,
		executor:     executor,
		posthog:      posthog,
	}
}

var _ portssvc.RenderSvcFacade = (*renderService)(nil)

// Render produces one restyled image. Order of operations:
//
//  1. validate ownership and style before touching the balance
//  2. debit the render cost (fails fast on insufficient credits or block)
//  3. call the provider under its deadline
//  4. store the output bytes, then record the render row
//
// Any failure after step 2 refunds the debit before returning.
func (s *renderService) Render(ctx context.Context, userID string, req dto.RenderRequest) (*dto.RenderResponse, error) {
	project, err := s.projects.GetProjectForUser(ctx, userID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	style, err := s.styles.GetStyleByID(ctx, req.StyleID)
	if err != nil {
		return nil, err
	}
	if !style.IsActive {
		return nil, fmt.Errorf("%w: style %s is not active", apperrors.ErrValidation, style.StyleID)
	}

	beforeURL, err := s.store.SignedGetURL(ctx, req.BeforePath, s.signedURLTTL)
	if err != nil {
		return nil, err
	}

	provider := s.executor.ProviderName()
	debitDetail := map[string]any{
		"styleId":  style.StyleID,
		"provider": provider,
	}
	if err := s.ledger.TryDebit(ctx, userID, s.renderCost, domain.EntryTypeRender, &project.ProjectID, debitDetail); err != nil {
		metrics.RendersTotal.WithLabelValues(provider, "rejected").Inc()
		return nil, err
	}

	start := time.Now()
	data, err := s.executor.Execute(ctx, ports.GenerateRequest{
		Prompt:    style.Prompt,
		BeforeURL: beforeURL,
		Width:     1024,
		Height:    1024,
	})
	metrics.RenderDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		s.refund(ctx, userID, project.ProjectID, reasonOf(err))
		metrics.RendersTotal.WithLabelValues(provider, refundOutcome(err)).Inc()
		return nil, err
	}

	afterPath := fmt.Sprintf("renders/%s/%s/%d_after.png", userID, project.ProjectID, time.Now().Unix())
	if err := s.store.Put(ctx, afterPath, data, "image/png"); err != nil {
		s.refund(ctx, userID, project.ProjectID, "storage_failure")
		metrics.RendersTotal.WithLabelValues(provider, "refunded_fatal").Inc()
		return nil, err
	}

	render := domain.Render{
		RenderID:   uuid.NewString(),
		ProjectID:  project.ProjectID,
		UserID:     userID,
		StyleID:    style.StyleID,
		BeforePath: req.BeforePath,
		AfterPath:  afterPath,
		Provider:   provider,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.renderRepo.SaveRender(ctx, render); err != nil {
		s.refund(ctx, userID, project.ProjectID, "record_failure")
		metrics.RendersTotal.WithLabelValues(provider, "refunded_fatal").Inc()
		return nil, err
	}

	metrics.RendersTotal.WithLabelValues(provider, "success").Inc()
	if s.posthog != nil {
		s.posthog.Enqueue(userID, "render_completed", map[string]any{
			"provider": provider,
			"styleId":  style.StyleID,
		})
	}

	resp := &dto.RenderResponse{
		RenderID:  render.RenderID,
		AfterPath: afterPath,
		Provider:  provider,
	}
	if url, err := s.store.SignedGetURL(ctx, afterPath, s.signedURLTTL); err == nil {
		resp.AfterURL = url
	} else {
		s.LogWarn(ctx, "Failed to sign output URL", slog.String("error", err.Error()))
	}
	if balance, err := s.ledger.GetBalance(ctx, userID); err == nil {
		resp.CreditsRemaining = balance
	} else {
		s.LogWarn(ctx, "Failed to read balance after render", slog.String("error", err.Error()))
	}
	return resp, nil
}

// UploadBefore stores a source photo under the caller's project. The stored
// path is what render requests reference as BeforePath.
func (s *renderService) UploadBefore(ctx context.Context, userID string, projectID string, filename string, contentType string, data []byte) (*dto.UploadResponse, error) {
	project, err := s.projects.GetProjectForUser(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", apperrors.ErrValidation)
	}

	key := fmt.Sprintf("uploads/%s/%s/%d_%s", userID, project.ProjectID, time.Now().Unix(), path.Base(filename))
	if err := s.store.Put(ctx, key, data, contentType); err != nil {
		return nil, err
	}

	resp := &dto.UploadResponse{Path: key}
	if url, err := s.store.SignedGetURL(ctx, key, s.signedURLTTL); err == nil {
		resp.URL = url
	}
	return resp, nil
}

// ListProjectRenders returns the renders of a project the caller owns.
func (s *renderService) ListProjectRenders(ctx context.Context, userID string, projectID string, limit int, offset int) ([]dto.RenderRecordResponse, error) {
	if _, err := s.projects.GetProjectForUser(ctx, userID, projectID); err != nil {
		return nil, err
	}

	renders, err := s.renderRepo.ListRendersByProject(ctx, projectID, limit, offset)
	if err != nil {
		return nil, err
	}

	records := make([]dto.RenderRecordResponse, 0, len(renders))
	for _, r := range renders {
		records = append(records, dto.ToRenderRecordResponse(r))
	}
	return records, nil
}

// ListUserRenders returns the caller's renders across all projects.
func (s *renderService) ListUserRenders(ctx context.Context, userID string, limit int, offset int) ([]dto.RenderRecordResponse, error) {
	renders, err := s.renderRepo.ListRendersByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	records := make([]dto.RenderRecordResponse, 0, len(renders))
	for _, r := range renders {
		records = append(records, dto.ToRenderRecordResponse(r))
	}
	return records, nil
}

// refund compensates a completed debit. It runs detached from request
// cancellation: a client disconnect must not strand the debit. A failed
// refund is logged at error level so reconciliation can pick it up.
func (s *renderService) refund(ctx context.Context, userID string, projectID string, reason string) {
	refundCtx := context.WithoutCancel(ctx)
	err := s.ledger.Credit(refundCtx, userID, s.renderCost, domain.EntryTypeRenderRefund, &projectID, map[string]any{
		"reason": reason,
	})
	if err != nil {
		s.LogError(ctx, err, "Refund failed, ledger needs reconciliation",
			slog.String("target_user_id", userID),
			slog.Int64("amount", s.renderCost),
			slog.String("reason", reason))
	}
}

func reasonOf(err error) string {
	var retryable *apperrors.RetryableError
	if errors.As(err, &retryable) {
		return retryable.Reason
	}
	var fatal *apperrors.FatalError
	if errors.As(err, &fatal) {
		return fatal.Reason
	}
	return "provider_error"
}

func refundOutcome(err error) string {
	var fatal *apperrors.FatalError
	if errors.As(err, &fatal) {
		return "refunded_fatal"
	}
	return "refunded_retryable"
}
