package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/renderdesk/renderdesk/internal/apperrors"
	portssvc "github.com/renderdesk/renderdesk/internal/core/ports/services"
	"github.com/renderdesk/renderdesk/internal/dto"
	"github.com/renderdesk/renderdesk/internal/middleware"
)

// renderHandler exposes the metered render workflow.
type renderHandler struct {
	renders portssvc.RenderSvcFacade
}

func registerRenderRoutes(rg *gin.RouterGroup, renders portssvc.RenderSvcFacade) {
	h := &renderHandler{renders: renders}

	rg.POST("/renders", h.createRender)
	rg.GET("/renders", h.listMyRenders)
	rg.GET("/projects/:projectID/renders", h.listProjectRenders)
	rg.POST("/projects/:projectID/uploads", h.uploadBefore)
}

// maxUploadBytes caps source photo uploads at 10 MiB.
const maxUploadBytes = 10 << 20

// uploadBefore godoc
// @Summary Upload a source photo
// @Description Stores a photo in the project for use as the before image of a render.
// @Tags renders
// @Accept multipart/form-data
// @Produce json
// @Param projectID path string true "Project ID"
// @Param photo formData file true "Photo file"
// @Success 201 {object} dto.UploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectID}/uploads [post]
func (h *renderHandler) uploadBefore(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing photo file"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Photo exceeds the 10MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Could not read photo file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Could not read photo file"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	resp, err := h.renders.UploadBefore(c.Request.Context(), userID, c.Param("projectID"), fileHeader.Filename, contentType, data)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Project not found"})
		case errors.Is(err, apperrors.ErrForbidden):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "Access denied"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			middleware.GetLoggerFromCtx(c.Request.Context()).Error("Upload failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Upload failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// createRender godoc
// @Summary Create a render
// @Description Debits the render cost, generates a restyled image and stores the result. Failed generations are refunded.
// @Tags renders
// @Accept json
// @Produce json
// @Param render body dto.RenderRequest true "Render request"
// @Success 201 {object} dto.RenderResponse
// @Failure 400 {object} ErrorResponse "Invalid request or inactive style"
// @Failure 402 {object} ErrorResponse "Insufficient credits"
// @Failure 403 {object} ErrorResponse "Blocked user or foreign project"
// @Failure 404 {object} ErrorResponse "Project or style not found"
// @Failure 408 {object} ErrorResponse "Provider deadline exceeded, credits refunded"
// @Failure 422 {object} ErrorResponse "Provider rejected the request, credits refunded"
// @Failure 503 {object} ErrorResponse "Provider unavailable, credits refunded"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /renders [post]
func (h *renderHandler) createRender(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	resp, err := h.renders.Render(c.Request.Context(), userID, req)
	if err != nil {
		respondRenderError(c, logger, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// respondRenderError maps workflow failures to HTTP statuses. Retryable
// provider failures carry a Retry-After header so clients can back off.
func respondRenderError(c *gin.Context, logger *slog.Logger, err error) {
	var retryable *apperrors.RetryableError
	var fatal *apperrors.FatalError

	switch {
	case errors.Is(err, apperrors.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, ErrorResponse{Error: "Insufficient credits"})
	case errors.Is(err, apperrors.ErrUserBlocked):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Account is blocked"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Access denied"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Project or style not found"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.As(err, &retryable):
		if retryable.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(retryable.RetryAfter.Seconds())))
		}
		if retryable.Reason == apperrors.ReasonTimeout {
			c.JSON(http.StatusRequestTimeout, ErrorResponse{Error: "Render timed out, credits were refunded"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Render service unavailable, credits were refunded"})
	case errors.As(err, &fatal):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "Render could not be generated, credits were refunded"})
	default:
		logger.Error("Render failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Render failed"})
	}
}

// listMyRenders godoc
// @Summary List my renders
// @Description Lists the caller's renders across all projects, newest first.
// @Tags renders
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} dto.RenderRecordResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /renders [get]
func (h *renderHandler) listMyRenders(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	limit, offset := paginationParams(c)
	records, err := h.renders.ListUserRenders(c.Request.Context(), userID, limit, offset)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to list renders", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list renders"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// listProjectRenders godoc
// @Summary List project renders
// @Description Lists the renders of a project the caller owns.
// @Tags renders
// @Produce json
// @Param projectID path string true "Project ID"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} dto.RenderRecordResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectID}/renders [get]
func (h *renderHandler) listProjectRenders(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	limit, offset := paginationParams(c)
	records, err := h.renders.ListProjectRenders(c.Request.Context(), userID, c.Param("projectID"), limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Project not found"})
		case errors.Is(err, apperrors.ErrForbidden):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "Access denied"})
		default:
			middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to list project renders", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list renders"})
		}
		return
	}
	c.JSON(http.StatusOK, records)
}

// paginationParams reads limit/offset query params with sane defaults.
func paginationParams(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
