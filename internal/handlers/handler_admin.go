package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/renderdesk/renderdesk/internal/apperrors"
	portssvc "github.com/renderdesk/renderdesk/internal/core/ports/services"
	"github.com/renderdesk/renderdesk/internal/dto"
	"github.com/renderdesk/renderdesk/internal/middleware"
)

// adminHandler exposes the administrative operations: credit adjustments,
// blocking, user listing, reconciliation and the usage report.
type adminHandler struct {
	users     portssvc.UserSvcFacade
	ledger    portssvc.LedgerSvcFacade
	reporting portssvc.ReportingSvcFacade
}

func registerAdminRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := &adminHandler{
		users:     services.User,
		ledger:    services.Ledger,
		reporting: services.Reporting,
	}

	admin := rg.Group("/admin", h.requireAdmin)
	{
		admin.GET("/users", h.listUsers)
		admin.POST("/credits", h.adjustCredits)
		admin.POST("/block", h.setBlocked)
		admin.GET("/users/:userID/reconcile", h.reconcile)
		admin.GET("/reports/usage", h.usageReport)
		registerAdminStyleRoutes(admin, services.Style)
	}
}

// requireAdmin rejects non-admin callers before any admin handler runs.
// Services re-check on their own where they take an adminUserID.
func (h *adminHandler) requireAdmin(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), userID)
	if err != nil || !user.IsAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "Admin access required"})
		return
	}

	c.Next()
}

// listUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} dto.UserResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/users [get]
func (h *adminHandler) listUsers(c *gin.Context) {
	limit, offset := paginationParams(c)
	users, err := h.users.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to list users", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list users"})
		return
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, dto.ToUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// adjustCredits godoc
// @Summary Adjust a user's credits
// @Description Applies a signed credit delta. Negative deltas cannot push the balance below zero.
// @Tags admin
// @Accept json
// @Produce json
// @Param adjustment body dto.AdjustCreditsRequest true "Adjustment"
// @Success 200 {object} dto.BalanceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Delta would overdraw the balance"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/credits [post]
func (h *adminHandler) adjustCredits(c *gin.Context) {
	adminUserID, _ := middleware.GetUserIDFromContext(c)

	var req dto.AdjustCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	balance, err := h.ledger.AdjustCredits(c.Request.Context(), adminUserID, req.TargetUserID, req.Delta, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		case errors.Is(err, apperrors.ErrInsufficientCredits):
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "Delta would overdraw the balance"})
		case errors.Is(err, apperrors.ErrForbidden):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "Admin access required"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to adjust credits", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to adjust credits"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{UserID: req.TargetUserID, Credits: balance})
}

// setBlocked godoc
// @Summary Block or unblock a user
// @Description Blocking prevents new debits; the balance and history stay intact.
// @Tags admin
// @Accept json
// @Produce json
// @Param block body dto.SetBlockedRequest true "Block request"
// @Success 204 "No content"
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/block [post]
func (h *adminHandler) setBlocked(c *gin.Context) {
	adminUserID, _ := middleware.GetUserIDFromContext(c)

	var req dto.SetBlockedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	err := h.users.SetBlocked(c.Request.Context(), adminUserID, req.TargetUserID, *req.Blocked, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		case errors.Is(err, apperrors.ErrForbidden):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "Admin access required"})
		default:
			middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to set blocked", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to update user"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// reconcile godoc
// @Summary Reconcile a user's ledger
// @Description Verifies the sum of ledger entries matches the stored balance.
// @Tags admin
// @Produce json
// @Param userID path string true "User ID"
// @Success 200 {object} map[string]bool
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{userID}/reconcile [get]
func (h *adminHandler) reconcile(c *gin.Context) {
	consistent, err := h.ledger.Reconcile(c.Request.Context(), c.Param("userID"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to reconcile ledger", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to reconcile ledger"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"consistent": consistent})
}

// usageReport godoc
// @Summary Usage report
// @Description Aggregates signups, renders and credit spend for a lookback period.
// @Tags admin
// @Produce json
// @Param days query int false "Lookback period in days" default(30)
// @Success 200 {object} dto.UsageReport
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/reports/usage [get]
func (h *adminHandler) usageReport(c *gin.Context) {
	adminUserID, _ := middleware.GetUserIDFromContext(c)

	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 || days > 365 {
		days = 30
	}

	report, err := h.reporting.UsageReport(c.Request.Context(), adminUserID, days)
	if err != nil {
		if errors.Is(err, apperrors.ErrForbidden) {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "Admin access required"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to build usage report", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to build usage report"})
		return
	}
	c.JSON(http.StatusOK, report)
}
