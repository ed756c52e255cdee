package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/renderdesk/renderdesk/internal/apperrors"
	portssvc "github.com/renderdesk/renderdesk/internal/core/ports/services"
	"github.com/renderdesk/renderdesk/internal/dto"
	"github.com/renderdesk/renderdesk/internal/middleware"
)

// userHandler exposes the caller's own profile, balance and ledger history.
type userHandler struct {
	users  portssvc.UserSvcFacade
	ledger portssvc.LedgerSvcFacade
}

func registerUserRoutes(rg *gin.RouterGroup, users portssvc.UserSvcFacade, ledger portssvc.LedgerSvcFacade) {
	h := &userHandler{users: users, ledger: ledger}

	me := rg.Group("/users/me")
	{
		me.GET("", h.getMe)
		me.GET("/balance", h.getBalance)
		me.GET("/ledger", h.listLedgerEntries)
	}
}

// getMe godoc
// @Summary Get own profile
// @Tags users
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /users/me [get]
func (h *userHandler) getMe(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to fetch user", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch user"})
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// getBalance godoc
// @Summary Get own credit balance
// @Tags users
// @Produce json
// @Success 200 {object} dto.BalanceResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /users/me/balance [get]
func (h *userHandler) getBalance(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	balance, err := h.ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to fetch balance", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch balance"})
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{UserID: userID, Credits: balance})
}

// listLedgerEntries godoc
// @Summary List own ledger history
// @Description Lists the caller's credit ledger entries, newest first.
// @Tags users
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} dto.CreditEntryResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /users/me/ledger [get]
func (h *userHandler) listLedgerEntries(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	limit, offset := paginationParams(c)
	entries, err := h.ledger.ListEntries(c.Request.Context(), userID, limit, offset)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to list ledger entries", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list ledger entries"})
		return
	}

	responses := make([]dto.CreditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.ToCreditEntryResponse(entry))
	}
	c.JSON(http.StatusOK, responses)
}
