package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/renderdesk/renderdesk/internal/core/ports/services"
	"github.com/renderdesk/renderdesk/internal/dto"
	"github.com/renderdesk/renderdesk/internal/middleware"
	"github.com/renderdesk/renderdesk/pkg/config"
)

// googleOAuthHandler signs users in with a Google authorization code.
type googleOAuthHandler struct {
	oauth portssvc.GoogleOAuthSvcFacade
	users portssvc.UserSvcFacade
	auth  *authHandler
}

func registerGoogleOAuthRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer) {
	h := &googleOAuthHandler{
		oauth: services.GoogleOAuth,
		users: services.User,
		auth:  newAuthHandler(services.User, services.Token, cfg),
	}
	r.POST("/api/v1/auth/google", h.exchangeCode)
}

// exchangeCode godoc
// @Summary Google sign-in
// @Description Exchanges a Google authorization code for a session. Creates the account on first sign-in.
// @Tags auth
// @Accept json
// @Produce json
// @Param exchange body dto.ExchangeCodeRequest true "Authorization code"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/google [post]
func (h *googleOAuthHandler) exchangeCode(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ExchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	info, err := h.oauth.ExchangeAndVerify(c.Request.Context(), req.Code)
	if err != nil {
		logger.Warn("Google code exchange failed", slog.String("error", err.Error()))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Google sign-in failed"})
		return
	}

	displayName := info.Name
	if displayName == "" {
		displayName = info.Email
	}
	user, err := h.users.EnsureOAuthProfile(c.Request.Context(), info.Subject, displayName)
	if err != nil {
		logger.Error("Failed to ensure OAuth profile", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to sign in"})
		return
	}

	h.auth.issueSession(c, user, http.StatusOK)
}
