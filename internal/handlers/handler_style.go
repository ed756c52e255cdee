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

// styleHandler serves the style catalog. Reads are for everyone; mutations
// live under the admin routes.
type styleHandler struct {
	styles portssvc.StyleSvcFacade
}

func registerStyleRoutes(rg *gin.RouterGroup, styles portssvc.StyleSvcFacade) {
	h := &styleHandler{styles: styles}

	group := rg.Group("/styles")
	{
		group.GET("", h.listStyles)
		group.GET("/:styleID", h.getStyle)
	}
}

func registerAdminStyleRoutes(rg *gin.RouterGroup, styles portssvc.StyleSvcFacade) {
	h := &styleHandler{styles: styles}

	group := rg.Group("/styles")
	{
		group.POST("", h.createStyle)
		group.PUT("/:styleID", h.updateStyle)
	}
}

// listStyles godoc
// @Summary List active styles
// @Tags styles
// @Produce json
// @Success 200 {array} dto.StyleResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /styles [get]
func (h *styleHandler) listStyles(c *gin.Context) {
	styles, err := h.styles.ListStyles(c.Request.Context(), false)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to list styles", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list styles"})
		return
	}

	responses := make([]dto.StyleResponse, 0, len(styles))
	for _, style := range styles {
		responses = append(responses, dto.ToStyleResponse(style))
	}
	c.JSON(http.StatusOK, responses)
}

// getStyle godoc
// @Summary Get a style
// @Tags styles
// @Produce json
// @Param styleID path string true "Style ID"
// @Success 200 {object} dto.StyleResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /styles/{styleID} [get]
func (h *styleHandler) getStyle(c *gin.Context) {
	style, err := h.styles.GetStyleByID(c.Request.Context(), c.Param("styleID"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Style not found"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to fetch style", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch style"})
		return
	}
	c.JSON(http.StatusOK, dto.ToStyleResponse(*style))
}

// createStyle godoc
// @Summary Create a style
// @Description Adds a catalog entry with its generation prompt (admin only).
// @Tags admin
// @Accept json
// @Produce json
// @Param style body dto.CreateStyleRequest true "Style details"
// @Success 201 {object} dto.StyleResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Style name already exists"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/styles [post]
func (h *styleHandler) createStyle(c *gin.Context) {
	adminUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.CreateStyleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	style, err := h.styles.CreateStyle(c.Request.Context(), adminUserID, req)
	if err != nil {
		respondStyleMutationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToStyleResponse(*style))
}

// updateStyle godoc
// @Summary Update a style
// @Description Edits a catalog entry; omitted fields are left unchanged (admin only).
// @Tags admin
// @Accept json
// @Produce json
// @Param styleID path string true "Style ID"
// @Param style body dto.UpdateStyleRequest true "Fields to change"
// @Success 200 {object} dto.StyleResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/styles/{styleID} [put]
func (h *styleHandler) updateStyle(c *gin.Context) {
	adminUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.UpdateStyleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	style, err := h.styles.UpdateStyle(c.Request.Context(), adminUserID, c.Param("styleID"), req)
	if err != nil {
		respondStyleMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToStyleResponse(*style))
}

func respondStyleMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Admin access required"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Style not found"})
	case errors.Is(err, apperrors.ErrDuplicate):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Style name already exists"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Style mutation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to save style"})
	}
}
