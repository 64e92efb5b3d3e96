package handler

import (
	"github.com/gin-gonic/gin"

	settingsapp "github.com/casaops/backend/internal/application/settings"
)

// SettingsHandler handles org settings API endpoints
type SettingsHandler struct {
	BaseHandler
	settingsService *settingsapp.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService *settingsapp.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// Get godoc
// @ID           getSettings
// @Summary      Get org settings
// @Description  The org's effective billing configuration. Defaults apply until the org saves its own values.
// @Tags         settings
// @Produce      json
// @Success      200 {object} APIResponse[settings.SettingsResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	current, err := h.settingsService.Get(c.Request.Context(), orgID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, current)
}

// Update godoc
// @ID           updateSettings
// @Summary      Update org settings
// @Description  Update penalty percent, default utility rates, reminder lead days and notification toggles. Omitted fields keep their current value.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request body settings.UpdateSettingsRequest true "Settings update request"
// @Success      200 {object} APIResponse[settings.SettingsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Actor not resolved")
		return
	}

	var req settingsapp.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	updated, err := h.settingsService.Update(c.Request.Context(), orgID, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, updated)
}
