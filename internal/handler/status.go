package handler

import (
	"net/http"

	"github.com/degenduel/backend/internal/service"
	"github.com/gin-gonic/gin"
)

type StatusHandler struct {
	status *service.StatusService
}

func NewStatusHandler(status *service.StatusService) *StatusHandler {
	return &StatusHandler{status: status}
}

// Status godoc
// @Summary Aggregated auth status for the current caller
// @Description Read-only; reports every method's state and never fails as a whole.
// @Tags auth
// @Produce json
// @Success 200 {object} model.AuthStatusReport
// @Router /api/v1/auth/status [get]
func (h *StatusHandler) Status(c *gin.Context) {
	report := h.status.Report(
		c.Request.Context(),
		accessTokenFromRequest(c),
		c.GetHeader(deviceIDHeader),
	)
	c.JSON(http.StatusOK, report)
}
