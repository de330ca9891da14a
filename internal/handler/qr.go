package handler

import (
	"net/http"

	"github.com/degenduel/backend/internal/model"
	"github.com/degenduel/backend/internal/service"
	"github.com/gin-gonic/gin"
)

type QRHandler struct {
	qr      *service.QRService
	cookies *service.CookieManager
}

func NewQRHandler(qr *service.QRService, cookies *service.CookieManager) *QRHandler {
	return &QRHandler{qr: qr, cookies: cookies}
}

// Generate godoc
// @Summary Create a QR pairing session
// @Description Called by the anonymous desktop; the returned token is rendered as a QR code.
// @Tags qr
// @Produce json
// @Success 200 {object} model.QRCreateResponse
// @Router /api/v1/auth/qr/generate [post]
func (h *QRHandler) Generate(c *gin.Context) {
	session, err := h.qr.Create(c.Request.Context(), c.ClientIP())
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.QRCreateResponse{
		SessionToken: session.SessionToken,
		ExpiresAt:    session.ExpiresAt,
	})
}

// Poll godoc
// @Summary Poll a pairing session's status
// @Tags qr
// @Produce json
// @Param token path string true "session token"
// @Success 200 {object} model.QRPollResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/auth/qr/poll/{token} [get]
func (h *QRHandler) Poll(c *gin.Context) {
	status, err := h.qr.Poll(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.QRPollResponse{Status: status})
}

// Approve godoc
// @Summary Approve a pairing session from an authenticated mobile client
// @Tags qr
// @Produce json
// @Param token path string true "session token"
// @Success 200 {object} model.StatusResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/auth/qr/approve/{token} [post]
func (h *QRHandler) Approve(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized", ErrorType: "unauthorized"})
		return
	}

	err := h.qr.Approve(c.Request.Context(), c.Param("token"), user, c.ClientIP(), c.GetHeader(deviceIDHeader))
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatusResponse{Status: "approved"})
}

// Complete godoc
// @Summary Complete an approved pairing session
// @Description Called by the desktop after poll reports approved; sets auth cookies.
// @Tags qr
// @Produce json
// @Param token path string true "session token"
// @Success 200 {object} model.LoginResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/auth/qr/complete/{token} [post]
func (h *QRHandler) Complete(c *gin.Context) {
	result, err := h.qr.Complete(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeAuthError(c, err)
		return
	}

	setCookie(c, h.cookies.Access(), result.AccessToken, false)
	setCookie(c, h.cookies.Refresh(), result.RefreshToken, false)
	c.JSON(http.StatusOK, model.LoginResponse{
		User:      model.SummarizeUser(result.User),
		ExpiresIn: result.ExpiresIn,
	})
}

// Cancel godoc
// @Summary Cancel a pairing session
// @Description Idempotent; cancelling a finished session is not an error.
// @Tags qr
// @Produce json
// @Param token path string true "session token"
// @Success 200 {object} model.StatusResponse
// @Router /api/v1/auth/qr/cancel/{token} [post]
func (h *QRHandler) Cancel(c *gin.Context) {
	if err := h.qr.Cancel(c.Request.Context(), c.Param("token")); err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatusResponse{Status: "cancelled"})
}
