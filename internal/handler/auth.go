package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/degenduel/backend/internal/model"
	"github.com/degenduel/backend/internal/service"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	login      *service.LoginService
	challenges *service.ChallengeService
	tokens     *service.TokenService
	cookies    *service.CookieManager
}

func NewAuthHandler(login *service.LoginService, challenges *service.ChallengeService, tokens *service.TokenService, cookies *service.CookieManager) *AuthHandler {
	return &AuthHandler{login: login, challenges: challenges, tokens: tokens, cookies: cookies}
}

// Challenge godoc
// @Summary Request a login challenge
// @Description Issues a single-use nonce the wallet must sign. Replaces any outstanding challenge.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.ChallengeRequest true "Wallet address"
// @Success 200 {object} model.ChallengeResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /api/v1/auth/challenge [post]
func (h *AuthHandler) Challenge(c *gin.Context) {
	var req model.ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid request", ErrorType: "invalid_input"})
		return
	}

	challenge, err := h.challenges.Issue(c.Request.Context(), req.WalletAddress)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.ChallengeResponse{
		Nonce:     challenge.Nonce,
		ExpiresAt: challenge.ExpiresAt,
	})
}

// VerifyWallet godoc
// @Summary Verify a signed challenge and log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.VerifyWalletRequest true "Signed challenge"
// @Success 200 {object} model.LoginResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/auth/verify-wallet [post]
func (h *AuthHandler) VerifyWallet(c *gin.Context) {
	var req model.VerifyWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid request", ErrorType: "invalid_input"})
		return
	}

	signature, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "signature must be base64", ErrorType: "invalid_input"})
		return
	}

	result, err := h.login.WalletLogin(c.Request.Context(), req.WalletAddress, req.Message, signature, req.Device)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	c.JSON(http.StatusOK, model.LoginResponse{
		User:         model.SummarizeUser(result.User),
		ExpiresIn:    result.ExpiresIn,
		DeviceStatus: result.DeviceStatus,
	})
}

// Refresh godoc
// @Summary Rotate the refresh token and mint a new access token
// @Description Uses the refresh cookie; both cookies are reissued.
// @Tags auth
// @Produce json
// @Success 200 {object} model.RefreshResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(service.RefreshCookieName)
	accessToken, newRefreshToken, expiresIn, err := h.tokens.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	h.setAuthCookies(c, accessToken, newRefreshToken)
	c.JSON(http.StatusOK, model.RefreshResponse{ExpiresIn: expiresIn})
}

// Logout godoc
// @Summary Log out
// @Description Revokes the refresh token (if present) and clears both cookies.
// @Tags auth
// @Produce json
// @Success 200 {object} model.AuthLogoutResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(service.RefreshCookieName)
	_ = h.login.Logout(c.Request.Context(), refreshToken)
	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, model.AuthLogoutResponse{Status: "logged_out"})
}

// DevLogin godoc
// @Summary Operator login for development environments
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.DevLoginRequest true "Operator secret and wallet"
// @Success 200 {object} model.LoginResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /api/v1/auth/dev-login [post]
func (h *AuthHandler) DevLogin(c *gin.Context) {
	var req model.DevLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid request", ErrorType: "invalid_input"})
		return
	}

	result, err := h.login.DevLogin(c.Request.Context(), req.Secret, req.WalletAddress)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	c.JSON(http.StatusOK, model.LoginResponse{
		User:         model.SummarizeUser(result.User),
		ExpiresIn:    result.ExpiresIn,
		DeviceStatus: result.DeviceStatus,
	})
}

// LogoutAll godoc
// @Summary Log out everywhere
// @Description Revokes every refresh token the caller holds, across all devices.
// @Tags auth
// @Produce json
// @Success 200 {object} model.AuthLogoutResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized", ErrorType: "unauthorized"})
		return
	}

	if _, err := h.tokens.RevokeAllUserTokens(c.Request.Context(), user.ID); err != nil {
		writeAuthError(c, err)
		return
	}
	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, model.AuthLogoutResponse{Status: "logged_out"})
}

// Me godoc
// @Summary Get the authenticated caller's claims
// @Tags auth
// @Produce json
// @Success 200 {object} model.AuthMeResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized", ErrorType: "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, model.AuthMeResponse{
		UserID:        user.ID,
		WalletAddress: user.WalletAddress,
		Role:          user.Role,
		AuthMethod:    user.AuthMethod,
	})
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	setCookie(c, h.cookies.Access(), accessToken, false)
	setCookie(c, h.cookies.Refresh(), refreshToken, false)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	setCookie(c, h.cookies.Access(), "", true)
	setCookie(c, h.cookies.Refresh(), "", true)
}

func setCookie(c *gin.Context, cfg service.CookieConfig, value string, clear bool) {
	maxAge := cfg.MaxAge
	if clear {
		maxAge = -1
	}
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(cfg.Name, value, maxAge, cfg.Path, cfg.Domain, cfg.Secure, true)
}
