package handler

import (
	"net/http"

	"github.com/degenduel/backend/internal/model"
	"github.com/degenduel/backend/internal/service"
	"github.com/gin-gonic/gin"
)

type OAuthHandler struct {
	oauth   *service.OAuthService
	privy   *service.PrivyService
	login   *service.LoginService
	tokens  *service.TokenService
	cookies *service.CookieManager
}

func NewOAuthHandler(oauth *service.OAuthService, privy *service.PrivyService, login *service.LoginService, tokens *service.TokenService, cookies *service.CookieManager) *OAuthHandler {
	return &OAuthHandler{oauth: oauth, privy: privy, login: login, tokens: tokens, cookies: cookies}
}

func providerAuthMethod(platform model.SocialPlatform) model.AuthMethod {
	switch platform {
	case model.PlatformDiscord:
		return model.AuthMethodDiscord
	case model.PlatformTwitter:
		return model.AuthMethodTwitter
	case model.PlatformPrivy:
		return model.AuthMethodPrivy
	}
	return model.AuthMethodWallet
}

// BeginFlow godoc
// @Summary Start an OAuth login or linking flow
// @Description Redirects to the provider. An authenticated caller links; an anonymous one logs in.
// @Tags auth
// @Param provider path string true "discord or twitter"
// @Success 307
// @Failure 400 {object} model.ErrorResponse
// @Router /api/v1/auth/{provider}/login [get]
func (h *OAuthHandler) BeginFlow(platform model.SocialPlatform) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Link mode when the caller already has a valid session.
		linkWallet := ""
		if raw := accessTokenFromRequest(c); raw != "" {
			if user, err := h.tokens.ParseAccessToken(raw); err == nil {
				linkWallet = user.WalletAddress
			}
		}

		authURL, err := h.oauth.BeginFlow(c.Request.Context(), platform, linkWallet)
		if err != nil {
			writeAuthError(c, err)
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, authURL)
	}
}

// Callback godoc
// @Summary OAuth callback
// @Description Completes the provider exchange, then logs in or links depending on the flow's state.
// @Tags auth
// @Param provider path string true "discord or twitter"
// @Param state query string true "CSRF state"
// @Param code query string true "authorization code"
// @Success 200 {object} model.LoginResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 502 {object} model.ErrorResponse
// @Router /api/v1/auth/{provider}/callback [get]
func (h *OAuthHandler) Callback(platform model.SocialPlatform) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := c.Query("state")
		code := c.Query("code")
		if state == "" || code == "" {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "missing state or code", ErrorType: "invalid_input"})
			return
		}

		identity, linkWallet, err := h.oauth.Callback(c.Request.Context(), platform, state, code)
		if err != nil {
			writeAuthError(c, err)
			return
		}

		if linkWallet != "" {
			if err := h.login.LinkProvider(c.Request.Context(), linkWallet, *identity); err != nil {
				writeAuthError(c, err)
				return
			}
			c.JSON(http.StatusOK, model.StatusResponse{Status: "linked"})
			return
		}

		result, err := h.login.ProviderLogin(c.Request.Context(), *identity, providerAuthMethod(platform), nil)
		if err == service.ErrNotLinked {
			// Normal outcome: the client should prompt for a wallet to link.
			c.JSON(http.StatusOK, model.StatusResponse{Status: "link_required"})
			return
		}
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
}

// PrivyLogin godoc
// @Summary Log in or link with a Privy identity token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.PrivyLoginRequest true "Privy identity token"
// @Success 200 {object} model.LoginResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/auth/privy [post]
func (h *OAuthHandler) PrivyLogin(c *gin.Context) {
	var req model.PrivyLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid request", ErrorType: "invalid_input"})
		return
	}

	identity, err := h.privy.VerifyToken(c.Request.Context(), req.Token)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	// An authenticated caller is linking, not logging in.
	if raw := accessTokenFromRequest(c); raw != "" {
		if user, parseErr := h.tokens.ParseAccessToken(raw); parseErr == nil {
			if err := h.login.LinkProvider(c.Request.Context(), user.WalletAddress, *identity); err != nil {
				writeAuthError(c, err)
				return
			}
			c.JSON(http.StatusOK, model.StatusResponse{Status: "linked"})
			return
		}
	}

	result, err := h.login.ProviderLogin(c.Request.Context(), *identity, model.AuthMethodPrivy, nil)
	if err == service.ErrNotLinked {
		c.JSON(http.StatusOK, model.StatusResponse{Status: "link_required"})
		return
	}
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
