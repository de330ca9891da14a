package handler

import (
	"github.com/degenduel/backend/internal/model"
	"github.com/degenduel/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the auth surface onto the engine. QR approve is the
// only QR route behind the auth middleware: approval requires a logged-in
// mobile session while create/poll/complete/cancel are anonymous by design.
func RegisterRoutes(
	r *gin.Engine,
	tokens *service.TokenService,
	auth *AuthHandler,
	oauth *OAuthHandler,
	qr *QRHandler,
	status *StatusHandler,
) {
	r.GET("/", Root)
	r.GET("/health", Ping)

	requireAuth := AuthMiddleware(tokens)

	v1 := r.Group("/api/v1/auth")
	{
		v1.POST("/challenge", auth.Challenge)
		v1.POST("/verify-wallet", auth.VerifyWallet)
		v1.POST("/refresh", auth.Refresh)
		v1.POST("/logout", auth.Logout)
		v1.POST("/logout-all", requireAuth, auth.LogoutAll)
		v1.POST("/dev-login", auth.DevLogin)
		v1.GET("/status", status.Status)
		v1.GET("/me", requireAuth, auth.Me)

		v1.GET("/discord/login", oauth.BeginFlow(model.PlatformDiscord))
		v1.GET("/discord/callback", oauth.Callback(model.PlatformDiscord))
		v1.GET("/twitter/login", oauth.BeginFlow(model.PlatformTwitter))
		v1.GET("/twitter/callback", oauth.Callback(model.PlatformTwitter))
		v1.POST("/privy", oauth.PrivyLogin)

		v1.POST("/qr/generate", qr.Generate)
		v1.GET("/qr/poll/:token", qr.Poll)
		v1.POST("/qr/approve/:token", requireAuth, qr.Approve)
		v1.POST("/qr/complete/:token", qr.Complete)
		v1.POST("/qr/cancel/:token", qr.Cancel)
	}
}
