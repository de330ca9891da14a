package service

import (
	"net/http"
	"time"
)

const (
	AccessCookieName  = "dd_access"
	RefreshCookieName = "dd_refresh"

	// The refresh cookie is scoped to the auth endpoints, so the long-lived
	// credential is never sent with ordinary API calls. It must still reach
	// logout, which revokes it.
	RefreshCookiePath = "/api/v1/auth"
)

type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   int
}

// CookieManager builds the two auth cookie configs. Secure is off only for
// local development; SameSite=None requires Secure, so insecure environments
// fall back to Lax.
type CookieManager struct {
	access  CookieConfig
	refresh CookieConfig
}

func NewCookieManager(domain string, secure bool, accessTTL, refreshTTL time.Duration) *CookieManager {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}

	return &CookieManager{
		access: CookieConfig{
			Name:     AccessCookieName,
			Path:     "/",
			Domain:   domain,
			Secure:   secure,
			SameSite: sameSite,
			MaxAge:   int(accessTTL.Seconds()),
		},
		refresh: CookieConfig{
			Name:     RefreshCookieName,
			Path:     RefreshCookiePath,
			Domain:   domain,
			Secure:   secure,
			SameSite: sameSite,
			MaxAge:   int(refreshTTL.Seconds()),
		},
	}
}

func (m *CookieManager) Access() CookieConfig  { return m.access }
func (m *CookieManager) Refresh() CookieConfig { return m.refresh }
