package service

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/degenduel/backend/internal/config"
	"github.com/degenduel/backend/internal/logger"
	"github.com/degenduel/backend/internal/model"
)

// PrivyService verifies Privy-issued identity tokens against the app's JWKS
// and maps them onto a provider identity.
type PrivyService struct {
	verifier *oidc.IDTokenVerifier
}

func NewPrivyService(ctx context.Context, cfg config.PrivyConfig) (*PrivyService, error) {
	if cfg.AppID == "" {
		return nil, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover privy issuer: %w", err)
	}

	return &PrivyService{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.AppID}),
	}, nil
}

// VerifyToken checks signature, issuer, audience and expiry, then extracts
// the Privy DID and any linked wallet claim.
func (s *PrivyService) VerifyToken(ctx context.Context, rawToken string) (*model.ProviderIdentity, error) {
	if s == nil || s.verifier == nil {
		return nil, ErrForbidden
	}

	idToken, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		logger.Warn().Err(err).Msg("privy token verification failed")
		return nil, ErrUnauthorized
	}

	var claims struct {
		WalletAddress string `json:"wallet_address"`
		Email         string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode privy claims: %w", err)
	}

	return &model.ProviderIdentity{
		Platform:       model.PlatformPrivy,
		PlatformUserID: idToken.Subject,
		Username:       claims.Email,
		Metadata: model.SocialMetadata{
			Privy: &model.PrivyMetadata{
				DID:          idToken.Subject,
				LinkedWallet: claims.WalletAddress,
				EmailAddress: claims.Email,
			},
		},
	}, nil
}
