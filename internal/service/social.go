package service

import (
	"context"

	"github.com/degenduel/backend/internal/db"
	"github.com/degenduel/backend/internal/logger"
	"github.com/degenduel/backend/internal/model"
)

type SocialRepo interface {
	GetSocialProfile(ctx context.Context, walletAddress string, platform model.SocialPlatform) (*model.SocialProfile, error)
	FindSocialProfileByPlatformID(ctx context.Context, platform model.SocialPlatform, platformUserID string) (*model.SocialProfile, error)
	UpsertSocialProfile(ctx context.Context, walletAddress string, identity model.ProviderIdentity) (*model.SocialProfile, error)
}

type SocialUserRepo interface {
	GetUserByWallet(ctx context.Context, walletAddress string) (*model.User, error)
	UpdateProfileImage(ctx context.Context, walletAddress, imageURL, source string) error
}

// SocialService is the provider link registry: it binds verified third-party
// identities to wallets and resolves them back for provider login.
type SocialService struct {
	repo  SocialRepo
	users SocialUserRepo
}

func NewSocialService(repo SocialRepo, users SocialUserRepo) *SocialService {
	return &SocialService{repo: repo, users: users}
}

// FindLoginWallet resolves a provider identity to the wallet it is linked to.
// ErrNotLinked is a normal outcome: the caller proceeds to the linking flow.
func (s *SocialService) FindLoginWallet(ctx context.Context, platform model.SocialPlatform, platformUserID string) (string, error) {
	profile, err := s.repo.FindSocialProfileByPlatformID(ctx, platform, platformUserID)
	if err != nil {
		if db.IsNoRows(err) {
			return "", ErrNotLinked
		}
		return "", err
	}
	if !profile.Verified {
		return "", ErrNotLinked
	}
	return profile.WalletAddress, nil
}

// Link binds the identity to the wallet. An identity already bound to a
// different wallet is rejected; it is never silently reassigned.
func (s *SocialService) Link(ctx context.Context, walletAddress string, identity model.ProviderIdentity) (*model.SocialProfile, error) {
	existing, err := s.repo.FindSocialProfileByPlatformID(ctx, identity.Platform, identity.PlatformUserID)
	if err != nil && !db.IsNoRows(err) {
		return nil, err
	}
	if existing != nil && existing.WalletAddress != walletAddress {
		logger.Warn().
			Str("platform", string(identity.Platform)).
			Str("platform_user_id", truncateID(identity.PlatformUserID)).
			Msg("provider identity already linked to another wallet")
		return nil, ErrAlreadyLinkedElsewhere
	}

	profile, err := s.repo.UpsertSocialProfile(ctx, walletAddress, identity)
	if err != nil {
		return nil, err
	}

	// Post-commit enrichment; a failure here never fails the link.
	s.syncProfileImage(ctx, walletAddress, identity)

	return profile, nil
}

// syncProfileImage refreshes the user's avatar from the provider, but only
// when the user has no image yet or the image was sourced from this same
// provider, and only when the URL actually changed.
func (s *SocialService) syncProfileImage(ctx context.Context, walletAddress string, identity model.ProviderIdentity) {
	avatarURL := identity.Metadata.AvatarURL()
	if avatarURL == "" {
		return
	}

	user, err := s.users.GetUserByWallet(ctx, walletAddress)
	if err != nil {
		logger.Warn().Err(err).Str("wallet", truncateID(walletAddress)).Msg("profile image sync: user lookup failed")
		return
	}

	fromSameProvider := user.ProfileImageSource != nil && *user.ProfileImageSource == string(identity.Platform)
	if user.ProfileImageURL != nil && !fromSameProvider {
		return
	}
	if user.ProfileImageURL != nil && *user.ProfileImageURL == avatarURL {
		return
	}

	if err := s.users.UpdateProfileImage(ctx, walletAddress, avatarURL, string(identity.Platform)); err != nil {
		logger.Warn().Err(err).Str("wallet", truncateID(walletAddress)).Msg("profile image sync failed")
	}
}

// truncateID shortens identifiers for log output.
func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
