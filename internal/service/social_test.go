package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/degenduel/backend/internal/model"
)

type fakeSocialRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.SocialProfile
}

func newFakeSocialRepo() *fakeSocialRepo {
	return &fakeSocialRepo{profiles: make(map[string]*model.SocialProfile)}
}

func profileKey(wallet string, platform model.SocialPlatform) string {
	return wallet + "|" + string(platform)
}

func (r *fakeSocialRepo) GetSocialProfile(_ context.Context, walletAddress string, platform model.SocialPlatform) (*model.SocialProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[profileKey(walletAddress, platform)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *profile
	return &copied, nil
}

func (r *fakeSocialRepo) FindSocialProfileByPlatformID(_ context.Context, platform model.SocialPlatform, platformUserID string) (*model.SocialProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, profile := range r.profiles {
		if profile.Platform == platform && profile.PlatformUserID == platformUserID {
			copied := *profile
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeSocialRepo) UpsertSocialProfile(_ context.Context, walletAddress string, identity model.ProviderIdentity) (*model.SocialProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	profile := &model.SocialProfile{
		WalletAddress:  walletAddress,
		Platform:       identity.Platform,
		PlatformUserID: identity.PlatformUserID,
		Username:       identity.Username,
		Verified:       true,
		VerifiedAt:     &now,
		LastVerified:   &now,
		Metadata:       identity.Metadata,
	}
	r.profiles[profileKey(walletAddress, identity.Platform)] = profile
	copied := *profile
	return &copied, nil
}

func discordIdentity(userID, username, avatarURL string) model.ProviderIdentity {
	return model.ProviderIdentity{
		Platform:       model.PlatformDiscord,
		PlatformUserID: userID,
		Username:       username,
		Metadata: model.SocialMetadata{
			Discord: &model.DiscordMetadata{Username: username, AvatarURL: avatarURL},
		},
	}
}

func TestSocialLinkAndResolve(t *testing.T) {
	repo := newFakeSocialRepo()
	users := newFakeUserStore()
	svc := NewSocialService(repo, users)
	ctx := context.Background()
	wallet := "8xLKs4vZJ9oFbQ2eW7cRt1pYhN3mDqGuSaCkEiTjUvHw"
	users.addUser(wallet)

	profile, err := svc.Link(ctx, wallet, discordIdentity("d-123", "degen#1", ""))
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if !profile.Verified {
		t.Fatal("linked profile not verified")
	}

	resolved, err := svc.FindLoginWallet(ctx, model.PlatformDiscord, "d-123")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved != wallet {
		t.Fatalf("resolved %q, want %q", resolved, wallet)
	}
}

func TestSocialFindLoginWalletUnlinked(t *testing.T) {
	svc := NewSocialService(newFakeSocialRepo(), newFakeUserStore())
	if _, err := svc.FindLoginWallet(context.Background(), model.PlatformDiscord, "nobody"); !errors.Is(err, ErrNotLinked) {
		t.Fatalf("unlinked: got %v, want ErrNotLinked", err)
	}
}

func TestSocialLinkRejectsCrossWalletReassignment(t *testing.T) {
	repo := newFakeSocialRepo()
	users := newFakeUserStore()
	svc := NewSocialService(repo, users)
	ctx := context.Background()
	walletA := "8xLKs4vZJ9oFbQ2eW7cRt1pYhN3mDqGuSaCkEiTjUvHw"
	walletB := "3qPdR8nT5vYcW2eK9mXhJ7uZbF4gLsEaDiCoQkUjNrMt"
	users.addUser(walletA)
	users.addUser(walletB)

	if _, err := svc.Link(ctx, walletA, discordIdentity("d-123", "degen#1", "")); err != nil {
		t.Fatalf("link A: %v", err)
	}
	if _, err := svc.Link(ctx, walletB, discordIdentity("d-123", "degen#1", "")); !errors.Is(err, ErrAlreadyLinkedElsewhere) {
		t.Fatalf("link B: got %v, want ErrAlreadyLinkedElsewhere", err)
	}

	// Wallet A's binding is untouched and wallet B gained nothing.
	resolved, err := svc.FindLoginWallet(ctx, model.PlatformDiscord, "d-123")
	if err != nil || resolved != walletA {
		t.Fatalf("binding after rejection = (%q, %v), want wallet A", resolved, err)
	}
	if _, err := repo.GetSocialProfile(ctx, walletB, model.PlatformDiscord); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatal("wallet B gained a profile row")
	}
}

func TestSocialRelinkSameWalletRefreshesMetadata(t *testing.T) {
	repo := newFakeSocialRepo()
	users := newFakeUserStore()
	svc := NewSocialService(repo, users)
	ctx := context.Background()
	wallet := "8xLKs4vZJ9oFbQ2eW7cRt1pYhN3mDqGuSaCkEiTjUvHw"
	users.addUser(wallet)

	if _, err := svc.Link(ctx, wallet, discordIdentity("d-123", "old-name", "")); err != nil {
		t.Fatalf("link: %v", err)
	}
	profile, err := svc.Link(ctx, wallet, discordIdentity("d-123", "new-name", ""))
	if err != nil {
		t.Fatalf("relink: %v", err)
	}
	if profile.Username != "new-name" {
		t.Fatalf("username = %q, want new-name", profile.Username)
	}
}

func TestSocialProfileImageSync(t *testing.T) {
	repo := newFakeSocialRepo()
	users := newFakeUserStore()
	svc := NewSocialService(repo, users)
	ctx := context.Background()
	wallet := "8xLKs4vZJ9oFbQ2eW7cRt1pYhN3mDqGuSaCkEiTjUvHw"
	users.addUser(wallet)

	// A user with no avatar adopts the provider's.
	if _, err := svc.Link(ctx, wallet, discordIdentity("d-123", "degen#1", "https://cdn.example/a.png")); err != nil {
		t.Fatalf("link: %v", err)
	}
	user, _ := users.GetUserByWallet(ctx, wallet)
	if user.ProfileImageURL == nil || *user.ProfileImageURL != "https://cdn.example/a.png" {
		t.Fatal("avatar not adopted from provider")
	}

	// An avatar owned by a different provider is never overwritten.
	twitter := model.ProviderIdentity{
		Platform:       model.PlatformTwitter,
		PlatformUserID: "t-456",
		Username:       "degen",
		Metadata: model.SocialMetadata{
			Twitter: &model.TwitterMetadata{Username: "degen", ProfileImageURL: "https://pbs.example/b.png"},
		},
	}
	if _, err := svc.Link(ctx, wallet, twitter); err != nil {
		t.Fatalf("link twitter: %v", err)
	}
	user, _ = users.GetUserByWallet(ctx, wallet)
	if *user.ProfileImageURL != "https://cdn.example/a.png" {
		t.Fatalf("avatar overwritten by other provider: %q", *user.ProfileImageURL)
	}

	// The owning provider may update it.
	if _, err := svc.Link(ctx, wallet, discordIdentity("d-123", "degen#1", "https://cdn.example/c.png")); err != nil {
		t.Fatalf("relink: %v", err)
	}
	user, _ = users.GetUserByWallet(ctx, wallet)
	if *user.ProfileImageURL != "https://cdn.example/c.png" {
		t.Fatalf("avatar not refreshed by owning provider: %q", *user.ProfileImageURL)
	}
}
