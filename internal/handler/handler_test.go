package handler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/degenduel/backend/internal/model"
	"github.com/degenduel/backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memStore is an in-memory stand-in for the Postgres layer, implementing
// every repository interface the services consume.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	users      map[string]*model.User
	challenges map[string]*model.Challenge
	tokens     map[string]*model.RefreshToken
	devices    map[string]*model.AuthorizedDevice
	profiles   map[string]*model.SocialProfile
	qrSessions map[string]*model.QRAuthSession
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[string]*model.User),
		challenges: make(map[string]*model.Challenge),
		tokens:     make(map[string]*model.RefreshToken),
		devices:    make(map[string]*model.AuthorizedDevice),
		profiles:   make(map[string]*model.SocialProfile),
		qrSessions: make(map[string]*model.QRAuthSession),
	}
}

func (s *memStore) UpsertWalletUser(_ context.Context, walletAddress string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[walletAddress]
	if !ok {
		s.nextID++
		user = &model.User{
			ID:            s.nextID,
			WalletAddress: walletAddress,
			Nickname:      "degen_" + walletAddress[:4],
			Role:          model.RoleUser,
			CreatedAt:     time.Now(),
		}
		s.users[walletAddress] = user
	}
	now := time.Now()
	user.LastLogin = &now
	copied := *user
	return &copied, nil
}

func (s *memStore) GetUserByWallet(_ context.Context, walletAddress string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[walletAddress]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (s *memStore) GetUserByID(_ context.Context, userID int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == userID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memStore) TouchLastLogin(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == userID {
			now := time.Now()
			user.LastLogin = &now
		}
	}
	return nil
}

func (s *memStore) UpdateProfileImage(_ context.Context, walletAddress, imageURL, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[walletAddress]
	if !ok {
		return pgx.ErrNoRows
	}
	user.ProfileImageURL = &imageURL
	user.ProfileImageSource = &source
	return nil
}

func (s *memStore) UpsertChallenge(_ context.Context, walletAddress, nonce string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[walletAddress] = &model.Challenge{
		WalletAddress: walletAddress,
		Nonce:         nonce,
		IssuedAt:      time.Now(),
		ExpiresAt:     expiresAt,
	}
	return nil
}

func (s *memStore) ConsumeChallenge(_ context.Context, walletAddress, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.challenges[walletAddress]
	if !ok || stored.Nonce != nonce || time.Now().After(stored.ExpiresAt) {
		return false, nil
	}
	delete(s.challenges, walletAddress)
	return true, nil
}

func (s *memStore) GetChallenge(_ context.Context, walletAddress string) (*model.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.challenges[walletAddress]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (s *memStore) DeleteChallenge(_ context.Context, walletAddress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, walletAddress)
	return nil
}

func (s *memStore) InsertRefreshToken(_ context.Context, token *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	token.ID = s.nextID
	token.CreatedAt = time.Now()
	copied := *token
	s.tokens[token.TokenHash] = &copied
	return nil
}

func (s *memStore) GetRefreshTokenByHash(_ context.Context, tokenHash string) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[tokenHash]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *token
	return &copied, nil
}

func (s *memStore) RevokeRefreshTokenByHash(_ context.Context, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[tokenHash]
	if !ok || token.RevokedAt != nil {
		return false, nil
	}
	now := time.Now()
	token.RevokedAt = &now
	return true, nil
}

func (s *memStore) RevokeAllUserTokens(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var revoked int64
	now := time.Now()
	for _, token := range s.tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &now
			revoked++
		}
	}
	return revoked, nil
}

func (s *memStore) RotateRefreshToken(_ context.Context, oldTokenID int64, replacement *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, token := range s.tokens {
		if token.ID == oldTokenID {
			token.RevokedAt = &now
		}
	}
	s.nextID++
	replacement.ID = s.nextID
	replacement.CreatedAt = now
	copied := *replacement
	s.tokens[replacement.TokenHash] = &copied
	return nil
}

func (s *memStore) CountDevices(_ context.Context, walletAddress string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, d := range s.devices {
		if d.WalletAddress == walletAddress {
			count++
		}
	}
	return count, nil
}

func (s *memStore) UpsertDevice(_ context.Context, walletAddress string, info model.DeviceInfo, activeIfNew bool) (*model.AuthorizedDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := walletAddress + "|" + info.DeviceID
	if existing, ok := s.devices[key]; ok {
		existing.DeviceName = info.DeviceName
		existing.DeviceType = info.DeviceType
		existing.LastUsed = time.Now()
		copied := *existing
		return &copied, nil
	}
	s.nextID++
	device := &model.AuthorizedDevice{
		ID:            s.nextID,
		WalletAddress: walletAddress,
		DeviceID:      info.DeviceID,
		DeviceName:    info.DeviceName,
		DeviceType:    info.DeviceType,
		IsActive:      activeIfNew,
		LastUsed:      time.Now(),
		CreatedAt:     time.Now(),
	}
	s.devices[key] = device
	copied := *device
	return &copied, nil
}

func (s *memStore) GetDevice(_ context.Context, walletAddress, deviceID string) (*model.AuthorizedDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	device, ok := s.devices[walletAddress+"|"+deviceID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *device
	return &copied, nil
}

func (s *memStore) GetSocialProfile(_ context.Context, walletAddress string, platform model.SocialPlatform) (*model.SocialProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[walletAddress+"|"+string(platform)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *profile
	return &copied, nil
}

func (s *memStore) FindSocialProfileByPlatformID(_ context.Context, platform model.SocialPlatform, platformUserID string) (*model.SocialProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, profile := range s.profiles {
		if profile.Platform == platform && profile.PlatformUserID == platformUserID {
			copied := *profile
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memStore) UpsertSocialProfile(_ context.Context, walletAddress string, identity model.ProviderIdentity) (*model.SocialProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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
	s.profiles[walletAddress+"|"+string(identity.Platform)] = profile
	copied := *profile
	return &copied, nil
}

func (s *memStore) CreateQRSession(_ context.Context, token string, data model.QRSessionData, expiresAt time.Time) (*model.QRAuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := &model.QRAuthSession{
		SessionToken: token,
		Status:       model.QRStatusPending,
		SessionData:  data,
		ExpiresAt:    expiresAt,
		CreatedAt:    time.Now(),
	}
	s.qrSessions[token] = session
	copied := *session
	return &copied, nil
}

func (s *memStore) GetQRSession(_ context.Context, token string) (*model.QRAuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.qrSessions[token]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *session
	return &copied, nil
}

func (s *memStore) ApproveQRSession(_ context.Context, token string, userID int64, data model.QRSessionData) (*model.QRAuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.qrSessions[token]
	if !ok || session.Status != model.QRStatusPending || time.Now().After(session.ExpiresAt) {
		return nil, pgx.ErrNoRows
	}
	session.Status = model.QRStatusApproved
	session.UserID = &userID
	session.SessionData.ApproverIP = data.ApproverIP
	session.SessionData.ApproverDevice = data.ApproverDevice
	session.SessionData.ApprovedAt = data.ApprovedAt
	copied := *session
	return &copied, nil
}

func (s *memStore) CompleteQRSession(_ context.Context, token string) (*model.QRAuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.qrSessions[token]
	if !ok || session.Status != model.QRStatusApproved || time.Now().After(session.ExpiresAt) {
		return nil, pgx.ErrNoRows
	}
	now := time.Now()
	session.Status = model.QRStatusCompleted
	session.CompletedAt = &now
	copied := *session
	return &copied, nil
}

func (s *memStore) CancelQRSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.qrSessions[token]
	if !ok || session.Status.Terminal() {
		return nil
	}
	session.Status = model.QRStatusCancelled
	return nil
}

// newTestRouter wires a full engine against the in-memory store. OAuth
// provider routes are registered but unexercised here; they need live
// provider endpoints.
func newTestRouter(t *testing.T) (*gin.Engine, *memStore) {
	t.Helper()
	store := newMemStore()

	challenges := service.NewChallengeService(store)
	tokens := service.NewTokenService(store, "test-secret", time.Hour, 7*24*time.Hour)
	devices := service.NewDeviceService(store, true)
	social := service.NewSocialService(store, store)
	login := service.NewLoginService(store, challenges, tokens, devices, social, false, "", false)
	qr := service.NewQRService(store, login)
	status := service.NewStatusService(tokens, store, devices)
	cookies := service.NewCookieManager("", false, time.Hour, 7*24*time.Hour)

	r := gin.New()
	RegisterRoutes(
		r,
		tokens,
		NewAuthHandler(login, challenges, tokens, cookies),
		NewOAuthHandler(nil, nil, login, tokens, cookies),
		NewQRHandler(qr, cookies),
		NewStatusHandler(status),
	)
	return r, store
}
