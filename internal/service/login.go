package service

import (
	"context"
	"fmt"

	"github.com/degenduel/backend/internal/db"
	"github.com/degenduel/backend/internal/logger"
	"github.com/degenduel/backend/internal/model"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DeviceStatusAuthorized = "authorized"
	DeviceStatusPending    = "pending"
	DeviceStatusUntracked  = "untracked"
)

type UserRepo interface {
	UpsertWalletUser(ctx context.Context, walletAddress string) (*model.User, error)
	GetUserByWallet(ctx context.Context, walletAddress string) (*model.User, error)
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	TouchLastLogin(ctx context.Context, userID int64) error
}

// LoginResult is what every successful login path produces, regardless of
// method.
type LoginResult struct {
	User         *model.User
	SessionID    string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	DeviceStatus string
}

// LoginService drives the login flows end to end: verification, user row
// upkeep, token issuance, then best-effort bookkeeping.
type LoginService struct {
	users      UserRepo
	challenges *ChallengeService
	tokens     *TokenService
	devices    *DeviceService
	social     *SocialService

	oauthAutoCreate    bool
	devLoginSecretHash []byte
	devLoginEnabled    bool
}

func NewLoginService(
	users UserRepo,
	challenges *ChallengeService,
	tokens *TokenService,
	devices *DeviceService,
	social *SocialService,
	oauthAutoCreate bool,
	devLoginSecretHash string,
	devLoginEnabled bool,
) *LoginService {
	return &LoginService{
		users:              users,
		challenges:         challenges,
		tokens:             tokens,
		devices:            devices,
		social:             social,
		oauthAutoCreate:    oauthAutoCreate,
		devLoginSecretHash: []byte(devLoginSecretHash),
		devLoginEnabled:    devLoginEnabled && devLoginSecretHash != "",
	}
}

// WalletLogin verifies the signed challenge and establishes a session.
func (s *LoginService) WalletLogin(ctx context.Context, walletAddress, message string, signature []byte, device *model.DeviceInfo) (*LoginResult, error) {
	if err := s.challenges.Verify(ctx, walletAddress, message, signature); err != nil {
		return nil, err
	}

	user, err := s.users.UpsertWalletUser(ctx, walletAddress)
	if err != nil {
		return nil, err
	}

	return s.IssueSession(ctx, user, model.AuthMethodWallet, device)
}

// ProviderLogin establishes a session from a verified third-party identity.
// An unlinked identity either auto-creates a user (when policy allows) or
// surfaces ErrNotLinked so the client can start the linking flow.
func (s *LoginService) ProviderLogin(ctx context.Context, identity model.ProviderIdentity, method model.AuthMethod, device *model.DeviceInfo) (*LoginResult, error) {
	walletAddress, err := s.social.FindLoginWallet(ctx, identity.Platform, identity.PlatformUserID)
	if err == ErrNotLinked {
		if !s.oauthAutoCreate {
			return nil, ErrNotLinked
		}
		walletAddress = placeholderWallet(identity)
	} else if err != nil {
		return nil, err
	}

	user, err := s.users.UpsertWalletUser(ctx, walletAddress)
	if err != nil {
		return nil, err
	}

	result, err := s.IssueSession(ctx, user, method, device)
	if err != nil {
		return nil, err
	}

	// Refresh the binding's metadata (username, avatar) on every provider
	// login. Best-effort.
	if _, err := s.social.Link(ctx, user.WalletAddress, identity); err != nil {
		logger.Warn().Err(err).
			Str("platform", string(identity.Platform)).
			Str("wallet", truncateID(user.WalletAddress)).
			Msg("provider metadata refresh failed")
	}

	return result, nil
}

// LinkProvider binds a provider identity to an already-authenticated wallet.
func (s *LoginService) LinkProvider(ctx context.Context, walletAddress string, identity model.ProviderIdentity) error {
	_, err := s.social.Link(ctx, walletAddress, identity)
	return err
}

// DevLogin is an operator backdoor for development environments only, gated
// by a bcrypt-hashed secret.
func (s *LoginService) DevLogin(ctx context.Context, secret, walletAddress string) (*LoginResult, error) {
	if !s.devLoginEnabled {
		return nil, ErrForbidden
	}
	if err := bcrypt.CompareHashAndPassword(s.devLoginSecretHash, []byte(secret)); err != nil {
		return nil, ErrUnauthorized
	}
	if _, err := ParseWalletAddress(walletAddress); err != nil {
		return nil, err
	}

	user, err := s.users.UpsertWalletUser(ctx, walletAddress)
	if err != nil {
		return nil, err
	}
	return s.IssueSession(ctx, user, model.AuthMethodDevLogin, nil)
}

// IssueSession mints the access/refresh pair for an already-verified user and
// runs the best-effort post-commit steps (device tracking). Device tracking
// never gates the login: its errors are logged and swallowed.
func (s *LoginService) IssueSession(ctx context.Context, user *model.User, method model.AuthMethod, device *model.DeviceInfo) (*LoginResult, error) {
	if user.IsBanned {
		logger.Warn().
			Str("wallet", truncateID(user.WalletAddress)).
			Str("method", string(method)).
			Msg("login attempt by banned account")
		return nil, ErrBanned
	}

	sessionID := uuid.New().String()

	accessToken, expiresIn, err := s.tokens.IssueAccessToken(user, sessionID, method)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.IssueRefreshToken(ctx, user, sessionID, method)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{
		User:         user,
		SessionID:    sessionID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		DeviceStatus: DeviceStatusUntracked,
	}

	if device != nil && device.DeviceID != "" {
		record, err := s.devices.Record(ctx, user.WalletAddress, *device)
		if err != nil {
			logger.Warn().Err(err).
				Str("wallet", truncateID(user.WalletAddress)).
				Msg("device tracking failed; login proceeds")
		} else if record.IsActive {
			result.DeviceStatus = DeviceStatusAuthorized
		} else {
			result.DeviceStatus = DeviceStatusPending
		}
	}

	logger.Info().
		Str("wallet", truncateID(user.WalletAddress)).
		Str("method", string(method)).
		Str("session_id", sessionID).
		Msg("login")

	return result, nil
}

// Logout revokes the presented refresh token. Missing or already-revoked
// tokens are fine; logout is idempotent.
func (s *LoginService) Logout(ctx context.Context, rawRefreshToken string) error {
	_, err := s.tokens.RevokeRefreshToken(ctx, rawRefreshToken)
	return err
}

// GetUser loads a user by id, mapping missing rows onto ErrUnauthorized.
func (s *LoginService) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// placeholderWallet is the synthetic identity key for users auto-created from
// a provider login before they connect a wallet.
func placeholderWallet(identity model.ProviderIdentity) string {
	return fmt.Sprintf("%s:%s", identity.Platform, identity.PlatformUserID)
}
