package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/degenduel/backend/internal/db"
	"github.com/degenduel/backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

type TokenRepo interface {
	InsertRefreshToken(ctx context.Context, token *model.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	RevokeRefreshTokenByHash(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllUserTokens(ctx context.Context, userID int64) (int64, error)
	RotateRefreshToken(ctx context.Context, oldTokenID int64, replacement *model.RefreshToken) error
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
}

// TokenService mints access JWTs and opaque refresh tokens. Access tokens are
// stateless; refresh tokens are persisted as SHA-256 hashes and revoked
// logically.
type TokenService struct {
	repo       TokenRepo
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

type accessClaims struct {
	WalletAddress string `json:"wallet_address"`
	Role          string `json:"role"`
	SessionID     string `json:"session_id"`
	AuthMethod    string `json:"auth_method"`
	jwt.RegisteredClaims
}

func NewTokenService(repo TokenRepo, jwtSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		repo:       repo,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *TokenService) IssueAccessToken(user *model.User, sessionID string, method model.AuthMethod) (string, int64, error) {
	now := time.Now()
	claims := accessClaims{
		WalletAddress: user.WalletAddress,
		Role:          string(user.Role),
		SessionID:     sessionID,
		AuthMethod:    string(method),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.accessTTL.Seconds()), nil
}

// IssueRefreshToken returns the raw token; only its hash is stored. The raw
// value must never be logged.
func (s *TokenService) IssueRefreshToken(ctx context.Context, user *model.User, sessionID string, method model.AuthMethod) (string, error) {
	raw, hash, err := newRefreshToken()
	if err != nil {
		return "", err
	}

	record := &model.RefreshToken{
		UserID:        user.ID,
		WalletAddress: user.WalletAddress,
		TokenHash:     hash,
		SessionID:     sessionID,
		AuthMethod:    method,
		ExpiresAt:     time.Now().Add(s.refreshTTL),
	}
	if err := s.repo.InsertRefreshToken(ctx, record); err != nil {
		return "", err
	}
	return raw, nil
}

// ValidateRefreshToken resolves a raw token to its user. Unknown, revoked and
// expired tokens all return (nil, nil, nil): not authenticated is a normal
// outcome, not a failure.
func (s *TokenService) ValidateRefreshToken(ctx context.Context, rawToken string) (*model.User, *model.RefreshToken, error) {
	if rawToken == "" {
		return nil, nil, nil
	}

	record, err := s.repo.GetRefreshTokenByHash(ctx, hashRefreshToken(rawToken))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	if record.RevokedAt != nil || time.Now().After(record.ExpiresAt) {
		return nil, nil, nil
	}

	user, err := s.repo.GetUserByID(ctx, record.UserID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return user, record, nil
}

// Refresh rotates the refresh token and mints a new access token. The session
// id and auth method carried on the old row survive the rotation.
func (s *TokenService) Refresh(ctx context.Context, rawToken string) (string, string, int64, error) {
	user, record, err := s.ValidateRefreshToken(ctx, rawToken)
	if err != nil {
		return "", "", 0, err
	}
	if user == nil {
		return "", "", 0, ErrUnauthorized
	}
	if user.IsBanned {
		return "", "", 0, ErrBanned
	}

	newRaw, newHash, err := newRefreshToken()
	if err != nil {
		return "", "", 0, err
	}

	replacement := &model.RefreshToken{
		UserID:        user.ID,
		WalletAddress: user.WalletAddress,
		TokenHash:     newHash,
		SessionID:     record.SessionID,
		AuthMethod:    record.AuthMethod,
		ExpiresAt:     time.Now().Add(s.refreshTTL),
	}
	if err := s.repo.RotateRefreshToken(ctx, record.ID, replacement); err != nil {
		return "", "", 0, err
	}

	accessToken, expiresIn, err := s.IssueAccessToken(user, record.SessionID, record.AuthMethod)
	if err != nil {
		return "", "", 0, err
	}
	return accessToken, newRaw, expiresIn, nil
}

// RevokeRefreshToken is idempotent: revoking an already-revoked or unknown
// token reports false without error.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, rawToken string) (bool, error) {
	if rawToken == "" {
		return false, nil
	}
	return s.repo.RevokeRefreshTokenByHash(ctx, hashRefreshToken(rawToken))
}

func (s *TokenService) RevokeAllUserTokens(ctx context.Context, userID int64) (int64, error) {
	return s.repo.RevokeAllUserTokens(ctx, userID)
}

func (s *TokenService) ParseAccessToken(tokenStr string) (*model.AuthUser, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthorized
	}

	return &model.AuthUser{
		ID:            userID,
		WalletAddress: claims.WalletAddress,
		Role:          model.UserRole(claims.Role),
		SessionID:     claims.SessionID,
		AuthMethod:    model.AuthMethod(claims.AuthMethod),
	}, nil
}

// Refresh tokens are 64 random bytes hex-encoded; the stored form is the
// SHA-256 of the raw value.
func newRefreshToken() (string, string, error) {
	raw := make([]byte, 64)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token := hex.EncodeToString(raw)
	return token, hashRefreshToken(token), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
