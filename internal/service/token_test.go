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

type fakeTokenRepo struct {
	mu     sync.Mutex
	nextID int64
	tokens map[string]*model.RefreshToken
	users  map[int64]*model.User
}

func newFakeTokenRepo(users ...*model.User) *fakeTokenRepo {
	r := &fakeTokenRepo{
		tokens: make(map[string]*model.RefreshToken),
		users:  make(map[int64]*model.User),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeTokenRepo) InsertRefreshToken(_ context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	token.ID = r.nextID
	token.CreatedAt = time.Now()
	copied := *token
	r.tokens[token.TokenHash] = &copied
	return nil
}

func (r *fakeTokenRepo) GetRefreshTokenByHash(_ context.Context, tokenHash string) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenHash]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *token
	return &copied, nil
}

func (r *fakeTokenRepo) RevokeRefreshTokenByHash(_ context.Context, tokenHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenHash]
	if !ok || token.RevokedAt != nil {
		return false, nil
	}
	now := time.Now()
	token.RevokedAt = &now
	return true, nil
}

func (r *fakeTokenRepo) RevokeAllUserTokens(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var revoked int64
	now := time.Now()
	for _, token := range r.tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &now
			revoked++
		}
	}
	return revoked, nil
}

func (r *fakeTokenRepo) RotateRefreshToken(_ context.Context, oldTokenID int64, replacement *model.RefreshToken) error {
	r.mu.Lock()
	now := time.Now()
	for _, token := range r.tokens {
		if token.ID == oldTokenID {
			token.RevokedAt = &now
		}
	}
	r.mu.Unlock()
	return r.InsertRefreshToken(context.Background(), replacement)
}

func (r *fakeTokenRepo) GetUserByID(_ context.Context, userID int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func testUser(id int64, wallet string) *model.User {
	return &model.User{ID: id, WalletAddress: wallet, Nickname: "degen_test", Role: model.RoleUser}
}

func TestRefreshRotation(t *testing.T) {
	user := testUser(1, "8xLKs4vZJ9oFbQ2eW7cRt1pYhN3mDqGuSaCkEiTjUvHw")
	repo := newFakeTokenRepo(user)
	svc := NewTokenService(repo, "test-secret", time.Hour, 7*24*time.Hour)
	ctx := context.Background()

	raw, err := svc.IssueRefreshToken(ctx, user, "sess-1", model.AuthMethodWallet)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	accessToken, newRaw, expiresIn, err := svc.Refresh(ctx, raw)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if newRaw == raw {
		t.Fatal("rotation returned the same refresh token")
	}
	if expiresIn != int64(time.Hour.Seconds()) {
		t.Fatalf("expires_in = %d, want %d", expiresIn, int64(time.Hour.Seconds()))
	}

	// The session identity survives the rotation into the new access token.
	claims, err := svc.ParseAccessToken(accessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.SessionID != "sess-1" || claims.AuthMethod != model.AuthMethodWallet {
		t.Fatalf("claims = %q/%q, want sess-1/wallet", claims.SessionID, claims.AuthMethod)
	}

	// The old token is dead; presenting it again fails.
	if _, _, _, err := svc.Refresh(ctx, raw); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("replayed token: got %v, want ErrUnauthorized", err)
	}

	// The rotated token still works.
	if _, _, _, err := svc.Refresh(ctx, newRaw); err != nil {
		t.Fatalf("rotated token: %v", err)
	}
}

func TestRefreshTokenExpiry(t *testing.T) {
	user := testUser(1, "8xLKs4vZJ9oFbQ2eW7cRt1pYhN3mDqGuSaCkEiTjUvHw")
	repo := newFakeTokenRepo(user)
	svc := NewTokenService(repo, "test-secret", time.Hour, -time.Minute)
	ctx := context.Background()

	raw, err := svc.IssueRefreshToken(ctx, user, "sess-1", model.AuthMethodWallet)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	gotUser, record, err := svc.ValidateRefreshToken(ctx, raw)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if gotUser != nil || record != nil {
		t.Fatal("expired token validated")
	}
}

func TestRevokeRefreshTokenIdempotent(t *testing.T) {
	user := testUser(1, "8xLKs4vZJ9oFbQ2eW7cRt1pYhN3mDqGuSaCkEiTjUvHw")
	repo := newFakeTokenRepo(user)
	svc := NewTokenService(repo, "test-secret", time.Hour, 7*24*time.Hour)
	ctx := context.Background()

	raw, err := svc.IssueRefreshToken(ctx, user, "sess-1", model.AuthMethodWallet)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	gotUser, _, err := svc.ValidateRefreshToken(ctx, raw)
	if err != nil || gotUser == nil || gotUser.ID != user.ID {
		t.Fatalf("round-trip = (%+v, %v)", gotUser, err)
	}

	revoked, err := svc.RevokeRefreshToken(ctx, raw)
	if err != nil || !revoked {
		t.Fatalf("first revoke = (%v, %v), want (true, nil)", revoked, err)
	}
	if gotUser, _, err = svc.ValidateRefreshToken(ctx, raw); err != nil || gotUser != nil {
		t.Fatalf("validate after revoke = (%+v, %v), want (nil, nil)", gotUser, err)
	}
	revoked, err = svc.RevokeRefreshToken(ctx, raw)
	if err != nil || revoked {
		t.Fatalf("second revoke = (%v, %v), want (false, nil)", revoked, err)
	}
	if revoked, err = svc.RevokeRefreshToken(ctx, "never-issued"); err != nil || revoked {
		t.Fatalf("unknown revoke = (%v, %v), want (false, nil)", revoked, err)
	}
}

func TestRevokeAllUserTokens(t *testing.T) {
	user := testUser(1, "8xLKs4vZJ9oFbQ2eW7cRt1pYhN3mDqGuSaCkEiTjUvHw")
	repo := newFakeTokenRepo(user)
	svc := NewTokenService(repo, "test-secret", time.Hour, 7*24*time.Hour)
	ctx := context.Background()

	raws := make([]string, 3)
	for i := range raws {
		raw, err := svc.IssueRefreshToken(ctx, user, "sess", model.AuthMethodWallet)
		if err != nil {
			t.Fatalf("issue %d: %v", i, err)
		}
		raws[i] = raw
	}

	count, err := svc.RevokeAllUserTokens(ctx, user.ID)
	if err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if count != 3 {
		t.Fatalf("revoked %d, want 3", count)
	}
	for i, raw := range raws {
		gotUser, _, err := svc.ValidateRefreshToken(ctx, raw)
		if err != nil || gotUser != nil {
			t.Fatalf("token %d still valid after revoke-all", i)
		}
	}
}

func TestBannedUserCannotRefresh(t *testing.T) {
	user := testUser(1, "8xLKs4vZJ9oFbQ2eW7cRt1pYhN3mDqGuSaCkEiTjUvHw")
	repo := newFakeTokenRepo(user)
	svc := NewTokenService(repo, "test-secret", time.Hour, 7*24*time.Hour)
	ctx := context.Background()

	raw, err := svc.IssueRefreshToken(ctx, user, "sess-1", model.AuthMethodWallet)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	repo.mu.Lock()
	repo.users[user.ID].IsBanned = true
	repo.mu.Unlock()

	if _, _, _, err := svc.Refresh(ctx, raw); !errors.Is(err, ErrBanned) {
		t.Fatalf("banned refresh: got %v, want ErrBanned", err)
	}
}

func TestParseAccessTokenRejectsForgery(t *testing.T) {
	user := testUser(1, "8xLKs4vZJ9oFbQ2eW7cRt1pYhN3mDqGuSaCkEiTjUvHw")
	repo := newFakeTokenRepo(user)
	svc := NewTokenService(repo, "test-secret", time.Hour, 7*24*time.Hour)
	other := NewTokenService(repo, "other-secret", time.Hour, 7*24*time.Hour)

	token, _, err := other.IssueAccessToken(user, "sess-1", model.AuthMethodWallet)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.ParseAccessToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("wrong secret: got %v, want ErrUnauthorized", err)
	}
	if _, err := svc.ParseAccessToken("not-a-jwt"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("garbage: got %v, want ErrUnauthorized", err)
	}
}
