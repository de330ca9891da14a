// Package cache holds Redis-backed short-lived keyed state. OAuth CSRF state
// lives here instead of process memory so any instance behind the load
// balancer can finish a flow another instance started.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/degenduel/backend/internal/model"
	"github.com/redis/go-redis/v9"
)

const keyPrefixOAuthState = "oauth_state:"

// OAuthState is the context stashed between the redirect and the callback.
// Mode distinguishes plain login from linking to an authenticated wallet.
type OAuthState struct {
	Platform     model.SocialPlatform `json:"platform"`
	LinkWallet   string               `json:"link_wallet,omitempty"`
	PKCEVerifier string               `json:"pkce_verifier,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

type OAuthStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOAuthStateStore(client *redis.Client, ttl time.Duration) *OAuthStateStore {
	return &OAuthStateStore{client: client, ttl: ttl}
}

func (s *OAuthStateStore) Save(ctx context.Context, state string, value OAuthState) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal oauth state: %w", err)
	}
	return s.client.Set(ctx, keyPrefixOAuthState+state, data, s.ttl).Err()
}

// Take fetches and deletes the state in one round trip (GETDEL), making each
// state value single-use. Unknown or expired state returns (nil, nil).
func (s *OAuthStateStore) Take(ctx context.Context, state string) (*OAuthState, error) {
	data, err := s.client.GetDel(ctx, keyPrefixOAuthState+state).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth state: %w", err)
	}

	var value OAuthState
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal oauth state: %w", err)
	}
	return &value, nil
}
