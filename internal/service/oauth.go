package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/degenduel/backend/internal/cache"
	"github.com/degenduel/backend/internal/config"
	"github.com/degenduel/backend/internal/logger"
	"github.com/degenduel/backend/internal/model"
	"golang.org/x/oauth2"
)

const (
	// Provider exchanges get a bounded deadline so a slow upstream cannot
	// hold request threads open.
	oauthExchangeTimeout = 10 * time.Second

	discordAPIBase = "https://discord.com/api"
	twitterAPIBase = "https://api.twitter.com"
)

var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

var twitterEndpoint = oauth2.Endpoint{
	AuthURL:  "https://twitter.com/i/oauth2/authorize",
	TokenURL: "https://api.twitter.com/2/oauth2/token",
}

// OAuthService drives the redirect-based provider flows. CSRF state lives in
// Redis with a TTL so any instance can complete a flow another one started.
type OAuthService struct {
	states    *cache.OAuthStateStore
	providers map[model.SocialPlatform]*oauth2.Config
}

func NewOAuthService(states *cache.OAuthStateStore, discord config.DiscordConfig, twitter config.TwitterConfig) *OAuthService {
	providers := make(map[model.SocialPlatform]*oauth2.Config)

	if discord.ClientID != "" {
		providers[model.PlatformDiscord] = &oauth2.Config{
			ClientID:     discord.ClientID,
			ClientSecret: discord.ClientSecret,
			RedirectURL:  discord.RedirectURL,
			Endpoint:     discordEndpoint,
			Scopes:       []string{"identify", "email"},
		}
	}
	if twitter.ClientID != "" {
		providers[model.PlatformTwitter] = &oauth2.Config{
			ClientID:     twitter.ClientID,
			ClientSecret: twitter.ClientSecret,
			RedirectURL:  twitter.RedirectURL,
			Endpoint:     twitterEndpoint,
			Scopes:       []string{"users.read", "tweet.read"},
		}
	}

	return &OAuthService{states: states, providers: providers}
}

// BeginFlow stores single-use CSRF state and returns the provider redirect
// URL. A non-empty linkWallet makes the callback link instead of log in.
func (s *OAuthService) BeginFlow(ctx context.Context, platform model.SocialPlatform, linkWallet string) (string, error) {
	cfg, ok := s.providers[platform]
	if !ok {
		return "", ErrInvalidInput
	}

	state := oauth2.GenerateVerifier()
	verifier := oauth2.GenerateVerifier()

	err := s.states.Save(ctx, state, cache.OAuthState{
		Platform:     platform,
		LinkWallet:   linkWallet,
		PKCEVerifier: verifier,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return "", err
	}

	return cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

// Callback consumes the state, exchanges the code and fetches the provider
// identity. It returns the wallet to link to, if the flow was a link.
func (s *OAuthService) Callback(ctx context.Context, platform model.SocialPlatform, state, code string) (*model.ProviderIdentity, string, error) {
	cfg, ok := s.providers[platform]
	if !ok {
		return nil, "", ErrInvalidInput
	}

	stored, err := s.states.Take(ctx, state)
	if err != nil {
		return nil, "", err
	}
	if stored == nil || stored.Platform != platform {
		logger.Warn().Str("platform", string(platform)).Msg("oauth callback with unknown or mismatched state")
		return nil, "", ErrUnauthorized
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, oauthExchangeTimeout)
	defer cancel()

	token, err := cfg.Exchange(exchangeCtx, code, oauth2.VerifierOption(stored.PKCEVerifier))
	if err != nil {
		logger.Error().Err(err).Str("platform", string(platform)).Msg("oauth code exchange failed")
		return nil, "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}

	identity, err := s.fetchIdentity(exchangeCtx, platform, cfg, token)
	if err != nil {
		return nil, "", err
	}
	return identity, stored.LinkWallet, nil
}

func (s *OAuthService) fetchIdentity(ctx context.Context, platform model.SocialPlatform, cfg *oauth2.Config, token *oauth2.Token) (*model.ProviderIdentity, error) {
	client := cfg.Client(ctx, token)
	switch platform {
	case model.PlatformDiscord:
		return fetchDiscordIdentity(client)
	case model.PlatformTwitter:
		return fetchTwitterIdentity(client)
	default:
		return nil, ErrInvalidInput
	}
}

func fetchDiscordIdentity(client *http.Client) (*model.ProviderIdentity, error) {
	var payload struct {
		ID            string `json:"id"`
		Username      string `json:"username"`
		Discriminator string `json:"discriminator"`
		Avatar        string `json:"avatar"`
		Email         string `json:"email"`
	}
	if err := fetchJSON(client, discordAPIBase+"/users/@me", &payload); err != nil {
		return nil, err
	}

	avatarURL := ""
	if payload.Avatar != "" {
		avatarURL = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", payload.ID, payload.Avatar)
	}

	return &model.ProviderIdentity{
		Platform:       model.PlatformDiscord,
		PlatformUserID: payload.ID,
		Username:       payload.Username,
		Metadata: model.SocialMetadata{
			Discord: &model.DiscordMetadata{
				Username:      payload.Username,
				Discriminator: payload.Discriminator,
				AvatarURL:     avatarURL,
				Email:         payload.Email,
			},
		},
	}, nil
}

func fetchTwitterIdentity(client *http.Client) (*model.ProviderIdentity, error) {
	var payload struct {
		Data struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := fetchJSON(client, twitterAPIBase+"/2/users/me?user.fields=profile_image_url", &payload); err != nil {
		return nil, err
	}

	return &model.ProviderIdentity{
		Platform:       model.PlatformTwitter,
		PlatformUserID: payload.Data.ID,
		Username:       payload.Data.Username,
		Metadata: model.SocialMetadata{
			Twitter: &model.TwitterMetadata{
				Username:        payload.Data.Username,
				Name:            payload.Data.Name,
				ProfileImageURL: payload.Data.ProfileImageURL,
			},
		},
	}, nil
}

func fetchJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: provider returned %d", ErrTokenExchange, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	return nil
}
