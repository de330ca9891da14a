package model

import "time"

type SocialPlatform string

const (
	PlatformDiscord SocialPlatform = "discord"
	PlatformTwitter SocialPlatform = "twitter"
	PlatformPrivy   SocialPlatform = "privy"
)

// KnownPlatforms is the fixed set the status aggregator reports on.
var KnownPlatforms = []SocialPlatform{PlatformDiscord, PlatformTwitter, PlatformPrivy}

type SocialProfile struct {
	WalletAddress  string
	Platform       SocialPlatform
	PlatformUserID string
	Username       string
	Verified       bool
	VerifiedAt     *time.Time
	LastVerified   *time.Time
	Metadata       SocialMetadata
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SocialMetadata is a tagged union: exactly one branch is non-nil, matching
// the profile's platform. It is stored as JSONB.
type SocialMetadata struct {
	Discord *DiscordMetadata `json:"discord,omitempty"`
	Twitter *TwitterMetadata `json:"twitter,omitempty"`
	Privy   *PrivyMetadata   `json:"privy,omitempty"`
}

type DiscordMetadata struct {
	Username      string `json:"username"`
	Discriminator string `json:"discriminator,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	Email         string `json:"email,omitempty"`
}

type TwitterMetadata struct {
	Username        string `json:"username"`
	Name            string `json:"name,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

type PrivyMetadata struct {
	DID          string `json:"did"`
	LinkedWallet string `json:"linked_wallet,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
}

// AvatarURL returns the provider-supplied avatar, if any.
func (m SocialMetadata) AvatarURL() string {
	switch {
	case m.Discord != nil:
		return m.Discord.AvatarURL
	case m.Twitter != nil:
		return m.Twitter.ProfileImageURL
	case m.Privy != nil:
		return m.Privy.AvatarURL
	}
	return ""
}

// ProviderIdentity is a verified third-party identity produced by an OAuth
// exchange or token verification, before it is bound to a wallet.
type ProviderIdentity struct {
	Platform       SocialPlatform
	PlatformUserID string
	Username       string
	Metadata       SocialMetadata
}
