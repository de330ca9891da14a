package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/degenduel/backend/internal/model"
)

const socialColumns = `wallet_address, platform, platform_user_id, username,
	verified, verified_at, last_verified, metadata, created_at, updated_at`

func scanSocialProfile(row interface{ Scan(...any) error }) (*model.SocialProfile, error) {
	var p model.SocialProfile
	var metadata []byte
	err := row.Scan(
		&p.WalletAddress,
		&p.Platform,
		&p.PlatformUserID,
		&p.Username,
		&p.Verified,
		&p.VerifiedAt,
		&p.LastVerified,
		&metadata,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode social metadata: %w", err)
		}
	}
	return &p, nil
}

func (db *Postgres) GetSocialProfile(ctx context.Context, walletAddress string, platform model.SocialPlatform) (*model.SocialProfile, error) {
	query := `SELECT ` + socialColumns + ` FROM social_profiles WHERE wallet_address = $1 AND platform = $2`
	return scanSocialProfile(db.Pool.QueryRow(ctx, query, walletAddress, platform))
}

// FindSocialProfileByPlatformID resolves a verified provider identity to the
// wallet it is bound to. Used both for provider login and for the
// linked-elsewhere guard.
func (db *Postgres) FindSocialProfileByPlatformID(ctx context.Context, platform model.SocialPlatform, platformUserID string) (*model.SocialProfile, error) {
	query := `SELECT ` + socialColumns + ` FROM social_profiles WHERE platform = $1 AND platform_user_id = $2`
	return scanSocialProfile(db.Pool.QueryRow(ctx, query, platform, platformUserID))
}

// UpsertSocialProfile creates or refreshes the (wallet, platform) binding,
// marking it verified and stamping last_verified.
func (db *Postgres) UpsertSocialProfile(ctx context.Context, walletAddress string, identity model.ProviderIdentity) (*model.SocialProfile, error) {
	metadata, err := json.Marshal(identity.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode social metadata: %w", err)
	}

	query := `
		INSERT INTO social_profiles (wallet_address, platform, platform_user_id, username,
			verified, verified_at, last_verified, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW(), $5, NOW(), NOW())
		ON CONFLICT (wallet_address, platform) DO UPDATE
		SET platform_user_id = EXCLUDED.platform_user_id,
		    username = EXCLUDED.username,
		    verified = TRUE,
		    last_verified = NOW(),
		    metadata = EXCLUDED.metadata,
		    updated_at = NOW()
		RETURNING ` + socialColumns
	return scanSocialProfile(db.Pool.QueryRow(ctx, query,
		walletAddress, identity.Platform, identity.PlatformUserID, identity.Username, metadata))
}
