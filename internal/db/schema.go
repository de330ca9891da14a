package db

import "context"

// EnsureSchema creates the auth tables if they do not exist. Composite unique
// constraints back the upsert paths; concurrent first-writes resolve at the
// storage layer rather than with check-then-insert.
func (db *Postgres) EnsureSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			wallet_address TEXT NOT NULL UNIQUE,
			nickname TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'user',
			is_banned BOOLEAN NOT NULL DEFAULT FALSE,
			ban_reason TEXT,
			kyc_status TEXT NOT NULL DEFAULT 'none',
			risk_level TEXT NOT NULL DEFAULT 'low',
			last_login TIMESTAMPTZ,
			profile_image_url TEXT,
			profile_image_source TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`
		CREATE TABLE IF NOT EXISTS challenges (
			wallet_address TEXT PRIMARY KEY,
			nonce TEXT NOT NULL,
			issued_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL
		)
		`,
		`
		CREATE TABLE IF NOT EXISTS refresh_tokens (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			wallet_address TEXT NOT NULL,
			token_hash TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL DEFAULT '',
			auth_method TEXT NOT NULL DEFAULT 'wallet',
			expires_at TIMESTAMPTZ NOT NULL,
			revoked_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`CREATE INDEX IF NOT EXISTS refresh_tokens_user_id_idx ON refresh_tokens(user_id)`,
		`
		CREATE TABLE IF NOT EXISTS authorized_devices (
			id BIGSERIAL PRIMARY KEY,
			wallet_address TEXT NOT NULL,
			device_id TEXT NOT NULL,
			device_name TEXT NOT NULL DEFAULT '',
			device_type TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			last_used TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (wallet_address, device_id)
		)
		`,
		`
		CREATE TABLE IF NOT EXISTS social_profiles (
			wallet_address TEXT NOT NULL,
			platform TEXT NOT NULL,
			platform_user_id TEXT NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			verified_at TIMESTAMPTZ,
			last_verified TIMESTAMPTZ,
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (wallet_address, platform)
		)
		`,
		`CREATE INDEX IF NOT EXISTS social_profiles_platform_uid_idx ON social_profiles(platform, platform_user_id)`,
		`
		CREATE TABLE IF NOT EXISTS qr_auth_sessions (
			session_token TEXT PRIMARY KEY,
			status TEXT NOT NULL DEFAULT 'pending',
			user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
			session_data JSONB NOT NULL DEFAULT '{}',
			expires_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}
