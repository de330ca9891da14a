package db

import (
	"context"
	"time"

	"github.com/degenduel/backend/internal/model"
)

// UpsertChallenge replaces any outstanding nonce for the wallet. Last write
// wins; only the stored value will verify.
func (db *Postgres) UpsertChallenge(ctx context.Context, walletAddress, nonce string, expiresAt time.Time) error {
	query := `
		INSERT INTO challenges (wallet_address, nonce, issued_at, expires_at)
		VALUES ($1, $2, NOW(), $3)
		ON CONFLICT (wallet_address) DO UPDATE
		SET nonce = EXCLUDED.nonce, issued_at = NOW(), expires_at = EXCLUDED.expires_at
	`
	_, err := db.Pool.Exec(ctx, query, walletAddress, nonce, expiresAt)
	return err
}

// ConsumeChallenge atomically deletes the challenge iff the nonce matches and
// has not expired. Exactly one concurrent caller can win the delete, which is
// what makes the nonce single-use.
func (db *Postgres) ConsumeChallenge(ctx context.Context, walletAddress, nonce string) (bool, error) {
	query := `
		DELETE FROM challenges
		WHERE wallet_address = $1 AND nonce = $2 AND expires_at > NOW()
	`
	tag, err := db.Pool.Exec(ctx, query, walletAddress, nonce)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (db *Postgres) GetChallenge(ctx context.Context, walletAddress string) (*model.Challenge, error) {
	query := `
		SELECT wallet_address, nonce, issued_at, expires_at
		FROM challenges
		WHERE wallet_address = $1
	`
	var ch model.Challenge
	err := db.Pool.QueryRow(ctx, query, walletAddress).Scan(
		&ch.WalletAddress,
		&ch.Nonce,
		&ch.IssuedAt,
		&ch.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (db *Postgres) DeleteChallenge(ctx context.Context, walletAddress string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM challenges WHERE wallet_address = $1`, walletAddress)
	return err
}

// DeleteExpiredChallenges is storage hygiene; expiry itself is enforced at
// read time.
func (db *Postgres) DeleteExpiredChallenges(ctx context.Context) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM challenges WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
