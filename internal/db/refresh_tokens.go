package db

import (
	"context"

	"github.com/degenduel/backend/internal/model"
)

func (db *Postgres) InsertRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, wallet_address, token_hash, session_id, auth_method, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := db.Pool.Exec(ctx, query,
		token.UserID, token.WalletAddress, token.TokenHash, token.SessionID, token.AuthMethod, token.ExpiresAt)
	return err
}

func (db *Postgres) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	query := `
		SELECT id, user_id, wallet_address, token_hash, session_id, auth_method, expires_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	var token model.RefreshToken
	err := db.Pool.QueryRow(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.WalletAddress,
		&token.TokenHash,
		&token.SessionID,
		&token.AuthMethod,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// RevokeRefreshTokenByHash marks the row revoked and reports whether a live
// row was affected. Revocation is logical; rows are never deleted.
func (db *Postgres) RevokeRefreshTokenByHash(ctx context.Context, tokenHash string) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE token_hash = $1 AND revoked_at IS NULL
	`
	tag, err := db.Pool.Exec(ctx, query, tokenHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (db *Postgres) RevokeAllUserTokens(ctx context.Context, userID int64) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`
	tag, err := db.Pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RotateRefreshToken revokes the old row and inserts the replacement in one
// transaction so a crash cannot leave both tokens live.
func (db *Postgres) RotateRefreshToken(ctx context.Context, oldTokenID int64, replacement *model.RefreshToken) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err = tx.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL
	`, oldTokenID); err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, wallet_address, token_hash, session_id, auth_method, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, replacement.UserID, replacement.WalletAddress, replacement.TokenHash,
		replacement.SessionID, replacement.AuthMethod, replacement.ExpiresAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
