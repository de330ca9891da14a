package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/degenduel/backend/internal/model"
)

const qrColumns = `session_token, status, user_id, session_data, expires_at, completed_at, created_at`

func scanQRSession(row interface{ Scan(...any) error }) (*model.QRAuthSession, error) {
	var s model.QRAuthSession
	var data []byte
	err := row.Scan(
		&s.SessionToken,
		&s.Status,
		&s.UserID,
		&data,
		&s.ExpiresAt,
		&s.CompletedAt,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.SessionData); err != nil {
			return nil, fmt.Errorf("failed to decode qr session data: %w", err)
		}
	}
	return &s, nil
}

func (db *Postgres) CreateQRSession(ctx context.Context, token string, data model.QRSessionData, expiresAt time.Time) (*model.QRAuthSession, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr session data: %w", err)
	}
	query := `
		INSERT INTO qr_auth_sessions (session_token, status, session_data, expires_at, created_at)
		VALUES ($1, 'pending', $2, $3, NOW())
		RETURNING ` + qrColumns
	return scanQRSession(db.Pool.QueryRow(ctx, query, token, encoded, expiresAt))
}

func (db *Postgres) GetQRSession(ctx context.Context, token string) (*model.QRAuthSession, error) {
	query := `SELECT ` + qrColumns + ` FROM qr_auth_sessions WHERE session_token = $1`
	return scanQRSession(db.Pool.QueryRow(ctx, query, token))
}

// ApproveQRSession moves pending -> approved. The WHERE clause carries the
// state and expiry checks so concurrent approvals have exactly one winner;
// no row back means the caller must classify via GetQRSession.
func (db *Postgres) ApproveQRSession(ctx context.Context, token string, userID int64, data model.QRSessionData) (*model.QRAuthSession, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr session data: %w", err)
	}
	query := `
		UPDATE qr_auth_sessions
		SET status = 'approved', user_id = $2, session_data = $3
		WHERE session_token = $1 AND status = 'pending' AND expires_at > NOW()
		RETURNING ` + qrColumns
	return scanQRSession(db.Pool.QueryRow(ctx, query, token, userID, encoded))
}

// CompleteQRSession moves approved -> completed.
func (db *Postgres) CompleteQRSession(ctx context.Context, token string) (*model.QRAuthSession, error) {
	query := `
		UPDATE qr_auth_sessions
		SET status = 'completed', completed_at = NOW()
		WHERE session_token = $1 AND status = 'approved' AND expires_at > NOW()
		RETURNING ` + qrColumns
	return scanQRSession(db.Pool.QueryRow(ctx, query, token))
}

// CancelQRSession cancels any non-completed session. Zero rows affected is
// not an error; cancel is idempotent.
func (db *Postgres) CancelQRSession(ctx context.Context, token string) error {
	query := `
		UPDATE qr_auth_sessions
		SET status = 'cancelled'
		WHERE session_token = $1 AND status IN ('pending', 'approved')
	`
	_, err := db.Pool.Exec(ctx, query, token)
	return err
}

// DeleteExpiredQRSessions is storage hygiene for terminal and expired rows.
func (db *Postgres) DeleteExpiredQRSessions(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `DELETE FROM qr_auth_sessions WHERE expires_at <= NOW() - $1::interval`
	tag, err := db.Pool.Exec(ctx, query, fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
