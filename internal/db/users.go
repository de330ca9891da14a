package db

import (
	"context"
	"strings"

	"github.com/degenduel/backend/internal/model"
)

const userColumns = `id, wallet_address, nickname, role, is_banned, ban_reason,
	kyc_status, risk_level, last_login, profile_image_url, profile_image_source,
	created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.WalletAddress,
		&user.Nickname,
		&user.Role,
		&user.IsBanned,
		&user.BanReason,
		&user.KYCStatus,
		&user.RiskLevel,
		&user.LastLogin,
		&user.ProfileImageURL,
		&user.ProfileImageSource,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertWalletUser creates the user on first login and refreshes last_login on
// every subsequent one. New users get a nickname derived from the address.
func (db *Postgres) UpsertWalletUser(ctx context.Context, walletAddress string) (*model.User, error) {
	query := `
		INSERT INTO users (wallet_address, nickname, last_login, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW(), NOW())
		ON CONFLICT (wallet_address) DO UPDATE
		SET last_login = NOW(), updated_at = NOW()
		RETURNING ` + userColumns
	return scanUser(db.Pool.QueryRow(ctx, query, walletAddress, defaultNickname(walletAddress)))
}

func (db *Postgres) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, userID))
}

func (db *Postgres) GetUserByWallet(ctx context.Context, walletAddress string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE wallet_address = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, walletAddress))
}

func (db *Postgres) TouchLastLogin(ctx context.Context, userID int64) error {
	query := `UPDATE users SET last_login = NOW(), updated_at = NOW() WHERE id = $1`
	_, err := db.Pool.Exec(ctx, query, userID)
	return err
}

// UpdateProfileImage records both the image URL and the platform it came from,
// so later syncs only overwrite images sourced from the same provider.
func (db *Postgres) UpdateProfileImage(ctx context.Context, walletAddress, imageURL, source string) error {
	query := `
		UPDATE users
		SET profile_image_url = $2, profile_image_source = $3, updated_at = NOW()
		WHERE wallet_address = $1
	`
	_, err := db.Pool.Exec(ctx, query, walletAddress, imageURL, source)
	return err
}

func defaultNickname(walletAddress string) string {
	if len(walletAddress) <= 10 {
		return "degen_" + walletAddress
	}
	return "degen_" + walletAddress[:6] + strings.ToLower(walletAddress[len(walletAddress)-4:])
}
