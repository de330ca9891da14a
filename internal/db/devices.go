package db

import (
	"context"

	"github.com/degenduel/backend/internal/model"
)

const deviceColumns = `id, wallet_address, device_id, device_name, device_type,
	is_active, last_used, created_at`

func scanDevice(row interface{ Scan(...any) error }) (*model.AuthorizedDevice, error) {
	var d model.AuthorizedDevice
	err := row.Scan(
		&d.ID,
		&d.WalletAddress,
		&d.DeviceID,
		&d.DeviceName,
		&d.DeviceType,
		&d.IsActive,
		&d.LastUsed,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (db *Postgres) CountDevices(ctx context.Context, walletAddress string) (int64, error) {
	var count int64
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM authorized_devices WHERE wallet_address = $1`,
		walletAddress,
	).Scan(&count)
	return count, err
}

// UpsertDevice relies on the (wallet_address, device_id) unique constraint:
// an existing row keeps its is_active flag and only refreshes metadata and
// last_used; a new row takes activeIfNew.
func (db *Postgres) UpsertDevice(ctx context.Context, walletAddress string, info model.DeviceInfo, activeIfNew bool) (*model.AuthorizedDevice, error) {
	query := `
		INSERT INTO authorized_devices (wallet_address, device_id, device_name, device_type, is_active, last_used, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (wallet_address, device_id) DO UPDATE
		SET device_name = EXCLUDED.device_name,
		    device_type = EXCLUDED.device_type,
		    last_used = NOW()
		RETURNING ` + deviceColumns
	return scanDevice(db.Pool.QueryRow(ctx, query,
		walletAddress, info.DeviceID, info.DeviceName, info.DeviceType, activeIfNew))
}

func (db *Postgres) GetDevice(ctx context.Context, walletAddress, deviceID string) (*model.AuthorizedDevice, error) {
	query := `SELECT ` + deviceColumns + ` FROM authorized_devices WHERE wallet_address = $1 AND device_id = $2`
	return scanDevice(db.Pool.QueryRow(ctx, query, walletAddress, deviceID))
}
