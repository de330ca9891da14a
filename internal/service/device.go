package service

import (
	"context"

	"github.com/degenduel/backend/internal/db"
	"github.com/degenduel/backend/internal/model"
)

type DeviceRepo interface {
	CountDevices(ctx context.Context, walletAddress string) (int64, error)
	UpsertDevice(ctx context.Context, walletAddress string, info model.DeviceInfo, activeIfNew bool) (*model.AuthorizedDevice, error)
	GetDevice(ctx context.Context, walletAddress, deviceID string) (*model.AuthorizedDevice, error)
}

// DeviceService tracks which devices act for a wallet. Recording is
// best-effort from the login path's point of view: callers swallow errors.
type DeviceService struct {
	repo               DeviceRepo
	autoAuthorizeFirst bool
}

func NewDeviceService(repo DeviceRepo, autoAuthorizeFirst bool) *DeviceService {
	return &DeviceService{repo: repo, autoAuthorizeFirst: autoAuthorizeFirst}
}

// Record upserts the (wallet, device) row. A known device keeps its current
// authorization flag and only refreshes metadata and last_used. The first
// device ever seen for a wallet is created active when policy allows;
// any later unknown device starts inactive pending explicit authorization.
func (s *DeviceService) Record(ctx context.Context, walletAddress string, info model.DeviceInfo) (*model.AuthorizedDevice, error) {
	if info.DeviceID == "" {
		return nil, ErrInvalidInput
	}

	activeIfNew := false
	if s.autoAuthorizeFirst {
		count, err := s.repo.CountDevices(ctx, walletAddress)
		if err != nil {
			return nil, err
		}
		activeIfNew = count == 0
	}

	return s.repo.UpsertDevice(ctx, walletAddress, info, activeIfNew)
}

// Check returns the device record, or (nil, nil) when the device is unknown.
func (s *DeviceService) Check(ctx context.Context, walletAddress, deviceID string) (*model.AuthorizedDevice, error) {
	device, err := s.repo.GetDevice(ctx, walletAddress, deviceID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return device, nil
}
