package service

import (
	"context"

	"github.com/degenduel/backend/internal/db"
	"github.com/degenduel/backend/internal/logger"
	"github.com/degenduel/backend/internal/model"
)

const (
	linkStatusLinked   = "linked"
	linkStatusUnlinked = "unlinked"
	linkStatusUnknown  = "unknown"
)

type accessTokenParser interface {
	ParseAccessToken(tokenStr string) (*model.AuthUser, error)
}

type statusSocialRepo interface {
	GetSocialProfile(ctx context.Context, walletAddress string, platform model.SocialPlatform) (*model.SocialProfile, error)
}

type deviceChecker interface {
	Check(ctx context.Context, walletAddress, deviceID string) (*model.AuthorizedDevice, error)
}

// StatusService assembles the consolidated auth report the client UI renders.
// It is read-only and never a gate: each sub-check degrades independently to
// "unknown" instead of failing the whole report.
type StatusService struct {
	tokens  accessTokenParser
	social  statusSocialRepo
	devices deviceChecker
}

func NewStatusService(tokens accessTokenParser, social statusSocialRepo, devices deviceChecker) *StatusService {
	return &StatusService{tokens: tokens, social: social, devices: devices}
}

func (s *StatusService) Report(ctx context.Context, rawAccessToken, deviceID string) model.AuthStatusReport {
	report := model.AuthStatusReport{
		Links: make(map[string]model.ProviderLinkState),
	}
	for _, platform := range model.KnownPlatforms {
		report.Links[string(platform)] = model.ProviderLinkState{Status: linkStatusUnlinked}
	}

	if rawAccessToken == "" {
		return report
	}

	// An unparseable or expired token means "not authenticated", not an error.
	user, err := s.tokens.ParseAccessToken(rawAccessToken)
	if err != nil {
		return report
	}

	report.Authenticated = true
	report.Methods.JWT = model.JWTStatusReport{Active: true, Method: user.AuthMethod}

	for _, platform := range model.KnownPlatforms {
		report.Links[string(platform)] = s.linkState(ctx, user.WalletAddress, platform)
	}

	if deviceID != "" {
		report.Device = s.deviceState(ctx, user.WalletAddress, deviceID)
	}

	return report
}

func (s *StatusService) linkState(ctx context.Context, walletAddress string, platform model.SocialPlatform) model.ProviderLinkState {
	profile, err := s.social.GetSocialProfile(ctx, walletAddress, platform)
	if err != nil {
		if db.IsNoRows(err) {
			return model.ProviderLinkState{Status: linkStatusUnlinked}
		}
		logger.Warn().Err(err).Str("platform", string(platform)).Msg("link status check failed")
		return model.ProviderLinkState{Status: linkStatusUnknown}
	}
	if !profile.Verified {
		return model.ProviderLinkState{Status: linkStatusUnlinked}
	}
	return model.ProviderLinkState{Status: linkStatusLinked, Username: profile.Username}
}

func (s *StatusService) deviceState(ctx context.Context, walletAddress, deviceID string) *model.DeviceStatusReport {
	device, err := s.devices.Check(ctx, walletAddress, deviceID)
	if err != nil {
		logger.Warn().Err(err).Msg("device status check failed")
		return &model.DeviceStatusReport{Status: linkStatusUnknown}
	}
	if device == nil || !device.IsActive {
		status := DeviceStatusPending
		if device == nil {
			status = linkStatusUnknown
		}
		return &model.DeviceStatusReport{Status: status}
	}
	return &model.DeviceStatusReport{Status: DeviceStatusAuthorized, DeviceName: device.DeviceName}
}
