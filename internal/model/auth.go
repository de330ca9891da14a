package model

import "time"

type ChallengeRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
}

type ChallengeResponse struct {
	Nonce     string    `json:"nonce"`
	ExpiresAt time.Time `json:"expires_at"`
}

type VerifyWalletRequest struct {
	WalletAddress string      `json:"wallet_address" binding:"required"`
	Message       string      `json:"message" binding:"required"`
	Signature     string      `json:"signature" binding:"required"` // base64, 64 bytes decoded
	Device        *DeviceInfo `json:"device,omitempty"`
}

type DevLoginRequest struct {
	Secret        string `json:"secret" binding:"required"`
	WalletAddress string `json:"wallet_address" binding:"required"`
}

type PrivyLoginRequest struct {
	Token string `json:"token" binding:"required"`
}

type UserSummary struct {
	ID              int64    `json:"id"`
	WalletAddress   string   `json:"wallet_address"`
	Nickname        string   `json:"nickname"`
	Role            UserRole `json:"role"`
	ProfileImageURL *string  `json:"profile_image_url,omitempty"`
}

func SummarizeUser(u *User) UserSummary {
	return UserSummary{
		ID:              u.ID,
		WalletAddress:   u.WalletAddress,
		Nickname:        u.Nickname,
		Role:            u.Role,
		ProfileImageURL: u.ProfileImageURL,
	}
}

type LoginResponse struct {
	User         UserSummary `json:"user"`
	ExpiresIn    int64       `json:"expires_in"`
	DeviceStatus string      `json:"device_status,omitempty"` // authorized | pending | untracked
}

type RefreshResponse struct {
	ExpiresIn int64 `json:"expires_in"`
}

type QRCreateResponse struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type QRPollResponse struct {
	Status QRSessionStatus `json:"status"`
}
