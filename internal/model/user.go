package model

import "time"

type UserRole string

const (
	RoleUser       UserRole = "user"
	RoleAdmin      UserRole = "admin"
	RoleSuperadmin UserRole = "superadmin"
)

// AuthMethod identifies how a session was established. It is embedded in the
// access token claims so downstream consumers can distinguish login paths.
type AuthMethod string

const (
	AuthMethodWallet   AuthMethod = "wallet"
	AuthMethodDiscord  AuthMethod = "discord"
	AuthMethodTwitter  AuthMethod = "twitter"
	AuthMethodPrivy    AuthMethod = "privy"
	AuthMethodDevLogin AuthMethod = "dev_login"
	AuthMethodQRCode   AuthMethod = "qr_code"
)

type User struct {
	ID                 int64
	WalletAddress      string
	Nickname           string
	Role               UserRole
	IsBanned           bool
	BanReason          *string
	KYCStatus          string
	RiskLevel          string
	LastLogin          *time.Time
	ProfileImageURL    *string
	ProfileImageSource *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AuthUser is the identity attached to a request after access-token
// verification. It carries claims only, never database state.
type AuthUser struct {
	ID            int64
	WalletAddress string
	Role          UserRole
	SessionID     string
	AuthMethod    AuthMethod
}

type RefreshToken struct {
	ID            int64
	UserID        int64
	WalletAddress string
	TokenHash     string
	SessionID     string
	AuthMethod    AuthMethod
	ExpiresAt     time.Time
	RevokedAt     *time.Time
	CreatedAt     time.Time
}

// Challenge is the single outstanding login nonce for a wallet.
type Challenge struct {
	WalletAddress string
	Nonce         string
	IssuedAt      time.Time
	ExpiresAt     time.Time
}
