package model

import "time"

type AuthorizedDevice struct {
	ID            int64
	WalletAddress string
	DeviceID      string
	DeviceName    string
	DeviceType    string
	IsActive      bool
	LastUsed      time.Time
	CreatedAt     time.Time
}

// DeviceInfo is the client-supplied device descriptor carried alongside a
// login request. All fields are optional; an empty DeviceID disables tracking.
type DeviceInfo struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
	DeviceType string `json:"device_type"`
}
