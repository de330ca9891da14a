package model

type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type,omitempty"`
	Detail    string `json:"detail,omitempty"` // populated in development only
}

type StatusResponse struct {
	Status string `json:"status"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type AuthLogoutResponse struct {
	Status string `json:"status"`
}

type AuthMeResponse struct {
	UserID        int64      `json:"user_id"`
	WalletAddress string     `json:"wallet_address"`
	Role          UserRole   `json:"role"`
	AuthMethod    AuthMethod `json:"auth_method"`
}

// AuthStatusReport is the aggregated view of every auth method's state for
// the current caller. Sub-sections degrade independently.
type AuthStatusReport struct {
	Authenticated bool                         `json:"authenticated"`
	Methods       AuthMethodsReport            `json:"methods"`
	Links         map[string]ProviderLinkState `json:"links"`
	Device        *DeviceStatusReport          `json:"device,omitempty"`
}

type AuthMethodsReport struct {
	JWT JWTStatusReport `json:"jwt"`
}

type JWTStatusReport struct {
	Active bool       `json:"active"`
	Method AuthMethod `json:"method,omitempty"`
}

type ProviderLinkState struct {
	Status   string `json:"status"` // linked | unlinked | unknown
	Username string `json:"username,omitempty"`
}

type DeviceStatusReport struct {
	Status     string `json:"status"` // authorized | pending | unknown
	DeviceName string `json:"device_name,omitempty"`
}
