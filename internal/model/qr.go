package model

import "time"

type QRSessionStatus string

const (
	QRStatusPending   QRSessionStatus = "pending"
	QRStatusApproved  QRSessionStatus = "approved"
	QRStatusCompleted QRSessionStatus = "completed"
	QRStatusCancelled QRSessionStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s QRSessionStatus) Terminal() bool {
	return s == QRStatusCompleted || s == QRStatusCancelled
}

type QRAuthSession struct {
	SessionToken string
	Status       QRSessionStatus
	UserID       *int64
	SessionData  QRSessionData
	ExpiresAt    time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
}

// QRSessionData is the free-form pairing context, stored as JSONB.
type QRSessionData struct {
	RequesterIP    string     `json:"requester_ip,omitempty"`
	ApproverIP     string     `json:"approver_ip,omitempty"`
	ApproverDevice string     `json:"approver_device,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
}
