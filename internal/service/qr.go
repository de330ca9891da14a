package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/degenduel/backend/internal/db"
	"github.com/degenduel/backend/internal/logger"
	"github.com/degenduel/backend/internal/model"
)

const (
	qrSessionTTL = 5 * time.Minute

	// 32 bytes of entropy; the token's unguessability is the sole binding
	// between the desktop and mobile sides of the flow.
	qrTokenBytes = 32
)

type QRRepo interface {
	CreateQRSession(ctx context.Context, token string, data model.QRSessionData, expiresAt time.Time) (*model.QRAuthSession, error)
	GetQRSession(ctx context.Context, token string) (*model.QRAuthSession, error)
	ApproveQRSession(ctx context.Context, token string, userID int64, data model.QRSessionData) (*model.QRAuthSession, error)
	CompleteQRSession(ctx context.Context, token string) (*model.QRAuthSession, error)
	CancelQRSession(ctx context.Context, token string) error
}

// QRService is the cross-device pairing state machine: an anonymous desktop
// creates a session, an authenticated mobile approves it, the desktop then
// completes it and receives tokens. State transitions are conditional updates
// in the store, so concurrent calls resolve to exactly one winner.
type QRService struct {
	repo     QRRepo
	sessions *LoginService
}

func NewQRService(repo QRRepo, sessions *LoginService) *QRService {
	return &QRService{repo: repo, sessions: sessions}
}

func (s *QRService) Create(ctx context.Context, requesterIP string) (*model.QRAuthSession, error) {
	raw := make([]byte, qrTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	return s.repo.CreateQRSession(ctx, token, model.QRSessionData{
		RequesterIP: requesterIP,
	}, time.Now().Add(qrSessionTTL))
}

// Approve moves a pending session to approved on behalf of the authenticated
// mobile caller, recording who approved from where.
func (s *QRService) Approve(ctx context.Context, token string, approver *model.AuthUser, approverIP, approverDevice string) error {
	now := time.Now()
	_, err := s.repo.ApproveQRSession(ctx, token, approver.ID, model.QRSessionData{
		ApproverIP:     approverIP,
		ApproverDevice: approverDevice,
		ApprovedAt:     &now,
	})
	if err != nil {
		if db.IsNoRows(err) {
			return s.classifyMiss(ctx, token, model.QRStatusPending)
		}
		return err
	}
	return nil
}

// Complete finishes an approved session: the desktop side receives the same
// token pair a direct login would produce.
func (s *QRService) Complete(ctx context.Context, token string) (*LoginResult, error) {
	session, err := s.repo.CompleteQRSession(ctx, token)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, s.classifyMiss(ctx, token, model.QRStatusApproved)
		}
		return nil, err
	}
	if session.UserID == nil {
		// Approved rows always carry the approver; treat a bare one as state
		// corruption rather than handing out tokens.
		return nil, ErrInvalidSessionState
	}

	user, err := s.sessions.GetUser(ctx, *session.UserID)
	if err != nil {
		return nil, err
	}

	result, err := s.sessions.IssueSession(ctx, user, model.AuthMethodQRCode, nil)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.users.TouchLastLogin(ctx, user.ID); err != nil {
		logger.Warn().Err(err).Int64("user_id", user.ID).Msg("last_login update failed after qr login")
	}
	return result, nil
}

// Cancel is idempotent; cancelling an unknown or already-terminal session is
// not an error.
func (s *QRService) Cancel(ctx context.Context, token string) error {
	return s.repo.CancelQRSession(ctx, token)
}

// Poll reports the session status without mutating it. Expired non-terminal
// sessions read as not found.
func (s *QRService) Poll(ctx context.Context, token string) (model.QRSessionStatus, error) {
	session, err := s.repo.GetQRSession(ctx, token)
	if err != nil {
		if db.IsNoRows(err) {
			return "", ErrSessionNotFound
		}
		return "", err
	}
	if !session.Status.Terminal() && time.Now().After(session.ExpiresAt) {
		return "", ErrSessionNotFound
	}
	return session.Status, nil
}

// classifyMiss distinguishes "no such session / expired" from "session exists
// but is in the wrong state" after a conditional transition found no row.
func (s *QRService) classifyMiss(ctx context.Context, token string, wanted model.QRSessionStatus) error {
	session, err := s.repo.GetQRSession(ctx, token)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrSessionNotFound
		}
		return err
	}
	if !session.Status.Terminal() && time.Now().After(session.ExpiresAt) {
		return ErrSessionNotFound
	}
	logger.Warn().
		Str("token", truncateID(token)).
		Str("status", string(session.Status)).
		Str("wanted", string(wanted)).
		Msg("qr session transition rejected")
	return ErrInvalidSessionState
}
