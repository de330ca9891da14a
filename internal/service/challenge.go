package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/degenduel/backend/internal/db"
	"github.com/degenduel/backend/internal/model"
	"github.com/mr-tron/base58"
)

const (
	challengeTTL = 5 * time.Minute
	nonceBytes   = 32

	// The signed message must contain a line of the form "Nonce: <value>".
	noncePrefix = "Nonce:"
)

type ChallengeRepo interface {
	UpsertChallenge(ctx context.Context, walletAddress, nonce string, expiresAt time.Time) error
	ConsumeChallenge(ctx context.Context, walletAddress, nonce string) (bool, error)
	GetChallenge(ctx context.Context, walletAddress string) (*model.Challenge, error)
	DeleteChallenge(ctx context.Context, walletAddress string) error
}

// ChallengeService issues single-use login nonces and verifies wallet
// signatures over them.
type ChallengeService struct {
	repo ChallengeRepo
}

func NewChallengeService(repo ChallengeRepo) *ChallengeService {
	return &ChallengeService{repo: repo}
}

// Issue creates a fresh nonce for the wallet, replacing any outstanding one.
func (s *ChallengeService) Issue(ctx context.Context, walletAddress string) (*model.Challenge, error) {
	if _, err := ParseWalletAddress(walletAddress); err != nil {
		return nil, err
	}

	raw := make([]byte, nonceBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	nonce := hex.EncodeToString(raw)

	now := time.Now()
	expiresAt := now.Add(challengeTTL)
	if err := s.repo.UpsertChallenge(ctx, walletAddress, nonce, expiresAt); err != nil {
		return nil, err
	}

	return &model.Challenge{
		WalletAddress: walletAddress,
		Nonce:         nonce,
		IssuedAt:      now,
		ExpiresAt:     expiresAt,
	}, nil
}

// Verify proves the wallet's key signed the presented message. The nonce is
// consumed atomically before the Ed25519 check, so a failed signature still
// burns it; only a mismatching nonce leaves the challenge intact for retry.
func (s *ChallengeService) Verify(ctx context.Context, walletAddress, message string, signature []byte) error {
	pubKey, err := ParseWalletAddress(walletAddress)
	if err != nil {
		return err
	}
	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("%w: signature must be %d bytes", ErrInvalidInput, ed25519.SignatureSize)
	}

	nonce, err := extractNonce(message)
	if err != nil {
		return err
	}

	if err := s.consume(ctx, walletAddress, nonce); err != nil {
		return err
	}

	// Verification runs over the literal message bytes the client signed,
	// never a reconstructed message.
	if !ed25519.Verify(pubKey, []byte(message), signature) {
		return ErrInvalidSignature
	}
	return nil
}

// consume deletes the challenge iff the presented nonce matches the stored,
// unexpired one. On a miss it classifies the failure; an expired row is
// removed as a side effect so the wallet can immediately request a new one.
func (s *ChallengeService) consume(ctx context.Context, walletAddress, nonce string) error {
	consumed, err := s.repo.ConsumeChallenge(ctx, walletAddress, nonce)
	if err != nil {
		return err
	}
	if consumed {
		return nil
	}

	stored, err := s.repo.GetChallenge(ctx, walletAddress)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrNonceNotFound
		}
		return err
	}
	if time.Now().After(stored.ExpiresAt) {
		if err := s.repo.DeleteChallenge(ctx, walletAddress); err != nil {
			return err
		}
		return ErrNonceExpired
	}
	if stored.Nonce != nonce {
		return ErrNonceMismatch
	}
	// Matching, unexpired row but the conditional delete missed: a concurrent
	// verify consumed it first.
	return ErrNonceNotFound
}

// ParseWalletAddress decodes a base58 Solana address into its Ed25519 public
// key.
func ParseWalletAddress(walletAddress string) (ed25519.PublicKey, error) {
	if walletAddress == "" {
		return nil, ErrInvalidAddress
	}
	decoded, err := base58.Decode(walletAddress)
	if err != nil || len(decoded) != ed25519.PublicKeySize {
		return nil, ErrInvalidAddress
	}
	return ed25519.PublicKey(decoded), nil
}

func extractNonce(message string) (string, error) {
	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, noncePrefix) {
			nonce := strings.TrimSpace(strings.TrimPrefix(line, noncePrefix))
			if nonce == "" {
				return "", ErrMalformedMessage
			}
			return nonce, nil
		}
	}
	return "", ErrMalformedMessage
}
