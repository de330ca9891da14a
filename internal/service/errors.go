package service

import "errors"

// Sentinel errors shared across the auth services. Handlers map these onto
// HTTP statuses and stable error_type discriminators; everything else is
// treated as an internal error.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrMalformedMessage = errors.New("message missing nonce line")
	ErrInvalidSignature = errors.New("signature verification failed")
	ErrNonceNotFound    = errors.New("no challenge outstanding")
	ErrNonceExpired     = errors.New("challenge expired")
	ErrNonceMismatch    = errors.New("nonce mismatch")

	ErrNotLinked              = errors.New("provider not linked")
	ErrAlreadyLinkedElsewhere = errors.New("provider identity linked to another wallet")
	ErrTokenExchange          = errors.New("provider token exchange failed")

	ErrSessionNotFound     = errors.New("qr session not found")
	ErrInvalidSessionState = errors.New("qr session in wrong state")

	ErrBanned = errors.New("account banned")
)
