package handler

import (
	"errors"
	"net/http"

	"github.com/degenduel/backend/internal/model"
	"github.com/degenduel/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// writeAuthError maps service sentinels onto HTTP statuses with a stable
// error_type discriminator. Signature and nonce-mismatch failures collapse
// into a generic unauthorized so the response does not reveal which check
// tripped. Raw error detail is only attached in debug mode.
func writeAuthError(c *gin.Context, err error) {
	status, errType, message := classifyError(err)

	resp := model.ErrorResponse{Error: message, ErrorType: errType}
	if gin.Mode() == gin.DebugMode {
		resp.Detail = err.Error()
	}
	c.JSON(status, resp)
}

func classifyError(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input", "invalid input"
	case errors.Is(err, service.ErrInvalidAddress):
		return http.StatusBadRequest, "invalid_address", "invalid wallet address"
	case errors.Is(err, service.ErrMalformedMessage):
		return http.StatusBadRequest, "malformed_message", "message missing nonce line"
	case errors.Is(err, service.ErrNonceNotFound):
		return http.StatusUnauthorized, "challenge_not_found", "no active challenge"
	case errors.Is(err, service.ErrNonceExpired):
		return http.StatusUnauthorized, "challenge_expired", "challenge expired"
	case errors.Is(err, service.ErrNonceMismatch), errors.Is(err, service.ErrInvalidSignature):
		return http.StatusUnauthorized, "unauthorized", "verification failed"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "unauthorized"
	case errors.Is(err, service.ErrBanned):
		return http.StatusForbidden, "banned", "account banned"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden", "forbidden"
	case errors.Is(err, service.ErrNotLinked):
		return http.StatusNotFound, "not_linked", "provider not linked"
	case errors.Is(err, service.ErrAlreadyLinkedElsewhere):
		return http.StatusConflict, "already_linked", "identity linked to another account"
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "invalid_session", "session not found"
	case errors.Is(err, service.ErrInvalidSessionState):
		return http.StatusBadRequest, "state_mismatch", "session in wrong state"
	case errors.Is(err, service.ErrTokenExchange):
		return http.StatusBadGateway, "token_exchange", "provider exchange failed"
	default:
		return http.StatusInternalServerError, "server_error", "server error"
	}
}
