package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yndnr/pgpauth-go/internal/core/domain"
	"github.com/yndnr/pgpauth-go/internal/telemetry/logger"
)

// SignerCounter reports how many trusted signers are loaded.
type SignerCounter interface {
	Len() int
}

// Handler serves the application endpoints.
type Handler struct {
	signers      SignerCounter
	maxBodyBytes int64
	logger       logger.Logger
}

// DefaultMaxBodyBytes bounds echoed request bodies.
const DefaultMaxBodyBytes = 1 << 20

// New creates a Handler. signers may be nil.
func New(signers SignerCounter, maxBodyBytes int64, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		signers:      signers,
		maxBodyBytes: maxBodyBytes,
		logger:       log,
	}
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	WriteJSON(w, status, NewResponse(logger.RequestIDFromContext(r.Context()), data))
}

// WriteJSON encodes v as the response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as an error envelope with the status StatusCode
// assigns to it. Errors that are not DomainErrors are reported as
// internal errors without their text.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		logger.L(r.Context()).Error("internal error", "error", err)
		de = domain.ErrInternalServer
	}

	w.Header().Set("X-Error-Code", de.Code)
	if de.Code == domain.ErrRateLimited.Code {
		w.Header().Set("Retry-After", "1")
	}
	WriteJSON(w, StatusCode(de), NewErrorResponse(
		logger.RequestIDFromContext(r.Context()), de.Code, de.Message, de.Details))
}

// StatusCode maps an error to its HTTP status: authentication failures are
// 401, rate limiting 429, everything else not listed 500.
func StatusCode(err error) int {
	switch {
	case domain.IsAuthFailure(err):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
