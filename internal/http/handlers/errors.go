// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These symbolic constants are mapped to HTTP responses via the fail() helper
// in this package and give clients a stable, machine-readable error taxonomy
// that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes (bad_request, unauthorized, conflict, ...) mirror common
//     HTTP status semantics.
//   - Domain-specific codes (account_locked, not_friends, ...) convey business
//     outcomes that the status alone cannot.
package handlers

import "github.com/tbourn/go-social-backend/internal/http/middleware"

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = middleware.CodeRateLimited
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeAccountLocked      = "account_locked"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeInvalidResetCode   = "invalid_reset_code"
	ErrCodeMethodNotAllowed   = "method_not_allowed"
)
