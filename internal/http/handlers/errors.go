// Package handlers provides HTTP handler implementations for the public API.
// This file enumerates the stable machine-readable error codes carried in
// error envelopes, so clients can branch on code rather than message text.
package handlers

// Error codes returned in the ErrorResponse envelope.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal_error"
)
