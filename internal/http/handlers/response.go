// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all
// endpoints: a structured error envelope carrying the request correlation
// ID, and small helpers for success and no-content responses.
package handlers

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the uniform error envelope for all endpoints.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// requestID extracts the correlation id set by the RequestID middleware.
func requestID(c *gin.Context) string {
	if v, ok := c.Get("requestID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return c.Writer.Header().Get("X-Request-ID")
}

// ok writes a JSON success response.
func ok(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// noContent writes an empty 204 response.
func noContent(c *gin.Context) {
	c.Status(204)
}

// fail writes a structured error envelope.
func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{
		RequestID: requestID(c),
		Code:      code,
		Message:   message,
	})
}

// Fail is the exported variant used by router-level fallbacks (NoRoute,
// NoMethod).
func Fail(c *gin.Context, status int, code, message string) {
	fail(c, status, code, message)
}
