// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file sets conservative security headers on every response. HSTS is
// only emitted when explicitly enabled and the request arrived over TLS.
package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures the SecurityHeaders middleware.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security on HTTPS responses.
	EnableHSTS bool
	// HSTSMaxAge is the max-age advertised in the HSTS header.
	HSTSMaxAge time.Duration
	// NoStore sets Cache-Control: no-store on every response.
	NoStore bool
}

// SecurityHeaders returns a middleware applying baseline hardening headers.
func SecurityHeaders(opts SecurityOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opts.NoStore {
			h.Set("Cache-Control", "no-store")
		}
		if opts.EnableHSTS && c.Request.TLS != nil {
			maxAge := int(opts.HSTSMaxAge.Seconds())
			if maxAge > 0 {
				h.Set("Strict-Transport-Security",
					fmt.Sprintf("max-age=%d; includeSubDomains", maxAge))
			}
		}
		c.Next()
	}
}
