package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LewisZett/tech-part-finder/internal/auth"
)

// AuthHandlers exposes the token-issuing endpoint.
type AuthHandlers struct {
	svc *auth.Service
}

// NewAuthHandlers constructs AuthHandlers around the given auth service.
func NewAuthHandlers(svc *auth.Service) *AuthHandlers {
	return &AuthHandlers{svc: svc}
}

// Token exchanges API credentials for a short-lived bearer token used on the
// admin endpoints.
func (h *AuthHandlers) Token(c *gin.Context) {
	var creds auth.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "api_key and api_secret are required")
		return
	}

	resp, err := h.svc.GenerateToken(creds)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, resp)
}
