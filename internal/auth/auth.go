// Package auth provides JWT-based authentication for the API. Credentials
// are exchanged for a signed token carrying the client identity; the Gin
// middleware validates Bearer tokens and exposes the authenticated user id
// to downstream handlers. The auto-match sweep endpoint is strictly gated
// on a valid identity because its rate limiter and audit log are keyed on
// that identity.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidCredentials is returned when the presented API key/secret
	// pair is unknown.
	ErrInvalidCredentials = errors.New("invalid API credentials")
	// ErrInvalidToken is returned when a token fails validation.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// ContextUserKey is the Gin context key under which the authenticated user
// id is stored.
const ContextUserKey = "userID"

// Credentials is the payload for the token endpoint.
type Credentials struct {
	APIKey    string `json:"api_key" binding:"required"`
	APISecret string `json:"api_secret" binding:"required"`
}

// TokenResponse is the issued token and its expiry.
type TokenResponse struct {
	Token      string    `json:"token"`
	Expiration time.Time `json:"expiration"`
}

// Claims carries the authenticated client identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Service issues and validates tokens.
type Service struct {
	jwtSecret   []byte
	tokenTTL    time.Duration
	credentials map[string]string // api key -> secret
}

// NewService creates an authentication service with the given signing
// secret and a 24h token lifetime.
func NewService(jwtSecret string) *Service {
	return &Service{
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    24 * time.Hour,
		credentials: make(map[string]string),
	}
}

// RegisterCredentials adds an accepted API key/secret pair. The key doubles
// as the user identity carried in issued tokens.
func (s *Service) RegisterCredentials(apiKey, apiSecret string) {
	s.credentials[apiKey] = apiSecret
}

// GenerateToken validates credentials and returns a signed JWT.
func (s *Service) GenerateToken(creds Credentials) (*TokenResponse, error) {
	secret, ok := s.credentials[creds.APIKey]
	if !ok || secret != creds.APISecret {
		return nil, ErrInvalidCredentials
	}

	expiration := time.Now().Add(s.tokenTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
		UserID: creds.APIKey,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{Token: signed, Expiration: expiration}, nil
}

// ValidateToken parses and verifies a signed token, returning its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware returns a Gin middleware that requires a valid Bearer token
// and stores the authenticated user id in the context.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "missing bearer token",
			})
			return
		}
		claims, err := s.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "invalid or expired token",
			})
			return
		}
		c.Set(ContextUserKey, claims.UserID)
		c.Next()
	}
}
