package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func newTestService() *Service {
	s := NewService("test-signing-secret")
	s.RegisterCredentials("key-1", "secret-1")
	return s
}

func TestGenerateToken_ValidCredentials(t *testing.T) {
	s := newTestService()

	resp, err := s.GenerateToken(Credentials{APIKey: "key-1", APISecret: "secret-1"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a signed token")
	}
	if !resp.Expiration.After(time.Now().Add(23 * time.Hour)) {
		t.Fatalf("expected ~24h expiry, got %v", resp.Expiration)
	}

	claims, err := s.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "key-1" {
		t.Fatalf("claims.UserID = %q", claims.UserID)
	}
}

func TestGenerateToken_InvalidCredentials(t *testing.T) {
	s := newTestService()

	cases := []Credentials{
		{APIKey: "key-1", APISecret: "wrong"},
		{APIKey: "unknown", APISecret: "secret-1"},
		{},
	}
	for _, creds := range cases {
		if _, err := s.GenerateToken(creds); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("creds %+v: expected ErrInvalidCredentials, got %v", creds, err)
		}
	}
}

func TestValidateToken_RejectsGarbageAndWrongKey(t *testing.T) {
	s := newTestService()

	if _, err := s.ValidateToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	// Token signed with a different secret.
	other := NewService("other-secret")
	other.RegisterCredentials("key-1", "secret-1")
	resp, err := other.GenerateToken(Credentials{APIKey: "key-1", APISecret: "secret-1"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := s.ValidateToken(resp.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	s := newTestService()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
		UserID: "key-1",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-signing-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := s.ValidateToken(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestMiddleware_GatesRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newTestService()

	r := gin.New()
	r.GET("/protected", s.Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserKey))
	})

	// No header.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no header: status %d", w.Code)
	}

	// Malformed scheme.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong scheme: status %d", w.Code)
	}

	// Valid token.
	resp, err := s.GenerateToken(Credentials{APIKey: "key-1", APISecret: "secret-1"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "key-1" {
		t.Fatalf("valid token: status %d body %q", w.Code, w.Body.String())
	}
}
