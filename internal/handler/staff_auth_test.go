package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/observability"
	"github.com/gin-gonic/gin"
)

type stubVerifier map[string]string

func (v stubVerifier) VerifyToken(_ context.Context, token string) (string, error) {
	if email, ok := v[token]; ok {
		return email, nil
	}
	return "", errors.New("invalid token")
}

func newAuthRouter(mode, token string, verifier TokenVerifier) (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	staff := new(string)

	r := gin.New()
	r.GET("/api/clients", StaffAuthMiddlewareWith(mode, token, verifier), func(c *gin.Context) {
		*staff = c.GetString(observability.StaffKey)
		c.Status(http.StatusOK)
	})
	return r, staff
}

func doAuth(r *gin.Engine, header, value string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestStaffAuthMiddlewareWith_Required(t *testing.T) {
	r, staff := newAuthRouter("required", "secret", stubVerifier{"session": "ana@smartlegal.com"})

	t.Run("missing token", func(t *testing.T) {
		if code := doAuth(r, "", ""); code != http.StatusUnauthorized {
			t.Fatalf("expected %d, got %d", http.StatusUnauthorized, code)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		if code := doAuth(r, "Authorization", "Bearer wrong"); code != http.StatusUnauthorized {
			t.Fatalf("expected %d, got %d", http.StatusUnauthorized, code)
		}
	})

	t.Run("static token", func(t *testing.T) {
		if code := doAuth(r, "X-Staff-Token", "secret"); code != http.StatusOK {
			t.Fatalf("expected %d, got %d", http.StatusOK, code)
		}
		if *staff != staffTokenUser {
			t.Fatalf("expected staff %q, got %q", staffTokenUser, *staff)
		}
	})

	t.Run("session token", func(t *testing.T) {
		if code := doAuth(r, "Authorization", "Bearer session"); code != http.StatusOK {
			t.Fatalf("expected %d, got %d", http.StatusOK, code)
		}
		if *staff != "ana@smartlegal.com" {
			t.Fatalf("expected staff e-mail, got %q", *staff)
		}
	})
}

func TestStaffAuthMiddlewareWith_Optional(t *testing.T) {
	r, _ := newAuthRouter("optional", "secret", nil)
	if code := doAuth(r, "", ""); code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, code)
	}
	if code := doAuth(r, "Authorization", "Bearer wrong"); code != http.StatusUnauthorized {
		t.Fatalf("expected %d, got %d", http.StatusUnauthorized, code)
	}
}

func TestStaffAuthMiddlewareWith_Disabled(t *testing.T) {
	r, _ := newAuthRouter("disabled", "", nil)
	if code := doAuth(r, "", ""); code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, code)
	}
}

func TestStaffAuthMiddlewareWith_NotConfigured(t *testing.T) {
	r, _ := newAuthRouter("required", "", nil)
	if code := doAuth(r, "Authorization", "Bearer anything"); code != http.StatusServiceUnavailable {
		t.Fatalf("expected %d, got %d", http.StatusServiceUnavailable, code)
	}
}
