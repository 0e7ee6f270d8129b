package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret"

func tokenFor(t *testing.T, sub string) string {
	t.Helper()
	token, err := SignJWT(testSecret, TokenClaims{
		Sub: sub,
		Exp: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return token
}

func TestJWTRoundTrip(t *testing.T) {
	token := tokenFor(t, "acc-1")
	claims, err := VerifyJWT(testSecret, token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Sub != "acc-1" {
		t.Fatalf("sub = %q", claims.Sub)
	}
}

func TestVerifyJWTRejections(t *testing.T) {
	expired, _ := SignJWT(testSecret, TokenClaims{Sub: "acc-1", Exp: time.Now().Add(-time.Hour).Unix()})
	wrongKey, _ := SignJWT("other-secret", TokenClaims{Sub: "acc-1"})

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", wrongKey},
		{"malformed", "a.b"},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifyJWT(testSecret, tt.token); err == nil {
				t.Fatal("token accepted")
			}
		})
	}
}

func echoAccount() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(AccountIDFromContext(r.Context())))
	})
}

func TestAuthRequired(t *testing.T) {
	handler := AuthRequired(testSecret)(echoAccount())

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, "acc-1"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || rec.Body.String() != "acc-1" {
			t.Fatalf("code=%d body=%q", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("code = %d", rec.Code)
		}
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("code = %d", rec.Code)
		}
	})
}

func TestAuthOptional(t *testing.T) {
	handler := AuthOptional(testSecret)(echoAccount())

	t.Run("anonymous passes through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "" {
			t.Fatalf("code=%d body=%q", rec.Code, rec.Body.String())
		}
	})

	t.Run("valid token attaches account", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, "acc-2"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Body.String() != "acc-2" {
			t.Fatalf("body = %q", rec.Body.String())
		}
	})

	t.Run("broken token still rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("code = %d", rec.Code)
		}
	})
}
