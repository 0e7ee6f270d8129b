package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveCountry(t *testing.T) {
	lookup := func(ip string) (string, error) {
		if ip == "203.0.113.7" {
			return "CH", nil
		}
		return "", errors.New("unknown ip")
	}

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		want    string
	}{
		{"header hint wins", func(r *http.Request) {
			r.Header.Set("CF-IPCountry", "us")
			r.Header.Set("Accept-Language", "de-DE")
		}, "US"},
		{"accept-language region", func(r *http.Request) {
			r.Header.Set("Accept-Language", "en-GB,en;q=0.9")
		}, "GB"},
		{"geoip fallback", func(r *http.Request) {
			r.RemoteAddr = "203.0.113.7:443"
		}, "CH"},
		{"nothing resolvable", func(r *http.Request) {
			r.RemoteAddr = "192.0.2.1:80"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(req)
			if got := ResolveCountry(req, lookup); got != tt.want {
				t.Fatalf("ResolveCountry = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCountryMiddleware(t *testing.T) {
	var seen string
	handler := Country(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CountryFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Country-Code", "de")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "DE" {
		t.Fatalf("country in context = %q, want DE", seen)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:1234"
	if got := ClientIP(req); got != "198.51.100.4" {
		t.Fatalf("ClientIP = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.9" {
		t.Fatalf("forwarded ClientIP = %q", got)
	}
}
