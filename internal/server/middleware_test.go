package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stepwise/stepwise/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSMiddlewareAllowsConfiguredOrigin(t *testing.T) {
	handler := CORSMiddleware([]string{"http://localhost:3000"}, "")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("expected origin echoed, got %q", got)
	}
}

func TestCORSMiddlewareWildcard(t *testing.T) {
	handler := CORSMiddleware([]string{"*"}, "")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard, got %q", got)
	}
}

func TestCORSMiddlewareRejectsUnknownOrigin(t *testing.T) {
	handler := CORSMiddleware([]string{"http://localhost:3000"}, "")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for unknown origin, got %q", got)
	}
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	handler := CORSMiddleware([]string{"*"}, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight should not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/courses", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for preflight, got %d", rec.Code)
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := SecurityHeadersMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("expected X-Frame-Options DENY, got %q", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("expected nosniff, got %q", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("expected a Content-Security-Policy header")
	}
}

func TestRateLimitMiddlewareEnforcesLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	middleware, done := RateLimitMiddleware(ctx, 1, 2, 100)
	handler := middleware(okHandler())

	allowed := 0
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
		req.RemoteAddr = "203.0.113.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		} else if rec.Code != http.StatusTooManyRequests {
			t.Errorf("unexpected status %d", rec.Code)
		}
	}

	// Burst of 2, so exactly 2 requests pass
	if allowed != 2 {
		t.Errorf("expected 2 allowed requests, got %d", allowed)
	}

	cancel()
	<-done
}

func TestRateLimitMiddlewarePerIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	middleware, done := RateLimitMiddleware(ctx, 1, 1, 100)
	handler := middleware(okHandler())

	// Exhaust the first IP's bucket
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.1:1234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	// A different IP has its own bucket
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.RemoteAddr = "203.0.113.2:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req2)

	if rec.Code != http.StatusOK {
		t.Errorf("expected second IP to be allowed, got %d", rec.Code)
	}

	cancel()
	<-done
}

func TestAuthMiddlewareNoKeyConfigured(t *testing.T) {
	handler := AuthMiddleware(&config.AuthConfig{})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected pass-through without configured key, got %d", rec.Code)
	}
}

func TestAuthMiddlewareValidKey(t *testing.T) {
	cfg := &config.AuthConfig{APIKey: "secret123"}
	handler := AuthMiddleware(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("X-API-Key", "secret123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for valid key, got %d", rec.Code)
	}
}

func TestAuthMiddlewareInvalidKey(t *testing.T) {
	cfg := &config.AuthConfig{APIKey: "secret123"}
	handler := AuthMiddleware(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid key, got %d", rec.Code)
	}
}

func TestAuthMiddlewareMissingKey(t *testing.T) {
	cfg := &config.AuthConfig{APIKey: "secret123"}
	handler := AuthMiddleware(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for missing key, got %d", rec.Code)
	}
}

func TestAuthMiddlewareBearerToken(t *testing.T) {
	cfg := &config.AuthConfig{APIKey: "secret123", HeaderName: "Authorization"}
	handler := AuthMiddleware(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for valid bearer token, got %d", rec.Code)
	}

	// Missing Bearer prefix fails
	req = httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("Authorization", "secret123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for malformed bearer token, got %d", rec.Code)
	}
}

func TestSecureCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"abc", "abc", true},
		{"abc", "abd", false},
		{"abc", "abcd", false},
		{"", "", true},
	}
	for _, tt := range tests {
		if got := secureCompare(tt.a, tt.b); got != tt.want {
			t.Errorf("secureCompare(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestGetClientIPTrustsProxyHeadersFromLoopback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if got := getClientIP(req); got != "203.0.113.9" {
		t.Errorf("expected forwarded IP, got %q", got)
	}
}

func TestGetClientIPIgnoresProxyHeadersFromPublicPeer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")

	if got := getClientIP(req); got != "198.51.100.7" {
		t.Errorf("expected peer IP, got %q", got)
	}
}
