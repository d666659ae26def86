package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		realIP     string
		remoteAddr string
		want       string
	}{
		{name: "forwarded chain", forwarded: "10.0.0.1, 10.0.0.2", remoteAddr: "1.1.1.1:80", want: "10.0.0.1"},
		{name: "real ip", realIP: "10.0.0.3", remoteAddr: "1.1.1.1:80", want: "10.0.0.3"},
		{name: "remote addr", remoteAddr: "1.1.1.1:8080", want: "1.1.1.1"},
		{name: "remote addr without port", remoteAddr: "1.1.1.1", want: "1.1.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}

			if got := getIP(req); got != tt.want {
				t.Fatalf("getIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send("1.2.3.4:1"); code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send("1.2.3.4:2"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request from same host to be throttled, got %d", code)
	}
	if code := send("5.6.7.8:1"); code != http.StatusOK {
		t.Fatalf("expected other host to pass, got %d", code)
	}

	rl.CleanupLimiters()
	if code := send("1.2.3.4:3"); code != http.StatusOK {
		t.Fatalf("expected request to pass after cleanup, got %d", code)
	}
}
