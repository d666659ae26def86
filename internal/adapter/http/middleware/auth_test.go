package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/infrastructure/auth"
)

func TestAuthMiddleware(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := manager.Generate(&domain.User{ID: "u1", Role: domain.RoleAccountant})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{name: "valid token", header: "Bearer " + token, wantCode: http.StatusOK},
		{name: "missing header", header: "", wantCode: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, wantCode: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-token", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser *domain.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = domain.UserFromContext(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/rates/USD", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			AuthMiddleware(manager)(next).ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			if tt.wantCode == http.StatusOK && (gotUser == nil || gotUser.ID != "u1" || gotUser.Role != domain.RoleAccountant) {
				t.Fatalf("unexpected user in context: %+v", gotUser)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		user     *domain.User
		allowed  func(domain.Role) bool
		wantCode int
	}{
		{name: "accountant may post", user: &domain.User{ID: "u1", Role: domain.RoleAccountant}, allowed: domain.Role.CanPost, wantCode: http.StatusOK},
		{name: "viewer may not post", user: &domain.User{ID: "u2", Role: domain.RoleViewer}, allowed: domain.Role.CanPost, wantCode: http.StatusForbidden},
		{name: "accountant may not manage settings", user: &domain.User{ID: "u1", Role: domain.RoleAccountant}, allowed: domain.Role.CanManageSettings, wantCode: http.StatusForbidden},
		{name: "admin manages settings", user: &domain.User{ID: "u3", Role: domain.RoleAdmin}, allowed: domain.Role.CanManageSettings, wantCode: http.StatusOK},
		{name: "anonymous", allowed: domain.Role.CanPost, wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/companies/c1/revaluations", nil)
			if tt.user != nil {
				req = req.WithContext(domain.ContextWithUser(req.Context(), tt.user))
			}
			rr := httptest.NewRecorder()

			RequireRole(tt.allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
		})
	}
}

func TestOptionalAuth_InvalidTokenPassesThrough(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := domain.UserFromContext(r.Context()); ok {
			t.Fatalf("expected no user for an invalid token")
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rates/USD", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rr := httptest.NewRecorder()

	OptionalAuth(manager)(next).ServeHTTP(rr, req)

	if !called {
		t.Fatalf("expected next handler to be called")
	}
}
