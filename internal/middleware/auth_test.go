package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/ciphersafe/internal/model"
	"github.com/hitoshi/ciphersafe/internal/security"
)

var testIssuer = security.NewTokenIssuer("test-jwt-secret", time.Hour)

// claimsEchoHandler はコンテキストから取得したクレームのユーザーIDを書き出すテスト用ハンドラー。
func claimsEchoHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := SessionFromContext(r.Context())
		if err != nil {
			t.Errorf("SessionFromContext failed: %v", err)
			return
		}
		w.Write([]byte(claims.UserID))
	})
}

func decodeAuthError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponseBody {
	t.Helper()
	var body ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

// TestAuthMiddleware_InjectsVerifiedClaims は検証済みクレームがコンテキストに注入されることを検証する。
func TestAuthMiddleware_InjectsVerifiedClaims(t *testing.T) {
	token, err := testIssuer.Issue("user-1", "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	handler := NewAuthMiddleware(testIssuer)(claimsEchoHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "user-1" {
		t.Errorf("echoed user ID = %q, want user-1", rec.Body.String())
	}
}

// TestAuthMiddleware_MissingTokenReturns401 はトークン欠落が401になることを検証する。
func TestAuthMiddleware_MissingTokenReturns401(t *testing.T) {
	handler := NewAuthMiddleware(testIssuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a token")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"bearer without token", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if body := decodeAuthError(t, rec); body.Code != model.ErrCodeUnauthorized {
				t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
			}
		})
	}
}

// TestAuthMiddleware_InvalidTokenReturns403 は不正トークンが403になることを検証する。
func TestAuthMiddleware_InvalidTokenReturns403(t *testing.T) {
	handler := NewAuthMiddleware(testIssuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run with an invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-valid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if body := decodeAuthError(t, rec); body.Code != model.ErrCodeTokenInvalid {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeTokenInvalid)
	}
}

// TestAuthMiddleware_ExpiredTokenReturns403 は期限切れトークンが403になることを検証する。
func TestAuthMiddleware_ExpiredTokenReturns403(t *testing.T) {
	expiredIssuer := security.NewTokenIssuer("test-jwt-secret", -time.Hour)
	token, err := expiredIssuer.Issue("user-1", "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	handler := NewAuthMiddleware(testIssuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run with an expired token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

// TestAuthMiddleware_TokenSignedWithOtherSecretRejected は別鍵で署名されたトークンが拒否されることを検証する。
func TestAuthMiddleware_TokenSignedWithOtherSecretRejected(t *testing.T) {
	otherIssuer := security.NewTokenIssuer("other-secret", time.Hour)
	token, err := otherIssuer.Issue("user-1", "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	handler := NewAuthMiddleware(testIssuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run with a foreign token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

// TestBearerToken_SchemeIsCaseInsensitive はbearerスキームの大文字小文字が無視されることを検証する。
func TestBearerToken_SchemeIsCaseInsensitive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer some-token")

	if got := bearerToken(req); got != "some-token" {
		t.Errorf("bearerToken = %q, want some-token", got)
	}
}

// TestSessionFromContext_WithoutClaims はクレーム未注入のコンテキストがエラーになることを検証する。
func TestSessionFromContext_WithoutClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if _, err := SessionFromContext(req.Context()); err == nil {
		t.Error("expected error for context without session claims")
	}
}

// TestContextWithSession_RoundTrip は注入したクレームが取得できることを検証する。
func TestContextWithSession_RoundTrip(t *testing.T) {
	claims := &security.SessionClaims{UserID: "user-1", Username: "alice", Email: "alice@example.com"}
	ctx := ContextWithSession(httptest.NewRequest(http.MethodGet, "/", nil).Context(), claims)

	got, err := SessionFromContext(ctx)
	if err != nil {
		t.Fatalf("SessionFromContext failed: %v", err)
	}
	if got.UserID != "user-1" || got.Username != "alice" {
		t.Errorf("claims = %+v, want injected claims", got)
	}
}
