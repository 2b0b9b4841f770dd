package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/ciphersafe/internal/auth"
	"github.com/hitoshi/ciphersafe/internal/middleware"
	"github.com/hitoshi/ciphersafe/internal/model"
	"github.com/hitoshi/ciphersafe/internal/security"
)

// stubAuthService は関数フィールドで挙動を差し替えられるAuthServiceInterfaceのスタブ。
type stubAuthService struct {
	registerFunc     func(ctx context.Context, username, email, password string) (*model.User, error)
	loginFunc        func(ctx context.Context, email, password string) (*auth.LoginResult, error)
	loginWith2FAFunc func(ctx context.Context, email, code string) (*auth.LoginResult, error)
	setup2FAFunc     func(ctx context.Context, userID string) (*security.Enrollment, error)
	verify2FAFunc    func(ctx context.Context, userID, code string) error
}

func (s *stubAuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	return s.registerFunc(ctx, username, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	return s.loginFunc(ctx, email, password)
}

func (s *stubAuthService) LoginWith2FA(ctx context.Context, email, code string) (*auth.LoginResult, error) {
	return s.loginWith2FAFunc(ctx, email, code)
}

func (s *stubAuthService) Setup2FA(ctx context.Context, userID string) (*security.Enrollment, error) {
	return s.setup2FAFunc(ctx, userID)
}

func (s *stubAuthService) Verify2FA(ctx context.Context, userID, code string) error {
	return s.verify2FAFunc(ctx, userID, code)
}

// stubCredentialService は関数フィールドで挙動を差し替えられるCredentialServiceInterfaceのスタブ。
type stubCredentialService struct {
	createFunc func(ctx context.Context, userID, site, username, password string) (*model.Credential, error)
	listFunc   func(ctx context.Context, userID string) ([]model.DecryptedCredential, error)
	updateFunc func(ctx context.Context, userID, id, site, username, password string) (*model.Credential, error)
	deleteFunc func(ctx context.Context, userID, id string) error
}

func (s *stubCredentialService) Create(ctx context.Context, userID, site, username, password string) (*model.Credential, error) {
	return s.createFunc(ctx, userID, site, username, password)
}

func (s *stubCredentialService) List(ctx context.Context, userID string) ([]model.DecryptedCredential, error) {
	return s.listFunc(ctx, userID)
}

func (s *stubCredentialService) Update(ctx context.Context, userID, id, site, username, password string) (*model.Credential, error) {
	return s.updateFunc(ctx, userID, id, site, username, password)
}

func (s *stubCredentialService) Delete(ctx context.Context, userID, id string) error {
	return s.deleteFunc(ctx, userID, id)
}

// testIssuer はテスト用の実トークン発行者。署名・検証の両方に使う。
var testIssuer = security.NewTokenIssuer("test-jwt-secret", time.Hour)

// newTestRouter はスタブサービスを組み込んだルーターを生成する。
func newTestRouter(t *testing.T, authSvc AuthServiceInterface, credSvc CredentialServiceInterface) http.Handler {
	t.Helper()
	return NewRouter(&RouterDeps{
		TokenVerifier:     testIssuer,
		CORSAllowedOrigin: "http://localhost:5173",
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		AuthService:       authSvc,
		CredentialService: credSvc,
	})
}

// issueTestToken はテストユーザーのセッショントークンを発行する。
func issueTestToken(t *testing.T) string {
	t.Helper()
	token, err := testIssuer.Issue("user-1", "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("failed to issue test token: %v", err)
	}
	return token
}

// doRequest はルーターにリクエストを送り、レコーダーを返す。
func doRequest(t *testing.T, router http.Handler, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// decodeErrorBody は統一エラーフォーマットのレスポンスボディを解析する。
func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}
