package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/hitoshi/ciphersafe/internal/model"
)

// TestCredentialCreate_Created は認証情報の保存が201を返すことを検証する。
func TestCredentialCreate_Created(t *testing.T) {
	credSvc := &stubCredentialService{
		createFunc: func(ctx context.Context, userID, site, username, password string) (*model.Credential, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q, want user-1 from session claims", userID)
			}
			return &model.Credential{
				ID:                 "cred-1",
				UserID:             userID,
				Site:               site,
				Username:           username,
				PasswordCiphertext: "deadbeef",
				IV:                 "cafebabe",
			}, nil
		},
	}
	router := newTestRouter(t, &stubAuthService{}, credSvc)

	body := strings.NewReader(`{"site":"example.com","username":"alice","password":"site-password"}`)
	rec := doRequest(t, router, http.MethodPost, "/api/credentials", issueTestToken(t), body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var resp credentialResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "cred-1" || resp.Site != "example.com" || resp.Username != "alice" {
		t.Errorf("response = %+v, want created credential", resp)
	}
}

// TestCredentialCreate_ResponseOmitsSecrets はレスポンスに平文・暗号文のどちらも含まれないことを検証する。
func TestCredentialCreate_ResponseOmitsSecrets(t *testing.T) {
	credSvc := &stubCredentialService{
		createFunc: func(ctx context.Context, userID, site, username, password string) (*model.Credential, error) {
			return &model.Credential{
				ID:                 "cred-1",
				Site:               site,
				Username:           username,
				PasswordCiphertext: "deadbeefciphertext",
				IV:                 "cafebabeiv",
			}, nil
		},
	}
	router := newTestRouter(t, &stubAuthService{}, credSvc)

	body := strings.NewReader(`{"site":"example.com","username":"alice","password":"plain-site-password"}`)
	rec := doRequest(t, router, http.MethodPost, "/api/credentials", issueTestToken(t), body)

	got := rec.Body.String()
	for _, secret := range []string{"plain-site-password", "deadbeefciphertext", "cafebabeiv"} {
		if strings.Contains(got, secret) {
			t.Errorf("response body must not contain %q", secret)
		}
	}
}

// TestCredentialCreate_BreachedPasswordReturns400 は漏えい済みパスワードが400になることを検証する。
func TestCredentialCreate_BreachedPasswordReturns400(t *testing.T) {
	credSvc := &stubCredentialService{
		createFunc: func(ctx context.Context, userID, site, username, password string) (*model.Credential, error) {
			return nil, model.NewBreachedPasswordError(42)
		},
	}
	router := newTestRouter(t, &stubAuthService{}, credSvc)

	body := strings.NewReader(`{"site":"example.com","username":"alice","password":"password123"}`)
	rec := doRequest(t, router, http.MethodPost, "/api/credentials", issueTestToken(t), body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	errBody := decodeErrorBody(t, rec)
	if errBody.Code != model.ErrCodeBreachedPassword {
		t.Errorf("code = %q, want %q", errBody.Code, model.ErrCodeBreachedPassword)
	}
	if !strings.Contains(errBody.Message, "42") {
		t.Errorf("message = %q, want breach count", errBody.Message)
	}
}

// TestCredentialCreate_BreachCheckFailedReturns500 は漏えいチェック不能が500になることを検証する。
func TestCredentialCreate_BreachCheckFailedReturns500(t *testing.T) {
	credSvc := &stubCredentialService{
		createFunc: func(ctx context.Context, userID, site, username, password string) (*model.Credential, error) {
			return nil, model.NewBreachCheckFailedError()
		},
	}
	router := newTestRouter(t, &stubAuthService{}, credSvc)

	body := strings.NewReader(`{"site":"example.com","username":"alice","password":"site-password"}`)
	rec := doRequest(t, router, http.MethodPost, "/api/credentials", issueTestToken(t), body)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if errBody := decodeErrorBody(t, rec); errBody.Code != model.ErrCodeBreachCheckFailed {
		t.Errorf("code = %q, want %q", errBody.Code, model.ErrCodeBreachCheckFailed)
	}
}

// TestCredentialCreate_RequiresToken はトークンなしの保存が401になることを検証する。
func TestCredentialCreate_RequiresToken(t *testing.T) {
	router := newTestRouter(t, &stubAuthService{}, &stubCredentialService{})

	body := strings.NewReader(`{"site":"example.com","username":"alice","password":"site-password"}`)
	rec := doRequest(t, router, http.MethodPost, "/api/credentials", "", body)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

// TestCredentialList_ReturnsDecryptedEntries は一覧取得が復号済みエントリを返すことを検証する。
func TestCredentialList_ReturnsDecryptedEntries(t *testing.T) {
	credSvc := &stubCredentialService{
		listFunc: func(ctx context.Context, userID string) ([]model.DecryptedCredential, error) {
			return []model.DecryptedCredential{
				{ID: "cred-1", Site: "a.example.com", Username: "alice", Password: "first"},
				{ID: "cred-2", Site: "b.example.com", Username: "alice", Password: "", DecryptFailed: true},
			}, nil
		},
	}
	router := newTestRouter(t, &stubAuthService{}, credSvc)

	rec := doRequest(t, router, http.MethodGet, "/api/credentials", issueTestToken(t), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp []decryptedCredentialResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("len(resp) = %d, want 2", len(resp))
	}
	if resp[0].Password != "first" || resp[0].DecryptFailed {
		t.Errorf("entry 0 = %+v, want decrypted", resp[0])
	}
	if !resp[1].DecryptFailed || resp[1].Password != "" {
		t.Errorf("entry 1 = %+v, want decrypt_failed without password", resp[1])
	}
}

// TestCredentialList_EmptyVaultReturnsEmptyArray は空の保管庫がnullではなく空配列を返すことを検証する。
func TestCredentialList_EmptyVaultReturnsEmptyArray(t *testing.T) {
	credSvc := &stubCredentialService{
		listFunc: func(ctx context.Context, userID string) ([]model.DecryptedCredential, error) {
			return nil, nil
		},
	}
	router := newTestRouter(t, &stubAuthService{}, credSvc)

	rec := doRequest(t, router, http.MethodGet, "/api/credentials", issueTestToken(t), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

// TestCredentialUpdate_ReturnsUpdated は更新が200で更新後の内容を返すことを検証する。
func TestCredentialUpdate_ReturnsUpdated(t *testing.T) {
	credSvc := &stubCredentialService{
		updateFunc: func(ctx context.Context, userID, id, site, username, password string) (*model.Credential, error) {
			if id != "cred-1" {
				t.Errorf("id = %q, want cred-1 from URL", id)
			}
			return &model.Credential{ID: id, Site: site, Username: username}, nil
		},
	}
	router := newTestRouter(t, &stubAuthService{}, credSvc)

	body := strings.NewReader(`{"site":"new.example.com","username":"alice","password":"new-password"}`)
	rec := doRequest(t, router, http.MethodPut, "/api/credentials/cred-1", issueTestToken(t), body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp credentialResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Site != "new.example.com" {
		t.Errorf("site = %q, want new.example.com", resp.Site)
	}
}

// TestCredentialUpdate_NotFoundReturns404 は未検出の更新が404になることを検証する。
func TestCredentialUpdate_NotFoundReturns404(t *testing.T) {
	credSvc := &stubCredentialService{
		updateFunc: func(ctx context.Context, userID, id, site, username, password string) (*model.Credential, error) {
			return nil, model.NewCredentialNotFoundError()
		},
	}
	router := newTestRouter(t, &stubAuthService{}, credSvc)

	body := strings.NewReader(`{"site":"example.com","username":"alice","password":"password"}`)
	rec := doRequest(t, router, http.MethodPut, "/api/credentials/missing", issueTestToken(t), body)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if errBody := decodeErrorBody(t, rec); errBody.Code != model.ErrCodeCredentialNotFound {
		t.Errorf("code = %q, want %q", errBody.Code, model.ErrCodeCredentialNotFound)
	}
}

// TestCredentialDelete_ReturnsMessage は削除成功が200を返すことを検証する。
func TestCredentialDelete_ReturnsMessage(t *testing.T) {
	credSvc := &stubCredentialService{
		deleteFunc: func(ctx context.Context, userID, id string) error {
			if userID != "user-1" || id != "cred-1" {
				t.Errorf("Delete(%q, %q), want user-1/cred-1", userID, id)
			}
			return nil
		},
	}
	router := newTestRouter(t, &stubAuthService{}, credSvc)

	rec := doRequest(t, router, http.MethodDelete, "/api/credentials/cred-1", issueTestToken(t), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Credential deleted") {
		t.Errorf("body = %q, want deletion message", rec.Body.String())
	}
}

// TestCredentialDelete_NotFoundReturns404 は未検出の削除が404になることを検証する。
func TestCredentialDelete_NotFoundReturns404(t *testing.T) {
	credSvc := &stubCredentialService{
		deleteFunc: func(ctx context.Context, userID, id string) error {
			return model.NewCredentialNotFoundError()
		},
	}
	router := newTestRouter(t, &stubAuthService{}, credSvc)

	rec := doRequest(t, router, http.MethodDelete, "/api/credentials/missing", issueTestToken(t), nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// TestCredentialRoutes_RequireToken は全CRUDルートがトークンなしで401になることを検証する。
func TestCredentialRoutes_RequireToken(t *testing.T) {
	router := newTestRouter(t, &stubAuthService{}, &stubCredentialService{})

	tests := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/credentials"},
		{http.MethodGet, "/api/credentials"},
		{http.MethodPut, "/api/credentials/cred-1"},
		{http.MethodDelete, "/api/credentials/cred-1"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := doRequest(t, router, tt.method, tt.path, "", strings.NewReader("{}"))
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}
