package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/ciphersafe/internal/middleware"
	"github.com/hitoshi/ciphersafe/internal/model"
)

// CredentialServiceInterface は認証情報ハンドラーが必要とするサービスインターフェース。
type CredentialServiceInterface interface {
	Create(ctx context.Context, userID, site, username, password string) (*model.Credential, error)
	List(ctx context.Context, userID string) ([]model.DecryptedCredential, error)
	Update(ctx context.Context, userID, id, site, username, password string) (*model.Credential, error)
	Delete(ctx context.Context, userID, id string) error
}

// CredentialHandler は保管認証情報CRUDのHTTPハンドラー。
type CredentialHandler struct {
	service CredentialServiceInterface
}

// NewCredentialHandler はCredentialHandlerを生成する。
func NewCredentialHandler(service CredentialServiceInterface) *CredentialHandler {
	return &CredentialHandler{service: service}
}

// credentialRequest は認証情報の作成・更新リクエストのボディ。
type credentialRequest struct {
	Site     string `json:"site"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// credentialResponse は作成・更新後の認証情報のAPIレスポンス。
// 平文パスワードは含めない。
type credentialResponse struct {
	ID       string `json:"id"`
	Site     string `json:"site"`
	Username string `json:"username"`
}

// decryptedCredentialResponse は一覧取得時の復号済み認証情報のAPIレスポンス。
// 復号に失敗したレコードはdecrypt_failedで示し、パスワードは空になる。
type decryptedCredentialResponse struct {
	ID            string `json:"id"`
	Site          string `json:"site"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	DecryptFailed bool   `json:"decrypt_failed,omitempty"`
}

// Create は認証情報の保存を処理する。
// POST /api/credentials
func (h *CredentialHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	credential, err := h.service.Create(r.Context(), claims.UserID, req.Site, req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCredentialResponse(credential))
}

// List は認証情報の一覧取得を処理する。
// GET /api/credentials
func (h *CredentialHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	credentials, err := h.service.List(r.Context(), claims.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]decryptedCredentialResponse, 0, len(credentials))
	for _, c := range credentials {
		responses = append(responses, decryptedCredentialResponse{
			ID:            c.ID,
			Site:          c.Site,
			Username:      c.Username,
			Password:      c.Password,
			DecryptFailed: c.DecryptFailed,
		})
	}

	writeJSON(w, http.StatusOK, responses)
}

// Update は認証情報の更新を処理する。
// PUT /api/credentials/:id
func (h *CredentialHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id := chi.URLParam(r, "id")

	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	credential, err := h.service.Update(r.Context(), claims.UserID, id, req.Site, req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(credential))
}

// Delete は認証情報の削除を処理する。
// DELETE /api/credentials/:id
func (h *CredentialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), claims.UserID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Credential deleted",
	})
}

// toCredentialResponse はmodel.CredentialからAPIレスポンスに変換する。
func toCredentialResponse(credential *model.Credential) credentialResponse {
	return credentialResponse{
		ID:       credential.ID,
		Site:     credential.Site,
		Username: credential.Username,
	}
}
