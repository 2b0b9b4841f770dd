package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/ciphersafe/internal/auth"
	"github.com/hitoshi/ciphersafe/internal/middleware"
	"github.com/hitoshi/ciphersafe/internal/model"
	"github.com/hitoshi/ciphersafe/internal/security"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	LoginWith2FA(ctx context.Context, email, code string) (*auth.LoginResult, error)
	Setup2FA(ctx context.Context, userID string) (*security.Enrollment, error)
	Verify2FA(ctx context.Context, userID, code string) error
}

// AuthHandler は登録・ログイン・2FAのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginWith2FARequest は2FAログインリクエストのボディ。
type loginWith2FARequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// verify2FARequest は2FA確認リクエストのボディ。
type verify2FARequest struct {
	Token string `json:"token"`
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュや2FAシークレットは含めない。
type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// loginResponse はログイン成功のAPIレスポンス。
type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// twoFactorRequiredResponse は2FAコード提出待ちの中間レスポンス。
type twoFactorRequiredResponse struct {
	Message           string `json:"message"`
	TwoFactorRequired bool   `json:"twoFactorRequired"`
	Email             string `json:"email"`
}

// Register はユーザー登録を処理する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    toUserResponse(user),
	})
}

// Login はメールアドレスとパスワードでのログインを処理する。
// 2FAが有効なユーザーには206でコード提出を要求し、セッショントークンは返さない。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if result.TwoFactorRequired {
		writeJSON(w, http.StatusPartialContent, twoFactorRequiredResponse{
			Message:           "2FA token required",
			TwoFactorRequired: true,
			Email:             result.User.Email,
		})
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}

// LoginWith2FA は2FAコードによるログイン完了を処理する。
// POST /api/auth/login/2fa
func (h *AuthHandler) LoginWith2FA(w http.ResponseWriter, r *http.Request) {
	var req loginWith2FARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	result, err := h.service.LoginWith2FA(r.Context(), req.Email, req.Token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}

// Setup2FA は2FAシークレットの発行を処理する。
// 返されたotpauth URLをクライアント側でQRコードとして表示させる。
// GET /api/auth/2fa/setup
func (h *AuthHandler) Setup2FA(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	enrollment, err := h.service.Setup2FA(r.Context(), claims.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"secret":      enrollment.Secret,
		"otpauth_url": enrollment.ProvisioningURI,
	})
}

// Verify2FA は確認コードの検証と2FAの有効化を処理する。
// POST /api/auth/2fa/verify
func (h *AuthHandler) Verify2FA(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req verify2FARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.Verify2FA(r.Context(), claims.UserID, req.Token); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "2FA enabled successfully",
	})
}

// Profile は現在のセッションのユーザー情報を返す。
// GET /api/auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:       claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
	})
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}
