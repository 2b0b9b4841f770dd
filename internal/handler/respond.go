// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/ciphersafe/internal/middleware"
	"github.com/hitoshi/ciphersafe/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeInvalidRequestBody はリクエストボディ解析失敗のエラーレスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "Failed to parse request body",
		Category: "validation",
		Action:   "Send a valid JSON body.",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		middleware.WriteErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUserExists,
		model.ErrCodeWeakPassword,
		model.ErrCodeBreachedPassword,
		model.ErrCodeMissingFields,
		model.ErrCodeInvalidTwoFactor,
		model.ErrCodeTwoFactorNoSecret:
		return http.StatusBadRequest
	case model.ErrCodeInvalidCredentials,
		model.ErrCodeTwoFactorNotSetup,
		model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeTokenInvalid:
		return http.StatusForbidden
	case model.ErrCodeCredentialNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeBreachCheckFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
