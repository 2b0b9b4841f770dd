package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string   // エラーコード
	Message  string   // エラーメッセージ
	Category string   // カテゴリ: auth, validation, policy, crypto, system
	Action   string   // ユーザー向け対処方法
	Feedback []string // パスワード強度評価などの補足情報（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserExists         = "USER_EXISTS"
	ErrCodeWeakPassword       = "WEAK_PASSWORD"
	ErrCodeBreachedPassword   = "BREACHED_PASSWORD"
	ErrCodeBreachCheckFailed  = "BREACH_CHECK_FAILED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeTwoFactorNotSetup  = "TWO_FACTOR_NOT_SETUP"
	ErrCodeTwoFactorNoSecret  = "TWO_FACTOR_SECRET_MISSING"
	ErrCodeInvalidTwoFactor   = "INVALID_TWO_FACTOR_TOKEN"
	ErrCodeMissingFields      = "MISSING_FIELDS"
	ErrCodeCredentialNotFound = "CREDENTIAL_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeTokenInvalid       = "TOKEN_INVALID"
	ErrCodeDecryptionFailed   = "DECRYPTION_FAILED"
)

// NewUserExistsError は登録済みメールアドレスでの再登録エラーを生成する。
func NewUserExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeUserExists,
		Message:  "User already exists",
		Category: "validation",
		Action:   "Log in with the registered email address, or use a different one.",
	}
}

// NewWeakPasswordError は強度不足パスワードの拒否エラーを生成する。
// feedbackには強度評価器からの改善提案を渡す。
func NewWeakPasswordError(feedback []string) *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  "Password is too weak",
		Category: "policy",
		Action:   "Choose a longer password that mixes unrelated words, numbers and symbols.",
		Feedback: feedback,
	}
}

// NewBreachedPasswordError は漏えい済みパスワードの拒否エラーを生成する。
// countには漏えいコーパス上の出現回数を渡す。
func NewBreachedPasswordError(count int) *APIError {
	return &APIError{
		Code:     ErrCodeBreachedPassword,
		Message:  fmt.Sprintf("This password has been found in %d breaches. Please choose a stronger password.", count),
		Category: "policy",
		Action:   "Use a password that has never appeared in a known data breach.",
	}
}

// NewBreachCheckFailedError は漏えいチェック不能エラーを生成する。
// チェック不能を「安全」と同一視してはならないため、独立したエラーとして扱う。
func NewBreachCheckFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeBreachCheckFailed,
		Message:  "Could not verify password safety",
		Category: "system",
		Action:   "Wait a moment and try again.",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー列挙を防ぐため、メール不明とパスワード不一致で同一のメッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid credentials",
		Category: "auth",
		Action:   "Check your email address and password.",
	}
}

// NewTwoFactorNotSetupError は2FA未設定アカウントへの2FAログイン試行エラーを生成する。
func NewTwoFactorNotSetupError() *APIError {
	return &APIError{
		Code:     ErrCodeTwoFactorNotSetup,
		Message:  "2FA not setup for this account",
		Category: "auth",
		Action:   "Log in with your password, then enable 2FA from settings.",
	}
}

// NewTwoFactorSecretMissingError は確認待ちシークレットなしでの2FA確認エラーを生成する。
func NewTwoFactorSecretMissingError() *APIError {
	return &APIError{
		Code:     ErrCodeTwoFactorNoSecret,
		Message:  "2FA secret not found",
		Category: "validation",
		Action:   "Run 2FA setup first to generate a secret.",
	}
}

// NewInvalidTwoFactorTokenError は2FAコード不一致エラーを生成する。
// ステップ1の認証エラーとは区別する。
func NewInvalidTwoFactorTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTwoFactor,
		Message:  "Invalid 2FA token",
		Category: "auth",
		Action:   "Enter the current code shown in your authenticator app.",
	}
}

// NewMissingFieldsError は必須フィールド欠落エラーを生成する。
func NewMissingFieldsError(fields ...string) *APIError {
	msg := "All fields are required"
	if len(fields) > 0 {
		msg = fmt.Sprintf("Missing required fields: %s", strings.Join(fields, ", "))
	}
	return &APIError{
		Code:     ErrCodeMissingFields,
		Message:  msg,
		Category: "validation",
		Action:   "Fill in all required fields.",
	}
}

// NewCredentialNotFoundError は認証情報未検出エラーを生成する。
// 他ユーザー所有レコードへのアクセスも存在を確認させないため同じエラーで返す。
func NewCredentialNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeCredentialNotFound,
		Message:  "Credential not found",
		Category: "validation",
		Action:   "Check the credential ID.",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "auth",
		Action:   "Log in again.",
	}
}

// NewUnauthorizedError はトークン欠落による未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Access denied, no token provided",
		Category: "auth",
		Action:   "Log in and present the session token in the Authorization header.",
	}
}

// NewTokenInvalidError は不正または期限切れトークンのエラーを生成する。
func NewTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenInvalid,
		Message:  "Invalid or expired token",
		Category: "auth",
		Action:   "Log in again to obtain a fresh session token.",
	}
}
