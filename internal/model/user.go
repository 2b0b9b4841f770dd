// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashにはbcryptハッシュのみを保持し、生パスワードは決して保存しない。
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string

	// TwoFactorSecret は2FAのTOTPシークレット（base32）。
	// セットアップ直後は「確認待ち」状態であり、TwoFactorEnabledがtrueになるまで
	// ログインフローには影響しない。
	TwoFactorSecret string
	// TwoFactorEnabled は2FA確認コードの検証が完了した場合のみtrueになる。
	TwoFactorEnabled bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TwoFactorPending はシークレットが保存済みだが確認が完了していない状態かを返す。
func (u *User) TwoFactorPending() bool {
	return u.TwoFactorSecret != "" && !u.TwoFactorEnabled
}
