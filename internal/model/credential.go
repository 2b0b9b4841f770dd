package model

import "time"

// Credential はユーザーが保管するサイト認証情報を表す。
// サイトパスワードは暗号化された状態でのみ保持する。
// PasswordCiphertextとIVは必ず同時に設定・更新される（片方だけの更新は不正）。
type Credential struct {
	ID       string
	UserID   string
	Site     string
	Username string

	// PasswordCiphertext はAES-GCMで暗号化されたサイトパスワード（hex）。
	PasswordCiphertext string
	// IV は暗号化時に生成されたnonce（hex）。復号に必須。
	IV string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DecryptedCredential は復号済みの認証情報エントリを表す。
// 1件の復号失敗がリスト全体を失敗させないよう、復号結果をエントリごとに保持する。
type DecryptedCredential struct {
	ID       string
	Site     string
	Username string
	// Password は復号されたサイトパスワード。DecryptFailedがtrueの場合は空。
	Password string
	// DecryptFailed は該当レコードの復号に失敗したことを示す。
	DecryptFailed bool
}
