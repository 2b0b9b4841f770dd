// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/ciphersafe/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーを更新する（2FAシークレットの保存、2FA有効化で使用）。
	Update(ctx context.Context, user *model.User) error
}

// CredentialRepository は保管認証情報の永続化インターフェース。
// 読み取り・更新・削除はすべて所有ユーザーIDでスコープされる。
type CredentialRepository interface {
	// ListByUserID は指定ユーザーが所有する全認証情報を返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Credential, error)

	// FindByIDAndUserID はIDと所有ユーザーIDで認証情報を取得する。
	// 見つからない場合（ID不一致・所有者不一致とも）はnilを返す。
	FindByIDAndUserID(ctx context.Context, id, userID string) (*model.Credential, error)

	// Create は認証情報を作成する。
	Create(ctx context.Context, credential *model.Credential) error

	// Update はsite・username・ciphertext・IVを同時に置き換える。
	Update(ctx context.Context, credential *model.Credential) error

	// DeleteByIDAndUserID はIDと所有ユーザーIDで認証情報を削除する。
	// 削除された場合はtrueを返す。ID不一致・所有者不一致はfalse（削除なし）。
	DeleteByIDAndUserID(ctx context.Context, id, userID string) (bool, error)
}
