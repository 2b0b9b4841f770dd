package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/ciphersafe/internal/model"
)

// PostgresCredentialRepo はPostgreSQLを使用した認証情報リポジトリ。
type PostgresCredentialRepo struct {
	db *sql.DB
}

// NewPostgresCredentialRepo はPostgresCredentialRepoを生成する。
func NewPostgresCredentialRepo(db *sql.DB) *PostgresCredentialRepo {
	return &PostgresCredentialRepo{db: db}
}

// ListByUserID は指定ユーザーが所有する全認証情報を作成日時順で返す。
func (r *PostgresCredentialRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Credential, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, site, username, password_ciphertext, iv, created_at, updated_at
		 FROM credentials WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var credentials []*model.Credential
	for rows.Next() {
		c := &model.Credential{}
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Site, &c.Username,
			&c.PasswordCiphertext, &c.IV, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		credentials = append(credentials, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credentials: %w", err)
	}

	return credentials, nil
}

// FindByIDAndUserID はIDと所有ユーザーIDで認証情報を取得する。
// 所有者が異なる場合も「見つからない」と同じくnilを返す。
func (r *PostgresCredentialRepo) FindByIDAndUserID(ctx context.Context, id, userID string) (*model.Credential, error) {
	c := &model.Credential{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, site, username, password_ciphertext, iv, created_at, updated_at
		 FROM credentials WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&c.ID, &c.UserID, &c.Site, &c.Username, &c.PasswordCiphertext, &c.IV, &c.CreatedAt, &c.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find credential: %w", err)
	}

	return c, nil
}

// Create は認証情報を作成する。
func (r *PostgresCredentialRepo) Create(ctx context.Context, credential *model.Credential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (id, user_id, site, username, password_ciphertext, iv, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		credential.ID, credential.UserID, credential.Site, credential.Username,
		credential.PasswordCiphertext, credential.IV,
		credential.CreatedAt, credential.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}
	return nil
}

// Update はsite・username・ciphertext・IVを1文で同時に置き換える。
// ciphertextとIVが別々に更新されることはない。
func (r *PostgresCredentialRepo) Update(ctx context.Context, credential *model.Credential) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE credentials
		 SET site = $3, username = $4, password_ciphertext = $5, iv = $6, updated_at = $7
		 WHERE id = $1 AND user_id = $2`,
		credential.ID, credential.UserID, credential.Site, credential.Username,
		credential.PasswordCiphertext, credential.IV, credential.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("credential not found: %s", credential.ID)
	}
	return nil
}

// DeleteByIDAndUserID はIDと所有ユーザーIDで認証情報を削除する。
// 対象が存在しない場合（所有者不一致を含む）はfalseを返し、エラーにはしない。
// 「見つからない」との区別は呼び出し元のサービス層が行う。
func (r *PostgresCredentialRepo) DeleteByIDAndUserID(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete credential: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ CredentialRepository = (*PostgresCredentialRepo)(nil)
