// Package credential は保管認証情報のCRUDビジネスロジックを提供する。
package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/ciphersafe/internal/model"
	"github.com/hitoshi/ciphersafe/internal/repository"
	"github.com/hitoshi/ciphersafe/internal/security"
)

// BreachChecker はパスワード漏えい照会のインターフェース。
type BreachChecker interface {
	// CheckPassword は漏えいコーパス上の出現回数を返す。0は未検出。
	// 照会不能はsecurity.ErrBreachCheckUnavailableを返す。
	CheckPassword(ctx context.Context, password string) (int, error)
}

// StrengthEvaluator はパスワード強度評価のインターフェース。
type StrengthEvaluator interface {
	Evaluate(password string) security.StrengthResult
}

// SecretCipher は保管シークレットの暗号化・復号のインターフェース。
type SecretCipher interface {
	Encrypt(plaintext string) (*security.EncryptedSecret, error)
	Decrypt(iv, ciphertext string) (string, error)
}

// MetricsRecorder は認証情報操作のメトリクス記録インターフェース。
// nilを渡した場合は記録しない。
type MetricsRecorder interface {
	RecordCredentialOp(op string)
	RecordBreachCheck(outcome string, duration time.Duration)
}

// Service は保管認証情報のCRUDを提供する。
// すべての操作は所有ユーザーIDでスコープされ、他ユーザーのレコードには
// 「見つからない」として振る舞う。存在の確認すら許さない。
type Service struct {
	credRepo repository.CredentialRepository
	breach   BreachChecker
	strength StrengthEvaluator
	cipher   SecretCipher
	metrics  MetricsRecorder
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(
	credRepo repository.CredentialRepository,
	breach BreachChecker,
	strength StrengthEvaluator,
	cipher SecretCipher,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		credRepo: credRepo,
		breach:   breach,
		strength: strength,
		cipher:   cipher,
		metrics:  metrics,
	}
}

// Create は新しい認証情報を保存する。
// 漏えいチェック→強度評価→暗号化の順にゲートし、
// いずれかに失敗した場合はレコードを作成しない。
func (s *Service) Create(ctx context.Context, userID, site, username, password string) (*model.Credential, error) {
	if site == "" || username == "" || password == "" {
		return nil, model.NewMissingFieldsError()
	}

	if err := s.gatePassword(ctx, password); err != nil {
		return nil, err
	}

	encrypted, err := s.cipher.Encrypt(password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt credential: %w", err)
	}

	now := time.Now()
	credential := &model.Credential{
		ID:                 uuid.New().String(),
		UserID:             userID,
		Site:               site,
		Username:           username,
		PasswordCiphertext: encrypted.Ciphertext,
		IV:                 encrypted.IV,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.credRepo.Create(ctx, credential); err != nil {
		return nil, fmt.Errorf("failed to save credential: %w", err)
	}

	slog.Info("credential created",
		slog.String("user_id", userID),
		slog.String("credential_id", credential.ID),
	)
	if s.metrics != nil {
		s.metrics.RecordCredentialOp("create")
	}

	return credential, nil
}

// List は指定ユーザーの全認証情報を復号して返す。
// 各レコードは独立に復号され、1件の復号失敗がリスト全体を失敗させることはない。
// 失敗したレコードはDecryptFailedとして結果に残る。
func (s *Service) List(ctx context.Context, userID string) ([]model.DecryptedCredential, error) {
	credentials, err := s.credRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	results := make([]model.DecryptedCredential, 0, len(credentials))
	for _, c := range credentials {
		entry := model.DecryptedCredential{
			ID:       c.ID,
			Site:     c.Site,
			Username: c.Username,
		}

		password, err := s.cipher.Decrypt(c.IV, c.PasswordCiphertext)
		if err != nil {
			// 復号失敗は該当レコードにのみ記録し、残りの復号は継続する
			slog.Warn("failed to decrypt credential",
				slog.String("user_id", userID),
				slog.String("credential_id", c.ID),
			)
			entry.DecryptFailed = true
		} else {
			entry.Password = password
		}

		results = append(results, entry)
	}

	if s.metrics != nil {
		s.metrics.RecordCredentialOp("list")
	}
	return results, nil
}

// Update は既存の認証情報を置き換える。
// site・username・暗号文・IVは常に一括で更新される。
// 他ユーザー所有のレコードは「見つからない」として失敗する。
func (s *Service) Update(ctx context.Context, userID, id, site, username, password string) (*model.Credential, error) {
	if site == "" || username == "" || password == "" {
		return nil, model.NewMissingFieldsError()
	}

	credential, err := s.credRepo.FindByIDAndUserID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find credential: %w", err)
	}
	if credential == nil {
		return nil, model.NewCredentialNotFoundError()
	}

	if err := s.gatePassword(ctx, password); err != nil {
		return nil, err
	}

	encrypted, err := s.cipher.Encrypt(password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt credential: %w", err)
	}

	credential.Site = site
	credential.Username = username
	credential.PasswordCiphertext = encrypted.Ciphertext
	credential.IV = encrypted.IV
	credential.UpdatedAt = time.Now()

	if err := s.credRepo.Update(ctx, credential); err != nil {
		return nil, fmt.Errorf("failed to update credential: %w", err)
	}

	slog.Info("credential updated",
		slog.String("user_id", userID),
		slog.String("credential_id", credential.ID),
	)
	if s.metrics != nil {
		s.metrics.RecordCredentialOp("update")
	}

	return credential, nil
}

// Delete は認証情報を削除する。
// 対象が存在しない場合（他ユーザー所有を含む）は「見つからない」エラーを返す。
// 黙って成功扱いにはしない。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.credRepo.DeleteByIDAndUserID(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	if !deleted {
		return model.NewCredentialNotFoundError()
	}

	slog.Info("credential deleted",
		slog.String("user_id", userID),
		slog.String("credential_id", id),
	)
	if s.metrics != nil {
		s.metrics.RecordCredentialOp("delete")
	}
	return nil
}

// gatePassword は保存対象パスワードのポリシーゲートを実行する。
// 順序は漏えいチェック→強度評価。漏えいチェック不能は「安全」と見なさず、
// 独立したエラーとして呼び出し元に伝搬させる。
func (s *Service) gatePassword(ctx context.Context, password string) error {
	start := time.Now()
	count, err := s.breach.CheckPassword(ctx, password)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordBreachCheck("unavailable", time.Since(start))
		}
		if errors.Is(err, security.ErrBreachCheckUnavailable) {
			return model.NewBreachCheckFailedError()
		}
		return fmt.Errorf("breach check failed: %w", err)
	}

	if count > 0 {
		if s.metrics != nil {
			s.metrics.RecordBreachCheck("found", time.Since(start))
		}
		return model.NewBreachedPasswordError(count)
	}
	if s.metrics != nil {
		s.metrics.RecordBreachCheck("not_found", time.Since(start))
	}

	result := s.strength.Evaluate(password)
	if result.Score < security.MinimumPasswordScore {
		return model.NewWeakPasswordError(result.Feedback)
	}

	return nil
}
