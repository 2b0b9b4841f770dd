// Package auth はユーザー登録・ログイン・2FAのビジネスロジックを提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/ciphersafe/internal/model"
	"github.com/hitoshi/ciphersafe/internal/repository"
	"github.com/hitoshi/ciphersafe/internal/security"
)

// PasswordHasher はパスワード検証子の生成と照合のインターフェース。
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare は定数時間でハッシュと候補パスワードを照合する。
	Compare(hash, password string) bool
}

// StrengthEvaluator はパスワード強度評価のインターフェース。
type StrengthEvaluator interface {
	Evaluate(password string) security.StrengthResult
}

// TokenIssuer はセッショントークン発行のインターフェース。
type TokenIssuer interface {
	Issue(userID, username, email string) (string, error)
}

// TotpEngine は2FAシークレットの発行とコード検証のインターフェース。
type TotpEngine interface {
	GenerateEnrollment(account string) (*security.Enrollment, error)
	Verify(secret, code string, windowSteps uint) bool
}

// MetricsRecorder は認証イベントのメトリクス記録インターフェース。
// nilを渡した場合は記録しない。
type MetricsRecorder interface {
	RecordRegistration()
	RecordLogin(outcome string)
	RecordTwoFactorVerification(success bool)
}

// LoginResult はログイン試行の結果を表す。
// TwoFactorRequiredがtrueの場合、Tokenは空でありセッションは発行されていない。
// クライアントは続けて2FAコードの提出を求める必要がある。
type LoginResult struct {
	Token             string
	User              *model.User
	TwoFactorRequired bool
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	strength StrengthEvaluator
	tokens   TokenIssuer
	totp     TotpEngine
	metrics  MetricsRecorder
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	strength StrengthEvaluator,
	tokens TokenIssuer,
	totp TotpEngine,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		strength: strength,
		tokens:   tokens,
		totp:     totp,
		metrics:  metrics,
	}
}

// Register は新規ユーザーを登録する。
// 登録済みメールアドレスは拒否し、パスワードは強度評価に合格した場合のみ
// ソルト付きハッシュとして保存する。生パスワードは保存しない。
func (s *Service) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, model.NewMissingFieldsError()
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.NewUserExistsError()
	}

	result := s.strength.Evaluate(password)
	if result.Score < security.MinimumPasswordScore {
		return nil, model.NewWeakPasswordError(result.Feedback)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered", slog.String("user_id", user.ID))
	if s.metrics != nil {
		s.metrics.RecordRegistration()
	}

	return user, nil
}

// Login はメールアドレスとパスワードで認証する（ステップ1）。
// メール不明とパスワード不一致は同一のエラーを返し、ユーザー列挙を許さない。
// 2FAが有効なユーザーにはセッションを発行せず、中間結果を返す。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !s.hasher.Compare(user.PasswordHash, password) {
		if s.metrics != nil {
			s.metrics.RecordLogin("rejected")
		}
		return nil, model.NewInvalidCredentialsError()
	}

	if user.TwoFactorEnabled {
		if s.metrics != nil {
			s.metrics.RecordLogin("two_factor_required")
		}
		return &LoginResult{User: user, TwoFactorRequired: true}, nil
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	if s.metrics != nil {
		s.metrics.RecordLogin("success")
	}

	return &LoginResult{Token: token, User: user}, nil
}

// LoginWith2FA は2FAコードで認証を完了する（ステップ2）。
// 2FA未設定のアカウントではセッションを発行しない。
// コード不一致はステップ1の認証エラーとは区別されたエラーになる。
func (s *Service) LoginWith2FA(ctx context.Context, email, code string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !user.TwoFactorEnabled || user.TwoFactorSecret == "" {
		return nil, model.NewTwoFactorNotSetupError()
	}

	if !s.totp.Verify(user.TwoFactorSecret, code, security.DefaultTOTPWindow) {
		if s.metrics != nil {
			s.metrics.RecordTwoFactorVerification(false)
		}
		return nil, model.NewInvalidTwoFactorTokenError()
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	slog.Info("user logged in with 2FA", slog.String("user_id", user.ID))
	if s.metrics != nil {
		s.metrics.RecordTwoFactorVerification(true)
		s.metrics.RecordLogin("success")
	}

	return &LoginResult{Token: token, User: user}, nil
}

// Setup2FA は新しい2FAシークレットを生成してユーザーに保存する。
// この時点ではTwoFactorEnabledは変更されず、確認待ち状態にとどまる。
// 確認コードの検証（Verify2FA）に成功するまでログインフローは変化しない。
func (s *Service) Setup2FA(ctx context.Context, userID string) (*security.Enrollment, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	enrollment, err := s.totp.GenerateEnrollment(user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate 2FA enrollment: %w", err)
	}

	user.TwoFactorSecret = enrollment.Secret
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save 2FA secret: %w", err)
	}

	slog.Info("2FA setup started", slog.String("user_id", user.ID))
	return enrollment, nil
}

// Verify2FA は確認待ちシークレットに対するコードを検証し、2FAを有効化する。
// シークレットが保存されていない場合は失敗する。
func (s *Service) Verify2FA(ctx context.Context, userID, code string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || user.TwoFactorSecret == "" {
		return model.NewTwoFactorSecretMissingError()
	}

	if !s.totp.Verify(user.TwoFactorSecret, code, security.DefaultTOTPWindow) {
		if s.metrics != nil {
			s.metrics.RecordTwoFactorVerification(false)
		}
		return model.NewInvalidTwoFactorTokenError()
	}

	user.TwoFactorEnabled = true
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to enable 2FA: %w", err)
	}

	slog.Info("2FA enabled", slog.String("user_id", user.ID))
	if s.metrics != nil {
		s.metrics.RecordTwoFactorVerification(true)
	}

	return nil
}
