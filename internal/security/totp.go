package security

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// DefaultTOTPWindow はログイン・確認時に許容する時刻ステップのずれ幅。
// 現在ステップ±1ステップ（30秒刻み）までのコードを受理する。
const DefaultTOTPWindow uint = 1

// Enrollment は2FAセットアップで生成される共有シークレットと
// QRコード描画用のプロビジョニングURIの組を表す。
// ユーザーが確認コードの検証に成功するまで2FAは有効化されない。
type Enrollment struct {
	// Secret は認証アプリに登録するbase32シークレット。
	Secret string
	// ProvisioningURI はotpauth://形式のURI。QRコードとして描画できる。
	ProvisioningURI string
}

// TotpEngine はTOTPシークレットの発行と提出コードの検証を提供する。
// 標準の30秒ステップ・6桁・SHA-1のTOTPアルゴリズムを使用する。
type TotpEngine struct {
	issuer string
}

// NewTotpEngine はTotpEngineを生成する。
// issuerはプロビジョニングURIに埋め込まれるサービス名。
func NewTotpEngine(issuer string) *TotpEngine {
	return &TotpEngine{issuer: issuer}
}

// GenerateEnrollment は新しい2FA登録用シークレットを生成する。
// 呼び出しごとに暗号学的乱数から新しいシークレットが作られる。
// accountには認証アプリ上での表示名（ユーザー名）を渡す。
func (e *TotpEngine) GenerateEnrollment(account string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: account,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	return &Enrollment{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
	}, nil
}

// Verify は提出されたコードを現在時刻で検証する。
// windowStepsで指定したステップ数までの時刻ずれを許容する。
func (e *TotpEngine) Verify(secret, code string, windowSteps uint) bool {
	return e.VerifyAt(secret, code, time.Now().UTC(), windowSteps)
}

// VerifyAt は指定時刻を基準にコードを検証する。
// 許容ウィンドウ外でのみ有効なコードは拒否される。
func (e *TotpEngine) VerifyAt(secret, code string, t time.Time, windowSteps uint) bool {
	valid, err := totp.ValidateCustom(code, secret, t, totp.ValidateOpts{
		Period:    30,
		Skew:      windowSteps,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && valid
}
