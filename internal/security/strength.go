// Package security はパスワード強度評価・漏えいチェック・暗号化・2FA・
// セッショントークンなどのセキュリティ機能を提供する。
package security

import (
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// MinimumPasswordScore は登録・認証情報保存で要求する最低強度スコア。
// これ未満のスコアのパスワードは拒否する。
const MinimumPasswordScore = 2

// StrengthResult はパスワード強度評価の結果を表す。
type StrengthResult struct {
	// Score は0（最弱）から4（最強）の強度スコア。
	Score int
	// Feedback はスコアが閾値未満の場合の改善提案。
	Feedback []string
}

// StrengthPolicy はパスワード強度の評価器。
// 同一パスワードに対して決定的であり、I/Oや副作用を持たない。
type StrengthPolicy struct{}

// NewStrengthPolicy はStrengthPolicyを生成する。
func NewStrengthPolicy() *StrengthPolicy {
	return &StrengthPolicy{}
}

// Evaluate はパスワードの強度を評価する。
// スコアリングはzxcvbnのエントロピー推定に委譲し、
// 閾値未満の場合のみ改善提案を付与する。
func (p *StrengthPolicy) Evaluate(password string) StrengthResult {
	strength := zxcvbn.PasswordStrength(password, nil)

	result := StrengthResult{Score: strength.Score}
	if result.Score < MinimumPasswordScore {
		result.Feedback = buildFeedback(password)
	}
	return result
}

// buildFeedback は弱いパスワードに対する改善提案を組み立てる。
func buildFeedback(password string) []string {
	var feedback []string

	if len(password) < 8 {
		feedback = append(feedback, "Use at least 8 characters.")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if !hasUpper || !hasLower {
		feedback = append(feedback, "Mix upper and lower case letters.")
	}
	if !hasDigit {
		feedback = append(feedback, "Add digits.")
	}
	if !hasSymbol {
		feedback = append(feedback, "Add symbols.")
	}

	feedback = append(feedback, "Avoid common words and predictable patterns.")
	return feedback
}
