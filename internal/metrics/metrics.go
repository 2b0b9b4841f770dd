// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// auth.MetricsRecorderとcredential.MetricsRecorderの両方を満たす。
type Collector struct {
	registrations prometheus.Counter
	logins        *prometheus.CounterVec
	twoFactor     *prometheus.CounterVec
	breachChecks  *prometheus.CounterVec
	breachLatency prometheus.Histogram
	credentialOps *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ciphersafe_registrations_total",
			Help: "ユーザー登録成功の合計数",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ciphersafe_logins_total",
			Help: "ログイン試行の結果別合計数",
		}, []string{"outcome"}),
		twoFactor: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ciphersafe_two_factor_verifications_total",
			Help: "2FAコード検証の結果別合計数",
		}, []string{"success"}),
		breachChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ciphersafe_breach_checks_total",
			Help: "パスワード漏えいチェックの結果別合計数",
		}, []string{"outcome"}),
		breachLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ciphersafe_breach_check_latency_seconds",
			Help:    "漏えいチェックAPIのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		credentialOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ciphersafe_credential_operations_total",
			Help: "認証情報CRUD操作の種別合計数",
		}, []string{"op"}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.twoFactor,
		c.breachChecks,
		c.breachLatency,
		c.credentialOps,
	)

	return c
}

// RecordRegistration はユーザー登録成功を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordLogin はログイン試行の結果を記録する。
// outcomeはsuccess、rejected、two_factor_requiredのいずれか。
func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordTwoFactorVerification は2FAコード検証の結果を記録する。
func (c *Collector) RecordTwoFactorVerification(success bool) {
	c.twoFactor.WithLabelValues(strconv.FormatBool(success)).Inc()
}

// RecordBreachCheck は漏えいチェックの結果とレイテンシを記録する。
// outcomeはfound、not_found、unavailableのいずれか。
func (c *Collector) RecordBreachCheck(outcome string, duration time.Duration) {
	c.breachChecks.WithLabelValues(outcome).Inc()
	c.breachLatency.Observe(duration.Seconds())
}

// RecordCredentialOp は認証情報のCRUD操作を記録する。
// opはcreate、list、update、deleteのいずれか。
func (c *Collector) RecordCredentialOp(op string) {
	c.credentialOps.WithLabelValues(op).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
