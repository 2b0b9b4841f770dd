// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Secrets
	// JWTSecret はセッショントークンの署名鍵。
	JWTSecret string
	// EncryptionKey は保管パスワードの暗号鍵の導出元。
	// 生の値をそのまま鍵として使わず、VaultCipherがSHA-256で32バイト鍵に導出する。
	EncryptionKey string

	// Session
	TokenTTL time.Duration

	// 2FA
	TOTPIssuer string

	// Breach check
	BreachAPIBaseURL   string
	BreachTimeout      time.Duration
	BreachRateLimitRPS float64

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// JWT_SECRETとENCRYPTION_KEYに既定値は存在しない。鍵なしでの起動は
// 暗黙に安全性を失うため、必ず起動失敗にする。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	cfg.EncryptionKey = os.Getenv("ENCRYPTION_KEY")
	if cfg.EncryptionKey == "" {
		missing = append(missing, "ENCRYPTION_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", time.Hour)
	cfg.TOTPIssuer = getEnvString("TOTP_ISSUER", "CipherSafe")
	cfg.BreachAPIBaseURL = getEnvString("BREACH_API_BASE_URL", "https://api.pwnedpasswords.com")
	cfg.BreachTimeout = getEnvDuration("BREACH_TIMEOUT", 5*time.Second)
	cfg.BreachRateLimitRPS = getEnvFloat("BREACH_RATE_LIMIT_RPS", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
