package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/ciphersafe/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	Logger            *slog.Logger

	// サービス
	AuthService       AuthServiceInterface
	CredentialService CredentialServiceInterface

	// Prometheusメトリクスエンドポイント（nilの場合は公開しない）
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → SecurityHeaders → Logging → (認証ルートのみ) Auth
//
// 登録・ログイン（/api/auth/register, /login, /login/2fa）は認証ミドルウェアの外に
// 配置する。2FA設定とプロフィール、認証情報CRUDは検証済みトークンを要求する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService)
	credentialHandler := NewCredentialHandler(deps.CredentialService)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/login/2fa", authHandler.LoginWith2FA)

		// --- セッショントークンが必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))

			r.Get("/2fa/setup", authHandler.Setup2FA)
			r.Post("/2fa/verify", authHandler.Verify2FA)
			r.Get("/profile", authHandler.Profile)
		})
	})

	// --- 認証情報CRUD（すべて要認証） ---
	r.Route("/api/credentials", func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))

		r.Post("/", credentialHandler.Create)
		r.Get("/", credentialHandler.List)

		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", credentialHandler.Update)
			r.Delete("/", credentialHandler.Delete)
		})
	})

	return r
}

// healthHandler はヘルスチェックエンドポイント。
// GET /health
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
