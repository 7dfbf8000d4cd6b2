package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/metrics"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/middleware"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
)

// HealthChecker はバックエンドストアの疎通確認インターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はルーター構築に必要な依存関係。
type RouterDeps struct {
	AuthHandler *AuthHandler
	UserHandler *UserHandler

	TokenVerifier middleware.TokenVerifier
	UserFinder    middleware.UserFinder

	LoginLimiter *middleware.RateLimiter
	OTPLimiter   *middleware.RateLimiter

	// nilの場合（インメモリストア）は静的なokを返す
	HealthChecker HealthChecker

	CORSAllowedOrigin string
	Gatherer          prometheus.Gatherer
}

// NewRouter はアプリケーションのルーターを構築する。
// ミドルウェアはCORS→セキュリティヘッダー→アクセスログ→リカバリの順に適用される。
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())

	requireAuth := middleware.NewRequireAuth(deps.TokenVerifier, deps.UserFinder)
	requireAdmin := middleware.NewRequireAdmin(deps.TokenVerifier, deps.UserFinder)

	r.Route("/auth", func(r chi.Router) {
		// 認証エンドポイントはIP別レートリミットで総当たり攻撃を減速させる
		r.With(deps.LoginLimiter.Middleware).Post("/login", deps.AuthHandler.Login)
		r.With(deps.OTPLimiter.Middleware).Post("/request-otp", deps.AuthHandler.RequestOTP)
		r.With(deps.OTPLimiter.Middleware).Post("/verify-otp", deps.AuthHandler.VerifyOTP)

		r.Post("/logout", deps.AuthHandler.Logout)

		r.With(requireAuth).Get("/me", deps.AuthHandler.Me)
		r.With(requireAdmin).Get("/login-history", deps.AuthHandler.LoginHistory)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(requireAdmin)
		r.Get("/", deps.UserHandler.List)
		r.Post("/", deps.UserHandler.Create)
		r.Get("/{id}", deps.UserHandler.Get)
		r.Patch("/{id}", deps.UserHandler.Update)
		r.Delete("/{id}", deps.UserHandler.Delete)
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
			defer cancel()
			if err := deps.HealthChecker.PingContext(ctx); err != nil {
				middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewUnavailableError())
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	return r
}
