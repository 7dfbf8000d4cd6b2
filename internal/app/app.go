// Package app はアプリケーションの起動とワイヤリングを行う。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/auth"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/config"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/database"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/handler"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/logger"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/mail"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/metrics"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/middleware"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/otp"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/repository"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/security"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/token"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/user"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// repos はサーバーが使用するリポジトリ一式。
// dbはPostgres使用時のみ設定され、ヘルスチェックに使用する。
type repos struct {
	users   repository.UserRepository
	otps    repository.OTPRepository
	history repository.LoginHistoryRepository
	db      *sql.DB
}

// buildRepos はDATABASE_URLの有無に応じてリポジトリを構築する。
// 未設定の場合はインメモリストアにフォールバックする（開発・テスト用）。
// 戻り値のcleanupはDB接続のクローズを行う。
func buildRepos(cfg *config.Config) (*repos, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL is not set, falling back to in-memory stores")
		return &repos{
			users:   repository.NewMemoryUserRepo(),
			otps:    repository.NewMemoryOTPRepo(),
			history: repository.NewMemoryLoginHistoryRepo(),
		}, func() {}, nil
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	return &repos{
		users:   repository.NewPostgresUserRepo(db),
		otps:    repository.NewPostgresOTPRepo(db),
		history: repository.NewPostgresLoginHistoryRepo(db),
		db:      db,
	}, func() { db.Close() }, nil
}

// buildMailer はSMTP設定の有無に応じてメーラーを構築する。
// SMTP_HOSTが未設定の場合はログ出力のみのメーラーにフォールバックする。
func buildMailer(cfg *config.Config) mail.Mailer {
	if cfg.SMTPHost == "" {
		slog.Warn("SMTP_HOST is not set, falling back to log-only mailer")
		return mail.NewLogMailer()
	}

	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}

// runServe はAPIサーバーモードで起動する。
// ストアを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. ストアの初期化（Postgresまたはインメモリ）
	r, cleanup, err := buildRepos(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// 2. セキュリティ・トークンサービスの初期化
	hasher := security.NewPasswordHasher()
	tokenService := token.NewService(cfg.TokenSecret, cfg.TokenTTL)
	otpService := otp.NewService(r.otps, cfg.OTPTTL)

	// 3. ドメインサービスの初期化
	userService := user.NewService(r.users, hasher)

	// ユーザーテーブルが空の場合はデフォルト管理者をシードする
	ctx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	err = userService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	cancelSeed()
	if err != nil {
		return fmt.Errorf("failed to ensure default admin: %w", err)
	}

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(registry)

	authService := auth.NewService(
		userService, otpService, tokenService,
		r.history, buildMailer(cfg), collector,
	)

	// 5. ルーターの構築
	loginLimiter := middleware.NewRateLimiter(cfg.RateLimitLogin)
	defer loginLimiter.Stop()
	otpLimiter := middleware.NewRateLimiter(cfg.RateLimitOTP)
	defer otpLimiter.Stop()

	// インメモリ構成ではヘルスチェック対象のストアがない
	var healthChecker handler.HealthChecker
	if r.db != nil {
		healthChecker = r.db
	}

	router := handler.NewRouter(handler.RouterDeps{
		AuthHandler: handler.NewAuthHandler(authService, handler.AuthHandlerConfig{
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
			TokenMaxAge:  cfg.TokenTTL,
		}),
		UserHandler: handler.NewUserHandler(userService),

		TokenVerifier: tokenService,
		UserFinder:    r.users,

		LoginLimiter: loginLimiter,
		OTPLimiter:   otpLimiter,

		HealthChecker: healthChecker,

		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Gatherer:          registry,
	})

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for migrate")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
