package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/token"
)

// SessionCookieName はセッショントークンを保持するCookieの名前。
const SessionCookieName = "token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// claimsContextKey はリクエストコンテキストに認証済みクレームを格納するためのキー。
var claimsContextKey = contextKey("auth_claims")

// TokenVerifier はセッショントークンの検証インターフェース。
// 検証失敗はnilで表現され、「セッションなし」と区別されない。
type TokenVerifier interface {
	Verify(tokenStr string) *token.Claims
}

// UserFinder は認可時のユーザー存在確認に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewRequireAuth は認証必須ミドルウェアを返す。
// トークンはCookieまたはAuthorization: Bearerヘッダーから取得する。
// 実在ユーザーはストアを再確認する（トークン発行後に削除されたユーザーを弾く）。
// 合成アイデンティティはユーザーレコードを持たないため再確認をスキップする。
// 検証済みクレームをリクエストコンテキストに注入する。
func NewRequireAuth(verifier TokenVerifier, users UserFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractToken(r)
			if tokenStr == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			claims := verifier.Verify(tokenStr)
			if claims == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			if !model.IsSyntheticID(claims.UserID) {
				user, err := users.FindByID(r.Context(), claims.UserID)
				if err != nil {
					slog.Error("failed to confirm user existence",
						slog.String("user_id", claims.UserID),
						slog.String("error", err.Error()),
					)
					WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
					return
				}
				if user == nil {
					WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
					return
				}
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRequireAdmin は管理者必須ミドルウェアを返す。
// 認証必須の検証に加え、ロールがadminであることを要求する。
func NewRequireAdmin(verifier TokenVerifier, users UserFinder) func(next http.Handler) http.Handler {
	requireAuth := NewRequireAuth(verifier, users)
	return func(next http.Handler) http.Handler {
		return requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := ClaimsFromContext(r.Context())
			if err != nil || claims.Role != model.RoleAdmin {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// ClaimsFromContext はリクエストコンテキストから認証済みクレームを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func ClaimsFromContext(ctx context.Context) (*token.Claims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*token.Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("auth claims not found in context")
	}
	return claims, nil
}

// ContextWithClaims はコンテキストにクレームを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// extractToken はCookieまたはAuthorizationヘッダーからトークンを取り出す。
// Cookieを優先し、非ブラウザクライアント向けにBearerヘッダーも受け付ける。
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}

	return ""
}

// ClientIP はリクエストの送信元IPアドレスを返す。
// プロキシ配下を想定しX-Forwarded-Forの先頭を優先する。
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return host
}
