// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/auth"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/middleware"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
)

// AuthServiceInterface は認証サービスのインターフェース。
// テスト時のモック差し替えを可能にする。
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string, meta auth.RequestMeta) (*auth.LoginResult, error)
	RequestOTP(ctx context.Context, email, username string) error
	VerifyOTP(ctx context.Context, email, username, code string, meta auth.RequestMeta) (*auth.LoginResult, error)
	CurrentUser(ctx context.Context, userID, username string, role model.Role) (*model.PublicUser, error)
	LoginHistory(ctx context.Context, limit, offset int) ([]*model.LoginRecord, int, error)
}

// AuthHandlerConfig はCookie発行に必要な設定。
type AuthHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
	TokenMaxAge  time.Duration
}

// AuthHandler は認証関連エンドポイントのハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// loginRequest はPOST /auth/loginのリクエストボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// sessionResponse は認証成功時のレスポンスボディ。
// トークンはCookieに加えボディにも含め、非ブラウザクライアントが
// Authorization: Bearerヘッダーで再利用できるようにする。
type sessionResponse struct {
	User        model.PublicUser  `json:"user"`
	Permissions model.Permissions `json:"permissions"`
	Token       string            `json:"token"`
}

// Login はPOST /auth/loginを処理する。
// 成功時はHttpOnly Cookieにセッショントークンを設定する。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("invalid request body"))
		return
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password, requestMeta(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, sessionResponse{
		User:        result.User,
		Permissions: result.Permissions,
		Token:       result.Token,
	})
}

// otpRequest はPOST /auth/request-otpのリクエストボディ。
type otpRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// RequestOTP はPOST /auth/request-otpを処理する。
// アカウントの存在有無にかかわらず同一の成功レスポンスを返す。
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("invalid request body"))
		return
	}

	if err := h.service.RequestOTP(r.Context(), req.Email, req.Username); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "パスコードを送信しました。メールをご確認ください。",
	})
}

// verifyOTPRequest はPOST /auth/verify-otpのリクエストボディ。
type verifyOTPRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	OTP      string `json:"otp"`
}

// VerifyOTP はPOST /auth/verify-otpを処理する。
// 成功時はパスワードログインと同様にセッションCookieを設定する。
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("invalid request body"))
		return
	}

	result, err := h.service.VerifyOTP(r.Context(), req.Email, req.Username, req.OTP, requestMeta(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, sessionResponse{
		User:        result.User,
		Permissions: result.Permissions,
		Token:       result.Token,
	})
}

// meResponse はGET /auth/meのレスポンスボディ。
type meResponse struct {
	User        model.PublicUser  `json:"user"`
	Permissions model.Permissions `json:"permissions"`
}

// Me はGET /auth/meを処理する。
// 認証ミドルウェアが注入したクレームから現在のユーザー情報を返す。
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.CurrentUser(r.Context(), claims.UserID, claims.Username, claims.Role)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		User:        *user,
		Permissions: model.PermissionsForRole(user.Role),
	})
}

// loginHistoryResponse はGET /auth/login-historyのレスポンスボディ。
type loginHistoryResponse struct {
	Logins []*model.LoginRecord `json:"logins"`
	Total  int                  `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// LoginHistory はGET /auth/login-historyを処理する。管理者専用。
func (h *AuthHandler) LoginHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 0)
	offset := parseIntQuery(r, "offset", 0)

	records, total, err := h.service.LoginHistory(r.Context(), limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if records == nil {
		records = []*model.LoginRecord{}
	}
	if limit <= 0 {
		limit = len(records)
	}

	writeJSON(w, http.StatusOK, loginHistoryResponse{
		Logins: records,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Logout はPOST /auth/logoutを処理する。
// セッションCookieを即時失効させる。トークン自体は期限まで有効なため、
// 非Cookieクライアントはトークンを破棄する必要がある。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "ログアウトしました。",
	})
}

// setSessionCookie はセッショントークンをHttpOnly Cookieとして設定する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   int(h.config.TokenMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// requestMeta はログイン履歴用のリクエスト情報を組み立てる。
func requestMeta(r *http.Request) auth.RequestMeta {
	return auth.RequestMeta{
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// parseIntQuery はクエリパラメータを整数として取得する。
// 欠落・不正な値はデフォルト値にフォールバックする。
func parseIntQuery(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// APIError以外のエラーは詳細をログに記録し、500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("unexpected service error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はエラーコードをHTTPステータスコードに対応付ける。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeInvalidCredentials, model.ErrCodeInvalidOrExpiredOTP, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeInvalidRole, model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateUser:
		return http.StatusConflict
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
