// Package auth は認証フローとセッション発行のビジネスロジックを提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/mail"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/metrics"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/repository"
)

// historyMaxLimit はログイン履歴1ページあたりの最大件数。
const historyMaxLimit = 100

// historyDefaultLimit はlimit未指定時のログイン履歴件数。
const historyDefaultLimit = 20

// CredentialStore は認証フローが必要とするユーザー操作のインターフェース。
// user.Serviceの部分集合として定義する。
type CredentialStore interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	VerifyPassword(ctx context.Context, username, password string) (bool, error)
}

// OTPStore はワンタイムパスコードの発行・消費インターフェース。
// otp.Serviceの部分集合として定義する。
type OTPStore interface {
	Issue(ctx context.Context, email, username string) (string, error)
	VerifyAndConsume(ctx context.Context, email, code string) (*model.OTPRecord, error)
}

// TokenIssuer はセッショントークンの発行インターフェース。
type TokenIssuer interface {
	Issue(userID, username string, role model.Role) (string, error)
}

// Service は認証オーケストレーター。
// パスワードログイン・OTP要求・OTP検証の3つのエントリポイントを提供する。
type Service struct {
	users   CredentialStore
	otps    OTPStore
	tokens  TokenIssuer
	history repository.LoginHistoryRepository
	mailer  mail.Mailer
	metrics metrics.AuthMetrics
}

// NewService はServiceを生成する。
func NewService(
	users CredentialStore,
	otps OTPStore,
	tokens TokenIssuer,
	history repository.LoginHistoryRepository,
	mailer mail.Mailer,
	m metrics.AuthMetrics,
) *Service {
	return &Service{
		users:   users,
		otps:    otps,
		tokens:  tokens,
		history: history,
		mailer:  mailer,
		metrics: m,
	}
}

// RequestMeta はログイン履歴に記録するリクエスト情報。
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// LoginResult は認証成功時のレスポンス内容。
type LoginResult struct {
	User        model.PublicUser
	Permissions model.Permissions
	Token       string
}

// Login はユーザー名とパスワードで認証する。
// ユーザー不在とパスワード不一致は同一のエラーを返し、
// ユーザー名の存在有無を推測できないようにする。
func (s *Service) Login(ctx context.Context, username, password string, meta RequestMeta) (*LoginResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, model.NewValidationError("username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.metrics.RecordLogin(false)
		return nil, model.NewInvalidCredentialsError()
	}

	ok, err := s.users.VerifyPassword(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.metrics.RecordLogin(false)
		return nil, model.NewInvalidCredentialsError()
	}

	role, valid := model.ParseRole(string(user.Role))
	if !valid {
		s.metrics.RecordLogin(false)
		slog.Warn("login rejected: unrecognized role",
			slog.String("user_id", user.ID),
			slog.String("role", string(user.Role)),
		)
		return nil, model.NewInvalidRoleError()
	}

	tokenStr, err := s.tokens.Issue(user.ID, user.Username, role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.recordLogin(ctx, user, meta)
	s.metrics.RecordLogin(true)

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return &LoginResult{
		User:        user.Public(),
		Permissions: model.PermissionsForRole(role),
		Token:       tokenStr,
	}, nil
}

// RequestOTP はワンタイムパスコードを発行し、ベストエフォートでメール送信する。
// アカウントの存在有無にかかわらず同一の成功レスポンスを返す（列挙攻撃対策）。
// 未登録のアイデンティティにもコードを発行する: OTP検証フローが
// ユーザーレコードを持たない合成アイデンティティを明示的にサポートするため。
// 送信失敗はログに記録するのみで、リクエスト自体は失敗しない。
func (s *Service) RequestOTP(ctx context.Context, email, username string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(username) == "" {
		return model.NewValidationError("email and username are required")
	}

	code, err := s.otps.Issue(ctx, email, username)
	if err != nil {
		return fmt.Errorf("failed to issue otp: %w", err)
	}
	s.metrics.RecordOTPIssued()

	if err := s.mailer.SendOTP(ctx, model.NormalizeEmail(email), code); err != nil {
		slog.Error("failed to deliver otp mail",
			slog.String("email", model.NormalizeEmail(email)),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// VerifyOTP はワンタイムパスコードを検証し、セッショントークンを発行する。
// コードに紐付くユーザー名のレコードが存在すればそのID・ロールを採用し履歴を記録する。
// 存在しない場合は合成アイデンティティ（id="otp:"+email, role=user）を発行する。
// 合成アイデンティティは署名済みトークンのみで信頼され、履歴は記録しない。
func (s *Service) VerifyOTP(ctx context.Context, email, username, code string, meta RequestMeta) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(username) == "" || strings.TrimSpace(code) == "" {
		return nil, model.NewValidationError("email, username and otp are required")
	}

	record, err := s.otps.VerifyAndConsume(ctx, email, code)
	if err != nil {
		return nil, fmt.Errorf("failed to verify otp: %w", err)
	}
	if record == nil {
		s.metrics.RecordOTPVerified(false)
		return nil, model.NewInvalidOrExpiredOTPError()
	}

	if record.Username != username {
		s.metrics.RecordOTPVerified(false)
		return nil, model.NewInvalidCredentialsError()
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	var public model.PublicUser
	var role model.Role

	if user != nil {
		// 実在ユーザー: ID・ロールを採用し履歴を記録する
		role = user.Role
		if _, ok := model.ParseRole(string(role)); !ok {
			role = model.RoleUser
		}
		public = user.Public()
		public.Role = role
		s.recordLogin(ctx, user, meta)
	} else {
		// 合成アイデンティティ: ユーザーレコードなし・履歴なし
		role = model.RoleUser
		public = model.PublicUser{
			ID:       model.SyntheticID(record.Email),
			Username: username,
			Email:    record.Email,
			Role:     role,
		}
	}

	tokenStr, err := s.tokens.Issue(public.ID, public.Username, role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.RecordOTPVerified(true)

	slog.Info("otp login succeeded",
		slog.String("user_id", public.ID),
		slog.String("username", public.Username),
		slog.Bool("synthetic", user == nil),
	)

	return &LoginResult{
		User:        public,
		Permissions: model.PermissionsForRole(role),
		Token:       tokenStr,
	}, nil
}

// CurrentUser は認証済みクレームから現在のユーザー情報を返す。
// 合成アイデンティティはクレームのみから復元する。
// 実在ユーザーはストアを再確認し、削除済みの場合はUSER_NOT_FOUNDを返す。
func (s *Service) CurrentUser(ctx context.Context, userID, username string, role model.Role) (*model.PublicUser, error) {
	if model.IsSyntheticID(userID) {
		return &model.PublicUser{
			ID:       userID,
			Username: username,
			Email:    strings.TrimPrefix(userID, model.SyntheticIDPrefix),
			Role:     role,
		}, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	public := user.Public()
	return &public, nil
}

// LoginHistory はログイン履歴を新しい順に返す。
// limitは最大100件に制限される。
func (s *Service) LoginHistory(ctx context.Context, limit, offset int) ([]*model.LoginRecord, int, error) {
	if limit <= 0 {
		limit = historyDefaultLimit
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	records, total, err := s.history.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list login history: %w", err)
	}
	return records, total, nil
}

// recordLogin はログイン履歴をベストエフォートで追記する。
// 永続化の失敗はログに記録するのみで、ログイン処理自体は失敗させない。
func (s *Service) recordLogin(ctx context.Context, user *model.User, meta RequestMeta) {
	record := &model.LoginRecord{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		LoginAt:   time.Now(),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}

	if err := s.history.Insert(ctx, record); err != nil {
		slog.Error("failed to append login history",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}
