// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/repository"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/security"
)

// Service はユーザー管理のサービス層。
// パスワードのハッシュ化はこの層で行い、リポジトリには平文を渡さない。
type Service struct {
	repo   repository.UserRepository
	hasher *security.PasswordHasher
}

// NewService はServiceを生成する。
func NewService(repo repository.UserRepository, hasher *security.PasswordHasher) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
	}
}

// CreateInput はユーザー作成の入力。
type CreateInput struct {
	Username string
	Email    string
	Password string
	Role     model.Role
}

// UpdateInput はユーザー更新の入力。nilのフィールドは変更しない。
// ロール変更の認可は呼び出し側（管理者専用ルート）で担保する。
type UpdateInput struct {
	Username *string
	Email    *string
	Password *string
	Role     *model.Role
}

// Create はユーザーを作成する。
// ユーザー名が既に存在する場合はDUPLICATE_USERエラーを返す。
// パスワードはハッシュ化して保存し、平文は保持しない。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, model.NewValidationError("username is required")
	}
	if in.Password == "" {
		return nil, model.NewValidationError("password is required")
	}

	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	if _, ok := model.ParseRole(string(role)); !ok {
		return nil, model.NewValidationError("role must be admin or user")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, model.NewDuplicateUserError(username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user created",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.String("role", string(user.Role)),
	)

	return user, nil
}

// GetByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (s *Service) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.repo.FindByID(ctx, id)
}

// GetByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
func (s *Service) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.repo.FindByUsername(ctx, username)
}

// VerifyPassword はユーザー名とパスワードを照合する。
// ユーザーが存在しない場合もfalseを返す（fail closed）。
// 照合には定数時間比較を使用する。
func (s *Service) VerifyPassword(ctx context.Context, username, password string) (bool, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return false, nil
	}
	return s.hasher.Verify(password, user.PasswordHash), nil
}

// Update はユーザーを部分更新する。パスワード変更時は再ハッシュする。
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, model.NewValidationError("username must not be empty")
		}
		user.Username = username
	}
	if in.Email != nil {
		user.Email = strings.TrimSpace(*in.Email)
	}
	if in.Role != nil {
		if _, ok := model.ParseRole(string(*in.Role)); !ok {
			return nil, model.NewValidationError("role must be admin or user")
		}
		user.Role = *in.Role
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, model.NewValidationError("password must not be empty")
		}
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, model.NewDuplicateUserError(user.Username)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// Delete は指定IDのユーザーを削除する。
// 操作者自身のアカウントは削除できない。
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return model.NewSelfDeleteForbiddenError()
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !deleted {
		return model.NewUserNotFoundError()
	}

	slog.Info("user deleted",
		slog.String("user_id", id),
		slog.String("actor_id", actorID),
	)

	return nil
}

// List は絞り込み条件に一致するユーザー一覧を返す。
// パスワードハッシュを含まない公開表現に変換して返す。
func (s *Service) List(ctx context.Context, filter repository.UserFilter) ([]model.PublicUser, error) {
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	public := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	return public, nil
}

// EnsureAdmin はユーザーテーブルが空の場合にデフォルト管理者をシードする。
// 初回起動時に外部プロビジョニングなしでシステムを利用可能にするための処理。
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	admin, err := s.Create(ctx, CreateInput{
		Username: username,
		Password: password,
		Role:     model.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("failed to seed default admin: %w", err)
	}

	slog.Info("default admin seeded",
		slog.String("user_id", admin.ID),
		slog.String("username", admin.Username),
	)

	return nil
}
