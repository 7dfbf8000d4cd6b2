package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
)

// MemoryUserRepo はインメモリのユーザーリポジトリ。
// DATABASE_URL未設定時のフォールバックおよびテストで使用する。
// プロセス終了でデータは失われる。
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]*model.User // key: user ID
}

// NewMemoryUserRepo はMemoryUserRepoを生成する。
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		users: make(map[string]*model.User),
	}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

// FindByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

// Create はユーザーを作成する。ユーザー名の重複はErrDuplicateUsernameを返す。
func (r *MemoryUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return ErrDuplicateUsername
		}
	}

	copied := *user
	r.users[user.ID] = &copied
	return nil
}

// Update はユーザーを上書き更新する。
func (r *MemoryUserRepo) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.users {
		if id != user.ID && existing.Username == user.Username {
			return ErrDuplicateUsername
		}
	}

	copied := *user
	r.users[user.ID] = &copied
	return nil
}

// Delete は指定IDのユーザーを削除する。削除された場合はtrueを返す。
func (r *MemoryUserRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

// List は絞り込み条件に一致するユーザー一覧を作成日時順で返す。
func (r *MemoryUserRepo) List(_ context.Context, filter UserFilter) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []*model.User
	for _, user := range r.users {
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(user.Username), search) &&
				!strings.Contains(strings.ToLower(user.Email), search) {
				continue
			}
		}
		copied := *user
		users = append(users, &copied)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	return users, nil
}

// Count は全ユーザー数を返す。
func (r *MemoryUserRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

// compile-time interface check
var _ UserRepository = (*MemoryUserRepo)(nil)
