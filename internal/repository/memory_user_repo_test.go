package repository

import (
	"context"
	"testing"
	"time"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
)

func newTestUser(id, username, email string, role model.Role, createdAt time.Time) *model.User {
	return &model.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "$argon2id$...",
		Role:         role,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func TestMemoryUserRepo_CreateAndFind(t *testing.T) {
	repo := NewMemoryUserRepo()
	ctx := context.Background()

	user := newTestUser("user-1", "alice", "alice@example.com", model.RoleAdmin, time.Now())
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := repo.FindByID(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found == nil || found.Username != "alice" {
		t.Fatalf("unexpected user: %+v", found)
	}

	found, err = repo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found == nil || found.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", found)
	}

	// 見つからない場合はnil
	found, err = repo.FindByID(ctx, "no-such-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != nil {
		t.Errorf("expected nil for unknown ID, got %+v", found)
	}
}

func TestMemoryUserRepo_CreateDuplicateUsername(t *testing.T) {
	repo := NewMemoryUserRepo()
	ctx := context.Background()

	if err := repo.Create(ctx, newTestUser("user-1", "alice", "", model.RoleUser, time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := repo.Create(ctx, newTestUser("user-2", "alice", "", model.RoleUser, time.Now()))
	if err != ErrDuplicateUsername {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestMemoryUserRepo_UpdateDuplicateUsername(t *testing.T) {
	repo := NewMemoryUserRepo()
	ctx := context.Background()

	if err := repo.Create(ctx, newTestUser("user-1", "alice", "", model.RoleUser, time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Create(ctx, newTestUser("user-2", "bob", "", model.RoleUser, time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 他ユーザーのユーザー名への変更は拒否される
	renamed := newTestUser("user-2", "alice", "", model.RoleUser, time.Now())
	if err := repo.Update(ctx, renamed); err != ErrDuplicateUsername {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}

	// 自分自身のユーザー名はそのまま更新できる
	same := newTestUser("user-1", "alice", "new@example.com", model.RoleUser, time.Now())
	if err := repo.Update(ctx, same); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMemoryUserRepo_Delete(t *testing.T) {
	repo := NewMemoryUserRepo()
	ctx := context.Background()

	if err := repo.Create(ctx, newTestUser("user-1", "alice", "", model.RoleUser, time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deleted, err := repo.Delete(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("expected delete to report true")
	}

	deleted, err = repo.Delete(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted {
		t.Error("expected second delete to report false")
	}
}

func TestMemoryUserRepo_ListWithFilter(t *testing.T) {
	repo := NewMemoryUserRepo()
	ctx := context.Background()
	base := time.Now()

	seed := []*model.User{
		newTestUser("user-1", "alice", "alice@example.com", model.RoleAdmin, base),
		newTestUser("user-2", "bob", "bob@example.com", model.RoleUser, base.Add(time.Second)),
		newTestUser("user-3", "carol", "carol@example.com", model.RoleUser, base.Add(2*time.Second)),
	}
	for _, u := range seed {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// 全件は作成日時順
	all, err := repo.List(ctx, UserFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[0].Username != "alice" || all[2].Username != "carol" {
		t.Fatalf("unexpected list order: %+v", all)
	}

	// ロールで絞り込み
	admins, err := repo.List(ctx, UserFilter{Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(admins) != 1 || admins[0].Username != "alice" {
		t.Fatalf("unexpected admins: %+v", admins)
	}

	// username/emailの部分一致（大文字小文字を区別しない）
	matched, err := repo.List(ctx, UserFilter{Search: "BOB"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matched) != 1 || matched[0].Username != "bob" {
		t.Fatalf("unexpected search result: %+v", matched)
	}
}

func TestMemoryUserRepo_Count(t *testing.T) {
	repo := NewMemoryUserRepo()
	ctx := context.Background()

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0, got %d", count)
	}

	if err := repo.Create(ctx, newTestUser("user-1", "alice", "", model.RoleUser, time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1, got %d", count)
	}
}

func TestMemoryUserRepo_ReturnsCopies(t *testing.T) {
	repo := NewMemoryUserRepo()
	ctx := context.Background()

	if err := repo.Create(ctx, newTestUser("user-1", "alice", "", model.RoleUser, time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := repo.FindByID(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 取得したレコードを変更してもストアには影響しない
	found.Username = "mallory"

	again, err := repo.FindByID(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Username != "alice" {
		t.Errorf("expected stored record to be unchanged, got %s", again.Username)
	}
}
