// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
)

// ErrDuplicateUsername はユーザー名の一意性制約違反を表す。
// サービス層でAPIエラーに変換する。
var ErrDuplicateUsername = errors.New("username already exists")

// UserFilter はユーザー一覧取得の絞り込み条件。
type UserFilter struct {
	Role   model.Role // 空の場合は全ロール
	Search string     // username/emailの部分一致（空の場合は絞り込みなし）
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
	// ユーザー名は大文字小文字を区別する。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	// ユーザー名が既に存在する場合はErrDuplicateUsernameを返す。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーを上書き更新する。
	// 更新後のユーザー名が他ユーザーと衝突する場合はErrDuplicateUsernameを返す。
	Update(ctx context.Context, user *model.User) error

	// Delete は指定IDのユーザーを削除する。削除された場合はtrueを返す。
	Delete(ctx context.Context, id string) (bool, error)

	// List は絞り込み条件に一致するユーザー一覧を作成日時順で返す。
	List(ctx context.Context, filter UserFilter) ([]*model.User, error)

	// Count は全ユーザー数を返す。ブートストラップ判定に使用する。
	Count(ctx context.Context) (int, error)
}

// OTPRepository はワンタイムパスコードの永続化インターフェース。
type OTPRepository interface {
	// Upsert はレコードを保存する。同一メールアドレスの既存レコードは上書きされる。
	Upsert(ctx context.Context, record *model.OTPRecord) error

	// Consume はemailとcodeが一致し期限内のレコードを原子的に削除して返す。
	// 該当レコードがない場合はnilを返す。
	// 同一メールアドレスへの同時検証が両方成功しないことはストア側で保証する。
	Consume(ctx context.Context, email, code string, now time.Time) (*model.OTPRecord, error)

	// DeleteExpired は指定メールアドレスの期限切れレコードを削除する。
	DeleteExpired(ctx context.Context, email string, now time.Time) error
}

// LoginHistoryRepository はログイン履歴の永続化インターフェース。
// レコードは追記専用で、書き込み後に変更されない。
type LoginHistoryRepository interface {
	// Insert はログイン履歴を追記する。
	Insert(ctx context.Context, record *model.LoginRecord) error

	// List はログイン履歴を新しい順に返す。総件数も併せて返す。
	List(ctx context.Context, limit, offset int) ([]*model.LoginRecord, int, error)
}
