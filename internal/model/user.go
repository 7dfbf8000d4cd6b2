// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Role はユーザーの権限区分を表す。
type Role string

const (
	// RoleAdmin は管理者ロール。コンテンツ管理とユーザー管理の全操作を許可する。
	RoleAdmin Role = "admin"
	// RoleUser は一般ユーザーロール。閲覧と回答送信のみ許可する。
	RoleUser Role = "user"
)

// ParseRole は文字列をRoleに変換する。
// 認識できない値の場合はokがfalseになる。
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	default:
		return "", false
	}
}

// Permissions はロールごとの操作権限サマリを表す。
// ログインレスポンスに含め、クライアント側の表示制御に使用する。
type Permissions struct {
	ManageModules   bool `json:"manage_modules"`
	ManageQuestions bool `json:"manage_questions"`
	ManageVideos    bool `json:"manage_videos"`
	ManageUsers     bool `json:"manage_users"`
	ViewAllData     bool `json:"view_all_data"`
}

// PermissionsForRole はロールに対応する権限サマリを返す。
// 認識できないロールは最小権限（一般ユーザー相当）として扱う。
func PermissionsForRole(role Role) Permissions {
	if role == RoleAdmin {
		return Permissions{
			ManageModules:   true,
			ManageQuestions: true,
			ManageVideos:    true,
			ManageUsers:     true,
			ViewAllData:     true,
		}
	}
	return Permissions{}
}

// User は認証対象のユーザーを表す。
// PasswordHashはソルト付き一方向ハッシュであり、平文は保持しない。
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser はAPIレスポンスに含めるユーザー表現。
// パスワードハッシュを一切含まない。
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// Public はAPIレスポンス用の表現に変換する。
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

// SyntheticIDPrefix はOTPのみで認証された合成アイデンティティのIDプレフィックス。
// 合成アイデンティティはユーザーレコードを持たず、署名済みトークンのみで信頼される。
const SyntheticIDPrefix = "otp:"

// SyntheticID はメールアドレスから合成アイデンティティのIDを生成する。
func SyntheticID(email string) string {
	return SyntheticIDPrefix + email
}

// IsSyntheticID は合成アイデンティティのIDかどうかを判定する。
func IsSyntheticID(id string) bool {
	return strings.HasPrefix(id, SyntheticIDPrefix)
}
