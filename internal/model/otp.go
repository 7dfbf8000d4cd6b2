package model

import (
	"strings"
	"time"
)

// OTPRecord はメールアドレスの所有を証明する短命のワンタイムパスコードを表す。
// 1メールアドレスにつき常に最新の1件のみ有効（再発行で上書き）。
type OTPRecord struct {
	Email     string // 小文字化・トリム済みの検索キー
	Code      string // 6桁の数字コード
	Username  string // このコードに紐付けられたアイデンティティ
	ExpiresAt time.Time
}

// Expired は指定時刻においてレコードが期限切れかどうかを判定する。
func (r *OTPRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// NormalizeEmail はOTPの検索キーとして使用するメールアドレスを正規化する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
