// Package mail はワンタイムパスコードのメール送信を提供する。
// 送信はベストエフォートであり、失敗してもログインリクエスト自体は失敗しない。
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
)

// Mailer はワンタイムパスコードの送信インターフェース。
type Mailer interface {
	// SendOTP は指定アドレスにワンタイムパスコードを送信する。
	SendOTP(ctx context.Context, to, code string) error
}

// SMTPConfig はSMTP送信の設定。
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPMailer はSMTP経由でメールを送信する実装。
type SMTPMailer struct {
	config SMTPConfig
}

// NewSMTPMailer はSMTPMailerを生成する。
func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	return &SMTPMailer{config: config}
}

// SendOTP はSMTP経由でワンタイムパスコードを送信する。
func (m *SMTPMailer) SendOTP(_ context.Context, to, code string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Your one-time passcode\r\n\r\n"+
			"Your one-time passcode is %s. It expires in 5 minutes.\r\n",
		m.config.From, to, code,
	)

	addr := m.config.Host + ":" + m.config.Port
	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)

	if err := smtp.SendMail(addr, auth, m.config.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send otp mail: %w", err)
	}
	return nil
}

// LogMailer はSMTP未設定時のフォールバック実装。
// 実際には送信せず、コードをログに出力する。非本番運用での代替チャネル。
type LogMailer struct{}

// NewLogMailer はLogMailerを生成する。
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// SendOTP はコードをログに出力する。常に成功する。
func (m *LogMailer) SendOTP(_ context.Context, to, code string) error {
	slog.Warn("smtp is not configured; otp delivery skipped",
		slog.String("email", to),
		slog.String("code", code),
	)
	return nil
}

// compile-time interface checks
var _ Mailer = (*SMTPMailer)(nil)
var _ Mailer = (*LogMailer)(nil)
