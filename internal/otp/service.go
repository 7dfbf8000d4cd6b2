// Package otp はワンタイムパスコードの発行と消費を提供する。
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/repository"
)

// codeSpace は6桁コードの空間サイズ（000000〜999999）。
var codeSpace = big.NewInt(1000000)

// Service はワンタイムパスコードのライフサイクルを管理する。
// 再発行は既存コードを上書きするため、常に最新の1件のみ有効。
type Service struct {
	repo repository.OTPRepository
	ttl  time.Duration
	now  func() time.Time
}

// NewService はServiceを生成する。ttlはコードの有効期間を指定する。
func NewService(repo repository.OTPRepository, ttl time.Duration) *Service {
	return &Service{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
	}
}

// Issue は一様ランダムな6桁コードを生成し、指定メールアドレスに紐付けて保存する。
// 同一メールアドレスの既存コードは無効化される（上書き）。
func (s *Service) Issue(ctx context.Context, email, username string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate otp code: %w", err)
	}

	record := &model.OTPRecord{
		Email:     model.NormalizeEmail(email),
		Code:      code,
		Username:  username,
		ExpiresAt: s.now().Add(s.ttl),
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store otp: %w", err)
	}

	return code, nil
}

// VerifyAndConsume はコードを検証し、成功時にレコードを削除して返す。
// 未発行・期限切れ・コード不一致の場合はnilを返す。
// 期限切れレコードは副作用として削除される。
// 消費はストアの原子的な比較削除に依存するため、同一コードは一度しか成功しない。
func (s *Service) VerifyAndConsume(ctx context.Context, email, code string) (*model.OTPRecord, error) {
	normalized := model.NormalizeEmail(email)
	now := s.now()

	record, err := s.repo.Consume(ctx, normalized, code, now)
	if err != nil {
		return nil, fmt.Errorf("failed to consume otp: %w", err)
	}
	if record == nil {
		// 期限切れレコードの掃除はベストエフォート
		if err := s.repo.DeleteExpired(ctx, normalized, now); err != nil {
			return nil, fmt.Errorf("failed to delete expired otp: %w", err)
		}
		return nil, nil
	}

	return record, nil
}

// generateCode は暗号的に安全な乱数から6桁の数字コードを生成する。
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
