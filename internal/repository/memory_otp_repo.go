package repository

import (
	"context"
	"sync"
	"time"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
)

// MemoryOTPRepo はインメモリのワンタイムパスコードリポジトリ。
// 消費はミューテックス下で比較と削除を行うため、
// 同一コードの同時検証が両方成功することはない。
type MemoryOTPRepo struct {
	mu      sync.Mutex
	records map[string]*model.OTPRecord // key: email
}

// NewMemoryOTPRepo はMemoryOTPRepoを生成する。
func NewMemoryOTPRepo() *MemoryOTPRepo {
	return &MemoryOTPRepo{
		records: make(map[string]*model.OTPRecord),
	}
}

// Upsert はレコードを保存する。同一メールアドレスの既存レコードは上書きされる。
func (r *MemoryOTPRepo) Upsert(_ context.Context, record *model.OTPRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *record
	r.records[record.Email] = &copied
	return nil
}

// Consume はemailとcodeが一致し期限内のレコードを原子的に削除して返す。
// 該当レコードがない場合はnilを返す。
func (r *MemoryOTPRepo) Consume(_ context.Context, email, code string, now time.Time) (*model.OTPRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[email]
	if !ok || record.Code != code || record.Expired(now) {
		return nil, nil
	}

	delete(r.records, email)
	copied := *record
	return &copied, nil
}

// DeleteExpired は指定メールアドレスの期限切れレコードを削除する。
func (r *MemoryOTPRepo) DeleteExpired(_ context.Context, email string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record, ok := r.records[email]; ok && record.Expired(now) {
		delete(r.records, email)
	}
	return nil
}

// compile-time interface check
var _ OTPRepository = (*MemoryOTPRepo)(nil)
