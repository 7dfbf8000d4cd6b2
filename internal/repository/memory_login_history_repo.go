package repository

import (
	"context"
	"sync"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
)

// defaultHistoryCap はインメモリで保持するログイン履歴の上限件数。
// 上限を超えた場合は最も古いレコードから破棄される（近似であり保証ではない）。
const defaultHistoryCap = 1000

// MemoryLoginHistoryRepo はインメモリのログイン履歴リポジトリ。
// 保持件数を上限で打ち切る以外は追記専用。
type MemoryLoginHistoryRepo struct {
	mu      sync.RWMutex
	records []*model.LoginRecord // 追記順（古い→新しい）
	cap     int
}

// NewMemoryLoginHistoryRepo はMemoryLoginHistoryRepoを生成する。
func NewMemoryLoginHistoryRepo() *MemoryLoginHistoryRepo {
	return &MemoryLoginHistoryRepo{cap: defaultHistoryCap}
}

// Insert はログイン履歴を追記する。上限超過時は最も古いレコードを破棄する。
func (r *MemoryLoginHistoryRepo) Insert(_ context.Context, record *model.LoginRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *record
	r.records = append(r.records, &copied)
	if len(r.records) > r.cap {
		r.records = r.records[len(r.records)-r.cap:]
	}
	return nil
}

// List はログイン履歴を新しい順に返す。総件数も併せて返す。
func (r *MemoryLoginHistoryRepo) List(_ context.Context, limit, offset int) ([]*model.LoginRecord, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := len(r.records)

	// 新しい順に変換したうえでページングする
	var page []*model.LoginRecord
	for i := total - 1 - offset; i >= 0 && len(page) < limit; i-- {
		copied := *r.records[i]
		page = append(page, &copied)
	}

	return page, total, nil
}

// compile-time interface check
var _ LoginHistoryRepository = (*MemoryLoginHistoryRepo)(nil)
