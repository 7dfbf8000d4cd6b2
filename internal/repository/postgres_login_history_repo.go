package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
)

// PostgresLoginHistoryRepo はPostgreSQLを使用したログイン履歴リポジトリ。
type PostgresLoginHistoryRepo struct {
	db *sql.DB
}

// NewPostgresLoginHistoryRepo はPostgresLoginHistoryRepoを生成する。
func NewPostgresLoginHistoryRepo(db *sql.DB) *PostgresLoginHistoryRepo {
	return &PostgresLoginHistoryRepo{db: db}
}

// Insert はログイン履歴を追記する。
func (r *PostgresLoginHistoryRepo) Insert(ctx context.Context, record *model.LoginRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_history (id, user_id, username, email, role, login_at, ip_address, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID, record.UserID, record.Username, record.Email,
		record.Role, record.LoginAt, record.IPAddress, record.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to insert login record: %w", err)
	}
	return nil
}

// List はログイン履歴を新しい順に返す。総件数も併せて返す。
func (r *PostgresLoginHistoryRepo) List(ctx context.Context, limit, offset int) ([]*model.LoginRecord, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM login_history`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count login records: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, username, email, role, login_at, ip_address, user_agent
		 FROM login_history
		 ORDER BY login_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list login records: %w", err)
	}
	defer rows.Close()

	var records []*model.LoginRecord
	for rows.Next() {
		record := &model.LoginRecord{}
		if err := rows.Scan(
			&record.ID, &record.UserID, &record.Username, &record.Email,
			&record.Role, &record.LoginAt, &record.IPAddress, &record.UserAgent,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan login record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate login records: %w", err)
	}

	return records, total, nil
}

// compile-time interface check
var _ LoginHistoryRepository = (*PostgresLoginHistoryRepo)(nil)
