package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
)

// PostgresOTPRepo はPostgreSQLを使用したワンタイムパスコードリポジトリ。
type PostgresOTPRepo struct {
	db *sql.DB
}

// NewPostgresOTPRepo はPostgresOTPRepoを生成する。
func NewPostgresOTPRepo(db *sql.DB) *PostgresOTPRepo {
	return &PostgresOTPRepo{db: db}
}

// Upsert はレコードを保存する。同一メールアドレスの既存レコードは上書きされる。
func (r *PostgresOTPRepo) Upsert(ctx context.Context, record *model.OTPRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otps (email, code, username, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO UPDATE
		 SET code = EXCLUDED.code, username = EXCLUDED.username, expires_at = EXCLUDED.expires_at`,
		record.Email, record.Code, record.Username, record.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert otp: %w", err)
	}
	return nil
}

// Consume はemailとcodeが一致し期限内のレコードを原子的に削除して返す。
// 該当レコードがない場合はnilを返す。
// DELETE ... RETURNINGにより、同一コードの同時検証が両方成功することはない。
func (r *PostgresOTPRepo) Consume(ctx context.Context, email, code string, now time.Time) (*model.OTPRecord, error) {
	record := &model.OTPRecord{}
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM otps
		 WHERE email = $1 AND code = $2 AND expires_at > $3
		 RETURNING email, code, username, expires_at`,
		email, code, now,
	).Scan(&record.Email, &record.Code, &record.Username, &record.ExpiresAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume otp: %w", err)
	}

	return record, nil
}

// DeleteExpired は指定メールアドレスの期限切れレコードを削除する。
func (r *PostgresOTPRepo) DeleteExpired(ctx context.Context, email string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM otps WHERE email = $1 AND expires_at <= $2`,
		email, now,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expired otp: %w", err)
	}
	return nil
}

// compile-time interface check
var _ OTPRepository = (*PostgresOTPRepo)(nil)
