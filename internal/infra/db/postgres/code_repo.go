package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pcred/internal/domain"
	"pcred/internal/domain/model"
	"pcred/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.CodeRepository = (*codeRepo)(nil)

const uniqueViolation = "23505"

type codeRepo struct {
	pool *pgxpool.Pool
}

func NewCodeRepo(pool *pgxpool.Pool) repository.CodeRepository {
	return &codeRepo{pool: pool}
}

func (r *codeRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.RewardCode) error {
	const q = `
INSERT INTO reward_codes (id, code, owner_id, reward, state, created_at, expires_at, used_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		rec.ID, rec.Code, rec.OwnerID, rec.Reward, string(rec.State), rec.CreatedAt, rec.ExpiresAt, rec.UsedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateCode
		}
		return fmt.Errorf("%w: insert code: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *codeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.RewardCode, error) {
	const q = `
SELECT id, code, owner_id, reward, state, created_at, expires_at, used_at
  FROM reward_codes
 WHERE code = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanCode(row)
}

// MarkUsed is the check-and-set at the heart of redemption: one conditional
// UPDATE, so two racing redeemers can never both see an unused row.
func (r *codeRepo) MarkUsed(ctx context.Context, tx repository.Tx, code, ownerID string, usedAt time.Time) (*model.RewardCode, error) {
	const q = `
UPDATE reward_codes
   SET state = 'used', used_at = $3
 WHERE code = $1 AND owner_id = $2 AND state = 'unused' AND expires_at > $3
RETURNING id, code, owner_id, reward, state, created_at, expires_at, used_at;
`
	row, err := pickRow(ctx, r.pool, tx, q, code, ownerID, usedAt)
	if err != nil {
		return nil, err
	}
	rec, err := scanCode(row)
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrRedeemRejected
		}
		return nil, err
	}
	return rec, nil
}

func (r *codeRepo) PurgeExpired(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	const q = `
DELETE FROM reward_codes
 WHERE state = 'unused' AND expires_at <= $1;
`
	tag, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		return 0, fmt.Errorf("%w: purge expired: %v", domain.ErrStorageUnavailable, err)
	}
	return int(tag.RowsAffected()), nil
}

func scanCode(row pgx.Row) (*model.RewardCode, error) {
	var (
		rec   model.RewardCode
		state string
	)
	err := row.Scan(&rec.ID, &rec.Code, &rec.OwnerID, &rec.Reward, &state, &rec.CreatedAt, &rec.ExpiresAt, &rec.UsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, fmt.Errorf("%w: scan code row: %v", domain.ErrStorageUnavailable, err)
	}
	rec.State = model.CodeState(state)
	return &rec, nil
}
