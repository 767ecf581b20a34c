package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pcred/internal/domain"
	"pcred/internal/domain/ports/repository"
)

var _ repository.LedgerRepository = (*ledgerRepo)(nil)

type ledgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) repository.LedgerRepository {
	return &ledgerRepo{pool: pool}
}

// Credit is a single upsert-increment; the database serializes concurrent
// credits to one owner, so no update is ever lost.
func (r *ledgerRepo) Credit(ctx context.Context, tx repository.Tx, ownerID string, amount int64) (int64, error) {
	const q = `
INSERT INTO ledger (owner_id, balance)
VALUES ($1, $2)
ON CONFLICT (owner_id) DO UPDATE SET balance = ledger.balance + EXCLUDED.balance
RETURNING balance;
`
	row, err := pickRow(ctx, r.pool, tx, q, ownerID, amount)
	if err != nil {
		return 0, err
	}
	var balance int64
	if err := row.Scan(&balance); err != nil {
		return 0, fmt.Errorf("%w: credit %s: %v", domain.ErrStorageUnavailable, ownerID, err)
	}
	return balance, nil
}

func (r *ledgerRepo) Balance(ctx context.Context, tx repository.Tx, ownerID string) (int64, error) {
	const q = `SELECT balance FROM ledger WHERE owner_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, ownerID)
	if err != nil {
		return 0, err
	}
	var balance int64
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: balance %s: %v", domain.ErrStorageUnavailable, ownerID, err)
	}
	return balance, nil
}
