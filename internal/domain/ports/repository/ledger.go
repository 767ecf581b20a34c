package repository

import "context"

// LedgerRepository is the port for per-account balances.
type LedgerRepository interface {
	// Credit atomically adds amount to the owner's balance, creating the entry
	// with balance = amount when absent, and returns the new balance. Must be an
	// atomic increment, never a read-modify-write pair.
	Credit(ctx context.Context, tx Tx, ownerID string, amount int64) (int64, error)

	// Balance returns the current balance, 0 when the owner has no entry.
	Balance(ctx context.Context, tx Tx, ownerID string) (int64, error)
}
