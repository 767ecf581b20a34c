package repository

import (
	"context"
	"time"

	"pcred/internal/domain/model"
)

// CodeRepository is the port for reward code persistence. It is the single
// authority on code uniqueness and on the unused -> used transition.
type CodeRepository interface {
	// FindByCode returns the record for a code string or domain.ErrCodeNotFound.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.RewardCode, error)

	// Insert stores a new record. Returns domain.ErrDuplicateCode when any
	// record (live or not) already holds the code string.
	Insert(ctx context.Context, tx Tx, rec *model.RewardCode) error

	// MarkUsed atomically transitions the code to used and returns the updated
	// record. It succeeds only if the record exists, is unused, is unexpired at
	// usedAt, and belongs to ownerID; otherwise it returns
	// domain.ErrRedeemRejected without side effects. Under concurrent callers
	// racing on one code at most one call may succeed.
	MarkUsed(ctx context.Context, tx Tx, code, ownerID string, usedAt time.Time) (*model.RewardCode, error)

	// PurgeExpired removes unused records whose expiry has passed and reports
	// how many were dropped. It need not be exhaustive; it is invoked
	// opportunistically before reads and periodically by the purge worker.
	PurgeExpired(ctx context.Context, tx Tx, now time.Time) (int, error)
}
