package repository

import "context"

// Tx is an opaque transaction handle. Its concrete type is infra-defined
// (pgx.Tx for Postgres, an internal token for the file store). Repositories
// MUST gracefully accept a nil Tx (non-transactional path).
type Tx interface{}

// TransactionManager executes fn within one atomicity scope. What the scope
// means is backend-defined: a database transaction, a store-wide mutex, or a
// no-op where the individual operations are already atomic. The use case layer
// relies on it to bind a code's state transition and the ledger credit so that
// neither a double credit nor a lost credit can be observed.
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
