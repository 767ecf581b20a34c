package model

// LedgerEntry is the per-account accumulator of credited rewards. Entries are
// created implicitly on first credit and only ever incremented.
type LedgerEntry struct {
	OwnerID string
	Balance int64
}
