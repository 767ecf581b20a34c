package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pcred/internal/domain"
	"pcred/internal/domain/model"
	"pcred/internal/domain/ports/repository"
)

// Store keeps codes and balances in two JSON files under one directory.
// Every read-modify-write cycle is serialized through a single mutex, which is
// the whole concurrency story of this backend: MarkUsed and Credit inside one
// WithTx scope see and publish a consistent pair of files.
type Store struct {
	mu         sync.Mutex
	codesPath  string
	ledgerPath string
	log        *zerolog.Logger
}

var (
	_ repository.CodeRepository     = (*Store)(nil)
	_ repository.LedgerRepository   = (*Store)(nil)
	_ repository.TransactionManager = (*Store)(nil)
)

func New(dir string, logger *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	l := logger.With().Str("component", "FileStore").Logger()
	return &Store{
		codesPath:  filepath.Join(dir, "codes.json"),
		ledgerPath: filepath.Join(dir, "balances.json"),
		log:        &l,
	}, nil
}

// held marks a Tx issued by this store's WithTx, so nested repository calls
// skip re-locking the already-held mutex.
type held struct{}

// WithTx runs fn with the store mutex held for the whole scope.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, held{})
}

func (s *Store) lock(tx repository.Tx) func() {
	if _, ok := tx.(held); ok {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type codeRecord struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"discord_id"`
	Reward    int64      `json:"reward"`
	State     string     `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expire_at"`
	UsedAt    *time.Time `json:"used_at"`
}

func toRecord(c *model.RewardCode) codeRecord {
	return codeRecord{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Reward:    c.Reward,
		State:     string(c.State),
		CreatedAt: c.CreatedAt,
		ExpiresAt: c.ExpiresAt,
		UsedAt:    c.UsedAt,
	}
}

func fromRecord(code string, r codeRecord) *model.RewardCode {
	return &model.RewardCode{
		ID:        r.ID,
		Code:      code,
		OwnerID:   r.OwnerID,
		Reward:    r.Reward,
		State:     model.CodeState(r.State),
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
		UsedAt:    r.UsedAt,
	}
}

// loadJSON decodes path into out. A missing file means an empty store; any
// other failure is a real storage error and is never masked as "no data".
func loadJSON(path string, out interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: read %s: %v", domain.ErrStorageUnavailable, path, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrStorageUnavailable, path, err)
	}
	return nil
}

// saveJSON writes via a temp file and rename so readers never observe a
// half-written store.
func saveJSON(path string, in interface{}) error {
	b, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", domain.ErrStorageUnavailable, path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrStorageUnavailable, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", domain.ErrStorageUnavailable, tmp, err)
	}
	return nil
}

func (s *Store) loadCodes() (map[string]codeRecord, error) {
	codes := map[string]codeRecord{}
	if err := loadJSON(s.codesPath, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

func (s *Store) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.RewardCode, error) {
	defer s.lock(tx)()

	codes, err := s.loadCodes()
	if err != nil {
		return nil, err
	}
	r, ok := codes[code]
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	return fromRecord(code, r), nil
}

func (s *Store) Insert(ctx context.Context, tx repository.Tx, rec *model.RewardCode) error {
	defer s.lock(tx)()

	codes, err := s.loadCodes()
	if err != nil {
		return err
	}
	if _, ok := codes[rec.Code]; ok {
		return domain.ErrDuplicateCode
	}
	codes[rec.Code] = toRecord(rec)
	return saveJSON(s.codesPath, codes)
}

func (s *Store) MarkUsed(ctx context.Context, tx repository.Tx, code, ownerID string, usedAt time.Time) (*model.RewardCode, error) {
	defer s.lock(tx)()

	codes, err := s.loadCodes()
	if err != nil {
		return nil, err
	}
	r, ok := codes[code]
	if !ok || r.State != string(model.CodeStateUnused) || r.OwnerID != ownerID || !usedAt.Before(r.ExpiresAt) {
		return nil, domain.ErrRedeemRejected
	}
	r.State = string(model.CodeStateUsed)
	r.UsedAt = &usedAt
	codes[code] = r
	if err := saveJSON(s.codesPath, codes); err != nil {
		return nil, err
	}
	return fromRecord(code, r), nil
}

func (s *Store) PurgeExpired(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	defer s.lock(tx)()

	codes, err := s.loadCodes()
	if err != nil {
		return 0, err
	}
	purged := 0
	for code, r := range codes {
		if r.State == string(model.CodeStateUnused) && !now.Before(r.ExpiresAt) {
			delete(codes, code)
			purged++
		}
	}
	if purged == 0 {
		return 0, nil
	}
	if err := saveJSON(s.codesPath, codes); err != nil {
		return 0, err
	}
	return purged, nil
}

func (s *Store) loadLedger() (map[string]int64, error) {
	ledger := map[string]int64{}
	if err := loadJSON(s.ledgerPath, &ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

func (s *Store) Credit(ctx context.Context, tx repository.Tx, ownerID string, amount int64) (int64, error) {
	defer s.lock(tx)()

	ledger, err := s.loadLedger()
	if err != nil {
		return 0, err
	}
	ledger[ownerID] += amount
	if err := saveJSON(s.ledgerPath, ledger); err != nil {
		return 0, err
	}
	return ledger[ownerID], nil
}

func (s *Store) Balance(ctx context.Context, tx repository.Tx, ownerID string) (int64, error) {
	defer s.lock(tx)()

	ledger, err := s.loadLedger()
	if err != nil {
		return 0, err
	}
	return ledger[ownerID], nil
}
