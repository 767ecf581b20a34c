package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pcred/internal/domain"
	"pcred/internal/domain/model"
	"pcred/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// MockCodeRepo is an in-memory CodeRepository. The default behaviors hold the
// mutex across each whole operation, so MarkUsed has the same
// at-most-one-winner property the real backends provide. Individual Func
// fields override behaviors per test.
type MockCodeRepo struct {
	mu      sync.Mutex
	byCode  map[string]*model.RewardCode
	Inserts int

	FindFunc     func(ctx context.Context, tx repository.Tx, code string) (*model.RewardCode, error)
	InsertFunc   func(ctx context.Context, tx repository.Tx, rec *model.RewardCode) error
	MarkUsedFunc func(ctx context.Context, tx repository.Tx, code, ownerID string, usedAt time.Time) (*model.RewardCode, error)
	PurgeFunc    func(ctx context.Context, tx repository.Tx, now time.Time) (int, error)
}

func NewMockCodeRepo() *MockCodeRepo {
	return &MockCodeRepo{byCode: map[string]*model.RewardCode{}}
}

func (m *MockCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.RewardCode, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, tx, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byCode[code]
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MockCodeRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.RewardCode) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byCode[rec.Code]; ok {
		return domain.ErrDuplicateCode
	}
	cp := *rec
	m.byCode[rec.Code] = &cp
	m.Inserts++
	return nil
}

func (m *MockCodeRepo) MarkUsed(ctx context.Context, tx repository.Tx, code, ownerID string, usedAt time.Time) (*model.RewardCode, error) {
	if m.MarkUsedFunc != nil {
		return m.MarkUsedFunc(ctx, tx, code, ownerID, usedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byCode[code]
	if !ok || rec.State != model.CodeStateUnused || rec.OwnerID != ownerID || rec.Expired(usedAt) {
		return nil, domain.ErrRedeemRejected
	}
	rec.State = model.CodeStateUsed
	rec.UsedAt = &usedAt
	cp := *rec
	return &cp, nil
}

func (m *MockCodeRepo) PurgeExpired(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	if m.PurgeFunc != nil {
		return m.PurgeFunc(ctx, tx, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	purged := 0
	for code, rec := range m.byCode {
		if rec.State == model.CodeStateUnused && rec.Expired(now) {
			delete(m.byCode, code)
			purged++
		}
	}
	return purged, nil
}

// Seed places a record directly in the store, bypassing Insert semantics.
func (m *MockCodeRepo) Seed(rec *model.RewardCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.byCode[rec.Code] = &cp
}

// Get returns the stored record (or nil) for assertions.
func (m *MockCodeRepo) Get(code string) *model.RewardCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byCode[code]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

// MockLedgerRepo is an in-memory LedgerRepository.
type MockLedgerRepo struct {
	mu       sync.Mutex
	balances map[string]int64
	Credits  int

	CreditFunc func(ctx context.Context, tx repository.Tx, ownerID string, amount int64) (int64, error)
}

func NewMockLedgerRepo() *MockLedgerRepo {
	return &MockLedgerRepo{balances: map[string]int64{}}
}

func (m *MockLedgerRepo) Credit(ctx context.Context, tx repository.Tx, ownerID string, amount int64) (int64, error) {
	if m.CreditFunc != nil {
		return m.CreditFunc(ctx, tx, ownerID, amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[ownerID] += amount
	m.Credits++
	return m.balances[ownerID], nil
}

func (m *MockLedgerRepo) Balance(ctx context.Context, tx repository.Tx, ownerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[ownerID], nil
}

// MockTxManager passes the callback straight through; the mock repositories
// are individually atomic.
type MockTxManager struct {
	mu    sync.Mutex
	calls int
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return fn(ctx, nil)
}

func (m *MockTxManager) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
