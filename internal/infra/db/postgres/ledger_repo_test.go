//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"pcred/internal/domain/model"
	"pcred/internal/domain/ports/repository"
)

func TestLedgerRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewLedgerRepo(testPool)

	t.Run("credit creates the entry and accumulates", func(t *testing.T) {
		cleanup(t)

		bal, err := repo.Credit(ctx, nil, "42", 500)
		if err != nil {
			t.Fatalf("Credit: %v", err)
		}
		if bal != 500 {
			t.Errorf("first credit balance = %d, want 500", bal)
		}

		bal, err = repo.Credit(ctx, nil, "42", 250)
		if err != nil {
			t.Fatalf("Credit: %v", err)
		}
		if bal != 750 {
			t.Errorf("second credit balance = %d, want 750", bal)
		}
	})

	t.Run("balance defaults to zero", func(t *testing.T) {
		cleanup(t)
		bal, err := repo.Balance(ctx, nil, "nobody")
		if err != nil {
			t.Fatalf("Balance: %v", err)
		}
		if bal != 0 {
			t.Errorf("balance = %d, want 0", bal)
		}
	})

	t.Run("no lost updates under concurrent credits", func(t *testing.T) {
		cleanup(t)

		const workers = 20
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := repo.Credit(ctx, nil, "42", 10); err != nil {
					t.Errorf("Credit: %v", err)
				}
			}()
		}
		wg.Wait()

		bal, err := repo.Balance(ctx, nil, "42")
		if err != nil {
			t.Fatalf("Balance: %v", err)
		}
		if bal != workers*10 {
			t.Errorf("balance = %d, want %d", bal, workers*10)
		}
	})
}

func TestTxManager_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	codes := NewCodeRepo(testPool)
	ledger := NewLedgerRepo(testPool)
	tm := NewTxManager(testPool)

	t.Run("transition and credit commit together", func(t *testing.T) {
		cleanup(t)

		rec := model.NewRewardCode("PC-AAAAA-BBBBB-CCCCC", "42", 500, time.Now())
		if err := codes.Insert(ctx, nil, rec); err != nil {
			t.Fatalf("Insert: %v", err)
		}

		err := tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			if _, err := codes.MarkUsed(ctx, tx, rec.Code, "42", time.Now()); err != nil {
				return err
			}
			_, err := ledger.Credit(ctx, tx, "42", rec.Reward)
			return err
		})
		if err != nil {
			t.Fatalf("WithTx: %v", err)
		}

		bal, _ := ledger.Balance(ctx, nil, "42")
		if bal != 500 {
			t.Errorf("balance = %d, want 500", bal)
		}
	})

	t.Run("a failing scope rolls the transition back", func(t *testing.T) {
		cleanup(t)

		rec := model.NewRewardCode("PC-AAAAA-BBBBB-CCCCC", "42", 500, time.Now())
		if err := codes.Insert(ctx, nil, rec); err != nil {
			t.Fatalf("Insert: %v", err)
		}

		wantErr := context.DeadlineExceeded
		err := tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			if _, err := codes.MarkUsed(ctx, tx, rec.Code, "42", time.Now()); err != nil {
				return err
			}
			return wantErr
		})
		if err != wantErr {
			t.Fatalf("WithTx error = %v, want %v", err, wantErr)
		}

		// The rollback must leave the code redeemable.
		found, err := codes.FindByCode(ctx, nil, rec.Code)
		if err != nil {
			t.Fatalf("FindByCode: %v", err)
		}
		if found.State != model.CodeStateUnused {
			t.Errorf("state = %q after rollback, want unused", found.State)
		}
	})
}
