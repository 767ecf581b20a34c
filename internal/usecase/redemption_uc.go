package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pcred/internal/domain"
	"pcred/internal/domain/model"
	"pcred/internal/domain/ports/repository"
	"pcred/internal/infra/metrics"
)

// generateAttempts bounds the retry loop when a freshly generated code string
// collides with a live record. With a 36^15 space collisions are rare; the
// store stays the authority regardless.
const generateAttempts = 5

// RedemptionUseCase orchestrates the code lifecycle against the code and
// ledger stores. All methods consume already-authenticated, already-parsed
// input; none of them know anything about HTTP.
type RedemptionUseCase struct {
	codes  repository.CodeRepository
	ledger repository.LedgerRepository
	tm     repository.TransactionManager
	log    *zerolog.Logger
}

func NewRedemptionUseCase(
	codes repository.CodeRepository,
	ledger repository.LedgerRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *RedemptionUseCase {
	l := logger.With().Str("component", "RedemptionUC").Logger()
	return &RedemptionUseCase{codes: codes, ledger: ledger, tm: tm, log: &l}
}

// Check reports the reward carried by a live code. It returns
// domain.ErrCodeNotFound for anything not redeemable (absent, expired, already
// used) and never mutates state or balances.
func (uc *RedemptionUseCase) Check(ctx context.Context, code string) (int64, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, domain.ErrCodeNotFound
	}

	if _, err := uc.codes.PurgeExpired(ctx, nil, time.Now()); err != nil {
		// The lookup below still validates expiry; a failed sweep is not fatal.
		uc.log.Warn().Err(err).Msg("purge before check failed")
	}

	rec, err := uc.codes.FindByCode(ctx, nil, code)
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			return 0, domain.ErrCodeNotFound
		}
		return 0, fmt.Errorf("check %q: %w", code, err)
	}
	if !rec.Live(time.Now()) {
		return 0, domain.ErrCodeNotFound
	}
	return rec.Reward, nil
}

// Generate issues a fresh code for ownerID. The store decides uniqueness: a
// duplicate insert is retried with a new string, bounded by generateAttempts.
func (uc *RedemptionUseCase) Generate(ctx context.Context, ownerID string, reward int64) (*model.RewardCode, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("missing discord_id: %w", domain.ErrInvalidArgument)
	}
	if reward < 0 {
		return nil, fmt.Errorf("negative reward: %w", domain.ErrInvalidArgument)
	}

	for attempt := 0; attempt < generateAttempts; attempt++ {
		code, err := generateRewardCode()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		rec := model.NewRewardCode(code, ownerID, reward, time.Now())
		if err := uc.codes.Insert(ctx, nil, rec); err != nil {
			if errors.Is(err, domain.ErrDuplicateCode) {
				uc.log.Debug().Str("code", code).Msg("generated code collided, retrying")
				continue
			}
			return nil, fmt.Errorf("insert generated code: %w", err)
		}
		metrics.IncCodeIssued("generated")
		uc.log.Info().Str("code", rec.Code).Str("owner_id", ownerID).Int64("reward", reward).Msg("code generated")
		return rec, nil
	}
	return nil, fmt.Errorf("exhausted %d attempts: %w", generateAttempts, domain.ErrDuplicateCode)
}

// Create stores a caller-supplied code string. An expired unused record is
// purged first so its string becomes reusable; any surviving record makes the
// insert fail with domain.ErrDuplicateCode.
func (uc *RedemptionUseCase) Create(ctx context.Context, code, ownerID string, reward int64) (*model.RewardCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("missing code: %w", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("missing discord_id: %w", domain.ErrInvalidArgument)
	}
	if reward < 0 {
		return nil, fmt.Errorf("negative reward: %w", domain.ErrInvalidArgument)
	}

	if _, err := uc.codes.PurgeExpired(ctx, nil, time.Now()); err != nil {
		uc.log.Warn().Err(err).Msg("purge before create failed")
	}

	rec := model.NewRewardCode(code, ownerID, reward, time.Now())
	if err := uc.codes.Insert(ctx, nil, rec); err != nil {
		if errors.Is(err, domain.ErrDuplicateCode) {
			return nil, domain.ErrDuplicateCode
		}
		return nil, fmt.Errorf("insert explicit code: %w", err)
	}
	metrics.IncCodeIssued("explicit")
	uc.log.Info().Str("code", rec.Code).Str("owner_id", ownerID).Int64("reward", reward).Msg("code created")
	return rec, nil
}

// Redeem transitions the code to used and credits its reward to the owner's
// balance, returning the new balance. Both writes run inside one
// TransactionManager scope: the transition commits together with the credit,
// so one successful transition credits exactly once even when callers race or
// retry. Not-found, already-used, expired, and owner-mismatch all surface as
// domain.ErrRedeemRejected; the caller cannot tell them apart.
func (uc *RedemptionUseCase) Redeem(ctx context.Context, code, ownerID string) (int64, error) {
	code = strings.TrimSpace(code)
	if code == "" || strings.TrimSpace(ownerID) == "" {
		return 0, fmt.Errorf("missing code or discord_id: %w", domain.ErrInvalidArgument)
	}

	var balance int64
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		rec, err := uc.codes.MarkUsed(ctx, tx, code, ownerID, time.Now())
		if err != nil {
			return err
		}
		balance, err = uc.ledger.Credit(ctx, tx, ownerID, rec.Reward)
		if err != nil {
			return fmt.Errorf("credit after transition: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrRedeemRejected) {
			metrics.IncRedemption("rejected")
			return 0, domain.ErrRedeemRejected
		}
		metrics.IncRedemption("error")
		return 0, fmt.Errorf("redeem %q: %w", code, err)
	}

	metrics.IncRedemption("success")
	uc.log.Info().Str("code", code).Str("owner_id", ownerID).Int64("balance", balance).Msg("code redeemed")
	return balance, nil
}
