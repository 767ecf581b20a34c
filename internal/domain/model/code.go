package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// CodeState tracks the single allowed transition of a reward code.
type CodeState string

const (
	CodeStateUnused CodeState = "unused"
	CodeStateUsed   CodeState = "used"
)

// CodeTTL is the fixed validity window of every issued code.
const CodeTTL = 24 * time.Hour

// RewardCode represents a single-use code that credits a reward to its owner's
// balance on redemption.
type RewardCode struct {
	ID        string
	Code      string
	OwnerID   string
	Reward    int64
	State     CodeState
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time // nil until redeemed
}

// NewRewardCode builds an unused record expiring CodeTTL after now.
func NewRewardCode(code, ownerID string, reward int64, now time.Time) *RewardCode {
	return &RewardCode{
		ID:        ulid.Make().String(),
		Code:      code,
		OwnerID:   ownerID,
		Reward:    reward,
		State:     CodeStateUnused,
		CreatedAt: now,
		ExpiresAt: now.Add(CodeTTL),
	}
}

// Expired reports whether the code is past its expiry at the given instant.
func (c *RewardCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Live reports whether the code can still be redeemed: unused and unexpired.
func (c *RewardCode) Live(now time.Time) bool {
	return c.State == CodeStateUnused && !c.Expired(now)
}
