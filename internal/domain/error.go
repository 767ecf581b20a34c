package domain

import "errors"

var (
	// Common domain errors
	ErrCodeNotFound       = errors.New("code not found")
	ErrDuplicateCode      = errors.New("code already exists")
	ErrRedeemRejected     = errors.New("code not redeemable")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidExecContext = errors.New("invalid executor context")
)
