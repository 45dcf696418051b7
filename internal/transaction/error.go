package transaction

import "errors"

var (
	ErrNotFound          = errors.New("transaction not found")
	ErrStatusConflict    = errors.New("transaction status changed concurrently")
	ErrInvalidTransition = errors.New("invalid transaction status transition")
	ErrAmbiguousHash     = errors.New("transaction hash matches more than one pending transaction")
)
