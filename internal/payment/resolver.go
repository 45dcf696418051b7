package payment

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"billing-be/internal/transaction"
)

// Resolver maps a webhook reference to the transaction it names.
type Resolver struct {
	repo transaction.Repository
	salt string
}

func NewResolver(repo transaction.Repository, salt string) *Resolver {
	return &Resolver{repo: repo, salt: salt}
}

// Salt is the server secret hashed references are built with.
func (r *Resolver) Salt() string { return r.salt }

// Resolve looks ref up either as a decimal id or, when hashed, as the digest
// of a pending transaction's id.
func (r *Resolver) Resolve(ctx context.Context, ref string, hashed bool) (*transaction.Transaction, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrTransactionNotFound
	}

	var (
		tx  *transaction.Transaction
		err error
	)
	if hashed {
		tx, err = r.repo.FindPendingByHash(ctx, r.salt, strings.ToLower(ref))
	} else {
		id, perr := strconv.ParseInt(ref, 10, 64)
		if perr != nil || id <= 0 {
			return nil, ErrTransactionNotFound
		}
		tx, err = r.repo.FindByID(ctx, id)
	}

	if errors.Is(err, transaction.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}
