package payment_test

import (
	"context"
	"errors"
	"testing"

	"billing-be/internal/payment"
	"billing-be/internal/payment/paymenttest"
	"billing-be/internal/transaction"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Direct", func(t *testing.T) {
		repo := new(paymenttest.MockTransactionRepository)
		repo.On("FindByID", mock.Anything, int64(42)).Return(&transaction.Transaction{ID: 42}, nil).Once()

		tx, err := payment.NewResolver(repo, "salt").Resolve(ctx, " 42 ", false)
		require.NoError(t, err)
		assert.Equal(t, int64(42), tx.ID)
	})

	t.Run("Direct not a number", func(t *testing.T) {
		repo := new(paymenttest.MockTransactionRepository)

		_, err := payment.NewResolver(repo, "salt").Resolve(ctx, "abc", false)
		assert.ErrorIs(t, err, payment.ErrTransactionNotFound)
		repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("Empty", func(t *testing.T) {
		repo := new(paymenttest.MockTransactionRepository)

		_, err := payment.NewResolver(repo, "salt").Resolve(ctx, "", true)
		assert.ErrorIs(t, err, payment.ErrTransactionNotFound)
	})

	t.Run("Hashed", func(t *testing.T) {
		repo := new(paymenttest.MockTransactionRepository)
		digest := transaction.HashID(42, "salt")
		repo.On("FindPendingByHash", mock.Anything, "salt", digest).
			Return(&transaction.Transaction{ID: 42, Status: transaction.StatusPending}, nil).Once()

		r := payment.NewResolver(repo, "salt")
		tx, err := r.Resolve(ctx, digest, true)
		require.NoError(t, err)
		assert.Equal(t, int64(42), tx.ID)
		assert.Equal(t, "salt", r.Salt())
	})

	t.Run("Hashed miss", func(t *testing.T) {
		repo := new(paymenttest.MockTransactionRepository)
		repo.On("FindPendingByHash", mock.Anything, "salt", "ffff").Return(nil, transaction.ErrNotFound).Once()

		_, err := payment.NewResolver(repo, "salt").Resolve(ctx, "FFFF", true)
		assert.ErrorIs(t, err, payment.ErrTransactionNotFound)
	})

	t.Run("DBError", func(t *testing.T) {
		repo := new(paymenttest.MockTransactionRepository)
		repo.On("FindByID", mock.Anything, int64(1)).Return(nil, errors.New("db down")).Once()

		_, err := payment.NewResolver(repo, "salt").Resolve(ctx, "1", false)
		assert.EqualError(t, err, "db down")
	})
}
