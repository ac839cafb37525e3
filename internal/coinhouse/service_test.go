package coinhouse

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stallworks/internal/persona"
	dErrors "stallworks/pkg/domain-errors"
)

func newTestService() (*Service, *MemoryStore, *MemoryTransactionLog) {
	store := NewMemoryStore()
	log := NewMemoryTransactionLog()
	return NewService(store, log), store, log
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()
	p := persona.Character(uuid.New())

	t.Run("credits balance and appends exactly one transaction", func(t *testing.T) {
		svc, _, log := newTestService()

		txn, err := svc.Deposit(ctx, p, "cordor", 500, "opening deposit")
		require.NoError(t, err)
		assert.Equal(t, int64(500), txn.Amount)
		assert.Equal(t, 1, log.Len())

		balance, err := svc.BalanceOf(ctx, p, "cordor")
		require.NoError(t, err)
		assert.Equal(t, int64(500), balance)
	})

	t.Run("lazily provisions the account on first deposit", func(t *testing.T) {
		svc, store, _ := newTestService()

		_, err := svc.Deposit(ctx, p, "cordor", 100, "")
		require.NoError(t, err)

		acct, err := store.GetAccount(ctx, persona.AccountID(p, "cordor"))
		require.NoError(t, err)
		assert.Equal(t, p, acct.Persona)
		assert.False(t, acct.OpenedAt.IsZero())
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		svc, _, log := newTestService()

		_, err := svc.Deposit(ctx, p, "cordor", 0, "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		assert.Equal(t, 0, log.Len())
	})
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	p := persona.Character(uuid.New())

	t.Run("debits balance and appends exactly one transaction", func(t *testing.T) {
		svc, _, log := newTestService()
		_, err := svc.Deposit(ctx, p, "cordor", 1000, "")
		require.NoError(t, err)

		_, err = svc.Withdraw(ctx, p, "cordor", 400, "market purchase")
		require.NoError(t, err)

		balance, err := svc.BalanceOf(ctx, p, "cordor")
		require.NoError(t, err)
		assert.Equal(t, int64(600), balance)
		assert.Equal(t, 2, log.Len())
	})

	t.Run("fails with insufficient funds, balance untouched", func(t *testing.T) {
		svc, _, log := newTestService()
		_, err := svc.Deposit(ctx, p, "cordor", 100, "")
		require.NoError(t, err)

		_, err = svc.Withdraw(ctx, p, "cordor", 101, "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientFunds))

		balance, err := svc.BalanceOf(ctx, p, "cordor")
		require.NoError(t, err)
		assert.Equal(t, int64(100), balance)
		assert.Equal(t, 1, log.Len())
	})

	t.Run("fails when persona has no account", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Withdraw(ctx, persona.Character(uuid.New()), "cordor", 10, "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	alice := persona.Character(uuid.New())
	bob := persona.Character(uuid.New())

	t.Run("moves gold between personas, conserving the total", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.Deposit(ctx, alice, "cordor", 1000, "")
		require.NoError(t, err)

		_, err = svc.Transfer(ctx, alice, bob, "cordor", 300, "stall rent")
		require.NoError(t, err)

		aliceBal, _ := svc.BalanceOf(ctx, alice, "cordor")
		bobBal, _ := svc.BalanceOf(ctx, bob, "cordor")
		assert.Equal(t, int64(700), aliceBal)
		assert.Equal(t, int64(300), bobBal)
		assert.Equal(t, int64(1000), aliceBal+bobBal)
	})

	t.Run("rejects self transfer", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.Transfer(ctx, alice, alice, "cordor", 10, "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("insufficient funds leaves both balances untouched", func(t *testing.T) {
		svc, _, log := newTestService()
		_, err := svc.Deposit(ctx, alice, "cordor", 50, "")
		require.NoError(t, err)

		_, err = svc.Transfer(ctx, alice, bob, "cordor", 100, "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientFunds))

		aliceBal, _ := svc.BalanceOf(ctx, alice, "cordor")
		bobBal, _ := svc.BalanceOf(ctx, bob, "cordor")
		assert.Equal(t, int64(50), aliceBal)
		assert.Equal(t, int64(0), bobBal)
		assert.Equal(t, 1, log.Len())
	})
}

// TestConcurrentWithdrawals verifies the atomic adjustment contract: under
// concurrent withdrawals the balance never goes negative and every success
// is matched by exactly one transaction row.
func TestConcurrentWithdrawals(t *testing.T) {
	ctx := context.Background()
	p := persona.Character(uuid.New())
	svc, _, log := newTestService()

	_, err := svc.Deposit(ctx, p, "cordor", 100, "")
	require.NoError(t, err)

	const goroutines = 20
	var wg sync.WaitGroup
	successes := make(chan struct{}, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Withdraw(ctx, p, "cordor", 10, ""); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	var ok int
	for range successes {
		ok++
	}
	assert.Equal(t, 10, ok, "only 10 withdrawals of 10 can succeed against 100")

	balance, err := svc.BalanceOf(ctx, p, "cordor")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
	assert.Equal(t, 1+ok, log.Len())
}

func TestProvision_Idempotent(t *testing.T) {
	ctx := context.Background()
	p := persona.Character(uuid.New())
	svc, _, _ := newTestService()

	first, err := svc.Provision(ctx, p, "cordor")
	require.NoError(t, err)

	_, err = svc.Deposit(ctx, p, "cordor", 250, "")
	require.NoError(t, err)

	again, err := svc.Provision(ctx, p, "cordor")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, int64(250), again.Balance, "re-provisioning must not reset the balance")
}
