package lots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbonledger/internal/ledger"
	"carbonledger/pkg/domain"
	dErrors "carbonledger/pkg/domain-errors"
)

var issuedAt = time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

func seedLot(t *testing.T, store *InMemoryStore, owner string, amount int64) ledger.Lot {
	t.Helper()
	lot, err := store.CreateLot(context.Background(), domain.AccountID(owner), 1, 2022, domain.Amount(amount), issuedAt)
	require.NoError(t, err)
	return lot
}

func TestCreateLot(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	t.Run("assigns ascending ids starting at 1", func(t *testing.T) {
		first := seedLot(t, store, "A", 100)
		second := seedLot(t, store, "A", 200)
		assert.Equal(t, domain.LotID{Lo: 1}, first.ID)
		assert.Equal(t, domain.LotID{Lo: 2}, second.ID)
		assert.True(t, first.ID.Less(second.ID))
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		for _, amount := range []int64{0, -5} {
			_, err := store.CreateLot(ctx, "A", 1, 2022, domain.Amount(amount), issuedAt)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "amount %d", amount)
		}
	})
}

func TestActiveBalance(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	t.Run("zero for unknown owner", func(t *testing.T) {
		balance, err := store.ActiveBalance(ctx, "nobody")
		require.NoError(t, err)
		assert.Equal(t, domain.Amount(0), balance)
	})

	t.Run("sums active lots only", func(t *testing.T) {
		seedLot(t, store, "A", 100)
		seedLot(t, store, "A", 250)

		consumed, err := store.Consume(ctx, "A", 100, FIFO)
		require.NoError(t, err)
		_, err = store.ApplyRetire(ctx, consumed)
		require.NoError(t, err)

		balance, err := store.ActiveBalance(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, domain.Amount(250), balance, "retired and drained lots are excluded")
	})
}

func TestConsumeFIFO(t *testing.T) {
	ctx := context.Background()

	t.Run("takes oldest lots first", func(t *testing.T) {
		store := NewInMemoryStore()
		first := seedLot(t, store, "A", 100)
		second := seedLot(t, store, "A", 100)
		third := seedLot(t, store, "A", 100)

		consumed, err := store.Consume(ctx, "A", 150, FIFO)
		require.NoError(t, err)
		require.Len(t, consumed, 2)
		assert.Equal(t, ledger.Consumption{LotID: first.ID, Amount: 100}, consumed[0])
		assert.Equal(t, ledger.Consumption{LotID: second.ID, Amount: 50}, consumed[1])

		// The split leaves a 50-credit remainder on the second lot and the
		// third lot untouched.
		remaining, err := store.LotsOf(ctx, "A")
		require.NoError(t, err)
		require.Len(t, remaining, 3)
		assert.Equal(t, domain.Amount(0), remaining[0].Amount)
		assert.Equal(t, domain.Amount(50), remaining[1].Amount)
		assert.Equal(t, domain.Amount(100), remaining[2].Amount)
		assert.Equal(t, third.ID, remaining[2].ID)
	})

	t.Run("skips retired and drained lots", func(t *testing.T) {
		store := NewInMemoryStore()
		seedLot(t, store, "A", 100)
		consumed, err := store.Consume(ctx, "A", 100, FIFO)
		require.NoError(t, err)
		_, err = store.ApplyRetire(ctx, consumed)
		require.NoError(t, err)
		survivor := seedLot(t, store, "A", 60)

		consumed, err = store.Consume(ctx, "A", 60, FIFO)
		require.NoError(t, err)
		require.Len(t, consumed, 1)
		assert.Equal(t, survivor.ID, consumed[0].LotID)
	})

	t.Run("insufficient balance mutates nothing", func(t *testing.T) {
		store := NewInMemoryStore()
		seedLot(t, store, "A", 100)
		seedLot(t, store, "A", 100)

		_, err := store.Consume(ctx, "A", 500, FIFO)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientBalance))

		balance, err := store.ActiveBalance(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, domain.Amount(200), balance)
	})

	t.Run("rejects unsupported selector", func(t *testing.T) {
		store := NewInMemoryStore()
		seedLot(t, store, "A", 100)
		_, err := store.Consume(ctx, "A", 1, Selector("lifo"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("deterministic across identical stores", func(t *testing.T) {
		build := func() *InMemoryStore {
			s := NewInMemoryStore()
			seedLot(t, s, "A", 30)
			seedLot(t, s, "A", 70)
			seedLot(t, s, "A", 10)
			return s
		}
		a, err := build().Consume(ctx, "A", 95, FIFO)
		require.NoError(t, err)
		b, err := build().Consume(ctx, "A", 95, FIFO)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestApplyTransfer(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	source := seedLot(t, store, "A", 1000)

	consumed, err := store.Consume(ctx, "A", 400, FIFO)
	require.NoError(t, err)
	minted, err := store.ApplyTransfer(ctx, consumed, "B")
	require.NoError(t, err)

	require.Len(t, minted, 1)
	got := minted[0]
	assert.Equal(t, domain.AccountID("B"), got.Owner)
	assert.Equal(t, domain.Amount(400), got.Amount)
	assert.False(t, got.Retired)
	// Provenance survives the split.
	assert.Equal(t, source.ProjectID, got.ProjectID)
	assert.Equal(t, source.Vintage, got.Vintage)
	assert.Equal(t, source.IssuedAt, got.IssuedAt)
	assert.True(t, source.ID.Less(got.ID), "child lot gets a fresh id")

	fromBalance, err := store.ActiveBalance(ctx, "A")
	require.NoError(t, err)
	toBalance, err := store.ActiveBalance(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(600), fromBalance)
	assert.Equal(t, domain.Amount(400), toBalance)
}

func TestApplyRetire(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	source := seedLot(t, store, "B", 400)

	consumed, err := store.Consume(ctx, "B", 400, FIFO)
	require.NoError(t, err)
	minted, err := store.ApplyRetire(ctx, consumed)
	require.NoError(t, err)

	require.Len(t, minted, 1)
	got := minted[0]
	assert.True(t, got.Retired)
	assert.Equal(t, domain.AccountID("B"), got.Owner, "retirement keeps the owner")
	assert.Equal(t, domain.Amount(400), got.Amount)
	assert.Equal(t, source.Vintage, got.Vintage)

	balance, err := store.ActiveBalance(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(0), balance)

	all, err := store.LotsOf(ctx, "B")
	require.NoError(t, err)
	require.Len(t, all, 2, "drained source plus retired record")
	assert.False(t, all[0].Active())
	assert.False(t, all[1].Active())
}

func TestConservationThroughSplits(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	seedLot(t, store, "A", 1000)

	// A chain of partial transfers and retirements.
	moves := []struct {
		owner  string
		amount int64
		to     string // empty means retire
	}{
		{"A", 400, "B"},
		{"B", 150, "C"},
		{"A", 100, ""},
		{"C", 150, ""},
		{"B", 250, "A"},
	}
	for _, m := range moves {
		consumed, err := store.Consume(ctx, domain.AccountID(m.owner), domain.Amount(m.amount), FIFO)
		require.NoError(t, err)
		if m.to == "" {
			_, err = store.ApplyRetire(ctx, consumed)
		} else {
			_, err = store.ApplyTransfer(ctx, consumed, domain.AccountID(m.to))
		}
		require.NoError(t, err)
	}

	// Sum over every lot (active, drained, retired) equals the original
	// issuance exactly: splitting conserves amount.
	var total domain.Amount
	for _, owner := range []string{"A", "B", "C"} {
		all, err := store.LotsOf(ctx, domain.AccountID(owner))
		require.NoError(t, err)
		for _, lot := range all {
			if lot.Retired || lot.Active() {
				total += lot.Amount
			}
		}
	}
	assert.Equal(t, domain.Amount(1000), total)
}
