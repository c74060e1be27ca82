package retired

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbonledger/pkg/domain"
	dErrors "carbonledger/pkg/domain-errors"
)

func TestCounter(t *testing.T) {
	ctx := context.Background()

	t.Run("starts at zero and accumulates", func(t *testing.T) {
		counter := NewInMemoryCounter()

		total, err := counter.Total(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.Amount(0), total)

		total, err = counter.Add(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, domain.Amount(100), total)

		total, err = counter.Add(ctx, 50)
		require.NoError(t, err)
		assert.Equal(t, domain.Amount(150), total)
	})

	t.Run("overflow leaves the total unchanged", func(t *testing.T) {
		counter := NewInMemoryCounter()
		_, err := counter.Add(ctx, domain.MaxAmount)
		require.NoError(t, err)

		_, err = counter.Add(ctx, 1)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOverflow))

		total, err := counter.Total(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.MaxAmount, total)
	})
}
