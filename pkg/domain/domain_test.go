package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "carbonledger/pkg/domain-errors"
)

func TestParseAccountID(t *testing.T) {
	t.Run("accepts opaque addresses", func(t *testing.T) {
		addr, err := ParseAccountID("GDKW...ISSUER")
		require.NoError(t, err)
		assert.Equal(t, "GDKW...ISSUER", addr.String())
	})

	t.Run("rejects empty and whitespace", func(t *testing.T) {
		for _, in := range []string{"", "   ", "\t"} {
			_, err := ParseAccountID(in)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "input %q", in)
		}
	})
}

func TestParseAmount(t *testing.T) {
	t.Run("rejects zero and negative", func(t *testing.T) {
		for _, v := range []int64{0, -1, -1000} {
			_, err := ParseAmount(v)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "value %d", v)
		}
	})

	t.Run("accepts positive", func(t *testing.T) {
		a, err := ParseAmount(1000)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), a.Int64())
	})
}

func TestAmountAddOverflow(t *testing.T) {
	sum, err := Amount(600).Add(400)
	require.NoError(t, err)
	assert.Equal(t, Amount(1000), sum)

	_, err = MaxAmount.Add(1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeOverflow))

	// Boundary: MaxAmount + 0 is fine.
	sum, err = MaxAmount.Add(0)
	require.NoError(t, err)
	assert.Equal(t, MaxAmount, sum)
}

func TestLotIDNextCrossesWordBoundary(t *testing.T) {
	id := LotID{Hi: 0, Lo: ^uint64(0)}
	next := id.Next()
	assert.Equal(t, LotID{Hi: 1, Lo: 0}, next)
	assert.True(t, id.Less(next))
}

func TestLotIDOrdering(t *testing.T) {
	a := LotID{Lo: 1}
	b := LotID{Lo: 2}
	c := LotID{Hi: 1, Lo: 0}

	assert.Equal(t, -1, a.Cmp(b))
	assert.Equal(t, 1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(a))
	assert.True(t, b.Less(c))
}

func TestLotIDStringRoundTrip(t *testing.T) {
	ids := []LotID{
		{},
		{Lo: 1},
		{Lo: ^uint64(0)},
		{Hi: 1, Lo: 0},
		{Hi: ^uint64(0), Lo: ^uint64(0)},
	}
	for _, id := range ids {
		parsed, err := ParseLotID(id.String())
		require.NoError(t, err, "id %v", id)
		assert.Equal(t, id, parsed)
	}

	// 2^64 renders past int64 range.
	assert.Equal(t, "18446744073709551616", LotID{Hi: 1, Lo: 0}.String())
}

func TestParseLotIDRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "340282366920938463463374607431768211456"} {
		_, err := ParseLotID(in)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "input %q", in)
	}
}

func TestLotIDScan(t *testing.T) {
	var id LotID
	require.NoError(t, id.Scan("18446744073709551616"))
	assert.Equal(t, LotID{Hi: 1, Lo: 0}, id)

	require.NoError(t, id.Scan([]byte("7")))
	assert.Equal(t, LotID{Lo: 7}, id)

	require.NoError(t, id.Scan(int64(42)))
	assert.Equal(t, LotID{Lo: 42}, id)

	assert.Error(t, id.Scan(3.14))
	assert.Error(t, id.Scan(int64(-1)))
}

func TestLotIDJSON(t *testing.T) {
	id := LotID{Hi: 1, Lo: 5}
	data, err := id.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"18446744073709551621"`, string(data))

	var back LotID
	require.NoError(t, back.UnmarshalJSON(data))
	assert.Equal(t, id, back)
}
