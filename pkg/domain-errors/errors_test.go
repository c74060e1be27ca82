package dErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesCode(t *testing.T) {
	err := New(CodeInsufficientBalance, "not enough active credits")
	assert.True(t, HasCode(err, CodeInsufficientBalance))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.Equal(t, "insufficient_balance: not enough active credits", err.Error())
}

func TestWrapPreservesChain(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "store unavailable")

	require.ErrorIs(t, err, cause)
	assert.True(t, Is(err, CodeInternal))
	assert.Equal(t, CodeInternal, CodeOf(err))
}

func TestHasCodeThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("retire: %w", New(CodeOverflow, "retired total would overflow"))
	assert.True(t, HasCode(err, CodeOverflow))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}
