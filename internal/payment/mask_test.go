package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCardNumber(t *testing.T) {
	got, err := FormatCardNumber("4111111111111111")
	require.NoError(t, err)
	assert.Equal(t, "4111 1111 1111 1111", got)
}

func TestFormatCardNumberToleratesSpaces(t *testing.T) {
	got, err := FormatCardNumber("4111 1111 1111 1111")
	require.NoError(t, err)
	assert.Equal(t, "4111 1111 1111 1111", got)
}

func TestFormatCardNumberRejectsNonDigits(t *testing.T) {
	_, err := FormatCardNumber("4111-1111-1111-1111")
	assert.ErrorIs(t, err, ErrNonDigit)

	_, err = FormatCardNumber("4111a11111111111")
	assert.ErrorIs(t, err, ErrNonDigit)

	_, err = FormatCardNumber("")
	assert.ErrorIs(t, err, ErrNonDigit)
}

func TestFormatExpiry(t *testing.T) {
	got, err := FormatExpiry("1225")
	require.NoError(t, err)
	assert.Equal(t, "12/25", got)
}

func TestFormatExpiryAcceptsSlashed(t *testing.T) {
	got, err := FormatExpiry("03/27")
	require.NoError(t, err)
	assert.Equal(t, "03/27", got)
}

func TestFormatExpiryRejectsBadInput(t *testing.T) {
	for _, raw := range []string{"1325", "0025", "12", "abcd", "12256"} {
		_, err := FormatExpiry(raw)
		assert.ErrorIs(t, err, ErrBadExpiry, "input %q", raw)
	}
}
