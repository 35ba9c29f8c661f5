package auth

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTPShape(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, OTPLength)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
		assert.NotEqual(t, byte('0'), code[0])
	}
}

func TestMatchOTP(t *testing.T) {
	assert.True(t, MatchOTP("123456", "123456"))
	assert.False(t, MatchOTP("123456", "123457"))
	assert.False(t, MatchOTP("123456", "12345"))
	assert.False(t, MatchOTP("123456", ""))
}

func TestMatchOTPIsStringComparison(t *testing.T) {
	// "012345" and "12345" are numerically equal but must not match.
	assert.False(t, MatchOTP("012345", "12345"))
}
