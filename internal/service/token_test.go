package service

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNumericToken_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)

	for i := 0; i < 100; i++ {
		token, err := newNumericToken()
		require.NoError(t, err)
		assert.Regexp(t, pattern, token, "token must be exactly six digits, zero-padded")

		n, err := strconv.Atoi(token)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 1_000_000)
	}
}
