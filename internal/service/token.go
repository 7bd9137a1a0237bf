package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const tokenDigits = 6

var tokenMax = big.NewInt(1_000_000)

// newNumericToken returns a fixed-width 6-digit token drawn from a
// cryptographically secure random source. The token is a bearer credential
// authorizing a debit, so a weaker generator is not acceptable.
func newNumericToken() (string, error) {
	n, err := rand.Int(rand.Reader, tokenMax)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return fmt.Sprintf("%0*d", tokenDigits, n), nil
}
