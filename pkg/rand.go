package pkg

import (
	"math/rand"
	"strings"
)

const (
	alphaNumLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tickerLetters   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

func RandString(n int) string {
	return randFrom(alphaNumLetters, n)
}

// RandTicker returns a random uppercase asset symbol of length n that passes
// ValidateAssetSymbol.
func RandTicker(n int) string {
	return randFrom(tickerLetters, n)
}

func randFrom(letters string, n int) string {
	var builder strings.Builder
	builder.Grow(n)

	for range n {
		letter := letters[rand.Intn(len(letters))] //nolint:gosec
		builder.WriteByte(letter)
	}

	return builder.String()
}
