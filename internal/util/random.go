package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// tokenBytes is the number of random bytes in a session token.
// 32 bytes gives 256 bits of entropy.
const tokenBytes = 32

// RandomToken returns a hex-encoded bearer token from crypto/rand.
func RandomToken() (string, error) {
	b, err := RandomBytes(tokenBytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// RandomIntn returns a uniform random int in [0, max).
func RandomIntn(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, fmt.Errorf("generating random number: %w", err)
	}
	return int(n.Int64()), nil
}

// RandomBytes returns n bytes from crypto/rand.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generating random bytes: %w", err)
	}
	return b, nil
}
