package utils

import (
	"crypto/rand"
	"math/big"
)

// shareKeyAlphabet keeps generated keys URL-safe and case-insensitive.
const shareKeyAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewShareKey returns a cryptographically random alphanumeric key of the
// given length. Uniqueness per scope is checked by the caller; the
// database constraint is the final guarantee.
func NewShareKey(length int) (string, error) {
	max := big.NewInt(int64(len(shareKeyAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = shareKeyAlphabet[n.Int64()]
	}
	return string(buf), nil
}
