package inventory

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newReference builds a synthetic ledger reference like "RST-4K9TQZ" for
// movements that have no purchase to point at.
func newReference(prefix string) string {
	buf := make([]byte, 6)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing is unrecoverable for reference purposes;
			// fall back to a fixed character rather than abort the restock.
			buf[i] = '0'
			continue
		}
		buf[i] = referenceAlphabet[n.Int64()]
	}
	return fmt.Sprintf("%s-%s", prefix, buf)
}
