package purchases

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newOrderNumber builds a human-readable order identifier:
//
//	ORD-<last 6 digits of epoch millis>-<6 random base36 chars>
//
// The random suffix keeps numbers minted in the same millisecond distinct;
// the unique index on order_number is the real guarantee.
func newOrderNumber(now time.Time) string {
	millis := now.UnixMilli() % 1_000_000

	buf := make([]byte, 6)
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			buf[i] = '0'
			continue
		}
		buf[i] = orderNumberAlphabet[n.Int64()]
	}

	return fmt.Sprintf("ORD-%06d-%s", millis, buf)
}
