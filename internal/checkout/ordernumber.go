package checkout

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

// orderNumberAttempts bounds the collision retry loop. Ten random digits
// give ~9e9 numbers, so hitting the bound means something is wrong with the
// data, not with luck.
const orderNumberAttempts = 5

var orderNumberRange = big.NewInt(9_000_000_000)

// newOrderNumber returns a random 10-digit order number. The first digit is
// never zero so the number survives round-trips through numeric parsers.
func newOrderNumber() (string, error) {
	n, err := rand.Int(rand.Reader, orderNumberRange)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1_000_000_000, 10), nil
}
