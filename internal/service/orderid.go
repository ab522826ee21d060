package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Order ids use an alphabet without easily confused glyphs (0/O, 1/I).
const (
	orderIDAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	orderIDLength   = 10
)

// NewOrderID returns a random order id drawn from orderIDAlphabet.
func NewOrderID() (string, error) {
	max := big.NewInt(int64(len(orderIDAlphabet)))
	buf := make([]byte, orderIDLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate order id: %w", err)
		}
		buf[i] = orderIDAlphabet[n.Int64()]
	}
	return string(buf), nil
}
