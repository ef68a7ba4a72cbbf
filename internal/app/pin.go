package app

import (
	"crypto/rand"
	"math/big"
)

const (
	pinAlphabet = "0123456789"
	pinLength   = 6
)

// GeneratePIN returns a random numeric game PIN. Leading zeros are
// allowed; the PIN is an opaque string, not a number.
func GeneratePIN() (string, error) {
	pin := make([]byte, pinLength)
	for i := range pin {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(pinAlphabet))))
		if err != nil {
			return "", err
		}
		pin[i] = pinAlphabet[n.Int64()]
	}
	return string(pin), nil
}
