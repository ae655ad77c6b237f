// Package pickupcode generates the two secrets attached to an order:
// the temporary code handed to the customer at placement and the final
// code issued after a preparer validates the temporary one. Both come
// from crypto/rand; they guard against in-store guessing, not against a
// cryptographic adversary.
package pickupcode

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// TempLength is the length of a temporary pickup code.
const TempLength = 8

// Temporary returns an 8-character uppercase alphanumeric code.
func Temporary() (string, error) {
	return randString(TempLength)
}

// Final returns 4 random bytes hex-encoded and uppercased (8 chars).
func Final() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// OrderSuffix returns the 6-character random part of an order number.
func OrderSuffix() (string, error) {
	return randString(6)
}

func randString(n int) (string, error) {
	// rejection sampling keeps the draw uniform over the alphabet
	const max = byte(252) // largest multiple of len(alphabet) below 256
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= max {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
