// Package refcode generates the short human-facing references used for order
// numbers and device registration codes.
package refcode

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

// Alphabet omits 0, O, 1 and I so codes can be read aloud or copied by hand.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	Prefix = "JOY-"
	Length = 6
)

var pattern = regexp.MustCompile(`^JOY-[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{6}$`)

// New returns a fresh JOY-XXXXXX code.
func New() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	// 256 is a multiple of 32, so the modulo is unbiased.
	for i := range buf {
		buf[i] = Alphabet[int(buf[i])%len(Alphabet)]
	}
	return Prefix + string(buf), nil
}

// Valid reports whether code has the JOY-XXXXXX shape.
func Valid(code string) bool {
	return pattern.MatchString(code)
}
