// Package keygen produces human-typed license keys. Keys are short random
// codes read over the phone and typed by hotel staff, so the alphabet drops
// the characters operators confuse: 0, 1, O and I.
package keygen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// Alphabet has exactly 32 symbols; any change breaks the validity of keys
// already in the field.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	groupLen = 4
	groups   = 3
)

var keyPattern = regexp.MustCompile(`^[A-Z]{3,4}(-[` + Alphabet + `]{4}){3}$`)

// NewKey returns a key of the form PREFIX-XXXX-XXXX-XXXX.
func NewKey(prefix string) (string, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if len(prefix) < 3 || len(prefix) > 4 {
		return "", fmt.Errorf("keygen: prefix must be 3-4 letters, got %q", prefix)
	}

	parts := make([]string, 0, groups+1)
	parts = append(parts, prefix)
	for i := 0; i < groups; i++ {
		group, err := randomGroup(groupLen)
		if err != nil {
			return "", err
		}
		parts = append(parts, group)
	}

	return strings.Join(parts, "-"), nil
}

// Normalize upcases and trims a user-entered key so lookups are
// case-insensitive.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Valid reports whether a normalized key matches the wire format.
func Valid(key string) bool {
	return keyPattern.MatchString(key)
}

func randomGroup(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(Alphabet))))
		if err != nil {
			return "", err
		}
		b[i] = Alphabet[num.Int64()]
	}
	return string(b), nil
}
