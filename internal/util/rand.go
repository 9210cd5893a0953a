package util

import (
	"crypto/rand"
	"encoding/base64"
)

// RandomToken generates an opaque URL-safe token from n random bytes.
// Used for bearer session tokens.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
