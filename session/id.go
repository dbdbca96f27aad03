package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// idBytes gives session ids 256 bits of entropy
const idBytes = 32

// GenerateID returns a random, URL-safe session id
func GenerateID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: failed to generate id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
