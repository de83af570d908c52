package token

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateOpaque returns a cryptographically random opaque token
// (base64url without padding). Used for OAuth handshake state values.
func GenerateOpaque(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
