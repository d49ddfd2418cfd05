package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Token size constants (bytes of entropy before encoding).
const (
	// TokenSize128 suits short-lived values like CSRF tokens.
	TokenSize128 = 16
	// TokenSize256 suits secrets and API keys.
	TokenSize256 = 32
)

// GenerateToken returns a base64url-encoded random token with the
// given number of entropy bytes.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// MustGenerateToken is GenerateToken but panics on failure. Only use
// during initialization.
func MustGenerateToken(size int) string {
	t, err := GenerateToken(size)
	if err != nil {
		panic(err)
	}
	return t
}
