// Package cryptox holds the cryptographic primitives the service
// relies on: Argon2id hashing for client secrets, random token
// generation, and signing-key generation.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters, following the RFC 9106 low-memory profile.
const (
	argonMemory      = 19 * 1024 // KiB
	argonIterations  = 2
	argonParallelism = 1
	argonKeyLength   = 32
	argonSaltLength  = 16
)

var ErrSecretMismatch = errors.New("cryptox: secret does not match")

// HashSecret derives a PHC-format Argon2id hash of a client secret,
// including salt and parameters so verification is self-contained.
func HashSecret(secret string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(secret+GetPepper()),
		salt,
		argonIterations,
		argonMemory,
		argonParallelism,
		argonKeyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argonMemory,
		argonIterations,
		argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifySecret compares a presented secret against a PHC-format
// Argon2id hash. The final comparison is constant-time.
func VerifySecret(secret, encodedHash string) error {
	salt, want, mem, iters, par, err := decodePHC(encodedHash)
	if err != nil {
		return err
	}

	got := argon2.IDKey(
		[]byte(secret+GetPepper()),
		salt,
		iters,
		mem,
		par,
		uint32(len(want)), // #nosec G115 - hash length fits uint32
	)

	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrSecretMismatch
	}
	return nil
}

// dummyHash is a fixed Argon2id hash of a throwaway secret. Verifying
// against it burns the same work as a real verification, so callers
// can keep the unknown-client path timing-equivalent to the bad-secret
// path. Initialized once under dummyOnce because hashing needs the
// pepper; callers run concurrently.
var (
	dummyOnce sync.Once
	dummyHash string
)

// VerifyDummy runs a full Argon2id verification against a throwaway
// hash and always fails. Call it when a client lookup misses so the
// response timing does not reveal whether the client exists.
func VerifyDummy(secret string) error {
	dummyOnce.Do(func() {
		h, err := HashSecret("machauth-dummy-verification-target")
		if err != nil {
			return
		}
		dummyHash = h
	})
	if dummyHash != "" {
		_ = VerifySecret(secret, dummyHash)
	}
	return ErrSecretMismatch
}

// decodePHC splits a $argon2id$v=19$m=X,t=Y,p=Z$salt$hash string.
func decodePHC(encoded string) (salt, hash []byte, mem, iters uint32, par uint8, err error) {
	var parts []string
	start := 0
	for i := 0; i < len(encoded); i++ {
		if encoded[i] == '$' {
			parts = append(parts, encoded[start:i])
			start = i + 1
		}
	}
	parts = append(parts, encoded[start:])

	if len(parts) != 6 {
		return nil, nil, 0, 0, 0, errors.New("cryptox: malformed hash: expected 6 parts")
	}
	if parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, errors.New("cryptox: malformed hash: not argon2id")
	}
	if parts[2] != "v=19" {
		return nil, nil, 0, 0, 0, errors.New("cryptox: malformed hash: wrong version")
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("cryptox: malformed hash parameters: %w", err)
	}

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("cryptox: malformed salt: %w", err)
	}
	if hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("cryptox: malformed hash: %w", err)
	}

	return salt, hash, mem, iters, par, nil
}
