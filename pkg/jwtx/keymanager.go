package jwtx

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/machauth/machauth/pkg/cryptox"
)

// KeyManager owns the process-wide signing keys. Keys are generated at
// startup and never rotated mid-request; every signer stays valid for
// the life of the process, so in-flight requests are unaffected by any
// future key swap the caller might perform.
type KeyManager struct {
	Verifier Verifier
	KeySet   *KeySet

	algorithm string

	mu      sync.RWMutex
	signers []Signer
}

// KeyManagerOptions configures ephemeral key generation.
type KeyManagerOptions struct {
	// Algorithm is RS256, ES256 or EdDSA.
	Algorithm string

	// Issuer is enforced as the iss claim by the verifier.
	Issuer string

	// Audience values enforced by the verifier. Empty means any.
	Audience []string

	// RSABits sets the RSA key size for RS256. Defaults to 4096.
	RSABits int

	// NumKeys is how many signing keys to generate. Defaults to 1,
	// capped at 10. More than one key spreads signing load and makes
	// the published JWKS exercise multi-key verification paths.
	NumKeys int
}

// NewEphemeralKeyManager generates in-memory signing keys. Nothing is
// persisted; all issued tokens become unverifiable after a restart.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: issuer is required")
	}

	numKeys := opts.NumKeys
	if numKeys <= 0 {
		numKeys = 1
	}
	if numKeys > 10 {
		numKeys = 10
	}

	keyset := NewKeySet()
	signers := make([]Signer, 0, numKeys)

	for i := 0; i < numKeys; i++ {
		kid, err := cryptox.GenerateToken(8)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate key id: %w", err)
		}

		signer, err := generateSigner(opts.Algorithm, kid, opts.RSABits)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate signer %d: %w", i+1, err)
		}
		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("jwtx: register signer %d: %w", i+1, err)
		}
		signers = append(signers, signer)
	}

	return &KeyManager{
		Verifier:  NewVerifier(keyset, opts.Algorithm, opts.Issuer, opts.Audience),
		KeySet:    keyset,
		algorithm: opts.Algorithm,
		signers:   signers,
	}, nil
}

func generateSigner(algorithm, kid string, rsaBits int) (Signer, error) {
	var pemKey []byte
	var err error

	switch algorithm {
	case AlgorithmRS256:
		bits := rsaBits
		if bits == 0 {
			bits = 4096
		}
		pemKey, err = cryptox.GenerateRSAKey(bits)
	case AlgorithmES256:
		pemKey, err = cryptox.GenerateES256Key()
	case AlgorithmEdDSA:
		pemKey, err = cryptox.GenerateEd25519Key()
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: RS256, ES256, EdDSA)", algorithm)
	}
	if err != nil {
		return nil, err
	}

	return NewSigner(algorithm, kid, pemKey)
}

// Algorithm returns the configured signing algorithm.
func (km *KeyManager) Algorithm() string { return km.algorithm }

// IsReady reports whether signing keys are loaded.
func (km *KeyManager) IsReady() bool { return km.KeySet.IsReady() }

// GetSigner picks a signer. With a single key it is deterministic;
// with several the pick is random to spread signing load.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	switch len(km.signers) {
	case 0:
		return nil
	case 1:
		return km.signers[0]
	default:
		return km.signers[rand.IntN(len(km.signers))]
	}
}
