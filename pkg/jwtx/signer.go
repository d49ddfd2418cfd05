package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Supported signing algorithms.
const (
	AlgorithmRS256 = "RS256"
	AlgorithmES256 = "ES256"
	AlgorithmEdDSA = "EdDSA"
)

// Signer signs access-token claims with a single private key.
// Implementations are safe for concurrent use: the key is read-only
// after construction.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	PublicJWK() JWK
}

// NewSigner constructs a signer for the given algorithm from a
// PEM-encoded private key.
func NewSigner(alg, kid string, pemKey []byte) (Signer, error) {
	switch alg {
	case AlgorithmEdDSA:
		return newEdDSASigner(kid, pemKey)
	case AlgorithmRS256:
		return newRS256Signer(kid, pemKey)
	case AlgorithmES256:
		return newES256Signer(kid, pemKey)
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q", alg)
	}
}

type edDSASigner struct {
	kid string
	key ed25519.PrivateKey
	pub ed25519.PublicKey
}

func newEdDSASigner(kid string, pemKey []byte) (*edDSASigner, error) {
	priv, err := parsePKCS8(pemKey)
	if err != nil {
		return nil, err
	}
	key, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwtx: not an Ed25519 private key")
	}
	return &edDSASigner{
		kid: kid,
		key: key,
		pub: key.Public().(ed25519.PublicKey),
	}, nil
}

func (s *edDSASigner) Alg() string { return AlgorithmEdDSA }
func (s *edDSASigner) KID() string { return s.kid }

func (s *edDSASigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

func (s *edDSASigner) PublicJWK() JWK {
	return NewEd25519JWK(s.kid, "sig", AlgorithmEdDSA, s.pub)
}

type rs256Signer struct {
	kid string
	key *rsa.PrivateKey
}

func newRS256Signer(kid string, pemKey []byte) (*rs256Signer, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM for RSA key")
	}

	var key *rsa.PrivateKey
	switch block.Type {
	case "RSA PRIVATE KEY":
		k, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("jwtx: parse PKCS1: %w", err)
		}
		key = k
	case "PRIVATE KEY":
		priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
		}
		k, ok := priv.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("jwtx: not an RSA private key")
		}
		key = k
	default:
		return nil, fmt.Errorf("jwtx: unexpected PEM block %q", block.Type)
	}

	return &rs256Signer{kid: kid, key: key}, nil
}

func (s *rs256Signer) Alg() string { return AlgorithmRS256 }
func (s *rs256Signer) KID() string { return s.kid }

func (s *rs256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

func (s *rs256Signer) PublicJWK() JWK {
	return NewRSAJWK(s.kid, "sig", AlgorithmRS256, &s.key.PublicKey)
}

type es256Signer struct {
	kid string
	key *ecdsa.PrivateKey
}

func newES256Signer(kid string, pemKey []byte) (*es256Signer, error) {
	priv, err := parsePKCS8(pemKey)
	if err != nil {
		return nil, err
	}
	key, ok := priv.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("jwtx: not an ECDSA private key")
	}
	if key.Curve.Params().Name != "P-256" {
		return nil, errors.New("jwtx: ES256 requires a P-256 key")
	}
	return &es256Signer{kid: kid, key: key}, nil
}

func (s *es256Signer) Alg() string { return AlgorithmES256 }
func (s *es256Signer) KID() string { return s.kid }

func (s *es256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

func (s *es256Signer) PublicJWK() JWK {
	return NewES256JWK(s.kid, "sig", AlgorithmES256, &s.key.PublicKey)
}

func parsePKCS8(pemKey []byte) (any, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM")
	}
	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("jwtx: expected PKCS8 PRIVATE KEY, got %q", block.Type)
	}
	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}
	return priv, nil
}
