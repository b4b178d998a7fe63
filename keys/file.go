// Package keys provides VAPID signer implementations for the push sender:
// an ECDSA P-256 key kept in a PEM file on disk, and a key held in Google
// Cloud KMS for deployments where the private key must not touch disk.
package keys

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
)

// FileSigner signs VAPID tokens with a private key loaded from disk.
type FileSigner struct {
	privateKey *ecdsa.PrivateKey
	publicKey  []byte // uncompressed format
}

// NewFileSigner loads a VAPID key from a PEM file.
func NewFileSigner(privateKeyPath string) (*FileSigner, error) {
	data, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("failed to parse PEM block")
	}

	privKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing EC private key: %w", err)
	}

	if privKey.Curve != elliptic.P256() {
		return nil, errors.New("key must be P-256 curve")
	}

	return newFileSigner(privKey), nil
}

// NewFileSignerFromBase64 creates a FileSigner from a base64url-encoded
// 32-byte private key, for deployments that inject the key via environment.
func NewFileSignerFromBase64(privateKeyB64 string) (*FileSigner, error) {
	privKeyBytes, err := base64.RawURLEncoding.DecodeString(privateKeyB64)
	if err != nil {
		return nil, fmt.Errorf("decoding private key: %w", err)
	}

	if len(privKeyBytes) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(privKeyBytes))
	}

	privKey := new(ecdsa.PrivateKey)
	privKey.Curve = elliptic.P256()
	privKey.D = new(big.Int).SetBytes(privKeyBytes)
	privKey.X, privKey.Y = privKey.Curve.ScalarBaseMult(privKeyBytes)

	return newFileSigner(privKey), nil
}

func newFileSigner(privKey *ecdsa.PrivateKey) *FileSigner {
	return &FileSigner{
		privateKey: privKey,
		publicKey:  elliptic.Marshal(privKey.Curve, privKey.X, privKey.Y),
	}
}

// Sign signs the given digest using ECDSA and returns the signature in IEEE
// P1363 format as required by the VAPID JWT.
func (s *FileSigner) Sign(_ context.Context, data []byte) ([]byte, error) {
	r, ss, err := ecdsa.Sign(rand.Reader, s.privateKey, data)
	if err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}
	return p1363(r, ss), nil
}

// PublicKey returns the ECDSA public key in uncompressed format.
func (s *FileSigner) PublicKey() []byte {
	return s.publicKey
}

// PublicKeyBase64 returns the public key as a base64url-encoded string,
// the form browsers expect as an applicationServerKey.
func (s *FileSigner) PublicKeyBase64() string {
	return base64.RawURLEncoding.EncodeToString(s.publicKey)
}

// GenerateKey generates a new ECDSA P-256 key pair and saves it to a PEM file.
func GenerateKey(path string) (*FileSigner, error) {
	privKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	privKeyBytes, err := x509.MarshalECPrivateKey(privKey)
	if err != nil {
		return nil, fmt.Errorf("marshaling private key: %w", err)
	}

	block := &pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: privKeyBytes,
	}

	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0600); err != nil {
		return nil, fmt.Errorf("writing private key: %w", err)
	}

	return newFileSigner(privKey), nil
}

// LoadOrGenerate loads the VAPID key at path, generating and saving a new
// one on first run. Rotating the key later invalidates every stored browser
// subscription, so the file must be treated as durable state.
func LoadOrGenerate(path string) (*FileSigner, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return GenerateKey(path)
	}
	return NewFileSigner(path)
}

// p1363 encodes an ECDSA (r, s) pair as r || s, each padded to 32 bytes.
func p1363(r, s *big.Int) []byte {
	sig := make([]byte, 64)
	rBytes := r.Bytes()
	sBytes := s.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)
	copy(sig[64-len(sBytes):64], sBytes)
	return sig
}
