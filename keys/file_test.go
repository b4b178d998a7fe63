package keys

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateKeyAndReload(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "vapid.pem")

	generated, err := GenerateKey(keyPath)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	if _, err := os.Stat(keyPath); err != nil {
		t.Fatalf("key file not written: %v", err)
	}

	loaded, err := NewFileSigner(keyPath)
	if err != nil {
		t.Fatalf("NewFileSigner() error = %v", err)
	}

	if generated.PublicKeyBase64() != loaded.PublicKeyBase64() {
		t.Error("reloaded public key differs from generated key")
	}

	// Uncompressed P-256 public key is 65 bytes
	if len(loaded.PublicKey()) != 65 {
		t.Errorf("PublicKey() length = %d, want 65", len(loaded.PublicKey()))
	}

	sig, err := loaded.Sign(context.Background(), []byte("digest"))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if len(sig) != 64 {
		t.Errorf("Sign() signature length = %d, want 64", len(sig))
	}
}

func TestLoadOrGenerate(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "vapid.pem")

	first, err := LoadOrGenerate(keyPath)
	if err != nil {
		t.Fatalf("LoadOrGenerate() first run error = %v", err)
	}

	second, err := LoadOrGenerate(keyPath)
	if err != nil {
		t.Fatalf("LoadOrGenerate() second run error = %v", err)
	}

	if first.PublicKeyBase64() != second.PublicKeyBase64() {
		t.Error("LoadOrGenerate() returned a different key on second run")
	}
}

func TestNewFileSignerFromBase64(t *testing.T) {
	privKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	// Private key as 32-byte big-endian scalar
	privKeyBytes := privKey.D.Bytes()
	padded := make([]byte, 32)
	copy(padded[32-len(privKeyBytes):], privKeyBytes)

	signer, err := NewFileSignerFromBase64(base64.RawURLEncoding.EncodeToString(padded))
	if err != nil {
		t.Fatalf("NewFileSignerFromBase64() error = %v", err)
	}

	if len(signer.PublicKey()) != 65 {
		t.Errorf("PublicKey() length = %d, want 65", len(signer.PublicKey()))
	}

	sig, err := signer.Sign(context.Background(), []byte("digest"))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if len(sig) != 64 {
		t.Errorf("Sign() signature length = %d, want 64", len(sig))
	}
}

func TestNewFileSignerFromBase64_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "not base64", key: "!!!"},
		{name: "wrong length", key: base64.RawURLEncoding.EncodeToString([]byte("short"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFileSignerFromBase64(tt.key); err == nil {
				t.Error("NewFileSignerFromBase64() expected error, got nil")
			}
		})
	}
}

func TestNewFileSigner_MissingFile(t *testing.T) {
	if _, err := NewFileSigner(filepath.Join(t.TempDir(), "nope.pem")); err == nil {
		t.Error("NewFileSigner() expected error for missing file")
	}
}
