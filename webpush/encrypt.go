package webpush

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// encrypt applies RFC 8291 message encryption: ECDH over P-256 against the
// subscription's p256dh key, HKDF key derivation salted with the auth
// secret, AES-128-GCM, and the aes128gcm binary header.
func encrypt(sub *Subscription, plaintext []byte) ([]byte, error) {
	p256dhBytes, err := base64.RawURLEncoding.DecodeString(sub.Keys.P256dh)
	if err != nil {
		return nil, fmt.Errorf("decoding p256dh: %w", err)
	}

	authBytes, err := base64.RawURLEncoding.DecodeString(sub.Keys.Auth)
	if err != nil {
		return nil, fmt.Errorf("decoding auth: %w", err)
	}

	clientPubKey, err := ecdh.P256().NewPublicKey(p256dhBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing client public key: %w", err)
	}

	// Fresh ephemeral key pair per message
	serverPrivKey, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating server key: %w", err)
	}
	serverPubKey := serverPrivKey.PublicKey()

	sharedSecret, err := serverPrivKey.ECDH(clientPubKey)
	if err != nil {
		return nil, fmt.Errorf("computing shared secret: %w", err)
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	// IKM = HKDF-Extract(auth_secret, ecdh_secret) with the WebPush info
	// binding both public keys, per RFC 8291 section 3.3
	prkInfo := append([]byte("WebPush: info\x00"), clientPubKey.Bytes()...)
	prkInfo = append(prkInfo, serverPubKey.Bytes()...)

	prk, err := deriveKey(sharedSecret, authBytes, prkInfo, 32)
	if err != nil {
		return nil, fmt.Errorf("deriving PRK: %w", err)
	}

	cek, err := deriveKey(prk, salt, []byte("Content-Encoding: aes128gcm\x00"), 16)
	if err != nil {
		return nil, fmt.Errorf("deriving CEK: %w", err)
	}

	nonce, err := deriveKey(prk, salt, []byte("Content-Encoding: nonce\x00"), 12)
	if err != nil {
		return nil, fmt.Errorf("deriving nonce: %w", err)
	}

	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	// 0x02 marks the last (only) record
	padded := append(plaintext, 0x02)
	ciphertext := gcm.Seal(nil, nonce, padded, nil)

	// aes128gcm header: salt (16) || rs (4) || idlen (1) || keyid (65)
	recordSize := uint32(len(ciphertext) + 86)
	out := make([]byte, 0, 86+len(ciphertext))
	out = append(out, salt...)
	out = binary.BigEndian.AppendUint32(out, recordSize)
	out = append(out, byte(len(serverPubKey.Bytes())))
	out = append(out, serverPubKey.Bytes()...)
	out = append(out, ciphertext...)

	return out, nil
}

func deriveKey(secret, salt, info []byte, size int) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, salt, info)
	key := make([]byte, size)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}
