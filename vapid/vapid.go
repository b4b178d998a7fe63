// Package vapid provides VAPID (Voluntary Application Server Identification)
// helpers shared by the server's public-key endpoint and the client agent.
package vapid

import (
	"encoding/base64"
	"fmt"
)

// ApplicationServerKey formats the VAPID public key for use with the
// browser's PushManager.subscribe() call.
func ApplicationServerKey(publicKey []byte) string {
	return base64.RawURLEncoding.EncodeToString(publicKey)
}

// DecodeApplicationServerKey decodes a base64url-encoded application server
// key and checks it is an uncompressed P-256 point.
func DecodeApplicationServerKey(key string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("decoding application server key: %w", err)
	}
	if len(raw) != 65 || raw[0] != 0x04 {
		return nil, fmt.Errorf("application server key must be a 65-byte uncompressed P-256 point")
	}
	return raw, nil
}
