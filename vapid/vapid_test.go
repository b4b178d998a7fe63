package vapid

import (
	"testing"
)

func TestApplicationServerKeyRoundTrip(t *testing.T) {
	key := make([]byte, 65)
	key[0] = 0x04
	for i := 1; i < len(key); i++ {
		key[i] = byte(i)
	}

	encoded := ApplicationServerKey(key)
	decoded, err := DecodeApplicationServerKey(encoded)
	if err != nil {
		t.Fatalf("DecodeApplicationServerKey() error = %v", err)
	}

	if len(decoded) != len(key) {
		t.Fatalf("decoded length = %d, want %d", len(decoded), len(key))
	}
	for i := range key {
		if decoded[i] != key[i] {
			t.Fatalf("decoded[%d] = %x, want %x", i, decoded[i], key[i])
		}
	}
}

func TestDecodeApplicationServerKey_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "not base64", key: "%%%"},
		{name: "too short", key: ApplicationServerKey([]byte{0x04, 0x01})},
		{name: "compressed point", key: ApplicationServerKey(append([]byte{0x02}, make([]byte, 64)...))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeApplicationServerKey(tt.key); err == nil {
				t.Error("DecodeApplicationServerKey() expected error, got nil")
			}
		})
	}
}
