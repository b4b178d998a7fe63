package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysawayama/u11-premier-pwa-sub001/webpush"
)

func TestHTTPRegistrar_Register(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	var gotBody webpush.Subscription
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := NewHTTPRegistrar(server.URL, "user-token")
	sub := &webpush.Subscription{
		Endpoint: "https://push.example.com/abc",
		Keys:     webpush.Keys{P256dh: "key", Auth: "auth"},
	}
	require.NoError(t, r.Register(context.Background(), sub))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/push/subscriptions", gotPath)
	assert.Equal(t, "Bearer user-token", gotAuth)
	assert.Equal(t, sub.Endpoint, gotBody.Endpoint)
}

func TestHTTPRegistrar_Unregister(t *testing.T) {
	var gotMethod string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	r := NewHTTPRegistrar(server.URL, "user-token")
	require.NoError(t, r.Unregister(context.Background(), "https://push.example.com/abc"))

	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "https://push.example.com/abc", gotBody["endpoint"])
}

func TestHTTPRegistrar_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	r := NewHTTPRegistrar(server.URL, "user-token")
	err := r.Register(context.Background(), &webpush.Subscription{Endpoint: "https://x"})
	assert.Error(t, err)
}

func TestHTTPRegistrar_ApplicationServerKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/push/vapid-public-key", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"publicKey": "the-key"})
	}))
	defer server.Close()

	r := NewHTTPRegistrar(server.URL, "")
	key, err := r.ApplicationServerKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "the-key", key)
}
