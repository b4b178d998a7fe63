package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ysawayama/u11-premier-pwa-sub001/webpush"
)

// Registrar is the client's view of the delivery service's registration
// surface.
type Registrar interface {
	Register(ctx context.Context, sub *webpush.Subscription) error
	Unregister(ctx context.Context, endpoint string) error
}

// HTTPRegistrar talks to the delivery service over HTTP with the user's
// bearer credential.
type HTTPRegistrar struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPRegistrar creates a registrar for the delivery service at baseURL.
func NewHTTPRegistrar(baseURL, bearerToken string) *HTTPRegistrar {
	return &HTTPRegistrar{
		baseURL:    baseURL,
		token:      bearerToken,
		httpClient: http.DefaultClient,
	}
}

// WithHTTPClient sets a custom HTTP client.
func (r *HTTPRegistrar) WithHTTPClient(httpClient *http.Client) *HTTPRegistrar {
	r.httpClient = httpClient
	return r
}

// Register reports a platform subscription to the delivery service.
func (r *HTTPRegistrar) Register(ctx context.Context, sub *webpush.Subscription) error {
	return r.do(ctx, http.MethodPost, sub)
}

// Unregister deletes the subscription record for endpoint.
func (r *HTTPRegistrar) Unregister(ctx context.Context, endpoint string) error {
	return r.do(ctx, http.MethodDelete, map[string]string{"endpoint": endpoint})
}

// ApplicationServerKey fetches the VAPID public key clients subscribe with.
func (r *HTTPRegistrar) ApplicationServerKey(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/push/vapid-public-key", nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching application server key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("delivery service returned %d", resp.StatusCode)
	}

	var body struct {
		PublicKey string `json:"publicKey"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return body.PublicKey, nil
}

func (r *HTTPRegistrar) do(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+"/api/push/subscriptions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling delivery service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("delivery service returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
