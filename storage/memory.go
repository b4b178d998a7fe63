package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ysawayama/u11-premier-pwa-sub001/webpush"
)

// Memory implements in-memory storage for testing and development.
type Memory struct {
	mu      sync.RWMutex
	records map[memKey]*Record
}

type memKey struct {
	userID   string
	endpoint string
}

// NewMemory creates a new in-memory storage.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[memKey]*Record),
	}
}

// Upsert stores or replaces the subscription for (user, endpoint).
func (m *Memory) Upsert(_ context.Context, record *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memKey{userID: record.UserID, endpoint: record.Subscription.Endpoint}
	if existing, ok := m.records[key]; ok {
		// Keep the original identity and registration time
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	m.records[key] = copyRecord(record)
	return nil
}

// ListForUser returns all subscriptions for a user.
func (m *Memory) ListForUser(_ context.Context, userID string) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []*Record
	for key, record := range m.records {
		if key.userID == userID {
			results = append(results, copyRecord(record))
		}
	}
	return results, nil
}

// ListForUsers returns all subscriptions for any of the given users.
func (m *Memory) ListForUsers(_ context.Context, userIDs []string) ([]*Record, error) {
	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []*Record
	for key, record := range m.records {
		if wanted[key.userID] {
			results = append(results, copyRecord(record))
		}
	}
	return results, nil
}

// ListAll returns every stored subscription.
func (m *Memory) ListAll(_ context.Context) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]*Record, 0, len(m.records))
	for _, record := range m.records {
		results = append(results, copyRecord(record))
	}
	return results, nil
}

// DeleteByEndpoint removes the subscription with the given endpoint.
func (m *Memory) DeleteByEndpoint(_ context.Context, endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.records {
		if key.endpoint == endpoint {
			delete(m.records, key)
		}
	}
	return nil
}

// Close is a no-op for in-memory storage.
func (m *Memory) Close() error {
	return nil
}

// copyRecord guards against external mutation of stored records.
func copyRecord(r *Record) *Record {
	return &Record{
		ID:        r.ID,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
		Subscription: &webpush.Subscription{
			Endpoint: r.Subscription.Endpoint,
			Keys: webpush.Keys{
				P256dh: r.Subscription.Keys.P256dh,
				Auth:   r.Subscription.Keys.Auth,
			},
		},
	}
}
