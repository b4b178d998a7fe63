// Package storage persists push subscriptions keyed by user. It performs no
// network I/O; delivery and registration live elsewhere.
package storage

import (
	"context"
	"time"

	"github.com/ysawayama/u11-premier-pwa-sub001/webpush"
)

// Record is one stored subscription: a user's registered device channel.
type Record struct {
	ID           string                `json:"id"`
	UserID       string                `json:"user_id"`
	Subscription *webpush.Subscription `json:"subscription"`
	CreatedAt    time.Time             `json:"created_at"`
}

// Storage defines the subscription store. One row per (user, endpoint) pair;
// a user may register several devices but never the same device twice.
type Storage interface {
	// Upsert stores the subscription, replacing the keys of an existing
	// (user, endpoint) row. Re-registering an identical subscription is not
	// an error.
	Upsert(ctx context.Context, record *Record) error

	// ListForUser returns all subscriptions for a user. An empty result is
	// not an error.
	ListForUser(ctx context.Context, userID string) ([]*Record, error)

	// ListForUsers returns all subscriptions for any of the given users.
	ListForUsers(ctx context.Context, userIDs []string) ([]*Record, error)

	// ListAll returns every stored subscription.
	ListAll(ctx context.Context) ([]*Record, error)

	// DeleteByEndpoint removes the subscription with the given endpoint.
	// Deleting an absent endpoint is a no-op.
	DeleteByEndpoint(ctx context.Context, endpoint string) error

	// Close closes the storage connection.
	Close() error
}
