package storage

import (
	"context"
	"testing"

	"github.com/ysawayama/u11-premier-pwa-sub001/webpush"
)

func TestMemory(t *testing.T) {
	testStorage(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	// Use in-memory SQLite for testing
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer s.Close()

	testStorage(t, s)
}

func record(userID, endpoint string) *Record {
	return &Record{
		UserID: userID,
		Subscription: &webpush.Subscription{
			Endpoint: endpoint,
			Keys: webpush.Keys{
				P256dh: "BNcRdreALRFXTkOOUHK1EtK2wtaz5Ry4YfYCA_0QTpQtUbVlUls0VJXg7A8u-Ts1XbjhazAkj7I99e8QcYP7DkM",
				Auth:   "tBHItJI5svbpez7KI4CCXg",
			},
		},
	}
}

func testStorage(t *testing.T, s Storage) {
	ctx := context.Background()

	if err := s.Upsert(ctx, record("user-1", "https://push.example.com/abc123")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	records, err := s.ListForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ListForUser() count = %d, want 1", len(records))
	}
	if records[0].ID == "" {
		t.Error("stored record has no ID")
	}
	if records[0].CreatedAt.IsZero() {
		t.Error("stored record CreatedAt is zero")
	}

	// Upsert is idempotent: same (user, endpoint) stays one row
	if err := s.Upsert(ctx, record("user-1", "https://push.example.com/abc123")); err != nil {
		t.Fatalf("Upsert() repeat error = %v", err)
	}
	records, err = s.ListForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("ListForUser() after re-register count = %d, want 1", len(records))
	}

	// Re-registering with new keys replaces them in place
	refreshed := record("user-1", "https://push.example.com/abc123")
	refreshed.Subscription.Keys.Auth = "c2Vjb25kLWF1dGg"
	if err := s.Upsert(ctx, refreshed); err != nil {
		t.Fatalf("Upsert() refresh error = %v", err)
	}
	records, _ = s.ListForUser(ctx, "user-1")
	if len(records) != 1 {
		t.Fatalf("ListForUser() after key refresh count = %d, want 1", len(records))
	}
	if records[0].Subscription.Keys.Auth != "c2Vjb25kLWF1dGg" {
		t.Errorf("auth key = %q, want refreshed value", records[0].Subscription.Keys.Auth)
	}

	// Second device for the same user, plus another user
	if err := s.Upsert(ctx, record("user-1", "https://push.example.com/def456")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := s.Upsert(ctx, record("user-2", "https://push.example.com/ghi789")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	records, err = s.ListForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("ListForUser() count = %d, want 2", len(records))
	}

	records, err = s.ListForUsers(ctx, []string{"user-1", "user-2"})
	if err != nil {
		t.Fatalf("ListForUsers() error = %v", err)
	}
	if len(records) != 3 {
		t.Errorf("ListForUsers() count = %d, want 3", len(records))
	}

	records, err = s.ListForUsers(ctx, nil)
	if err != nil {
		t.Fatalf("ListForUsers(nil) error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("ListForUsers(nil) count = %d, want 0", len(records))
	}

	records, err = s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(records) != 3 {
		t.Errorf("ListAll() count = %d, want 3", len(records))
	}

	// Unknown user is an empty result, not an error
	records, err = s.ListForUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListForUser() unknown user error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("ListForUser() unknown user count = %d, want 0", len(records))
	}

	if err := s.DeleteByEndpoint(ctx, "https://push.example.com/def456"); err != nil {
		t.Fatalf("DeleteByEndpoint() error = %v", err)
	}
	records, _ = s.ListAll(ctx)
	if len(records) != 2 {
		t.Errorf("ListAll() after delete count = %d, want 2", len(records))
	}

	// Delete is idempotent
	if err := s.DeleteByEndpoint(ctx, "https://push.example.com/def456"); err != nil {
		t.Errorf("DeleteByEndpoint() repeat error = %v, want nil", err)
	}
	if err := s.DeleteByEndpoint(ctx, "https://push.example.com/never-existed"); err != nil {
		t.Errorf("DeleteByEndpoint() absent endpoint error = %v, want nil", err)
	}
}

func TestMemory_CopiesRecords(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	orig := record("user-1", "https://push.example.com/abc123")
	if err := m.Upsert(ctx, orig); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// Mutating the caller's record must not affect the stored copy
	orig.Subscription.Keys.Auth = "mutated"

	records, err := m.ListForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if records[0].Subscription.Keys.Auth == "mutated" {
		t.Error("stored record shares memory with caller's record")
	}
}
