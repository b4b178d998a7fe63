// Package delivery fans a notification out to the push subscriptions of the
// selected users: it authorizes the sender, resolves recipients from the
// subscription store, transmits one encrypted message per subscription in
// parallel, and prunes subscriptions the push service reports as gone.
package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/chainguard-dev/clog"
	"github.com/ysawayama/u11-premier-pwa-sub001/notify"
	"github.com/ysawayama/u11-premier-pwa-sub001/storage"
	"github.com/ysawayama/u11-premier-pwa-sub001/webpush"
)

// Sender transmits one encrypted push message. Satisfied by *webpush.Client.
type Sender interface {
	Send(ctx context.Context, sub *webpush.Subscription, payload []byte, opts *webpush.Options) error
}

// Target selects the recipients of a fan-out. Exactly one field is set.
type Target struct {
	UserID  string
	UserIDs []string
	All     bool
}

// Outcome classifies one delivery attempt.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeStale     Outcome = "stale"
	OutcomeFailed    Outcome = "failed"
)

// attempt is the settled result of one transmission. Attempts are never
// persisted; they only drive counting and pruning.
type attempt struct {
	record  *storage.Record
	outcome Outcome
	err     error
}

// Result is the aggregate of a fan-out.
type Result struct {
	Sent  int `json:"sent"`
	Total int `json:"total"`
}

// Service resolves targets and performs the fan-out.
type Service struct {
	store  storage.Storage
	sender Sender
	ttl    int // seconds, applied to every message
}

// NewService creates a delivery service. ttl bounds how long the push
// service holds an undelivered message, in seconds.
func NewService(store storage.Storage, sender Sender, ttl int) *Service {
	return &Service{store: store, sender: sender, ttl: ttl}
}

// Resolve queries the store per the selector. An empty result is success.
func (s *Service) Resolve(ctx context.Context, t Target) ([]*storage.Record, error) {
	switch {
	case t.All:
		return s.store.ListAll(ctx)
	case t.UserID != "":
		return s.store.ListForUser(ctx, t.UserID)
	case t.UserIDs != nil:
		return s.store.ListForUsers(ctx, t.UserIDs)
	}
	return nil, errors.New("no target selector")
}

// Deliver transmits payload to every record concurrently and waits for all
// attempts to settle. One recipient's failure never aborts the others: a
// stale endpoint (404/410) is pruned from the store, any other error is
// logged and counted as failed. The returned error covers only payload
// encoding, never individual deliveries.
func (s *Service) Deliver(ctx context.Context, records []*storage.Record, payload notify.Payload) (Result, error) {
	log := clog.FromContext(ctx)
	result := Result{Total: len(records)}
	fanoutSize.Observe(float64(len(records)))
	if len(records) == 0 {
		return result, nil
	}

	body, err := json.Marshal(payload.WithDefaults())
	if err != nil {
		return result, fmt.Errorf("marshaling payload: %w", err)
	}

	opts := &webpush.Options{
		TTL:     s.ttl,
		Urgency: "normal",
		// Same tag means the push service may replace an undelivered
		// earlier message for this event kind
		Topic: payload.Tag,
	}

	attempts := make(chan attempt, len(records))
	var wg sync.WaitGroup
	for _, rec := range records {
		wg.Add(1)
		go func(rec *storage.Record) {
			defer wg.Done()
			err := s.sender.Send(ctx, rec.Subscription, body, opts)
			switch {
			case err == nil:
				attempts <- attempt{record: rec, outcome: OutcomeDelivered}
			case webpush.SubscriptionGone(err):
				attempts <- attempt{record: rec, outcome: OutcomeStale, err: err}
			default:
				attempts <- attempt{record: rec, outcome: OutcomeFailed, err: err}
			}
		}(rec)
	}
	wg.Wait()
	close(attempts)

	for a := range attempts {
		attemptsTotal.WithLabelValues(string(a.outcome)).Inc()
		switch a.outcome {
		case OutcomeDelivered:
			result.Sent++
		case OutcomeStale:
			log.Warnf("pruning stale subscription %s: %v", a.record.ID, a.err)
			if err := s.store.DeleteByEndpoint(ctx, a.record.Subscription.Endpoint); err != nil {
				log.Errorf("deleting stale subscription %s: %v", a.record.ID, err)
			}
		case OutcomeFailed:
			log.Warnf("push to subscription %s failed: %v", a.record.ID, a.err)
		}
	}

	return result, nil
}
