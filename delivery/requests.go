package delivery

import (
	"errors"

	"github.com/ysawayama/u11-premier-pwa-sub001/notify"
	"github.com/ysawayama/u11-premier-pwa-sub001/webpush"
)

// SendRequest is the body of POST /api/push/send. Exactly one of UserID,
// UserIDs, All selects the recipients. An empty-but-present userIds list is
// a valid selector resolving to zero recipients.
type SendRequest struct {
	UserID       string       `json:"userId,omitempty"`
	UserIDs      []string     `json:"userIds,omitempty"`
	All          bool         `json:"all,omitempty"`
	Notification Notification `json:"notification"`
}

// Notification mirrors notify.Payload with the request-level validation
// contract: title and body are mandatory.
type Notification struct {
	Title string         `json:"title" validate:"required"`
	Body  string         `json:"body" validate:"required"`
	Icon  string         `json:"icon,omitempty"`
	Badge string         `json:"badge,omitempty"`
	Tag   string         `json:"tag,omitempty"`
	URL   string         `json:"url,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

func (n Notification) payload() notify.Payload {
	return notify.Payload{
		Title: n.Title,
		Body:  n.Body,
		Icon:  n.Icon,
		Badge: n.Badge,
		Tag:   n.Tag,
		URL:   n.URL,
		Data:  n.Data,
	}
}

var errSelector = errors.New("exactly one of userId, userIds, all must be set")

// target validates the one-of selector contract.
func (r *SendRequest) target() (Target, error) {
	n := 0
	if r.UserID != "" {
		n++
	}
	if r.UserIDs != nil {
		n++
	}
	if r.All {
		n++
	}
	if n != 1 {
		return Target{}, errSelector
	}
	return Target{UserID: r.UserID, UserIDs: r.UserIDs, All: r.All}, nil
}

// SubscribeRequest is the body of POST /api/push/subscriptions: the
// subscription triple the browser obtained from its push service.
type SubscribeRequest struct {
	Endpoint string       `json:"endpoint"`
	Keys     webpush.Keys `json:"keys"`
}

func (r *SubscribeRequest) subscription() *webpush.Subscription {
	return &webpush.Subscription{Endpoint: r.Endpoint, Keys: r.Keys}
}

// UnsubscribeRequest is the body of DELETE /api/push/subscriptions.
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}
