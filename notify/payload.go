// Package notify defines the notification payload shape shared by the
// delivery service and the client agent, and the composers that turn match
// events into payloads.
package notify

import "encoding/json"

// Defaults applied to payload fields the sender leaves empty.
const (
	DefaultTitle = "U11 Premier"
	DefaultIcon  = "/icons/icon-192.png"
	DefaultBadge = "/icons/badge-96.png"
	DefaultURL   = "/"
)

// Payload is the JSON document pushed to a device and rendered as a local
// notification. Title and Body are mandatory; everything else has a default.
type Payload struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Icon  string         `json:"icon,omitempty"`
	Badge string         `json:"badge,omitempty"`
	Tag   string         `json:"tag,omitempty"`
	URL   string         `json:"url,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// WithDefaults returns a copy with empty optional fields filled in.
func (p Payload) WithDefaults() Payload {
	if p.Icon == "" {
		p.Icon = DefaultIcon
	}
	if p.Badge == "" {
		p.Badge = DefaultBadge
	}
	if p.URL == "" {
		p.URL = DefaultURL
	}
	return p
}

// ParsePayload decodes a received push body. A body that is not valid JSON
// (or parses without a title) is treated as plain text: the raw bytes become
// the notification body under the default title. Push payloads come from the
// wire, so this never fails.
func ParsePayload(raw []byte) Payload {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil || p.Title == "" {
		return Payload{
			Title: DefaultTitle,
			Body:  string(raw),
		}.WithDefaults()
	}
	return p.WithDefaults()
}
