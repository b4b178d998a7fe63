// Package agent bridges the platform push capability of a device to the
// application: requesting permission, registering the subscription with the
// delivery service, and handling received pushes and notification clicks.
//
// The platform registration state (the browser's push registration) is not
// owned by the application, so all platform access goes through the narrow
// Platform interface rather than being inlined in the agent.
package agent

import (
	"context"

	"github.com/ysawayama/u11-premier-pwa-sub001/notify"
	"github.com/ysawayama/u11-premier-pwa-sub001/webpush"
)

// PermissionState mirrors the platform's notification permission.
type PermissionState string

const (
	PermissionDefault PermissionState = "default"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

// Platform is the device push capability. Implementations wrap whatever the
// runtime provides; the agent never talks to the platform any other way.
type Platform interface {
	// Supported reports whether the device can receive pushes at all.
	Supported() bool

	// RequestPermission prompts the platform permission dialog. The
	// resulting permission state is platform-global and cannot be reverted
	// from application code.
	RequestPermission(ctx context.Context) (PermissionState, error)

	// Subscribe registers with the platform push service using the
	// application server key and returns the issued endpoint and keys.
	Subscribe(ctx context.Context, applicationServerKey []byte) (*webpush.Subscription, error)

	// Unsubscribe tears down the platform-level registration.
	Unsubscribe(ctx context.Context) error

	// CurrentSubscription returns the active platform registration, or nil
	// if there is none.
	CurrentSubscription(ctx context.Context) (*webpush.Subscription, error)
}

// Notifier renders a payload as a visible notification.
type Notifier interface {
	ShowNotification(ctx context.Context, p notify.Payload) error
}

// RenderedNotification is a notification the platform has displayed and the
// user can interact with.
type RenderedNotification interface {
	Payload() notify.Payload
	Close() error
}

// Window is one open client window.
type Window interface {
	URL() string
	Focus(ctx context.Context) error
}

// WindowManager enumerates and opens client windows.
type WindowManager interface {
	Windows(ctx context.Context) ([]Window, error)
	Open(ctx context.Context, url string) (Window, error)
}
