package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/ysawayama/u11-premier-pwa-sub001/vapid"
)

// State is the agent's registration state on this device.
type State string

const (
	StateUnregistered        State = "unregistered"
	StatePermissionRequested State = "permission-requested"
	StatePermissionDenied    State = "permission-denied"
	StatePermissionGranted   State = "permission-granted"
	StateSubscribed          State = "subscribed"
	StateUnsubscribed        State = "unsubscribed"
)

// ErrPermissionRequired is returned by Subscribe before permission has been
// granted.
var ErrPermissionRequired = errors.New("notification permission not granted")

// Agent drives one device through the permission/subscription lifecycle.
// It is not safe for concurrent use; the platform runs it on a single
// execution context.
type Agent struct {
	platform     Platform
	registrar    Registrar
	appServerKey []byte
	state        State
}

// New creates an agent. applicationServerKey is the base64url VAPID public
// key obtained from the delivery service.
func New(platform Platform, registrar Registrar, applicationServerKey string) (*Agent, error) {
	key, err := vapid.DecodeApplicationServerKey(applicationServerKey)
	if err != nil {
		return nil, err
	}
	return &Agent{
		platform:     platform,
		registrar:    registrar,
		appServerKey: key,
		state:        StateUnregistered,
	}, nil
}

// State returns the current registration state.
func (a *Agent) State() State {
	return a.state
}

// RequestPermission prompts for notification permission. Denial and missing
// push capability are expected outcomes and reported as false, not as
// errors. Once denied, only the user can change the permission in their
// browser settings; the agent treats the state as terminal.
func (a *Agent) RequestPermission(ctx context.Context) (bool, error) {
	if !a.platform.Supported() {
		return false, nil
	}

	a.state = StatePermissionRequested
	perm, err := a.platform.RequestPermission(ctx)
	if err != nil {
		return false, fmt.Errorf("requesting permission: %w", err)
	}

	if perm != PermissionGranted {
		a.state = StatePermissionDenied
		return false, nil
	}

	a.state = StatePermissionGranted
	return true, nil
}

// Subscribe registers with the platform push service and reports the issued
// subscription to the delivery service. If the report fails the platform
// registration stays in effect: the device then believes it is subscribed
// while the server has no record of it. That window is a known limitation;
// there is no client-side reconciliation.
func (a *Agent) Subscribe(ctx context.Context) error {
	if a.state != StatePermissionGranted && a.state != StateUnsubscribed {
		return ErrPermissionRequired
	}

	sub, err := a.platform.Subscribe(ctx, a.appServerKey)
	if err != nil {
		return fmt.Errorf("subscribing with push service: %w", err)
	}
	a.state = StateSubscribed

	if err := a.registrar.Register(ctx, sub); err != nil {
		return fmt.Errorf("registering subscription: %w", err)
	}
	return nil
}

// Unsubscribe tears down the platform registration first, then deletes the
// server record. A failed delete leaves a stale row that the delivery
// service prunes on a later send; the device stops receiving pushes either
// way.
func (a *Agent) Unsubscribe(ctx context.Context) error {
	sub, err := a.platform.CurrentSubscription(ctx)
	if err != nil {
		return fmt.Errorf("reading current subscription: %w", err)
	}
	if sub == nil {
		a.state = StateUnsubscribed
		return nil
	}

	if err := a.platform.Unsubscribe(ctx); err != nil {
		return fmt.Errorf("unsubscribing from push service: %w", err)
	}
	a.state = StateUnsubscribed

	if err := a.registrar.Unregister(ctx, sub.Endpoint); err != nil {
		return fmt.Errorf("removing subscription record: %w", err)
	}
	return nil
}
