package agent

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/ysawayama/u11-premier-pwa-sub001/notify"
)

// PushHandler runs in the platform-managed background context when a push
// arrives, whether or not the application is open. It shares no state with
// the foreground application.
type PushHandler struct {
	notifier Notifier
}

// NewPushHandler creates the background delivery handler.
func NewPushHandler(notifier Notifier) *PushHandler {
	return &PushHandler{notifier: notifier}
}

// HandlePush parses the received payload and renders it. A body that is not
// structured data still produces a notification with the raw text as body.
// HandlePush returns only after the notification has been shown, which is
// what keeps the platform from suspending the background context mid-way.
func (h *PushHandler) HandlePush(ctx context.Context, raw []byte) error {
	p := notify.ParsePayload(raw)
	if err := h.notifier.ShowNotification(ctx, p); err != nil {
		return fmt.Errorf("showing notification: %w", err)
	}
	return nil
}

// ClickHandler routes a notification activation back into the application.
type ClickHandler struct {
	windows WindowManager
}

// NewClickHandler creates the notification interaction handler.
func NewClickHandler(windows WindowManager) *ClickHandler {
	return &ClickHandler{windows: windows}
}

// HandleClick closes the notification, then focuses an already-open window
// at the notification's target URL, or opens a new one. An existing window
// is reused only when its URL matches the target exactly.
func (h *ClickHandler) HandleClick(ctx context.Context, n RenderedNotification) error {
	if err := n.Close(); err != nil {
		clog.FromContext(ctx).Warnf("closing notification: %v", err)
	}

	target := n.Payload().URL
	if target == "" {
		target = notify.DefaultURL
	}

	windows, err := h.windows.Windows(ctx)
	if err != nil {
		return fmt.Errorf("listing windows: %w", err)
	}
	for _, w := range windows {
		if w.URL() == target {
			return w.Focus(ctx)
		}
	}

	if _, err := h.windows.Open(ctx, target); err != nil {
		return fmt.Errorf("opening window: %w", err)
	}
	return nil
}
