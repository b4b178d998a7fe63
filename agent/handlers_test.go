package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysawayama/u11-premier-pwa-sub001/notify"
)

type fakeNotifier struct {
	shown   []notify.Payload
	showErr error
}

func (f *fakeNotifier) ShowNotification(_ context.Context, p notify.Payload) error {
	if f.showErr != nil {
		return f.showErr
	}
	f.shown = append(f.shown, p)
	return nil
}

func TestHandlePush_StructuredPayload(t *testing.T) {
	notifier := &fakeNotifier{}
	h := NewPushHandler(notifier)

	raw := []byte(`{"title":"Goal!","body":"Taro scored in the 12'","tag":"goal-42","url":"/matches/42"}`)
	require.NoError(t, h.HandlePush(context.Background(), raw))

	require.Len(t, notifier.shown, 1)
	shown := notifier.shown[0]
	assert.Equal(t, "Goal!", shown.Title)
	assert.Equal(t, "Taro scored in the 12'", shown.Body)
	assert.Equal(t, "goal-42", shown.Tag)
	assert.Equal(t, "/matches/42", shown.URL)
}

func TestHandlePush_RawTextPayload(t *testing.T) {
	notifier := &fakeNotifier{}
	h := NewPushHandler(notifier)

	require.NoError(t, h.HandlePush(context.Background(), []byte("Match started!")))

	require.Len(t, notifier.shown, 1)
	assert.Equal(t, notify.DefaultTitle, notifier.shown[0].Title)
	assert.Equal(t, "Match started!", notifier.shown[0].Body)
}

func TestHandlePush_NotifierError(t *testing.T) {
	h := NewPushHandler(&fakeNotifier{showErr: errors.New("quota exceeded")})
	assert.Error(t, h.HandlePush(context.Background(), []byte("hi")))
}

type fakeWindow struct {
	url     string
	focused bool
}

func (f *fakeWindow) URL() string { return f.url }

func (f *fakeWindow) Focus(_ context.Context) error {
	f.focused = true
	return nil
}

type fakeWindowManager struct {
	windows []*fakeWindow
	opened  []string
}

func (f *fakeWindowManager) Windows(_ context.Context) ([]Window, error) {
	out := make([]Window, len(f.windows))
	for i, w := range f.windows {
		out[i] = w
	}
	return out, nil
}

func (f *fakeWindowManager) Open(_ context.Context, url string) (Window, error) {
	f.opened = append(f.opened, url)
	w := &fakeWindow{url: url}
	f.windows = append(f.windows, w)
	return w, nil
}

type fakeRendered struct {
	payload notify.Payload
	closed  bool
}

func (f *fakeRendered) Payload() notify.Payload { return f.payload }

func (f *fakeRendered) Close() error {
	f.closed = true
	return nil
}

func TestHandleClick_FocusesExactMatch(t *testing.T) {
	match := &fakeWindow{url: "/matches/42"}
	other := &fakeWindow{url: "/matches/42/lineup"}
	wm := &fakeWindowManager{windows: []*fakeWindow{other, match}}
	h := NewClickHandler(wm)

	n := &fakeRendered{payload: notify.Payload{Title: "t", Body: "b", URL: "/matches/42"}}
	require.NoError(t, h.HandleClick(context.Background(), n))

	assert.True(t, n.closed, "notification closed")
	assert.True(t, match.focused, "exact-URL window focused")
	assert.False(t, other.focused, "prefix match is not reused")
	assert.Empty(t, wm.opened, "no new window opened")
}

func TestHandleClick_OpensWhenNoMatch(t *testing.T) {
	wm := &fakeWindowManager{windows: []*fakeWindow{{url: "/standings"}}}
	h := NewClickHandler(wm)

	n := &fakeRendered{payload: notify.Payload{Title: "t", Body: "b", URL: "/matches/42"}}
	require.NoError(t, h.HandleClick(context.Background(), n))

	assert.True(t, n.closed)
	assert.Equal(t, []string{"/matches/42"}, wm.opened)
}

func TestHandleClick_DefaultURL(t *testing.T) {
	wm := &fakeWindowManager{}
	h := NewClickHandler(wm)

	n := &fakeRendered{payload: notify.Payload{Title: "t", Body: "b"}}
	require.NoError(t, h.HandleClick(context.Background(), n))

	assert.Equal(t, []string{notify.DefaultURL}, wm.opened)
}
