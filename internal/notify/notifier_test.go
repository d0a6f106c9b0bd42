package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	name  string
	err   error
	calls int
}

func (s *fakeSender) Send(context.Context, string, string) error {
	s.calls++
	return s.err
}

func (s *fakeSender) Name() string { return s.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyEventFilter(t *testing.T) {
	sender := &fakeSender{name: "a"}
	n := NewNotifier([]Sender{sender}, []string{"cycle_detected"}, testLogger())

	require.NoError(t, n.Notify(context.Background(), "scan_error", "t", "m"))
	assert.Zero(t, sender.calls)

	require.NoError(t, n.Notify(context.Background(), "cycle_detected", "t", "m"))
	assert.Equal(t, 1, sender.calls)
}

func TestNotifyEmptyFilterAllowsAll(t *testing.T) {
	sender := &fakeSender{name: "a"}
	n := NewNotifier([]Sender{sender}, nil, testLogger())

	require.NoError(t, n.Notify(context.Background(), "anything", "t", "m"))
	assert.Equal(t, 1, sender.calls)
}

func TestNotifyBlankEventNamesIgnored(t *testing.T) {
	sender := &fakeSender{name: "a"}
	n := NewNotifier([]Sender{sender}, []string{" ", ""}, testLogger())

	// Only blanks were configured, so the filter is effectively empty.
	require.NoError(t, n.Notify(context.Background(), "anything", "t", "m"))
	assert.Equal(t, 1, sender.calls)
}

func TestDispatchCollectsFailures(t *testing.T) {
	good := &fakeSender{name: "good"}
	bad := &fakeSender{name: "bad", err: errors.New("webhook gone")}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger())

	err := n.NotifyAll(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 sender(s) failed")
	assert.Contains(t, err.Error(), "bad")
	// The failing channel does not block delivery to the rest.
	assert.Equal(t, 1, good.calls)
}

func TestNotifierNoSenders(t *testing.T) {
	n := NewNotifier(nil, nil, testLogger())
	assert.NoError(t, n.NotifyAll(context.Background(), "t", "m"))
}

func TestDiscordSenderPostsWebhook(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	require.NoError(t, s.Send(context.Background(), "Title", "body"))
	assert.Equal(t, "**Title**\nbody", got["content"])
}

func TestDiscordSenderNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such webhook", http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	err := s.Send(context.Background(), "Title", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discord")
}
