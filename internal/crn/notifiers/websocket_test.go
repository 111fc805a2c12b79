package notifiers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/daniacca/crnsim/internal/crn"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSample(t *testing.T, conn *websocket.Conn) crn.SampleEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev crn.SampleEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestNewWebSocketNotifier(t *testing.T) {
	notifier := NewWebSocketNotifier("test-ws")
	defer notifier.Close()

	if notifier.ID() != "test-ws" {
		t.Errorf("Expected ID 'test-ws', got '%s'", notifier.ID())
	}
	if notifier.Type() != "websocket" {
		t.Errorf("Expected type 'websocket', got '%s'", notifier.Type())
	}
	if notifier.ClientCount() != 0 {
		t.Errorf("Expected no clients, got %d", notifier.ClientCount())
	}
}

func TestWebSocketNotifier_NotifyWithoutClients(t *testing.T) {
	notifier := NewWebSocketNotifier("test")
	defer notifier.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, notifier.Notify(ctx, sample("run-1", 1)))
}

func TestWebSocketNotifier_Broadcast(t *testing.T) {
	notifier := NewWebSocketNotifier("ws")
	defer notifier.Close()
	srv := httptest.NewServer(notifier)
	defer srv.Close()

	a := dial(t, srv, "")
	b := dial(t, srv, "")
	require.Eventually(t, func() bool { return notifier.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, notifier.Notify(context.Background(), sample("run-1", 4)))

	for _, conn := range []*websocket.Conn{a, b} {
		ev := readSample(t, conn)
		assert.Equal(t, "run-1", ev.RunID)
		assert.Equal(t, 4, ev.Step)
	}
}

func TestWebSocketNotifier_RunFilter(t *testing.T) {
	notifier := NewWebSocketNotifier("ws")
	defer notifier.Close()
	srv := httptest.NewServer(notifier)
	defer srv.Close()

	only := dial(t, srv, "?run=wanted")
	require.Eventually(t, func() bool { return notifier.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, notifier.Notify(context.Background(), sample("other", 1)))
	require.NoError(t, notifier.Notify(context.Background(), sample("wanted", 2)))

	ev := readSample(t, only)
	assert.Equal(t, "wanted", ev.RunID)
	assert.Equal(t, 2, ev.Step)
}

func TestWebSocketNotifier_ClientDisconnect(t *testing.T) {
	notifier := NewWebSocketNotifier("ws")
	defer notifier.Close()
	srv := httptest.NewServer(notifier)
	defer srv.Close()

	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return notifier.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return notifier.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketNotifier_Close(t *testing.T) {
	notifier := NewWebSocketNotifier("ws")
	srv := httptest.NewServer(notifier)
	defer srv.Close()

	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return notifier.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, notifier.Close())
	require.NoError(t, notifier.Close())
	assert.Equal(t, 0, notifier.ClientCount())
	assert.Error(t, notifier.Notify(context.Background(), sample("run-1", 1)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
