// Package notifiers provides the sample sinks that can be registered with a
// crn.NotificationManager.
package notifiers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/daniacca/crnsim/internal/crn"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// WebSocketNotifier broadcasts sample events to connected WebSocket clients.
// A client may subscribe to a single run with the "run" query parameter;
// without it the client receives every sample.
type WebSocketNotifier struct {
	id       string
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]string

	broadcast chan crn.SampleEvent
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWebSocketNotifier creates a notifier and starts its broadcast loop.
func NewWebSocketNotifier(id string) *WebSocketNotifier {
	wsn := &WebSocketNotifier{
		id:        id,
		clients:   make(map[*websocket.Conn]string),
		broadcast: make(chan crn.SampleEvent, 256),
		done:      make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	wsn.wg.Add(1)
	go wsn.run()
	return wsn
}

func (wsn *WebSocketNotifier) ID() string { return wsn.id }

func (wsn *WebSocketNotifier) Type() string { return "websocket" }

// ClientCount returns the number of connected clients.
func (wsn *WebSocketNotifier) ClientCount() int {
	wsn.mu.RLock()
	defer wsn.mu.RUnlock()
	return len(wsn.clients)
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects or the notifier closes.
func (wsn *WebSocketNotifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := wsn.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		return
	}

	wsn.mu.Lock()
	select {
	case <-wsn.done:
		wsn.mu.Unlock()
		conn.Close()
		return
	default:
	}
	wsn.clients[conn] = r.URL.Query().Get("run")
	wsn.mu.Unlock()

	// Clients never send anything meaningful; reading only detects
	// disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	wsn.drop(conn)
}

func (wsn *WebSocketNotifier) drop(conn *websocket.Conn) {
	wsn.mu.Lock()
	if _, ok := wsn.clients[conn]; ok {
		delete(wsn.clients, conn)
		conn.Close()
	}
	wsn.mu.Unlock()
}

// Notify queues the event for broadcast.
func (wsn *WebSocketNotifier) Notify(ctx context.Context, event crn.SampleEvent) error {
	select {
	case <-wsn.done:
		return fmt.Errorf("websocket notifier %s is closed", wsn.id)
	default:
	}

	select {
	case wsn.broadcast <- event:
		return nil
	case <-wsn.done:
		return fmt.Errorf("websocket notifier %s is closed", wsn.id)
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Second):
		return fmt.Errorf("notification queue full")
	}
}

func (wsn *WebSocketNotifier) run() {
	defer wsn.wg.Done()
	for {
		select {
		case <-wsn.done:
			return
		case event := <-wsn.broadcast:
			wsn.send(event)
		}
	}
}

func (wsn *WebSocketNotifier) send(event crn.SampleEvent) {
	payload, err := event.JSON()
	if err != nil {
		return
	}

	// Collect targets so no lock is held while writing.
	wsn.mu.RLock()
	targets := make([]*websocket.Conn, 0, len(wsn.clients))
	for conn, runID := range wsn.clients {
		if runID == "" || runID == event.RunID {
			targets = append(targets, conn)
		}
	}
	wsn.mu.RUnlock()

	for _, conn := range targets {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			wsn.drop(conn)
		}
	}
}

// Close disconnects every client and stops the broadcast loop. It is safe to
// call more than once.
func (wsn *WebSocketNotifier) Close() error {
	wsn.closeOnce.Do(func() {
		close(wsn.done)
		wsn.wg.Wait()

		wsn.mu.Lock()
		for conn := range wsn.clients {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(time.Second))
			conn.Close()
			delete(wsn.clients, conn)
		}
		wsn.mu.Unlock()
	})
	return nil
}
