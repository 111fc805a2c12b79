package main

import (
	"log/slog"
	"net/http"

	"github.com/daniacca/crnsim/internal/config"
	"github.com/daniacca/crnsim/internal/crn"
	"github.com/daniacca/crnsim/internal/crn/notifiers"
	"github.com/daniacca/crnsim/internal/logging"
)

const wsNotifierID = "ws"

// Server is the HTTP front end of the simulator. Runs execute synchronously
// inside the request; their summaries are kept in a RunManager.
type Server struct {
	runs        *crn.RunManager
	notifierMgr *crn.NotificationManager
	ws          *notifiers.WebSocketNotifier
	streamIDs   []string
	defaults    *config.RunConfig
	logger      *slog.Logger
	adapter     *logging.Adapter
}

// NewServer creates a server whose runs default to cfg.
func NewServer(cfg *config.RunConfig, logger *slog.Logger) (*Server, error) {
	adapter := logging.NewAdapter(logger)
	mgr := crn.NewNotificationManager()
	mgr.SetLogger(adapter)

	s := &Server{
		runs:        crn.NewRunManager(),
		notifierMgr: mgr,
		ws:          notifiers.NewWebSocketNotifier(wsNotifierID),
		defaults:    cfg,
		logger:      logger,
		adapter:     adapter,
	}
	if err := mgr.RegisterNotifier(s.ws); err != nil {
		mgr.Close()
		return nil, err
	}
	s.streamIDs = append(s.streamIDs, wsNotifierID)

	if cfg.Notify.WebhookURL != "" {
		if err := mgr.RegisterNotifier(notifiers.NewWebhookNotifier("webhook", cfg.Notify.WebhookURL)); err != nil {
			mgr.Close()
			return nil, err
		}
		s.streamIDs = append(s.streamIDs, "webhook")
	}
	return s, nil
}

// Routes returns the HTTP handler for every endpoint.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /methods", s.handleMethods)
	mux.HandleFunc("POST /runs", s.handleCreateRun)
	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("DELETE /runs/{id}", s.handleDeleteRun)
	mux.Handle("GET /ws", s.ws)
	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// Close flushes pending samples and disconnects stream clients.
func (s *Server) Close() error {
	return s.notifierMgr.Close()
}
