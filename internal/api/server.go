package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"crypto-alert-service/internal/alert"
	"crypto-alert-service/internal/types"
)

// AlertService is the lifecycle surface exposed over HTTP.
type AlertService interface {
	Create(ctx context.Context, contact, symbol string, thresholdPercent float64, direction types.Direction) (*types.Alert, error)
	List(contact string) ([]types.Alert, error)
	Stop(token string) (bool, error)
	Unsubscribe(token string) (bool, error)
}

// StatsSource is the read-side aggregate surface.
type StatsSource interface {
	Statistics() (*types.Statistics, error)
}

// Server is the HTTP front for alert management. The capability-token routes
// (/stop, /unsubscribe) live outside /api because they are link targets in
// notification messages.
type Server struct {
	service AlertService
	stats   StatsSource
	router  *mux.Router
}

func NewServer(service AlertService, stats StatsSource) *Server {
	s := &Server{service: service, stats: stats}

	r := mux.NewRouter()
	r.Use(logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/alerts", s.handleCreateAlert).Methods(http.MethodPost)
	api.HandleFunc("/alerts/{contact}", s.handleListAlerts).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	r.HandleFunc("/stop", s.handleStop).Methods(http.MethodGet)
	r.HandleFunc("/unsubscribe", s.handleUnsubscribe).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	s.router = r
	return s
}

// Handler exposes the router for serving and for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("api server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debugf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}

// httpStatusFor maps error kinds to status codes: rejected input is the
// caller's fault, everything else is ours.
func httpStatusFor(err error) int {
	if alert.IsValidation(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
