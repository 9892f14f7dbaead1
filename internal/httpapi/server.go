// internal/httpapi/server.go
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/ezetrol-bridge/internal/decoder"
	"github.com/tamzrod/ezetrol-bridge/internal/poller"
)

const shutdownTimeout = 5 * time.Second

// Coordinator is what the API reads and drives.
type Coordinator interface {
	State() poller.State
	RequestRefresh(ctx context.Context) (poller.State, error)
}

// StateResponse is the JSON form of a coordinator state.
type StateResponse struct {
	Device      string           `json:"device"`
	Snapshot    decoder.Snapshot `json:"snapshot"`
	Available   bool             `json:"available"`
	Initialized bool             `json:"initialized"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
	LastSuccess *time.Time       `json:"last_success,omitempty"`
	LastError   string           `json:"last_error,omitempty"`
	DurationMs  int64            `json:"duration_ms"`
}

func NewStateResponse(s poller.State) StateResponse {
	return StateResponse{
		Device:      s.DeviceID,
		Snapshot:    s.Snapshot,
		Available:   s.Available(),
		Initialized: s.Initialized,
		UpdatedAt:   timePtr(s.UpdatedAt),
		LastSuccess: timePtr(s.LastSuccessAt),
		LastError:   s.LastError(),
		DurationMs:  s.Duration.Milliseconds(),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

type Server struct {
	coord  Coordinator
	gather prometheus.Gatherer
	logger *slog.Logger
	srv    *http.Server
}

// New builds the API server. A nil gatherer leaves /metrics unmounted.
func New(addr string, coord Coordinator, gather prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{coord: coord, gather: gather, logger: logger}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	mux.HandleFunc("POST /refresh", s.handleRefresh)
	if s.gather != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	}
	return mux
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", ln.Addr().String())
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http server shutdown", "err", err)
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.coord.State()
	if !st.Available() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  st.LastError(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, NewStateResponse(s.coord.State()))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	st, err := s.coord.RequestRefresh(r.Context())
	if err != nil {
		s.logger.Debug("refresh request dropped", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, NewStateResponse(st))
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
