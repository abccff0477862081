package visualization

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nvandessel/beliefsim/internal/logging"
	"github.com/nvandessel/beliefsim/internal/population"
	"github.com/nvandessel/beliefsim/internal/simulation"
)

// Server serves the HTML report and the underlying data as JSON and CSV.
type Server struct {
	traj       *simulation.Trajectory
	sweep      *simulation.SweepResult
	logger     *slog.Logger
	httpServer *http.Server
	mu         sync.Mutex
	addr       string
}

// NewServer creates a report server. Either result may be nil; its
// endpoints then answer 404.
func NewServer(traj *simulation.Trajectory, sweep *simulation.SweepResult, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{traj: traj, sweep: sweep, logger: logger}
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Routes returns the server's HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Get("/trajectory", s.handleTrajectory)
		r.Get("/trajectory.csv", s.handleTrajectoryCSV)
		r.Get("/matrix/{group}", s.handleMatrix)
		r.Get("/graph", s.handleGraph)
		r.Get("/sweep", s.handleSweep)
		r.Get("/sweep.csv", s.handleSweepCSV)
	})
	return r
}

// ListenAndServe starts the HTTP server on addr ("localhost:0" lets the OS
// pick a free port) and blocks until the context is cancelled. Returns nil
// on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = "localhost:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.httpServer = srv
	s.mu.Unlock()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		case <-done:
		}
	}()

	err = srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := RenderReport(ReportInput{Trajectory: s.traj, Sweep: s.sweep})
	if err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleTrajectory(w http.ResponseWriter, r *http.Request) {
	if s.traj == nil {
		http.Error(w, "no trajectory loaded", http.StatusNotFound)
		return
	}
	writeJSONResponse(w, s.traj)
}

func (s *Server) handleTrajectoryCSV(w http.ResponseWriter, r *http.Request) {
	if s.traj == nil {
		http.Error(w, "no trajectory loaded", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	if err := WriteTrajectoryCSV(w, s.traj); err != nil {
		s.logger.Warn("writing trajectory CSV", "error", err)
	}
}

func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	if s.traj == nil {
		http.Error(w, "no trajectory loaded", http.StatusNotFound)
		return
	}
	group := population.Demographic(chi.URLParam(r, "group"))
	if _, ok := s.traj.Groups[group]; !ok {
		http.Error(w, "unknown group: "+string(group), http.StatusNotFound)
		return
	}
	writeJSONResponse(w, s.traj.Matrix(group))
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if s.traj == nil || s.traj.Graph == nil {
		http.Error(w, "no network loaded", http.StatusNotFound)
		return
	}
	writeJSONResponse(w, RenderGraphJSON(NewNetworkView(s.traj)))
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if s.sweep == nil {
		http.Error(w, "no sweep loaded", http.StatusNotFound)
		return
	}
	writeJSONResponse(w, s.sweep)
}

func (s *Server) handleSweepCSV(w http.ResponseWriter, r *http.Request) {
	if s.sweep == nil {
		http.Error(w, "no sweep loaded", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	if err := WriteSweepCSV(w, s.sweep); err != nil {
		s.logger.Warn("writing sweep CSV", "error", err)
	}
}

func writeJSONResponse(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	WriteJSON(w, v)
}
