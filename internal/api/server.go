// Package api provides the local control API of a running colorwarm agent.
// The CLI forwards one-shot commands to it so they do not race the loop.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/philtems/colorwarm/internal/colortemp"
	"github.com/philtems/colorwarm/internal/display"
	"github.com/philtems/colorwarm/internal/status"
	"github.com/philtems/colorwarm/pkg/health"
)

// commandTimeout bounds a command waiting on the agent loop
const commandTimeout = 10 * time.Second

// Agent is what the API needs from the running agent
type Agent interface {
	colortemp.Submitter
	Status() status.Snapshot
	Outputs() []display.Output
}

// Server is the control API server
type Server struct {
	agent          Agent
	health         *health.Checker
	logger         *slog.Logger
	metricsEnabled bool

	httpServer *http.Server
}

// NewServer creates a new API server
func NewServer(agent Agent, checker *health.Checker, logger *slog.Logger) *Server {
	return &Server{agent: agent, health: checker, logger: logger}
}

// EnableMetrics enables the /metrics Prometheus endpoint
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(commandTimeout + 5*time.Second))

	if s.health != nil {
		r.Get("/health", s.health.HandlerFunc())
	}

	r.Route("/api", func(r chi.Router) {
		if s.health != nil {
			r.Get("/health", s.health.DetailedHandlerFunc())
		}
		r.Get("/status", s.handleStatus)
		r.Get("/outputs", s.handleOutputs)
		r.Get("/current", s.handleAction(colortemp.CmdQuery))

		r.Post("/set", s.handleSet)
		r.Post("/toggle", s.handleAction(colortemp.CmdToggle))
		r.Post("/reset", s.handleAction(colortemp.CmdReset))
		r.Post("/auto", s.handleAction(colortemp.CmdAuto))
		r.Post("/command", s.handleCommand)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// Start listens on addr and serves until Shutdown. The listener is bound
// before Start returns so a busy address fails immediately.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: commandTimeout + 10*time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Control API stopped", "error", err)
		}
	}()

	s.logger.Info("Control API listening", "addr", ln.Addr().String(), "metrics", s.metricsEnabled)
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agent.Status())
}

func (s *Server) handleOutputs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agent.Outputs())
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	var req colortemp.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.Action = string(colortemp.CmdSet)
	s.run(w, r, req)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req colortemp.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	s.run(w, r, req)
}

func (s *Server) handleAction(kind colortemp.CommandKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.run(w, r, colortemp.Request{Action: string(kind)})
	}
}

// run submits req to the agent and writes the result
func (s *Server) run(w http.ResponseWriter, r *http.Request, req colortemp.Request) {
	cmd, err := req.Command()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()

	res, err := s.agent.Submit(ctx, cmd)
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			s.logger.Warn("Command failed", "action", req.Action, "error", err)
		}
		// Partial failures still carry the per-output results
		if code == http.StatusMultiStatus {
			writeJSON(w, code, errorResult{Result: res, Error: err.Error()})
			return
		}
		writeError(w, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// errorResult is a result with the error that accompanied it
type errorResult struct {
	colortemp.Result
	Error string `json:"error"`
}

// statusFor maps agent errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, colortemp.ErrOverrideOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, colortemp.ErrAgentStopped),
		errors.Is(err, display.ErrDisplayUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusMultiStatus
	}
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": msg,
	})
}
