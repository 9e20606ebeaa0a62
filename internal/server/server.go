package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/erenbektas/blossom/internal/config"
	"github.com/erenbektas/blossom/internal/metrics"
	"github.com/erenbektas/blossom/internal/slack"
	"github.com/erenbektas/blossom/internal/store"
)

// Request timestamp/signature headers used by the two webhook sources.
const (
	slackSignatureHeader   = "X-Slack-Signature"
	slackTimestampHeader   = "X-Slack-Request-Timestamp"
	sponsorSignatureHeader = "X-Hub-Signature"
)

// processTimeout bounds background processing of a single webhook event.
const processTimeout = 30 * time.Second

// Server is the webhook HTTP ingress. Each inbound webhook is verified,
// decoded into a typed payload, acknowledged, and then processed in the
// background: the reply travels over the chat channel, not the HTTP
// response.
type Server struct {
	cfg      *config.Config
	store    *store.Store
	router   *slack.Router
	actions  *slack.ActionProcessor
	notifier slack.Notifier
	metrics  *metrics.Metrics
	limiter  *RateLimiter
	logger   zerolog.Logger
	server   *http.Server
	inFlight sync.WaitGroup
}

// New creates the ingress server and wires the command routing core to it.
func New(
	cfg *config.Config,
	st *store.Store,
	notifier slack.Notifier,
	jokes slack.JokeSource,
	remover slack.Remover,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		notifier: notifier,
		metrics:  m,
		limiter:  NewRateLimiter(100),
		logger:   logger.With().Str("module", "server").Logger(),
	}

	commands := slack.NewCommands(st, jokes, logger)
	s.router = slack.NewRouter(commands, notifier, logger, func(command string) {
		m.CommandsDispatchedTotal.WithLabelValues(command).Inc()
	})
	s.actions = slack.NewActionProcessor(st, notifier, remover, logger)

	return s
}

// buildHandler assembles the route tree.
func (s *Server) buildHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Post("/webhook/slack", s.handleSlackWebhook)
	r.Post("/webhook/github", s.handleSponsorsWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Patch("/submission/{id}/remove", s.handleSubmissionRemove)
		r.Get("/find", s.handleFind)
		r.Route("/volunteer", func(r chi.Router) {
			r.Post("/", s.handleVolunteerCreate)
			r.Get("/summary", s.handleVolunteerSummary)
			r.Post("/accept_coc", s.handleAcceptCoC)
			r.Patch("/{id}/gamma_plusone", s.handleGammaPlusOne)
		})
	})

	return r
}

// Start starts the HTTP listener. It blocks until the listener fails or
// Stop is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler: s.buildHandler(),
	}

	s.logger.Info().
		Str("host", s.cfg.Server.Host).
		Int("port", s.cfg.Server.Port).
		Msg("Starting webhook server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start webhook server: %w", err)
	}
	return nil
}

// Stop gracefully stops the server, waiting for in-flight webhook
// processing to finish.
func (s *Server) Stop() error {
	s.logger.Info().Msg("Shutting down webhook server")

	done := make(chan struct{})
	go func() {
		s.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	s.limiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown webhook server: %w", err)
		}
	}

	s.logger.Info().Msg("Webhook server stopped")
	return nil
}

// Handler exposes the route tree without binding a listener.
func (s *Server) Handler() http.Handler {
	return s.buildHandler()
}

// requestLogger tags every request with an id and logs its outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("ip", clientIP(r)).
			Int("status", ww.status).
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UnixMilli(),
	})
}

// process runs fn in the background with a panic guard, so a malformed
// payload can never take down the request loop.
func (s *Server) process(fn func(ctx context.Context)) {
	s.inFlight.Add(1)
	go func() {
		defer s.inFlight.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().Interface("panic", r).Msg("Panic while processing webhook event")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// clientIP extracts the client IP from the request
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}
