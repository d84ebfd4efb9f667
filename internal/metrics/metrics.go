package metrics

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Poll metrics
	PollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "awnotify_polls_total",
			Help: "Total poll cycles by result",
		},
		[]string{"result"},
	)

	PollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "awnotify_poll_duration_seconds",
			Help:    "Poll cycle duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	EventsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "awnotify_events_processed_total",
			Help: "Total activity events accumulated",
		},
	)

	SourceErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "awnotify_source_errors_total",
			Help: "Activity source fetch failures",
		},
	)

	// Usage metrics
	CategorySeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "awnotify_category_seconds",
			Help: "Time accumulated per category for the current day",
		},
		[]string{"category"},
	)

	// Notification metrics
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "awnotify_notifications_total",
			Help: "Notifications dispatched by kind and result",
		},
		[]string{"kind", "result"},
	)

	// Classifier metrics
	ClassifierCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "awnotify_classifier_cache_hits_total",
			Help: "Classifier cache hits",
		},
	)

	ClassifierCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "awnotify_classifier_cache_misses_total",
			Help: "Classifier cache misses",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		PollsTotal,
		PollDuration,
		EventsProcessed,
		SourceErrors,
		CategorySeconds,
		NotificationsTotal,
		ClassifierCacheHits,
		ClassifierCacheMisses,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	mux      *http.ServeMux
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		mux:    mux,
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start binds the listen address, unless a systemd listener was set, and
// serves in the background. Bind errors are returned to the caller.
func (s *Server) Start() error {
	ln := s.listener
	if ln != nil {
		s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
	} else {
		var err error
		ln, err = net.Listen("tcp", s.server.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
		}
		s.listener = ln
	}

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Starting metrics server")
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Handle mounts an extra handler next to /metrics. It must be called before
// Start.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Handler returns the server's HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
