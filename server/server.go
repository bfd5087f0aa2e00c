package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/enertrack-console/internal/config"
	"github.com/jrsteele09/enertrack-console/metrics"
	"github.com/jrsteele09/enertrack-console/token"
	"github.com/jrsteele09/enertrack-console/users"
	"github.com/rs/zerolog/log"
)

// Server is a mock of the EnerTrack REST backend. It issues real JWTs and
// enforces them, so the console's session handling can be exercised locally.
type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	prefix  string // Path prefix every route is mounted under, e.g. "/api"
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	issuer  *token.Issuer
	users   users.UserRepo
	data    *dataStore
	metrics *metrics.HTTP
	now     func() time.Time
}

type Option func(*Server)

// WithPrefix mounts every route under prefix.
func WithPrefix(prefix string) Option {
	return func(s *Server) {
		s.prefix = "/" + strings.Trim(prefix, "/")
		if s.prefix == "/" {
			s.prefix = ""
		}
	}
}

// WithMetrics records request metrics for every route.
func WithMetrics(m *metrics.HTTP) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithClock sets the clock the KPI periods are computed against.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func New(cfg config.Config, issuer *token.Issuer, userRepo users.UserRepo, options ...Option) (*Server, error) {
	if issuer == nil || userRepo == nil {
		return nil, fmt.Errorf("[Server New] issuer and user repo are required")
	}

	s := &Server{
		env:    cfg.GetEnv(),
		prefix: "/api",
		mux:    http.NewServeMux(),
		config: cfg,
		issuer: issuer,
		users:  userRepo,
		data:   newDataStore(),
		now:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}

	if err := s.InitialiseSystem(); err != nil {
		return nil, fmt.Errorf("[Server New] failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func logRequest(method, path string, status int, elapsed time.Duration) {
	log.Info().Msgf("[%-19s] %s %s %s", colourMethod(method), path, colourStatus(status), elapsed.Round(time.Microsecond))
}

func logError(method, path, error string) {
	log.Error().Msgf("[%-19s] %s %s", colourMethod(method), path, Red+error+ResetColor)
}
