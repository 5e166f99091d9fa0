package server

import (
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	auth "github.com/goliatone/go-auth-audit"
	"github.com/goliatone/go-auth-audit/audit"
	"github.com/prometheus/client_golang/prometheus"
)

// Server exposes the auth flows, the protected resources and the log
// endpoints over HTTP.
type Server struct {
	app         *fiber.App
	auther      *auth.Auther
	gate        *auth.RoleGate
	store       audit.Store
	interceptor *audit.Interceptor
	logger      auth.Logger
	appLogPath  string
	gatherer    prometheus.Gatherer
	now         func() time.Time
	rndMu       sync.Mutex
	rnd         *rand.Rand
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(logger auth.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInterceptor audits every exchange served by Handler.
func WithInterceptor(i *audit.Interceptor) Option {
	return func(s *Server) {
		s.interceptor = i
	}
}

// WithAppLogPath is the application log read by the logs endpoint.
func WithAppLogPath(path string) Option {
	return func(s *Server) {
		s.appLogPath = path
	}
}

// WithGatherer serves metrics from g at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRand sets the source used for forecast values. Without it the
// goroutine safe top level source of math/rand/v2 is used.
func WithRand(r *rand.Rand) Option {
	return func(s *Server) {
		if r != nil {
			s.rnd = r
		}
	}
}

// New builds the fiber app and registers every route. store is read by
// the request-response-logs endpoint.
func New(auther *auth.Auther, gate *auth.RoleGate, store audit.Store, opts ...Option) *Server {
	s := &Server{
		auther: auther,
		gate:   gate,
		store:  store,
		logger: nopLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "authaudit",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	s.routes()
	return s
}

// App returns the fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Handler returns the app as a net/http handler, wrapped by the audit
// interceptor when one is configured.
func (s *Server) Handler() http.Handler {
	h := adaptor.FiberApp(s.app)
	if s.interceptor != nil {
		return s.interceptor.Handler(h)
	}
	return h
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
