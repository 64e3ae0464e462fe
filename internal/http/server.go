package http

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"surveystock/internal/core"
	applog "surveystock/internal/log"
	"surveystock/internal/services"
	appweb "surveystock/web"
)

// Inventory is what the form needs from the service layer.
type Inventory interface {
	Catalog() *core.Catalog
	RecordConsumption(ctx context.Context, selected []string, notes string) (core.TransactionGroup, error)
	DeleteGroup(ctx context.Context, ts core.Timestamp) (int, error)
	Reset(ctx context.Context) error
	State() services.StateView
}

type Server struct {
	http.Server
	templates   *template.Template
	inventory   Inventory
	logger      *applog.Logger
	rateLimiter *rateLimiter
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, inv Inventory, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		inventory:   inv,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		rateLimiter: newRateLimiter(defaultWritesPerMinute, time.Minute),
		started:     time.Now(),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /consumptions", s.limitWrites(s.handleRecord))
	mux.HandleFunc("POST /groups/delete", s.limitWrites(s.handleDeleteGroup))
	mux.HandleFunc("POST /reset", s.limitWrites(s.handleReset))
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.Handler = applog.Middleware(s.logger, requestIDFor)(withSecurityHeaders(mux))
	return s
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w.Header())
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limitWrites(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)
		if !s.rateLimiter.allow(clientIP) {
			applog.FromContext(r.Context()).Warn("Rate limit exceeded", "client_ip", clientIP)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func requestIDFor(r *http.Request) string {
	if id := sanitizeInput(r.Header.Get("X-Request-ID")); id != "" && len(id) <= 64 {
		return id
	}
	return generateRequestID()
}
