package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterOptions struct {
	// AuthMiddleware guards /users and /groups. When nil those routes answer 401.
	AuthMiddleware func(http.Handler) http.Handler
	Logger         *zap.Logger
	// ServiceName names the inbound server spans.
	ServiceName string
}

// NewRouter constructs the API HTTP router with default options.
func NewRouter(s *Server) http.Handler {
	return NewRouterWithOptions(s, RouterOptions{})
}

func NewRouterWithOptions(s *Server, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	auth := opts.AuthMiddleware
	if auth == nil {
		auth = denyAll
	}
	name := opts.ServiceName
	if name == "" {
		name = "mensa-api"
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)

	// Infra endpoints stay unauthenticated.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/mensa", func(r chi.Router) {
		r.Get("/", s.ListMensas)
		r.Get("/{id}", s.GetMensa)
		r.Get("/{id}/tables", s.GetMensaTables)
		r.Get("/{id}/layout", s.GetMensaLayout)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Get("/users/me", s.GetMe)
		r.Get("/groups", s.ListMyGroups)
		r.Get("/groups/{id}", s.GetGroup)
		r.Get("/groups/{id}/session", s.GetGroupSession)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	return otelhttp.NewHandler(r, name)
}

func denyAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "authentication is not configured", nil)
	})
}
