package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rosterd/rosterd/internal/auth"
	apperrors "github.com/rosterd/rosterd/internal/errors"
	"github.com/rosterd/rosterd/internal/health"
	"github.com/rosterd/rosterd/internal/logger"
	"github.com/rosterd/rosterd/internal/metrics"
	"github.com/rosterd/rosterd/internal/middleware"
	"github.com/rosterd/rosterd/internal/store"
)

// RouterConfig holds the dependencies of the HTTP surface. Cache, Metrics and
// Health are optional.
type RouterConfig struct {
	Store              store.Store
	Gate               *auth.Gate
	AuthHandlers       *auth.Handlers
	Cache              ReadCache
	Metrics            *metrics.Metrics
	Health             *health.Handler
	Logger             *logger.Logger
	CORSAllowedOrigins []string
}

// NewRouter builds the full handler: public auth, health and metrics routes
// plus the department and officer routes behind the auth gate.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default().WithComponent("http")
	}

	cache := cfg.Cache
	if cache != nil && cfg.Metrics != nil {
		cache = observedCache{ReadCache: cache, observe: cfg.Metrics.CacheLookup}
	}
	resources := NewHandlers(cfg.Store, cfg.Store, cache)

	r := mux.NewRouter()
	r.NotFoundHandler = apperrors.HandleFunc(func(w http.ResponseWriter, r *http.Request) error {
		return apperrors.NotFound("Resource")
	})
	r.MethodNotAllowedHandler = apperrors.HandleFunc(func(w http.ResponseWriter, r *http.Request) error {
		return apperrors.New(apperrors.CodeInvalidRequest, "method not allowed",
			apperrors.CategoryClient, http.StatusMethodNotAllowed)
	})
	if cfg.Metrics != nil {
		r.Use(metrics.MetricsMiddleware(cfg.Metrics))
	}

	// Public
	r.Handle("/auth/token/", apperrors.HandleFunc(cfg.AuthHandlers.Token)).Methods(http.MethodPost)
	r.Handle("/auth/register/", apperrors.HandleFunc(cfg.AuthHandlers.Register)).Methods(http.MethodPost)
	if cfg.Health != nil {
		r.HandleFunc("/health", cfg.Health.HealthHandler).Methods(http.MethodGet)
		r.HandleFunc("/health/ready", cfg.Health.ReadinessHandler).Methods(http.MethodGet)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	}

	// Protected
	p := r.PathPrefix("/departments").Subrouter()
	p.Use(cfg.Gate.Middleware, middleware.ETag)

	p.Handle("/", apperrors.HandleFunc(resources.ListDepartments)).Methods(http.MethodGet)
	p.Handle("/create/", apperrors.HandleFunc(resources.CreateDepartment)).Methods(http.MethodPost)
	p.Handle("/{id:[0-9]+}/", apperrors.HandleFunc(resources.GetDepartment)).Methods(http.MethodGet)
	p.Handle("/{id:[0-9]+}/update/", apperrors.HandleFunc(resources.UpdateDepartment)).Methods(http.MethodPut)
	p.Handle("/{id:[0-9]+}/delete/", apperrors.HandleFunc(resources.DeleteDepartment)).Methods(http.MethodDelete)

	p.Handle("/{id:[0-9]+}/officers/", apperrors.HandleFunc(resources.ListOfficers)).Methods(http.MethodGet)
	p.Handle("/{id:[0-9]+}/officers/create/", apperrors.HandleFunc(resources.CreateOfficer)).Methods(http.MethodPost)
	p.Handle("/{id:[0-9]+}/officers/{officer_id:[0-9]+}/", apperrors.HandleFunc(resources.GetOfficer)).Methods(http.MethodGet)
	p.Handle("/{id:[0-9]+}/officers/{officer_id:[0-9]+}/update/", apperrors.HandleFunc(resources.UpdateOfficer)).Methods(http.MethodPut)
	p.Handle("/{id:[0-9]+}/officers/{officer_id:[0-9]+}/delete/", apperrors.HandleFunc(resources.DeleteOfficer)).Methods(http.MethodDelete)

	return middleware.Chain(r,
		apperrors.RequestIDMiddleware,
		middleware.Logging(log),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.Gzip("/metrics"),
		middleware.Recoverer(log),
	)
}
