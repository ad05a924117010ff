package rest

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"multinet/application/commands/bus"
	querybus "multinet/application/queries/bus"
	"multinet/infrastructure/config"
	"multinet/infrastructure/observability"
	"multinet/interfaces/http/rest/handlers"
	"multinet/interfaces/http/rest/middleware"
	"multinet/pkg/auth"
	pkgerrors "multinet/pkg/errors"
)

// Pinger reports whether the store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators the router needs. Collector and Tracer
// may be nil to turn metrics or tracing off.
type Dependencies struct {
	Config     *config.Config
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Store      Pinger
	Collector  *observability.Collector
	Tracer     trace.Tracer
	Logger     *zap.Logger
}

// Router creates and configures the HTTP router
type Router struct {
	deps   Dependencies
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(deps Dependencies) *Router {
	return &Router{
		deps:   deps,
		errors: pkgerrors.NewErrorHandler(deps.Logger, deps.Config.IsDevelopment()),
		logger: deps.Logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() (http.Handler, error) {
	cfg := rt.deps.Config
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.deps.Tracer != nil {
		router.Use(middleware.Tracing(rt.deps.Tracer))
	}
	if rt.deps.Collector != nil {
		router.Use(middleware.Metrics(rt.deps.Collector))
	}
	if cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
	router.Use(middleware.MaxBodySize(cfg.MaxUploadBytes))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "Route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.deps.Collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.deps.Collector.Handler())
	}

	// Mutating routes require a bearer token once a secret is configured
	requireAuth := func(next http.Handler) http.Handler { return next }
	if cfg.JWTSecret != "" {
		validator, err := auth.NewJWTValidator(auth.JWTConfig{
			SecretKey: cfg.JWTSecret,
			Issuer:    cfg.JWTIssuer,
		})
		if err != nil {
			return nil, err
		}
		requireAuth = middleware.Authenticate(validator, rt.errors, rt.logger)
	}

	workspaceHandler := handlers.NewWorkspaceHandler(rt.deps.CommandBus, rt.deps.QueryBus, rt.errors, rt.logger)
	graphHandler := handlers.NewGraphHandler(rt.deps.CommandBus, rt.deps.QueryBus, rt.errors, rt.logger)
	uploadHandler := handlers.NewUploadHandler(rt.deps.CommandBus, rt.errors, rt.logger)

	router.Route("/api", func(r chi.Router) {
		r.Route("/workspaces", func(r chi.Router) {
			r.Get("/", workspaceHandler.ListWorkspaces)

			r.Route("/{workspace}", func(r chi.Router) {
				r.Get("/", workspaceHandler.GetWorkspace)
				r.With(requireAuth).Post("/", workspaceHandler.CreateWorkspace)
				r.With(requireAuth).Delete("/", workspaceHandler.DeleteWorkspace)

				r.Get("/tables", workspaceHandler.ListTables)
				r.Get("/tables/{table}", workspaceHandler.GetTableRows)

				r.Get("/graphs", graphHandler.ListGraphs)
				r.Get("/graphs/{graph}", graphHandler.GetGraph)
				r.With(requireAuth).Post("/graph/{graph}", graphHandler.CreateGraph)
				r.Get("/graphs/{graph}/nodes", graphHandler.GraphNodes)
				r.Get("/graphs/{graph}/nodes/{table}/{node}/attributes", graphHandler.NodeAttributes)
				r.Get("/graphs/{graph}/nodes/{table}/{node}/edges", graphHandler.NodeEdges)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/nested_json/{workspace}/{table}", uploadHandler.UploadNestedJSON)
			r.Post("/csv/{workspace}/{table}", uploadHandler.UploadCSV)
		})
	})

	return router, nil
}

// healthCheck handles liveness requests
func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports ready only when the store answers
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Store != nil {
		if err := rt.deps.Store.Ping(r.Context()); err != nil {
			if !pkgerrors.IsUnavailable(err) {
				err = pkgerrors.NewDatabaseNotLive(err)
			}
			rt.errors.Handle(w, r, err)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
