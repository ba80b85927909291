package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_store/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Carts              CartService
	Products           ProductService
	Users              UserService
	Sessions           session.Store
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	Log                *zap.SugaredLogger

	// Tracing defaults to the process-wide provider and propagator.
	TracerProvider trace.TracerProvider
	Propagator     propagation.TextMapPropagator
}

// NewRouter wires the JSON API, the auth endpoints and the views.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	views, err := NewViewHandler(cfg.Carts, cfg.Products, cfg.RequestTimeout, cfg.Log)
	if err != nil {
		return nil, err
	}
	cartHandler := NewCartHandler(cfg.Carts, cfg.RequestTimeout, cfg.Log)
	productHandler := NewProductHandler(cfg.Products, cfg.RequestTimeout, cfg.Log)
	authHandler := NewAuthHandler(cfg.Users, cfg.Sessions, cfg.RequestTimeout, cfg.Log)

	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(cfg.Log))
	r.Use(middleware.Recoverer)
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	}
	r.Use(LoadSession(cfg.Sessions, cfg.Log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/", productHandler.Create)
			r.Get("/{pid}", productHandler.Get)
			r.Put("/{pid}", productHandler.Update)
			r.Delete("/{pid}", productHandler.Delete)
		})
		r.Route("/carts", func(r chi.Router) {
			r.Post("/", cartHandler.Create)
			r.Post("/product/{pid}", cartHandler.Create)
			r.Get("/{cid}", cartHandler.Get)
			r.Put("/{cid}", cartHandler.ReplaceLines)
			r.Delete("/{cid}", cartHandler.Clear)
			r.Post("/{cid}/product/{pid}", cartHandler.AddLine)
			r.Put("/{cid}/product/{pid}", cartHandler.UpdateQuantity)
			r.Delete("/{cid}/product/{pid}", cartHandler.RemoveLine)
		})
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})
	})

	// Views
	r.Group(func(r chi.Router) {
		r.Use(RedirectIfLoggedIn)
		r.Get("/login", views.Login)
		r.Get("/register", views.Register)
	})
	r.Group(func(r chi.Router) {
		r.Use(RequireSession)
		r.Get("/", views.Home)
		r.Get("/current", views.Profile)
		r.Get("/products", views.Products)
		r.Get("/carts", views.MyCart)
		r.Get("/carts/{cid}", views.Cart)
	})

	var traceOpts []otelhttp.Option
	if cfg.TracerProvider != nil {
		traceOpts = append(traceOpts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.Propagator != nil {
		traceOpts = append(traceOpts, otelhttp.WithPropagators(cfg.Propagator))
	}
	return otelhttp.NewHandler(r, "go_store", traceOpts...), nil
}
