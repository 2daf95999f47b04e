// Package api exposes the engine over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/dimfreight/internal/carton"
	"github.com/sells-group/dimfreight/internal/dimensions"
	"github.com/sells-group/dimfreight/internal/freight"
	"github.com/sells-group/dimfreight/internal/learner"
	"github.com/sells-group/dimfreight/internal/reconcile"
	"github.com/sells-group/dimfreight/internal/resilience"
)

// Deps are the engine components the handlers call.
type Deps struct {
	Dimensions *dimensions.Resolver
	Reconciler *reconcile.Reconciler
	Freight    *freight.Engine
	Carton     *carton.Estimator
	Learner    *learner.Learner
}

// Server holds handler state.
type Server struct {
	deps    Deps
	retry   func(op string) resilience.RetryConfig
	refresh singleflight.Group
}

// NewServer creates a Server.
func NewServer(d Deps) *Server {
	return &Server{deps: d, retry: resilience.StoreRetryConfig}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/dimensions/{sku}", s.handleDimensions)
		r.Post("/variants/{variantID}/observations", s.handleObservation)
		r.Post("/freight/quote", s.handleFreightQuote)
		r.Post("/carton/estimate", s.handleCartonEstimate)
		r.Post("/patterns/refresh", s.handleRefreshPatterns)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
