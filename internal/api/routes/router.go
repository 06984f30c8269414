package routes

import (
	"net/http"

	"github.com/jhonattanreales21/rutasalud/internal/api/handlers"
	"github.com/jhonattanreales21/rutasalud/internal/api/middleware"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	healthHandler         *handlers.HealthHandler
	correspondenceHandler *handlers.CorrespondenceHandler
	recommendationHandler *handlers.RecommendationHandler
	geolocationHandler    *handlers.GeolocationHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router. geolocationHandler may be nil when no
// geocoder is configured.
func NewRouter(
	healthHandler *handlers.HealthHandler,
	correspondenceHandler *handlers.CorrespondenceHandler,
	recommendationHandler *handlers.RecommendationHandler,
	geolocationHandler *handlers.GeolocationHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                   http.NewServeMux(),
		healthHandler:         healthHandler,
		correspondenceHandler: correspondenceHandler,
		recommendationHandler: recommendationHandler,
		geolocationHandler:    geolocationHandler,
		allowedOrigins:        allowedOrigins,
		metrics:               metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Vocabulary and correspondence tables are deterministic per data
	// snapshot, so they get ETag revalidation.
	r.mux.Handle("GET /api/services", middleware.ResponseOptimization(http.HandlerFunc(r.correspondenceHandler.ListServices)))
	r.mux.Handle("GET /api/correspondence", middleware.ResponseOptimization(http.HandlerFunc(r.correspondenceHandler.GetTable)))
	r.mux.Handle("GET /api/correspondence/lookup", middleware.ResponseOptimization(http.HandlerFunc(r.correspondenceHandler.Lookup)))

	r.mux.HandleFunc("POST /api/recommendations", r.recommendationHandler.Recommend)

	if r.geolocationHandler != nil {
		r.mux.HandleFunc("GET /api/geocode", r.geolocationHandler.Geocode)
		r.mux.HandleFunc("GET /api/reverse-geocode", r.geolocationHandler.ReverseGeocode)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.Recoverer(handler)
	handler = middleware.CORS(r.allowedOrigins)(handler)
	return handler
}
