package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jaimani/ai-travel-demo/internal/middleware"
)

// MountRoutes registers all API routes on the given chi router. Planning
// routes are rate limited per caller; requestTimeout bounds every route
// except the streaming ones.
func MountRoutes(r chi.Router, h *Handlers, limiter *middleware.RateLimiter, requestTimeout time.Duration) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"1.0.0"}`))
		})

		// Planner
		r.Route("/planner", func(r chi.Router) {
			r.Use(limiter.Handler)
			r.With(chimw.Timeout(requestTimeout)).Post("/plan_trip", h.PlanTrip)
			r.Post("/plan_trip/stream", h.PlanTripStream)
			r.Get("/ws", h.PlanTripWS)
		})

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(requestTimeout))

			// Search
			r.Get("/flights/search", h.SearchFlights)
			r.Post("/flights/search", h.SearchFlights)
			r.Get("/flights/{id}", h.GetFlight)
			r.Get("/hotels/search", h.SearchHotels)
			r.Post("/hotels/search", h.SearchHotels)
			r.Get("/hotels/{id}", h.GetHotel)

			// Subscription
			r.Get("/subscription/status/{email}", h.SubscriptionStatus)
		})
	})
}
