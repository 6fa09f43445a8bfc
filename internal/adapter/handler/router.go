package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

const (
	APIBasePath     = "/api/v1"
	BeerBasePath    = APIBasePath + "/beers"
	CountryBasePath = APIBasePath + "/countries"
	HealthPath      = "/health"

	beerParam    = "ref"
	countryParam = "id"
)

func NewRouter(h *HTTPHandler, limiter *rate.Limiter) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	if limiter != nil {
		r.Use(RateLimit(limiter))
	}

	r.Get(HealthPath, h.HealthCheck)

	// name and id share one wildcard so chi sees a single param node
	r.Route(BeerBasePath, func(r chi.Router) {
		r.Get("/", h.ListBeers)
		r.Post("/", h.CreateBeer)
		r.Get("/{ref}", h.FindBeerByName)
		r.Delete("/{ref}", h.DeleteBeer)
		r.Patch("/{ref}/increment", h.Increment)
		r.Patch("/{ref}/decrement", h.Decrement)
		r.Get("/{ref}/movements", h.ListMovements)
	})

	r.Route(CountryBasePath, func(r chi.Router) {
		r.Get("/", h.ListCountries)
		r.Get("/{id}", h.FindCountry)
	})

	return r
}

// RateLimit rejects requests with 429 once the shared token bucket is empty.
func RateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
