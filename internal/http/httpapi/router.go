package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"headshot-server/internal/http/handlers"
	"headshot-server/internal/infra"
	"headshot-server/internal/middleware"
)

// RouterOptions carries the boundary knobs the router needs beyond the
// handler set itself.
type RouterOptions struct {
	JWTSecret       string
	AllowedOrigins  []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
	Logger          infra.Logger
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	// Settlement webhook authenticates with its own signature, not a session.
	r.Post("/v1/webhooks/checkout", app.CheckoutWebhook)

	// Submission and materialization allow anonymous callers; the record is
	// claimed at unlock time.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthOptional(opts.JWTSecret))
		r.Post("/v1/generations", app.GenerationsCreate)
		r.Get("/v1/generations/{job_id}/status", app.GenerationStatus)
		r.Post("/v1/generations/{job_id}/materialize", app.GenerationMaterialize)
		r.Get("/v1/me/credits", app.MeCredits)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthRequired(opts.JWTSecret))
		r.Get("/v1/me", app.Me)
		r.Get("/v1/generations", app.GenerationsList)
		r.Post("/v1/generations/{id}/unlock", app.GenerationUnlock)
		r.Post("/v1/generations/{id}/enhance", app.GenerationEnhance)
		r.Post("/v1/enhancements/{job_id}/materialize", app.EnhancementMaterialize)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Country(opts.CountryLookup))
			r.Post("/v1/checkout", app.CheckoutCreate)
		})
	})

	return r
}
