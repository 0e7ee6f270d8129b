package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"headshot-server/internal/domain"
	"headshot-server/internal/generation"
	"headshot-server/internal/infra"
	"headshot-server/internal/ledger"
	"headshot-server/internal/middleware"
	"headshot-server/internal/payments"
)

// App holds the handler dependencies.
type App struct {
	Logger      infra.Logger
	Config      *infra.Config
	Generations *generation.Service
	Payments    *payments.Service
	Ledger      ledger.Service
	Accounts    domain.AccountRepository
}

func NewApp(cfg *infra.Config, generations *generation.Service, pay *payments.Service, credits ledger.Service, accounts domain.AccountRepository, logger infra.Logger) *App {
	return &App{
		Logger:      logger,
		Config:      cfg,
		Generations: generations,
		Payments:    pay,
		Ledger:      credits,
		Accounts:    accounts,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error":   code,
		"message": message,
	})
}

// domainError maps the error taxonomy to HTTP responses. Unrecognized errors
// are logged and reported as opaque internals.
func (a *App) domainError(w http.ResponseWriter, r *http.Request, err error) {
	var insufficient *domain.InsufficientCreditsError
	switch {
	case errors.As(err, &insufficient):
		a.json(w, http.StatusPaymentRequired, map[string]any{
			"error":     "insufficient_credits",
			"message":   insufficient.Error(),
			"required":  insufficient.Required,
			"available": insufficient.Available,
		})
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrUnauthenticated):
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, domain.ErrInvalidPackage):
		a.error(w, http.StatusBadRequest, "invalid_package", "unknown credit package")
	case errors.Is(err, domain.ErrGenerationLocked):
		a.error(w, http.StatusConflict, "generation_locked", "generation must be unlocked first")
	case errors.Is(err, domain.ErrJobNotFinished):
		a.error(w, http.StatusConflict, "job_not_finished", "job has not finished yet")
	case errors.Is(err, domain.ErrDuplicateOperation):
		a.error(w, http.StatusConflict, "duplicate_operation", "operation already applied")
	case errors.Is(err, domain.ErrPaymentIntegrity):
		a.error(w, http.StatusBadRequest, "payment_integrity", "payment could not be verified")
	case errors.Is(err, domain.ErrUpstreamFailed):
		a.error(w, http.StatusBadGateway, "upstream_failed", "image generation failed")
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		a.error(w, http.StatusServiceUnavailable, "upstream_unavailable", "image service unavailable")
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) currentAccountID(r *http.Request) string {
	return middleware.AccountIDFromContext(r.Context())
}
