package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"headshot-server/internal/adapter/repo"
	"headshot-server/internal/generation"
	"headshot-server/internal/http/handlers"
	httpapi "headshot-server/internal/http/httpapi"
	"headshot-server/internal/infra"
	"headshot-server/internal/infra/geoip"
	"headshot-server/internal/ledger"
	"headshot-server/internal/middleware"
	"headshot-server/internal/payments"
	"headshot-server/internal/predict"
	"headshot-server/internal/preview"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	ledgerRepo := ledger.NewRepository(dbpool)
	credits := ledger.NewService(ledgerRepo)
	accounts := repo.NewAccountRepository(dbpool)
	generations := repo.NewGenerationRepository(dbpool, ledgerRepo)
	transactions := repo.NewTransactionRepository(dbpool, ledgerRepo)

	predictor := predict.NewClient(predict.Options{
		BaseURL: cfg.PredictBaseURL,
		Token:   cfg.PredictToken,
	})
	genService := generation.NewService(generations, credits, predictor, preview.Derive, cfg.PredictModel, generation.Costs{
		Generate:            cfg.CreditsGenerate,
		Unlock:              cfg.CreditsUnlock,
		Enhance:             cfg.CreditsEnhance,
		RefundEnhanceOnFail: cfg.RefundEnhanceOnFail,
	}, logger)

	checkout := payments.NewCheckoutClient(payments.CheckoutOptions{
		BaseURL:   cfg.CheckoutBaseURL,
		SecretKey: cfg.CheckoutSecretKey,
	})
	payService := payments.NewService(transactions, checkout, payments.URLs{
		Success: cfg.CheckoutSuccess,
		Cancel:  cfg.CheckoutCancel,
	}, logger)

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	app := handlers.NewApp(cfg, genService, payService, credits, accounts, logger)
	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		JWTSecret:       cfg.JWTSecret,
		AllowedOrigins:  strings.Split(getEnvDefault("CORS_ORIGINS", "http://localhost:3000"), ","),
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   countryLookup,
		Logger:          logger,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
