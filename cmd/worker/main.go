package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"headshot-server/internal/adapter/repo"
	"headshot-server/internal/domain"
	"headshot-server/internal/infra"
	"headshot-server/internal/ledger"
)

const sweepInterval = 10 * time.Minute

// The sweeper expires PENDING transactions whose checkout session can no
// longer complete. An expired row is terminal; a late webhook against it is
// rejected by the reconciler.
type sweeper struct {
	ctx          context.Context
	transactions domain.TransactionRepository
	ttl          time.Duration
	logger       infra.Logger
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	ledgerRepo := ledger.NewRepository(pool)
	w := &sweeper{
		ctx:          ctx,
		transactions: repo.NewTransactionRepository(pool, ledgerRepo),
		ttl:          cfg.PendingTransactionTTL,
		logger:       logger,
	}

	if err := w.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *sweeper) Run() error {
	w.logger.Info().Dur("ttl", w.ttl).Msg("worker: started")
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	// Sweep once at startup, then on the ticker.
	w.sweep()
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *sweeper) sweep() {
	expired, err := w.transactions.ExpireOlderThan(w.ctx, w.ttl)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker: sweep failed")
		return
	}
	if expired > 0 {
		w.logger.Info().Int64("expired", expired).Msg("worker: stale transactions expired")
	}
}
