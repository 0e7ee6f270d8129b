package ledger

import (
	"context"
	"fmt"
)

// Service exposes atomic debit/credit over per-account balances. A debit
// fails with domain.InsufficientCreditsError when the balance is short and
// changes nothing; a credit with a non-empty ref is applied at most once per
// ref. Reason strings label ledger entries for audit queries.
type Service interface {
	Debit(ctx context.Context, accountID string, amount int64, reason, ref string) error
	Credit(ctx context.Context, accountID string, amount int64, reason, ref string) error
	Balance(ctx context.Context, accountID string) (int64, error)
}

type service struct {
	repo *Repository
}

// NewService wraps the repository in its own-transaction variants.
func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

var _ Service = (*service)(nil)

func (s *service) Debit(ctx context.Context, accountID string, amount int64, reason, ref string) error {
	if amount <= 0 {
		return fmt.Errorf("ledger: debit amount must be positive, got %d", amount)
	}
	tx, err := s.repo.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("ledger: begin: %w", err)
	}
	defer tx.Rollback(ctx)
	if err := s.repo.DebitTx(ctx, tx, accountID, amount, reason, ref); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *service) Credit(ctx context.Context, accountID string, amount int64, reason, ref string) error {
	if amount <= 0 {
		return fmt.Errorf("ledger: credit amount must be positive, got %d", amount)
	}
	tx, err := s.repo.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("ledger: begin: %w", err)
	}
	defer tx.Rollback(ctx)
	if err := s.repo.CreditTx(ctx, tx, accountID, amount, reason, ref); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *service) Balance(ctx context.Context, accountID string) (int64, error) {
	return s.repo.Balance(ctx, accountID)
}
