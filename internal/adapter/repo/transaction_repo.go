package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"headshot-server/internal/domain"
	"headshot-server/internal/ledger"
)

// TransactionRepositoryPG implements domain.TransactionRepository. Settlement
// composes the ledger credit into its own transaction so the COMPLETED flip
// and the balance increment are one atomic unit.
type TransactionRepositoryPG struct {
	pool   *pgxpool.Pool
	ledger *ledger.Repository
}

// NewTransactionRepository creates a new transaction repository backed by PostgreSQL.
func NewTransactionRepository(pool *pgxpool.Pool, ledgerRepo *ledger.Repository) *TransactionRepositoryPG {
	return &TransactionRepositoryPG{pool: pool, ledger: ledgerRepo}
}

// Create inserts a new PENDING transaction.
func (r *TransactionRepositoryPG) Create(ctx context.Context, t *domain.Transaction) error {
	query := `
INSERT INTO transactions (id, account_id, package_id, checkout_session_id, amount_cents, currency, credits, status)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8);
`
	_, err := r.pool.Exec(ctx, query,
		t.ID,
		t.AccountID,
		t.PackageID,
		t.CheckoutSessionID,
		t.AmountCents,
		t.Currency,
		t.Credits,
		t.Status,
	)
	return err
}

// SetCheckoutSession stores the external session id returned by the checkout service.
func (r *TransactionRepositoryPG) SetCheckoutSession(ctx context.Context, id, sessionID string) error {
	result, err := r.pool.Exec(ctx, `
UPDATE transactions
SET checkout_session_id = $2, updated_at = NOW()
WHERE id = $1;
`, id, sessionID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByCheckoutSession fetches a transaction by external session id.
func (r *TransactionRepositoryPG) GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Transaction, error) {
	query := `
SELECT id, account_id, package_id, COALESCE(checkout_session_id, ''), amount_cents, currency, credits, status, created_at, updated_at
FROM transactions
WHERE checkout_session_id = $1;
`
	row := r.pool.QueryRow(ctx, query, sessionID)
	var t domain.Transaction
	if err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.PackageID,
		&t.CheckoutSessionID,
		&t.AmountCents,
		&t.Currency,
		&t.Credits,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Complete flips the transaction to COMPLETED and credits the account in one
// transaction. The status guard makes webhook replay a no-op: only the first
// delivery matches a PENDING row, every later one returns false.
func (r *TransactionRepositoryPG) Complete(ctx context.Context, sessionID string, credits int64) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("transaction: begin complete: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
UPDATE transactions
SET status = $2, updated_at = NOW()
WHERE checkout_session_id = $1 AND status = $3
RETURNING account_id;
`, sessionID, domain.TransactionStatusCompleted, domain.TransactionStatusPending)
	var accountID string
	if err := row.Scan(&accountID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("transaction: complete: %w", err)
	}

	if err := r.ledger.CreditTx(ctx, tx, accountID, credits, "purchase", "purchase:"+sessionID); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ExpireOlderThan marks stale PENDING transactions as EXPIRED.
func (r *TransactionRepositoryPG) ExpireOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	result, err := r.pool.Exec(ctx, `
UPDATE transactions
SET status = $1, updated_at = NOW()
WHERE status = $2 AND created_at < NOW() - $3::interval;
`, domain.TransactionStatusExpired, domain.TransactionStatusPending, fmt.Sprintf("%d seconds", int64(age.Seconds())))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

var _ domain.TransactionRepository = (*TransactionRepositoryPG)(nil)
