package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"headshot-server/internal/domain"
)

// uniqueViolation is the SQLSTATE for a unique index collision.
const uniqueViolation = "23505"

// Repository performs balance mutations against PostgreSQL. Every mutation
// is a conditional UPDATE plus a ledger entry inside the same transaction,
// so there is no read-then-write window a concurrent debit could exploit.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a ledger repository backed by PostgreSQL.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Pool exposes the underlying pool so composed operations (unlock, payment
// settlement) can open their own transaction around ledger calls.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// DebitTx runs inside the caller's transaction. It:
// a) decrements the balance only when credits >= amount (atomic UPDATE with condition)
// b) records a ledger entry for the debit
// RowsAffected == 0 means the guard failed; the current balance is read back
// to populate the error.
func (r *Repository) DebitTx(ctx context.Context, tx pgx.Tx, accountID string, amount int64, reason, ref string) error {
	result, err := tx.Exec(ctx, `
		UPDATE accounts
		SET credits = credits - $1, updated_at = NOW()
		WHERE id = $2 AND credits >= $1
	`, amount, accountID)
	if err != nil {
		return fmt.Errorf("ledger: debit: %w", err)
	}
	if result.RowsAffected() == 0 {
		var available int64
		row := tx.QueryRow(ctx, `SELECT credits FROM accounts WHERE id = $1`, accountID)
		if err := row.Scan(&available); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("ledger: read balance: %w", err)
		}
		return &domain.InsufficientCreditsError{Required: amount, Available: available}
	}
	return r.insertEntry(ctx, tx, accountID, -amount, reason, ref)
}

// CreditTx runs inside the caller's transaction. A non-empty ref makes the
// credit idempotent: a second attempt with the same ref returns
// ErrDuplicateOperation and leaves the balance untouched.
func (r *Repository) CreditTx(ctx context.Context, tx pgx.Tx, accountID string, amount int64, reason, ref string) error {
	if ref != "" {
		result, err := tx.Exec(ctx, `
			INSERT INTO ledger_entries (id, account_id, delta, reason, ref)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (ref) DO NOTHING
		`, uuid.NewString(), accountID, amount, reason, ref)
		if err != nil {
			return fmt.Errorf("ledger: credit entry: %w", err)
		}
		if result.RowsAffected() == 0 {
			return domain.ErrDuplicateOperation
		}
	} else if err := r.insertEntry(ctx, tx, accountID, amount, reason, ""); err != nil {
		return err
	}
	result, err := tx.Exec(ctx, `
		UPDATE accounts
		SET credits = credits + $1, updated_at = NOW()
		WHERE id = $2
	`, amount, accountID)
	if err != nil {
		return fmt.Errorf("ledger: credit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Balance reads the current credit balance.
func (r *Repository) Balance(ctx context.Context, accountID string) (int64, error) {
	var credits int64
	row := r.pool.QueryRow(ctx, `SELECT credits FROM accounts WHERE id = $1`, accountID)
	if err := row.Scan(&credits); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("ledger: read balance: %w", err)
	}
	return credits, nil
}

func (r *Repository) insertEntry(ctx context.Context, tx pgx.Tx, accountID string, delta int64, reason, ref string) error {
	var refArg any
	if ref != "" {
		refArg = ref
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (id, account_id, delta, reason, ref)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), accountID, delta, reason, refArg)
	if err != nil {
		// A collision on the unique ref index means this mutation was
		// already recorded.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateOperation
		}
		return fmt.Errorf("ledger: record entry: %w", err)
	}
	return nil
}
