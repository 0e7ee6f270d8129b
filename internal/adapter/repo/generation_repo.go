package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"headshot-server/internal/domain"
	"headshot-server/internal/ledger"
)

// GenerationRepositoryPG implements domain.GenerationRepository. The unlock
// path composes the ledger debit into its own transaction so balance and
// unlock flag move together or not at all.
type GenerationRepositoryPG struct {
	pool   *pgxpool.Pool
	ledger *ledger.Repository
}

// NewGenerationRepository creates a new generation repository backed by PostgreSQL.
func NewGenerationRepository(pool *pgxpool.Pool, ledgerRepo *ledger.Repository) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{pool: pool, ledger: ledgerRepo}
}

// Create inserts a new generation record.
func (r *GenerationRepositoryPG) Create(ctx context.Context, g *domain.Generation) error {
	query := `
INSERT INTO generations (id, account_id, parent_id, prompt, style, original_image, preview_image, status, unlocked, cost)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	_, err := r.pool.Exec(ctx, query,
		g.ID,
		g.AccountID,
		g.ParentID,
		g.Prompt,
		g.Style,
		g.OriginalImage,
		g.PreviewImage,
		g.Status,
		g.Unlocked,
		g.Cost,
	)
	return err
}

// GetByID fetches a generation by its identifier.
func (r *GenerationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Generation, error) {
	query := `
SELECT id, account_id, parent_id, prompt, style, original_image, preview_image, status, unlocked, cost, created_at
FROM generations
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, id)
	return scanGeneration(row)
}

// Unlock flips the unlocked flag and debits the account in one transaction.
// The flag update runs first and is guarded on unlocked = FALSE and on
// ownership being either unclaimed or already the caller's: in a race the
// loser blocks on the row lock, re-evaluates the guard after the winner
// commits, matches zero rows and returns ErrDuplicateOperation without ever
// touching the balance. A failed debit rolls the flag flip back.
func (r *GenerationRepositoryPG) Unlock(ctx context.Context, generationID, accountID string, cost int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("generation: begin unlock: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
UPDATE generations
SET unlocked = TRUE, account_id = $2
WHERE id = $1
  AND unlocked = FALSE
  AND (account_id IS NULL OR account_id = $2);
`, generationID, accountID)
	if err != nil {
		return fmt.Errorf("generation: unlock: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrDuplicateOperation
	}

	if err := r.ledger.DebitTx(ctx, tx, accountID, cost, "unlock", "unlock:"+generationID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListCompletedByAccount returns the account's completed generations, newest first.
func (r *GenerationRepositoryPG) ListCompletedByAccount(ctx context.Context, accountID string, limit int) ([]domain.Generation, error) {
	query := `
SELECT id, account_id, parent_id, prompt, style, original_image, preview_image, status, unlocked, cost, created_at
FROM generations
WHERE account_id = $1 AND status = $2
ORDER BY created_at DESC
LIMIT $3;
`
	rows, err := r.pool.Query(ctx, query, accountID, domain.GenerationStatusCompleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *g)
	}
	return items, rows.Err()
}

func scanGeneration(row pgx.Row) (*domain.Generation, error) {
	var g domain.Generation
	if err := row.Scan(
		&g.ID,
		&g.AccountID,
		&g.ParentID,
		&g.Prompt,
		&g.Style,
		&g.OriginalImage,
		&g.PreviewImage,
		&g.Status,
		&g.Unlocked,
		&g.Cost,
		&g.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

var _ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)
