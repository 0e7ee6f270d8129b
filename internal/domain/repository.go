package domain

import (
	"context"
	"time"
)

// AccountRepository defines read access for accounts. Balance mutations go
// through the ledger exclusively.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*Account, error)
}

// GenerationRepository persists artifact records. The orchestrator is the
// only writer; gallery and result views only read.
type GenerationRepository interface {
	Create(ctx context.Context, g *Generation) error
	GetByID(ctx context.Context, id string) (*Generation, error)
	// Unlock flips the unlocked flag, assigns ownership and debits the
	// account in one atomic unit. It fails with InsufficientCreditsError
	// without touching the record, and with ErrDuplicateOperation when a
	// concurrent call already unlocked the record (no debit happens then).
	Unlock(ctx context.Context, generationID, accountID string, cost int64) error
	ListCompletedByAccount(ctx context.Context, accountID string, limit int) ([]Generation, error)
}

// TransactionRepository is owned exclusively by the payment reconciler.
type TransactionRepository interface {
	Create(ctx context.Context, t *Transaction) error
	SetCheckoutSession(ctx context.Context, id, sessionID string) error
	GetByCheckoutSession(ctx context.Context, sessionID string) (*Transaction, error)
	// Complete transitions the transaction to COMPLETED and increments the
	// account balance in one atomic unit. It returns false when the
	// transaction was already completed (replay), without re-crediting.
	Complete(ctx context.Context, sessionID string, credits int64) (bool, error)
	// ExpireOlderThan marks stale PENDING transactions as EXPIRED and
	// returns how many rows changed.
	ExpireOlderThan(ctx context.Context, age time.Duration) (int64, error)
}
