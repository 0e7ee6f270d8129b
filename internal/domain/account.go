package domain

import "time"

// Account holds the prepaid credit balance for a signed-in user. The balance
// is mutated only through the ledger; no other component writes it.
type Account struct {
	ID        string
	Email     string
	Name      string
	Credits   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LedgerEntry records a single balance mutation. Entries with a non-empty Ref
// are unique per ref, which makes credits keyed on an external identifier
// replay-safe.
type LedgerEntry struct {
	ID        string
	AccountID string
	Delta     int64
	Reason    string
	Ref       string
	CreatedAt time.Time
}
