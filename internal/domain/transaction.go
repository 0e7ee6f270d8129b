package domain

import "time"

// TransactionStatus enumerates payment record states.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusExpired   TransactionStatus = "EXPIRED"
)

// Transaction tracks a checkout from initiation to webhook settlement. The
// external checkout session id is unique across rows and is the idempotency
// boundary for webhook replay: at most one transition to COMPLETED happens
// per session id.
type Transaction struct {
	ID                string
	AccountID         string
	PackageID         string
	CheckoutSessionID string
	AmountCents       int64
	Currency          string
	Credits           int64
	Status            TransactionStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
