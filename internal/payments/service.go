package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"headshot-server/internal/domain"
	"headshot-server/internal/infra"
)

// SessionCreator is the slice of the checkout client the reconciler needs.
type SessionCreator interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
}

// URLs are the redirect targets handed to the checkout service.
type URLs struct {
	Success string
	Cancel  string
}

// Service reconciles purchases: it creates pending transactions, hands the
// buyer to the external checkout, and settles webhook deliveries exactly
// once per external session id.
type Service struct {
	transactions domain.TransactionRepository
	checkout     SessionCreator
	urls         URLs
	logger       infra.Logger
}

// NewService wires the payment reconciler.
func NewService(transactions domain.TransactionRepository, checkout SessionCreator, urls URLs, logger infra.Logger) *Service {
	return &Service{
		transactions: transactions,
		checkout:     checkout,
		urls:         urls,
		logger:       logger,
	}
}

// InitiateCheckout validates the package, records a PENDING transaction and
// creates the external checkout session. The transaction is created first:
// if session creation fails it stays PENDING forever, which is harmless
// because settlement only ever happens against a matching webhook.
func (s *Service) InitiateCheckout(ctx context.Context, accountID, packageID, country string) (string, error) {
	pkg, err := domain.PackageByID(packageID)
	if err != nil {
		return "", err
	}

	txn := &domain.Transaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		PackageID:   pkg.ID,
		AmountCents: pkg.AmountCents,
		Currency:    currencyForCountry(country),
		Credits:     pkg.Credits,
		Status:      domain.TransactionStatusPending,
	}
	if err := s.transactions.Create(ctx, txn); err != nil {
		return "", fmt.Errorf("payments: record transaction: %w", err)
	}

	title := cases.Title(language.Und)
	session, err := s.checkout.CreateSession(ctx, SessionRequest{
		AmountCents: txn.AmountCents,
		Currency:    txn.Currency,
		ProductName: fmt.Sprintf("%s — %d Credits", title.String(pkg.ID), pkg.Credits),
		SuccessURL:  s.urls.Success,
		CancelURL:   s.urls.Cancel,
		Metadata: map[string]string{
			"transaction_id": txn.ID,
			"account_id":     accountID,
			"package_id":     pkg.ID,
			"credits":        strconv.FormatInt(pkg.Credits, 10),
		},
	})
	if err != nil {
		s.logger.Error().Err(err).Str("transaction_id", txn.ID).Msg("checkout session creation failed, transaction left pending")
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	if err := s.transactions.SetCheckoutSession(ctx, txn.ID, session.ID); err != nil {
		return "", fmt.Errorf("payments: store session id: %w", err)
	}
	s.logger.Info().Str("transaction_id", txn.ID).Str("session_id", session.ID).Str("package_id", pkg.ID).Msg("checkout initiated")
	return session.URL, nil
}

// ApplyPayment settles a completed checkout. It is idempotent on the
// external session id: the first delivery flips the transaction and credits
// the account atomically, every replay is a no-op. A session id with no
// matching transaction, or metadata that disagrees with the recorded row, is
// an integrity violation and is rejected, never silently accepted.
func (s *Service) ApplyPayment(ctx context.Context, sessionID, accountID string, credits int64) error {
	txn, err := s.transactions.GetByCheckoutSession(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Error().Str("session_id", sessionID).Msg("webhook for unknown checkout session")
		return fmt.Errorf("%w: unknown session %s", domain.ErrPaymentIntegrity, sessionID)
	}
	if err != nil {
		return err
	}

	if txn.AccountID != accountID || txn.Credits != credits {
		s.logger.Error().
			Str("session_id", sessionID).
			Str("transaction_id", txn.ID).
			Msg("webhook metadata disagrees with recorded transaction")
		return fmt.Errorf("%w: metadata mismatch for session %s", domain.ErrPaymentIntegrity, sessionID)
	}
	if txn.Status == domain.TransactionStatusCompleted {
		s.logger.Info().Str("session_id", sessionID).Msg("webhook replay ignored")
		return nil
	}
	if txn.Status == domain.TransactionStatusExpired {
		s.logger.Error().Str("session_id", sessionID).Msg("webhook for expired transaction")
		return fmt.Errorf("%w: expired transaction for session %s", domain.ErrPaymentIntegrity, sessionID)
	}

	applied, err := s.transactions.Complete(ctx, sessionID, credits)
	if err != nil {
		return err
	}
	if !applied {
		// A concurrent delivery won; the credit already happened exactly once.
		s.logger.Info().Str("session_id", sessionID).Msg("webhook raced a concurrent delivery, no-op")
		return nil
	}
	s.logger.Info().Str("session_id", sessionID).Int64("credits", credits).Msg("payment applied")
	return nil
}

// currencyForCountry picks the checkout currency from the request country.
// EUR is the default; a handful of markets use their home currency.
func currencyForCountry(country string) string {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "US":
		return "usd"
	case "GB":
		return "gbp"
	case "CH":
		return "chf"
	default:
		return "eur"
	}
}
