package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"headshot-server/internal/domain"
)

// stubTx fakes the two pgx.Tx methods the repository uses; everything else
// panics through the embedded nil interface if touched.
type stubTx struct {
	pgx.Tx
	exec     func(sql string, args ...any) (pgconn.CommandTag, error)
	queryRow func(sql string, args ...any) pgx.Row
}

func (t *stubTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.exec(sql, args...)
}

func (t *stubTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	return t.queryRow(sql, args...)
}

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

func TestDebitTxDuplicateRefIsDuplicateOperation(t *testing.T) {
	repo := NewRepository(nil)
	tx := &stubTx{
		exec: func(sql string, _ ...any) (pgconn.CommandTag, error) {
			if strings.Contains(sql, "UPDATE accounts") {
				return pgconn.NewCommandTag("UPDATE 1"), nil
			}
			if strings.Contains(sql, "INSERT INTO ledger_entries") {
				return pgconn.CommandTag{}, &pgconn.PgError{
					Code:           uniqueViolation,
					ConstraintName: "ledger_entries_ref_key",
				}
			}
			t.Fatalf("unexpected sql: %s", sql)
			return pgconn.CommandTag{}, nil
		},
	}

	err := repo.DebitTx(context.Background(), tx, "acc-1", 30, "unlock", "unlock:gen-1")
	if !errors.Is(err, domain.ErrDuplicateOperation) {
		t.Fatalf("err = %v, want ErrDuplicateOperation", err)
	}
}

func TestDebitTxInsufficientBalance(t *testing.T) {
	repo := NewRepository(nil)
	tx := &stubTx{
		exec: func(sql string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
		queryRow: func(sql string, _ ...any) pgx.Row {
			return stubRow{scan: func(dest ...any) error {
				*(dest[0].(*int64)) = 5
				return nil
			}}
		},
	}

	err := repo.DebitTx(context.Background(), tx, "acc-1", 30, "unlock", "")
	var insufficient *domain.InsufficientCreditsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientCreditsError", err)
	}
	if insufficient.Required != 30 || insufficient.Available != 5 {
		t.Fatalf("required/available = %d/%d", insufficient.Required, insufficient.Available)
	}
}

func TestDebitTxMissingAccount(t *testing.T) {
	repo := NewRepository(nil)
	tx := &stubTx{
		exec: func(sql string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
		queryRow: func(sql string, _ ...any) pgx.Row {
			return stubRow{}
		},
	}

	err := repo.DebitTx(context.Background(), tx, "acc-ghost", 30, "unlock", "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreditTxReplayedRefIsDuplicateOperation(t *testing.T) {
	repo := NewRepository(nil)
	var balanceUpdated bool
	tx := &stubTx{
		exec: func(sql string, _ ...any) (pgconn.CommandTag, error) {
			if strings.Contains(sql, "INSERT INTO ledger_entries") {
				// ON CONFLICT (ref) DO NOTHING matched an existing entry.
				return pgconn.NewCommandTag("INSERT 0 0"), nil
			}
			balanceUpdated = true
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}

	err := repo.CreditTx(context.Background(), tx, "acc-1", 800, "purchase", "purchase:sess_123")
	if !errors.Is(err, domain.ErrDuplicateOperation) {
		t.Fatalf("err = %v, want ErrDuplicateOperation", err)
	}
	if balanceUpdated {
		t.Fatal("replayed credit still incremented the balance")
	}
}
