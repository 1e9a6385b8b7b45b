package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/port"
	"invoiceflow/internal/retry"
)

// SQLSTATE codes that are safe to retry: serialization failure, deadlock,
// too many connections and cannot connect now.
var retryableCodes = map[string]bool{
	"40001": true,
	"40P01": true,
	"53300": true,
	"57P03": true,
}

type userInvoicesRepo struct {
	db     *sqlx.DB
	policy retry.Policy
}

// NewUserInvoicesRepo creates a PostgreSQL-backed InvoiceStore. Appends are
// retried maxRetries times after the first try with baseDelay * 2^n backoff.
func NewUserInvoicesRepo(db *sqlx.DB, maxRetries int, baseDelay time.Duration) port.InvoiceStore {
	return &userInvoicesRepo{
		db:     db,
		policy: retry.Policy{Attempts: maxRetries + 1, BaseDelay: baseDelay},
	}
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return retryableCodes[pgErr.Code]
	}
	return false
}

func (r *userInvoicesRepo) AppendInvoices(ctx context.Context, userID string, invoices []domain.Invoice) (*domain.UserInvoices, error) {
	query := `INSERT INTO user_invoices (id, user_id, invoices, created_at, updated_at)
		VALUES ($1, $1, $2, $3, $3)
		ON CONFLICT (id) DO UPDATE
		SET invoices = user_invoices.invoices || EXCLUDED.invoices,
			updated_at = EXCLUDED.updated_at
		RETURNING id, user_id, invoices, created_at, updated_at`

	var out domain.UserInvoices
	attempts, err := r.policy.Do(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &out, query, userID, domain.InvoiceList(invoices), time.Now().UTC())
	}, isRetryable)
	if err != nil {
		if isRetryable(err) {
			return nil, fmt.Errorf("userInvoicesRepo.AppendInvoices: %w: %v", domain.ErrStoreUnavailable, err)
		}
		return nil, fmt.Errorf("userInvoicesRepo.AppendInvoices: %w", err)
	}
	if attempts > 1 {
		log.Printf("userInvoicesRepo.AppendInvoices: user=%s stored after %d attempts", userID, attempts)
	}
	return &out, nil
}

func (r *userInvoicesRepo) GetUserInvoices(ctx context.Context, userID string) (*domain.UserInvoices, error) {
	var out domain.UserInvoices
	err := r.db.GetContext(ctx, &out,
		"SELECT id, user_id, invoices, created_at, updated_at FROM user_invoices WHERE id = $1", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("userInvoicesRepo.GetUserInvoices: %w", err)
	}
	return &out, nil
}

func (r *userInvoicesRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
