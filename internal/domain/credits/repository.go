package credits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const queryTimeout = 3 * time.Second

// Repository provides credit account and ledger operations. Writes for
// one player are serialized by a FOR UPDATE row lock, so concurrent
// debits cannot lose updates or drive the balance negative.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ensureAccount(ctx context.Context, ex sqlx.ExtContext, playerID uuid.UUID) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO credit_accounts (player_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (player_id) DO NOTHING
	`, playerID)
	return err
}

// GetBalance returns the current credit balance for a player.
func (r *Repository) GetBalance(ctx context.Context, playerID uuid.UUID) (decimal.Decimal, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance decimal.Decimal
	err := r.db.GetContext(ctx2, &balance, `SELECT balance FROM credit_accounts WHERE player_id = $1`, playerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("%w: get balance", ErrInternal)
	}
	return balance, nil
}

// lockAccount takes the player's balance row lock, creating the account
// on first use.
func (r *Repository) lockAccount(ctx context.Context, tx *sqlx.Tx, playerID uuid.UUID) (decimal.Decimal, error) {
	if err := r.ensureAccount(ctx, tx, playerID); err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err := tx.GetContext(ctx, &balance, `SELECT balance FROM credit_accounts WHERE player_id = $1 FOR UPDATE`, playerID)
	return balance, err
}

func (r *Repository) getTransactionAmountByRef(ctx context.Context, tx *sqlx.Tx, playerID uuid.UUID, txType TxType, referenceID string) (decimal.Decimal, bool, error) {
	var amount decimal.Decimal
	err := tx.GetContext(ctx, &amount, `
		SELECT amount_delta
		FROM credit_transactions
		WHERE player_id = $1 AND tx_type = $2 AND reference_id = $3
		LIMIT 1
	`, playerID, string(txType), referenceID)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return amount, true, nil
}

func (r *Repository) insertTransaction(ctx context.Context, tx *sqlx.Tx, playerID uuid.UUID, delta decimal.Decimal, txType TxType, referenceID, description string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO credit_transactions (id, player_id, amount_delta, tx_type, reference_id, description)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), playerID, delta, string(txType), referenceID, description)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrReferenceConflict
		}
		return err
	}
	return nil
}

// ApplyTx applies a signed balance delta within an external transaction.
// Retrying the same (player, type, reference) is a no-op and reports
// applied=false; the same reference with a different amount is a
// conflict. The caller commits.
func (r *Repository) ApplyTx(ctx context.Context, tx *sqlx.Tx, playerID uuid.UUID, delta decimal.Decimal, txType TxType, referenceID, description string) (bool, error) {
	balance, err := r.lockAccount(ctx, tx, playerID)
	if err != nil {
		return false, fmt.Errorf("%w: lock account", ErrInternal)
	}

	existing, exists, err := r.getTransactionAmountByRef(ctx, tx, playerID, txType, referenceID)
	if err != nil {
		return false, fmt.Errorf("%w: check reference", ErrInternal)
	}
	if exists {
		if !existing.Equal(delta) {
			return false, ErrReferenceConflict
		}
		return false, nil
	}

	nextBalance := balance.Add(delta)
	if nextBalance.IsNegative() {
		return false, ErrInsufficientCredits
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE credit_accounts SET balance = $2, updated_at = now() WHERE player_id = $1
	`, playerID, nextBalance); err != nil {
		return false, fmt.Errorf("%w: update balance", ErrInternal)
	}

	if err := r.insertTransaction(ctx, tx, playerID, delta, txType, referenceID, description); err != nil {
		if errors.Is(err, ErrReferenceConflict) {
			return false, ErrReferenceConflict
		}
		return false, fmt.Errorf("%w: insert transaction", ErrInternal)
	}
	return true, nil
}

func (r *Repository) apply(ctx context.Context, playerID uuid.UUID, delta decimal.Decimal, txType TxType, referenceID, description string) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	if _, err := r.ApplyTx(ctx2, tx, playerID, delta, txType, referenceID, description); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}
	return nil
}

// Credit adds purchased credits to a player's account.
func (r *Repository) Credit(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal, referenceID, description string) error {
	return r.apply(ctx, playerID, amount, TxTypePurchase, referenceID, description)
}

// Debit draws down credits for a fee settlement.
func (r *Repository) Debit(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal, referenceID, description string) error {
	return r.apply(ctx, playerID, amount.Neg(), TxTypeDebit, referenceID, description)
}

// DebitTx is Debit within an external transaction, for settlements that
// must be atomic with a ledger write.
func (r *Repository) DebitTx(ctx context.Context, tx *sqlx.Tx, playerID uuid.UUID, amount decimal.Decimal, referenceID, description string) error {
	_, err := r.ApplyTx(ctx, tx, playerID, amount.Neg(), TxTypeDebit, referenceID, description)
	return err
}

// ListTransactions returns a player's credit history, newest first.
func (r *Repository) ListTransactions(ctx context.Context, playerID uuid.UUID, limit, offset int) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	transactions := make([]Transaction, 0)
	err := r.db.SelectContext(ctx2, &transactions, `
		SELECT id, player_id, amount_delta, tx_type, reference_id, description, created_at
		FROM credit_transactions
		WHERE player_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, playerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions", ErrInternal)
	}
	return transactions, nil
}
