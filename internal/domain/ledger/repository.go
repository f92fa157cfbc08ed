package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

// Repository provides append-only access to the payment ledger.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Append inserts a new payment record. The ledger is append-only:
// corrections are new records, never edits.
func (r *Repository) Append(ctx context.Context, rec *PaymentRecord) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	if err := r.AppendTx(ctx2, tx, rec); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}
	return nil
}

// AppendTx inserts a record within an external transaction. The unique
// settlement key (player_id, match_id, payment_type) over non-rejected
// rows is enforced by the database; a violation maps to
// ErrDuplicateSettlement.
func (r *Repository) AppendTx(ctx context.Context, tx *sqlx.Tx, rec *PaymentRecord) error {
	if rec.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !KnownPaymentType(rec.PaymentType) {
		return ErrUnknownPaymentType
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}

	err := tx.QueryRowContext(ctx, `
		INSERT INTO payments (
			id, player_id, match_id, amount, payment_type, payment_method,
			status, schedule_version, external_tx_id, notes, resolved_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			CASE WHEN $7 IN ('completed', 'rejected') THEN now() END)
		RETURNING created_at
	`,
		rec.ID, rec.PlayerID, rec.MatchID, rec.Amount, rec.PaymentType, rec.PaymentMethod,
		rec.Status, rec.ScheduleVersion, rec.ExternalTxID, rec.Notes,
	).Scan(&rec.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateSettlement
		}
		return fmt.Errorf("%w: insert payment", ErrInternal)
	}
	return nil
}

// GetByID returns a single payment record.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*PaymentRecord, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rec PaymentRecord
	err := r.db.GetContext(ctx2, &rec, `SELECT * FROM payments WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: get payment", ErrInternal)
	}
	return &rec, nil
}

// ListByPlayer returns a player's full payment history, newest first.
func (r *Repository) ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]PaymentRecord, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	records := make([]PaymentRecord, 0)
	err := r.db.SelectContext(ctx2, &records, `
		SELECT * FROM payments
		WHERE player_id = $1
		ORDER BY created_at DESC
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list payments", ErrInternal)
	}
	return records, nil
}

// ListPending returns all records awaiting manual review, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]PaymentRecord, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	records := make([]PaymentRecord, 0)
	err := r.db.SelectContext(ctx2, &records, `
		SELECT * FROM payments
		WHERE status IN ('pending', 'verified')
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list pending payments", ErrInternal)
	}
	return records, nil
}

// FindByMatch returns a player's non-rejected records for a match. Used
// to short-circuit duplicate settlement attempts to the prior outcome.
func (r *Repository) FindByMatch(ctx context.Context, playerID, matchID uuid.UUID) ([]PaymentRecord, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	records := make([]PaymentRecord, 0)
	err := r.db.SelectContext(ctx2, &records, `
		SELECT * FROM payments
		WHERE player_id = $1 AND match_id = $2 AND status != 'rejected'
		ORDER BY created_at ASC
	`, playerID, matchID)
	if err != nil {
		return nil, fmt.Errorf("%w: find settlement records", ErrInternal)
	}
	return records, nil
}

// FindByExternalID returns the record a given external reference
// produced, or nil if none exists.
func (r *Repository) FindByExternalID(ctx context.Context, playerID uuid.UUID, t PaymentType, externalID string) (*PaymentRecord, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rec PaymentRecord
	err := r.db.GetContext(ctx2, &rec, `
		SELECT * FROM payments
		WHERE player_id = $1 AND payment_type = $2 AND external_tx_id = $3
		ORDER BY created_at ASC
		LIMIT 1
	`, playerID, t, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: find payment by reference", ErrInternal)
	}
	return &rec, nil
}

// FindByMatchTx is FindByMatch within an external transaction, for
// review decisions that must see their own writes.
func (r *Repository) FindByMatchTx(ctx context.Context, tx *sqlx.Tx, playerID, matchID uuid.UUID) ([]PaymentRecord, error) {
	records := make([]PaymentRecord, 0)
	err := tx.SelectContext(ctx, &records, `
		SELECT * FROM payments
		WHERE player_id = $1 AND match_id = $2 AND status != 'rejected'
		ORDER BY created_at ASC
	`, playerID, matchID)
	if err != nil {
		return nil, fmt.Errorf("%w: find settlement records", ErrInternal)
	}
	return records, nil
}

// MarkCompleted transitions pending/verified -> completed. Terminal
// records are immutable.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, nil, id, StatusCompleted)
}

// MarkCompletedTx is MarkCompleted within an external transaction.
func (r *Repository) MarkCompletedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	return r.transition(ctx, tx, id, StatusCompleted)
}

// MarkRejected transitions pending/verified -> rejected.
func (r *Repository) MarkRejected(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, nil, id, StatusRejected)
}

// MarkRejectedTx is MarkRejected within an external transaction.
func (r *Repository) MarkRejectedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	return r.transition(ctx, tx, id, StatusRejected)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *Repository) transition(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, to Status) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var ex execer = r.db
	if tx != nil {
		ex = tx
	}

	result, err := ex.ExecContext(ctx2, `
		UPDATE payments
		SET status = $2, resolved_at = now()
		WHERE id = $1 AND status IN ('pending', 'verified')
	`, id, to)
	if err != nil {
		return fmt.Errorf("%w: update payment status", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		// Distinguish missing record from an illegal transition.
		var exists bool
		if err := r.db.GetContext(ctx2, &exists, `SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("%w: check payment exists", ErrInternal)
		}
		if !exists {
			return ErrRecordNotFound
		}
		return ErrTerminalStatus
	}
	return nil
}

// GetTrustStats derives payment stats from resolved ledger rows:
// completed counts as success, rejected as failure, pending is excluded.
func (r *Repository) GetTrustStats(ctx context.Context, playerID uuid.UUID) (TrustStats, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var stats TrustStats
	err := r.db.GetContext(ctx2, &stats, `
		SELECT
			COUNT(*) FILTER (WHERE status IN ('completed', 'rejected')) AS total_payments,
			COUNT(*) FILTER (WHERE status = 'rejected') AS failed_payments
		FROM payments
		WHERE player_id = $1
	`, playerID)
	if err != nil {
		return TrustStats{}, fmt.Errorf("%w: trust stats", ErrInternal)
	}
	return stats, nil
}

// AddPenalty records a strike against a player.
func (r *Repository) AddPenalty(ctx context.Context, p *Penalty) error {
	if p.Amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if p.StrikeLevel < 1 || p.StrikeLevel > 3 {
		return ErrInvalidStrikeLevel
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx2, `
		INSERT INTO penalties (id, player_id, amount, strike_level, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, p.ID, p.PlayerID, p.Amount, p.StrikeLevel, p.Reason).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert penalty", ErrInternal)
	}
	return nil
}

// ListPenalties returns a player's strikes, oldest first.
func (r *Repository) ListPenalties(ctx context.Context, playerID uuid.UUID) ([]Penalty, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	penalties := make([]Penalty, 0)
	err := r.db.SelectContext(ctx2, &penalties, `
		SELECT * FROM penalties
		WHERE player_id = $1
		ORDER BY created_at ASC
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list penalties", ErrInternal)
	}
	return penalties, nil
}
