package credits

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ladderleague/ladder-api/internal/domain/feeschedule"
	"github.com/ladderleague/ladder-api/internal/domain/ledger"
)

// Service manages prepaid credit purchases and balances. A purchase is
// pre-verified money, so it settles immediately: the credit and its
// completed credits_purchase ledger record commit in one transaction.
type Service struct {
	db        *sqlx.DB
	repo      *Repository
	ledger    *ledger.Repository
	schedules *feeschedule.Service
}

func NewService(db *sqlx.DB, repo *Repository, ledgerRepo *ledger.Repository, schedules *feeschedule.Service) *Service {
	return &Service{db: db, repo: repo, ledger: ledgerRepo, schedules: schedules}
}

// GetBalance returns the player's current credit balance.
func (s *Service) GetBalance(ctx context.Context, playerID uuid.UUID) (decimal.Decimal, error) {
	return s.repo.GetBalance(ctx, playerID)
}

// ListTransactions returns the player's credit history.
func (s *Service) ListTransactions(ctx context.Context, playerID uuid.UUID, limit, offset int) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, playerID, limit, offset)
}

// Purchase credits the account and appends the matching ledger record
// atomically. Retrying with the same reference returns without a second
// credit.
func (s *Service) Purchase(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal, method, referenceID string) (*ledger.PaymentRecord, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if referenceID == "" {
		return nil, ErrInvalidAmount
	}

	schedule, err := s.schedules.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load schedule", ErrInternal)
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	applied, err := s.repo.ApplyTx(ctx, tx, playerID, amount, TxTypePurchase, referenceID, "credits purchase")
	if err != nil {
		return nil, err
	}
	if !applied {
		// Retry of an earlier purchase: nothing to write, hand back the
		// original record.
		rec, err := s.ledger.FindByExternalID(ctx, playerID, ledger.TypeCreditsPurchase, referenceID)
		if err != nil {
			return nil, err
		}
		return rec, nil
	}

	rec := &ledger.PaymentRecord{
		PlayerID:        playerID,
		Amount:          amount,
		PaymentType:     ledger.TypeCreditsPurchase,
		PaymentMethod:   method,
		Status:          ledger.StatusCompleted,
		ScheduleVersion: schedule.Version,
		ExternalTxID:    sql.NullString{String: referenceID, Valid: true},
		Notes:           "credits purchase " + referenceID,
	}
	if err := s.ledger.AppendTx(ctx, tx, rec); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	log.Info().
		Str("player_id", playerID.String()).
		Str("amount", amount.String()).
		Str("reference_id", referenceID).
		Msg("credits purchased")
	return rec, nil
}

// Debit draws down credits outside a settlement transaction.
func (s *Service) Debit(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal, referenceID, description string) error {
	if amount.Sign() <= 0 || referenceID == "" {
		return ErrInvalidAmount
	}
	if err := s.repo.Debit(ctx, playerID, amount, referenceID, description); err != nil {
		return err
	}
	log.Info().
		Str("player_id", playerID.String()).
		Str("amount", amount.String()).
		Str("reference_id", referenceID).
		Msg("credits debited")
	return nil
}
