package review

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/ladderleague/ladder-api/internal/domain/ledger"
	"github.com/ladderleague/ladder-api/internal/domain/membership"
	"github.com/ladderleague/ladder-api/internal/domain/notification"
	"github.com/ladderleague/ladder-api/internal/domain/settlement"
)

// Service resolves payments held for manual review. Approval applies
// the effects the settlement deferred: the match starts counting and a
// membership payment renews the membership.
type Service struct {
	db          *sqlx.DB
	payments    *ledger.Repository
	memberships *membership.Repository
	matches     *settlement.MatchRepository
	notifier    notification.Notifier
	now         func() time.Time
}

func NewService(
	db *sqlx.DB,
	payments *ledger.Repository,
	memberships *membership.Repository,
	matches *settlement.MatchRepository,
	notifier notification.Notifier,
) *Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Service{
		db:          db,
		payments:    payments,
		memberships: memberships,
		matches:     matches,
		notifier:    notifier,
		now:         time.Now,
	}
}

// ListPending returns the review queue, oldest first.
func (s *Service) ListPending(ctx context.Context) ([]ledger.PaymentRecord, error) {
	return s.payments.ListPending(ctx)
}

// Approve completes a pending payment and applies its deferred effects
// in one transaction. Approving a terminal record fails with
// ledger.ErrTerminalStatus.
func (s *Service) Approve(ctx context.Context, adminID, paymentID uuid.UUID) (*ledger.PaymentRecord, error) {
	rec, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ledger.ErrInternal)
	}
	defer tx.Rollback()

	if err := s.payments.MarkCompletedTx(ctx, tx, paymentID); err != nil {
		return nil, err
	}

	var renewedUntil *time.Time
	if rec.PaymentType == ledger.TypeMembership {
		mem, err := s.memberships.GetTx(ctx, tx, rec.PlayerID)
		if err != nil {
			return nil, err
		}
		tier := "standard"
		if mem != nil {
			tier = mem.Tier
		}
		until := mem.RenewedUntil(s.now())
		if err := s.memberships.UpsertTx(ctx, tx, rec.PlayerID, tier, until); err != nil {
			return nil, err
		}
		renewedUntil = &until
	}

	matchSettled := false
	if rec.MatchID.Valid {
		settled, err := s.releaseMatchTx(ctx, tx, rec.PlayerID, rec.MatchID.UUID)
		if err != nil {
			return nil, err
		}
		matchSettled = settled
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ledger.ErrInternal)
	}

	log.Info().
		Str("admin_id", adminID.String()).
		Str("payment_id", paymentID.String()).
		Msg("payment approved")

	rec.Status = ledger.StatusCompleted
	rec.ResolvedAt = sql.NullTime{Time: s.now(), Valid: true}

	s.notifier.Publish(ctx, notification.Event{
		Type:      notification.EventPaymentCompleted,
		PlayerID:  rec.PlayerID,
		PaymentID: rec.ID,
		Amount:    rec.Amount.String(),
	})
	if renewedUntil != nil {
		s.notifier.Publish(ctx, notification.Event{
			Type:     notification.EventMembershipRenewed,
			PlayerID: rec.PlayerID,
			Detail:   "renewed until " + renewedUntil.Format(time.RFC3339),
		})
	}
	if matchSettled {
		s.notifier.Publish(ctx, notification.Event{
			Type:     notification.EventMatchSettled,
			PlayerID: rec.PlayerID,
			MatchID:  rec.MatchID.UUID.String(),
		})
	}
	return rec, nil
}

// releaseMatchTx moves the match to fee-settled once every non-rejected
// record for it has completed. A combined charge needs both its records
// approved before the match counts.
func (s *Service) releaseMatchTx(ctx context.Context, tx *sqlx.Tx, playerID, matchID uuid.UUID) (bool, error) {
	records, err := s.payments.FindByMatchTx(ctx, tx, playerID, matchID)
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if !r.Status.IsTerminal() {
			return false, nil
		}
	}
	if err := s.matches.SetStateTx(ctx, tx, matchID, settlement.MatchFeeSettled); err != nil {
		return false, err
	}
	return true, nil
}

// Reject marks a pending payment rejected. The rejected row frees the
// settlement key, so the player may attempt the fee again.
func (s *Service) Reject(ctx context.Context, adminID, paymentID uuid.UUID, reason string) (*ledger.PaymentRecord, error) {
	rec, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ledger.ErrInternal)
	}
	defer tx.Rollback()

	if err := s.payments.MarkRejectedTx(ctx, tx, paymentID); err != nil {
		return nil, err
	}

	if rec.MatchID.Valid {
		remaining, err := s.payments.FindByMatchTx(ctx, tx, rec.PlayerID, rec.MatchID.UUID)
		if err != nil {
			return nil, err
		}
		if len(remaining) == 0 {
			if err := s.matches.SetStateTx(ctx, tx, rec.MatchID.UUID, settlement.MatchUnreported); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ledger.ErrInternal)
	}

	log.Info().
		Str("admin_id", adminID.String()).
		Str("payment_id", paymentID.String()).
		Str("reason", reason).
		Msg("payment rejected")

	rec.Status = ledger.StatusRejected
	rec.ResolvedAt = sql.NullTime{Time: s.now(), Valid: true}

	s.notifier.Publish(ctx, notification.Event{
		Type:      notification.EventPaymentRejected,
		PlayerID:  rec.PlayerID,
		PaymentID: rec.ID,
		Amount:    rec.Amount.String(),
		Detail:    reason,
	})
	return rec, nil
}
