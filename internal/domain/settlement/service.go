package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ladderleague/ladder-api/internal/domain/admission"
	"github.com/ladderleague/ladder-api/internal/domain/credits"
	"github.com/ladderleague/ladder-api/internal/domain/feeschedule"
	"github.com/ladderleague/ladder-api/internal/domain/ledger"
	"github.com/ladderleague/ladder-api/internal/domain/membership"
	"github.com/ladderleague/ladder-api/internal/domain/notification"
	"github.com/ladderleague/ladder-api/internal/pkg/gateway"
)

// Charger submits a card charge to the external payment gateway.
type Charger interface {
	Charge(ctx context.Context, req gateway.ChargeRequest) (*gateway.ChargeResult, error)
}

// Service orchestrates fee settlement: it asks the admission rules for a
// path and then applies that path atomically. It owns the database
// transaction; the repositories it drives expose *Tx variants for that.
type Service struct {
	db          *sqlx.DB
	payments    *ledger.Repository
	credits     *credits.Repository
	memberships *membership.Repository
	matches     *MatchRepository
	schedules   *feeschedule.Service
	trustPolicy ledger.TrustPolicy
	charger     Charger
	notifier    notification.Notifier
	now         func() time.Time
}

func NewService(
	db *sqlx.DB,
	payments *ledger.Repository,
	creditsRepo *credits.Repository,
	memberships *membership.Repository,
	matches *MatchRepository,
	schedules *feeschedule.Service,
	trustPolicy ledger.TrustPolicy,
	charger Charger,
	notifier notification.Notifier,
) *Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Service{
		db:          db,
		payments:    payments,
		credits:     creditsRepo,
		memberships: memberships,
		matches:     matches,
		schedules:   schedules,
		trustPolicy: trustPolicy,
		charger:     charger,
		notifier:    notifier,
		now:         time.Now,
	}
}

// feeLine is one charge owed for a match report.
type feeLine struct {
	paymentType ledger.PaymentType
	amount      decimal.Decimal
}

// feeLines returns the charges a match report triggers: the match fee,
// plus a membership renewal when the reporter's membership has lapsed.
// The two are one combined charge but distinct ledger records.
func feeLines(schedule feeschedule.FeeSchedule, membershipActive bool) []feeLine {
	lines := []feeLine{{paymentType: ledger.TypeMatchFee, amount: schedule.MatchFee}}
	if !membershipActive {
		lines = append(lines, feeLine{paymentType: ledger.TypeMembership, amount: schedule.MembershipFee})
	}
	return lines
}

func totalDue(lines []feeLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.amount)
	}
	return total
}

// SettleMatchFee settles the fee for a reported match. Retrying the same
// (player, match) returns the prior outcome instead of charging again.
func (s *Service) SettleMatchFee(ctx context.Context, playerID, matchID uuid.UUID, method string) (*Outcome, error) {
	schedule, err := s.schedules.Current(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.payments.FindByMatch(ctx, playerID, matchID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return s.priorOutcome(ctx, playerID, matchID, existing)
	}

	mem, err := s.memberships.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}
	lines := feeLines(schedule, mem.IsActive(s.now()))
	amountDue := totalDue(lines)

	stats, err := s.payments.GetTrustStats(ctx, playerID)
	if err != nil {
		return nil, err
	}
	tier := ledger.Classify(stats, s.trustPolicy)

	creditBalance, err := s.credits.GetBalance(ctx, playerID)
	if err != nil {
		return nil, err
	}

	result, err := admission.Decide(tier, amountDue, creditBalance)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("player_id", playerID.String()).
		Str("match_id", matchID.String()).
		Str("tier", string(tier)).
		Str("decision", string(result.Decision)).
		Str("amount_due", amountDue.String()).
		Msg("match fee admission decided")

	switch result.Decision {
	case admission.SettleFromCredits:
		return s.settleFromCredits(ctx, playerID, matchID, lines, amountDue, schedule.Version)
	case admission.AutoApprovePending:
		return s.settleAutoApproved(ctx, playerID, matchID, lines, amountDue, schedule.Version, method, result.Audit)
	default:
		return s.settleManualReview(ctx, playerID, matchID, lines, amountDue, schedule.Version, method)
	}
}

// priorOutcome rebuilds the outcome of an earlier settlement attempt
// from its ledger records.
func (s *Service) priorOutcome(ctx context.Context, playerID, matchID uuid.UUID, records []ledger.PaymentRecord) (*Outcome, error) {
	out := &Outcome{
		MatchID:    matchID,
		PlayerID:   playerID,
		AmountDue:  decimal.Zero,
		MatchState: MatchFeeSettled,
		Records:    records,
		Duplicate:  true,
	}

	out.Decision = admission.AutoApprovePending
	for _, rec := range records {
		out.AmountDue = out.AmountDue.Add(rec.Amount)
		if rec.PaymentMethod == methodCredits {
			out.Decision = admission.SettleFromCredits
		}
		if !rec.Status.IsTerminal() {
			out.Decision = admission.RequireManualReview
			out.MatchState = MatchPendingVerification
		}
	}

	if m, err := s.matches.Get(ctx, matchID); err == nil && m != nil {
		out.MatchState = m.State
	}
	return out, nil
}

const methodCredits = "credits"

// settleRef is the idempotency reference tying the credit debit to the
// match it paid for.
func settleRef(matchID uuid.UUID) string {
	return "match:" + matchID.String()
}

// settleFromCredits debits the credit account and writes completed
// records in one transaction.
func (s *Service) settleFromCredits(ctx context.Context, playerID, matchID uuid.UUID, lines []feeLine, amountDue decimal.Decimal, scheduleVersion int) (*Outcome, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	err = s.credits.DebitTx(ctx, tx, playerID, amountDue, settleRef(matchID), "match fee settlement")
	if err != nil {
		if errors.Is(err, credits.ErrInsufficientCredits) || errors.Is(err, credits.ErrReferenceConflict) {
			// A concurrent attempt won the account lock first. Nothing
			// committed here; the caller retries the whole settlement.
			return nil, ErrConcurrencyConflict
		}
		return nil, err
	}

	out, err := s.writeSettled(ctx, tx, playerID, matchID, lines, scheduleVersion, methodCredits, "")
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	out.Decision = admission.SettleFromCredits
	out.AmountDue = amountDue
	s.notifySettled(ctx, out)
	return out, nil
}

// settleAutoApproved charges the gateway (for card payments) and then
// writes completed records. The gateway call stays outside the database
// transaction so a slow charge never holds row locks.
func (s *Service) settleAutoApproved(ctx context.Context, playerID, matchID uuid.UUID, lines []feeLine, amountDue decimal.Decimal, scheduleVersion int, method string, audit bool) (*Outcome, error) {
	externalTxID := ""
	if method == "card" {
		if s.charger == nil {
			return nil, ErrGatewayUnavailable
		}
		res, err := s.charger.Charge(ctx, gateway.ChargeRequest{
			Amount:      amountDue,
			ReferenceID: settleRef(matchID),
			Method:      method,
			Description: "match fee settlement",
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		if !res.Success {
			s.recordDeclined(ctx, playerID, matchID, lines, scheduleVersion, method, res.Reason)
			return nil, fmt.Errorf("%w: %s", ErrGatewayDeclined, res.Reason)
		}
		externalTxID = res.ExternalTxID
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	out, err := s.writeSettled(ctx, tx, playerID, matchID, lines, scheduleVersion, method, externalTxID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	out.Decision = admission.AutoApprovePending
	out.AmountDue = amountDue
	s.notifySettled(ctx, out)
	if audit {
		s.notifier.Publish(ctx, notification.Event{
			Type:     notification.EventPaymentAudit,
			PlayerID: playerID,
			MatchID:  matchID.String(),
			Amount:   amountDue.String(),
			Detail:   "auto-approved for verified tier, flagged for async audit",
		})
	}
	return out, nil
}

// writeSettled appends completed records, renews the membership when a
// membership line is present, and marks the match fee-settled. Runs
// inside the caller's transaction.
func (s *Service) writeSettled(ctx context.Context, tx *sqlx.Tx, playerID, matchID uuid.UUID, lines []feeLine, scheduleVersion int, method, externalTxID string) (*Outcome, error) {
	out := &Outcome{MatchID: matchID, PlayerID: playerID, MatchState: MatchFeeSettled}

	// Lock the match row first so two settlements for the same match
	// serialize before touching the ledger.
	if _, err := s.matches.EnsureTx(ctx, tx, matchID, playerID); err != nil {
		return nil, err
	}

	for _, line := range lines {
		rec := &ledger.PaymentRecord{
			PlayerID:        playerID,
			MatchID:         uuid.NullUUID{UUID: matchID, Valid: true},
			Amount:          line.amount,
			PaymentType:     line.paymentType,
			PaymentMethod:   method,
			Status:          ledger.StatusCompleted,
			ScheduleVersion: scheduleVersion,
		}
		if externalTxID != "" {
			rec.ExternalTxID = sql.NullString{String: externalTxID, Valid: true}
		}
		if err := s.payments.AppendTx(ctx, tx, rec); err != nil {
			if errors.Is(err, ledger.ErrDuplicateSettlement) {
				return nil, ErrConcurrencyConflict
			}
			return nil, err
		}
		out.Records = append(out.Records, *rec)

		if line.paymentType == ledger.TypeMembership {
			until, err := s.renewMembershipTx(ctx, tx, playerID)
			if err != nil {
				return nil, err
			}
			out.RenewedUntil = &until
		}
	}

	if err := s.matches.SetStateTx(ctx, tx, matchID, MatchFeeSettled); err != nil {
		return nil, err
	}
	return out, nil
}

// renewMembershipTx extends the locked membership by one billing period.
// Remaining paid time on an active membership is kept.
func (s *Service) renewMembershipTx(ctx context.Context, tx *sqlx.Tx, playerID uuid.UUID) (time.Time, error) {
	mem, err := s.memberships.GetTx(ctx, tx, playerID)
	if err != nil {
		return time.Time{}, err
	}

	tier := "standard"
	if mem != nil {
		tier = mem.Tier
	}
	until := mem.RenewedUntil(s.now())
	if err := s.memberships.UpsertTx(ctx, tx, playerID, tier, until); err != nil {
		return time.Time{}, err
	}
	return until, nil
}

// settleManualReview writes pending records and gates the match on admin
// verification.
func (s *Service) settleManualReview(ctx context.Context, playerID, matchID uuid.UUID, lines []feeLine, amountDue decimal.Decimal, scheduleVersion int, method string) (*Outcome, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	out := &Outcome{
		MatchID:    matchID,
		PlayerID:   playerID,
		Decision:   admission.RequireManualReview,
		AmountDue:  amountDue,
		MatchState: MatchPendingVerification,
	}

	if _, err := s.matches.EnsureTx(ctx, tx, matchID, playerID); err != nil {
		return nil, err
	}

	for _, line := range lines {
		rec := &ledger.PaymentRecord{
			PlayerID:        playerID,
			MatchID:         uuid.NullUUID{UUID: matchID, Valid: true},
			Amount:          line.amount,
			PaymentType:     line.paymentType,
			PaymentMethod:   method,
			Status:          ledger.StatusPending,
			ScheduleVersion: scheduleVersion,
		}
		if err := s.payments.AppendTx(ctx, tx, rec); err != nil {
			if errors.Is(err, ledger.ErrDuplicateSettlement) {
				return nil, ErrConcurrencyConflict
			}
			return nil, err
		}
		out.Records = append(out.Records, *rec)
	}

	if err := s.matches.SetStateTx(ctx, tx, matchID, MatchPendingVerification); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	for _, rec := range out.Records {
		s.notifier.Publish(ctx, notification.Event{
			Type:      notification.EventPaymentPending,
			PlayerID:  playerID,
			PaymentID: rec.ID,
			MatchID:   matchID.String(),
			Amount:    rec.Amount.String(),
		})
	}
	return out, nil
}

// recordDeclined writes rejected records for a declined gateway charge.
// Rejected rows don't occupy the settlement key, so a fresh attempt with
// another method is allowed.
func (s *Service) recordDeclined(ctx context.Context, playerID, matchID uuid.UUID, lines []feeLine, scheduleVersion int, method, reason string) {
	if err := s.matches.Ensure(ctx, matchID, playerID); err != nil {
		log.Error().Err(err).Str("match_id", matchID.String()).Msg("failed to record match for declined charge")
		return
	}

	for _, line := range lines {
		rec := &ledger.PaymentRecord{
			PlayerID:        playerID,
			MatchID:         uuid.NullUUID{UUID: matchID, Valid: true},
			Amount:          line.amount,
			PaymentType:     line.paymentType,
			PaymentMethod:   method,
			Status:          ledger.StatusRejected,
			ScheduleVersion: scheduleVersion,
			Notes:           "gateway declined: " + reason,
		}
		if err := s.payments.Append(ctx, rec); err != nil {
			log.Error().Err(err).
				Str("player_id", playerID.String()).
				Str("match_id", matchID.String()).
				Msg("failed to record declined charge")
			continue
		}
		s.notifier.Publish(ctx, notification.Event{
			Type:      notification.EventPaymentRejected,
			PlayerID:  playerID,
			PaymentID: rec.ID,
			MatchID:   matchID.String(),
			Amount:    rec.Amount.String(),
			Detail:    reason,
		})
	}
}

func (s *Service) notifySettled(ctx context.Context, out *Outcome) {
	for _, rec := range out.Records {
		s.notifier.Publish(ctx, notification.Event{
			Type:      notification.EventPaymentCompleted,
			PlayerID:  out.PlayerID,
			PaymentID: rec.ID,
			MatchID:   out.MatchID.String(),
			Amount:    rec.Amount.String(),
		})
	}
	if out.RenewedUntil != nil {
		s.notifier.Publish(ctx, notification.Event{
			Type:     notification.EventMembershipRenewed,
			PlayerID: out.PlayerID,
			Detail:   "renewed until " + out.RenewedUntil.Format(time.RFC3339),
		})
	}
	s.notifier.Publish(ctx, notification.Event{
		Type:     notification.EventMatchSettled,
		PlayerID: out.PlayerID,
		MatchID:  out.MatchID.String(),
	})
}

// RecordPayment books a dues payment collected out of band (cash at the
// hall, Venmo, and so on). The admission rules still apply: payments
// from new players wait for review rather than completing on entry.
func (s *Service) RecordPayment(ctx context.Context, playerID uuid.UUID, paymentType ledger.PaymentType, amount decimal.Decimal, method, notes string) (*ledger.PaymentRecord, error) {
	switch paymentType {
	case ledger.TypeRegistrationFee, ledger.TypeWeeklyDues,
		ledger.TypeParticipationFee, ledger.TypeMembership:
	default:
		return nil, ErrUnsupportedType
	}

	stats, err := s.payments.GetTrustStats(ctx, playerID)
	if err != nil {
		return nil, err
	}
	tier := ledger.Classify(stats, s.trustPolicy)

	// Out-of-band money never draws down credits.
	result, err := admission.Decide(tier, amount, decimal.Zero)
	if err != nil {
		return nil, err
	}

	schedule, err := s.schedules.Current(ctx)
	if err != nil {
		return nil, err
	}

	status := ledger.StatusPending
	if result.Decision == admission.AutoApprovePending {
		status = ledger.StatusCompleted
	}

	rec := &ledger.PaymentRecord{
		PlayerID:        playerID,
		Amount:          amount,
		PaymentType:     paymentType,
		PaymentMethod:   method,
		Status:          status,
		ScheduleVersion: schedule.Version,
		Notes:           notes,
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	if err := s.payments.AppendTx(ctx, tx, rec); err != nil {
		return nil, err
	}

	if status == ledger.StatusCompleted && paymentType == ledger.TypeMembership {
		if _, err := s.renewMembershipTx(ctx, tx, playerID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	eventType := notification.EventPaymentCompleted
	if status == ledger.StatusPending {
		eventType = notification.EventPaymentPending
	}
	s.notifier.Publish(ctx, notification.Event{
		Type:      eventType,
		PlayerID:  playerID,
		PaymentID: rec.ID,
		Amount:    amount.String(),
	})

	if result.Audit {
		s.notifier.Publish(ctx, notification.Event{
			Type:     notification.EventPaymentAudit,
			PlayerID: playerID,
			Amount:   amount.String(),
			Detail:   "auto-approved for verified tier, flagged for async audit",
		})
	}
	return rec, nil
}
