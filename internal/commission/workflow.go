package commission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/domain"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/events"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/lock"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/money"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/obs"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/payroll"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/store"
)

// Part names one of the two independently approvable halves of a package
// commission.
type Part string

const (
	PartFirst  Part = "first"
	PartSecond Part = "second"
)

// ErrUnknownPart is returned when an approval names a part that does not
// exist.
var ErrUnknownPart = errors.New("unknown commission part")

// Workflow owns commission records and their two-step approval. Approving a
// part credits the agent through payroll before the approval flag is
// flipped, so a flag set to true always means the money left the building.
// The payroll call carries a per-part idempotency key and the whole approval
// runs under a per-record lock, so a part is credited at most once no matter
// how often the dashboard retries.
type Workflow struct {
	Store   store.Store
	Payroll payroll.Client
	Locker  lock.Locker
	LockTTL time.Duration
	Events  *events.Bus
	Logger  zerolog.Logger
}

// CreateInput carries the fields needed to record a package sale commission.
type CreateInput struct {
	CustomerID   string  `json:"customerId" validate:"required"`
	AgentID      string  `json:"agentId" validate:"required"`
	PackageValue float64 `json:"packageValue" validate:"gt=0"`
}

// CreateFromPackageSale computes the package commission and persists it as a
// pending record with both halves unapproved.
func (w *Workflow) CreateFromPackageSale(ctx context.Context, in CreateInput) (domain.CommissionRecord, error) {
	if w == nil || w.Store == nil {
		return domain.CommissionRecord{}, errors.New("commission workflow not configured")
	}
	value, err := money.FromFloat(in.PackageValue)
	if err != nil {
		return domain.CommissionRecord{}, err
	}
	res, err := ComputePackage(value)
	if err != nil {
		return domain.CommissionRecord{}, err
	}
	rec, err := w.Store.CreateCommissionRecord(ctx, domain.CommissionRecord{
		CustomerID:       strings.TrimSpace(in.CustomerID),
		AgentID:          strings.TrimSpace(in.AgentID),
		PackageValue:     value,
		GrossCommission:  res.GrossCommission,
		CommissionTax:    res.CommissionTax,
		NetCommission:    res.NetCommission,
		FirstCommission:  res.FirstCommission,
		SecondCommission: res.SecondCommission,
	})
	if err != nil {
		return domain.CommissionRecord{}, err
	}
	w.emit(ctx, events.TopicCommissionCreated, rec.ID, map[string]any{
		"agentId":       rec.AgentID,
		"netCommission": rec.NetCommission,
	})
	w.Logger.Info().Str("record_id", rec.ID).Str("agent_id", rec.AgentID).
		Str("net", rec.NetCommission.StringFixed(2)).Msg("commission record created")
	return rec, nil
}

// Get returns one commission record.
func (w *Workflow) Get(ctx context.Context, id string) (domain.CommissionRecord, error) {
	return w.Store.GetCommissionRecord(ctx, id)
}

// List returns all commission records, oldest first.
func (w *Workflow) List(ctx context.Context) ([]domain.CommissionRecord, error) {
	return w.Store.ListCommissionRecords(ctx)
}

// Approval is the result of an ApprovePart call: the updated record plus the
// payroll credit reference for this part.
type Approval struct {
	Record domain.CommissionRecord `json:"record"`
	Credit payroll.CreditRef       `json:"credit"`
}

// ApprovePart approves one half of a commission record. The call is
// idempotent: approving an already-approved part returns the current record
// without touching payroll again. On a payroll failure the flag stays unset,
// a compensating event is recorded and the error wraps
// payroll.ErrCreditFailed so the caller can retry.
func (w *Workflow) ApprovePart(ctx context.Context, recordID string, part Part) (Approval, error) {
	if w == nil || w.Store == nil || w.Payroll == nil {
		return Approval{}, errors.New("commission workflow not configured")
	}
	if part != PartFirst && part != PartSecond {
		return Approval{}, fmt.Errorf("%w: %q", ErrUnknownPart, part)
	}
	ctx, span := otel.Tracer("commission.Workflow").Start(ctx, "Workflow.ApprovePart")
	defer span.End()
	span.SetAttributes(attribute.String("commission.record_id", recordID), attribute.String("commission.part", string(part)))

	var result Approval
	run := func(ctx context.Context) error {
		var err error
		result, err = w.approve(ctx, recordID, part)
		return err
	}

	var err error
	if w.Locker.Client != nil {
		err = w.Locker.WithLock(ctx, "commission:record:"+recordID, w.LockTTL, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		span.RecordError(err)
		return Approval{}, err
	}
	return result, nil
}

func (w *Workflow) approve(ctx context.Context, recordID string, part Part) (Approval, error) {
	rec, err := w.Store.GetCommissionRecord(ctx, recordID)
	if err != nil {
		return Approval{}, err
	}
	if approved(rec, part) {
		return Approval{Record: rec, Credit: payroll.CreditRef{Duplicate: true}}, nil
	}

	amount := partAmount(rec, part)
	ref, err := w.Payroll.CreditAgent(ctx, rec.AgentID, amount, creditKey(recordID, part))
	if err != nil {
		w.creditMetric("error")
		w.emit(ctx, events.TopicPayrollCreditFailed, recordID, map[string]any{
			"part":    part,
			"agentId": rec.AgentID,
			"amount":  amount,
			"error":   err.Error(),
		})
		w.Logger.Error().Err(err).Str("record_id", recordID).Str("part", string(part)).Msg("payroll credit failed")
		return Approval{}, fmt.Errorf("credit %s commission for record %s: %w", part, recordID, err)
	}
	if ref.Duplicate {
		w.creditMetric("duplicate")
	} else {
		w.creditMetric("ok")
	}

	rec, err = w.Store.MutateCommissionRecord(ctx, recordID, func(r *domain.CommissionRecord) error {
		switch part {
		case PartFirst:
			r.FirstApproved = true
		case PartSecond:
			r.SecondApproved = true
		}
		return nil
	})
	if err != nil {
		return Approval{}, err
	}
	w.emit(ctx, events.TopicCommissionApproved, rec.ID, map[string]any{
		"part":      part,
		"amount":    amount,
		"reference": ref.Reference,
		"status":    rec.Status(),
	})
	w.Logger.Info().Str("record_id", rec.ID).Str("part", string(part)).
		Str("amount", amount.StringFixed(2)).Str("status", string(rec.Status())).
		Msg("commission part approved")
	return Approval{Record: rec, Credit: ref}, nil
}

func (w *Workflow) creditMetric(result string) {
	if obs.PayrollCreditTotal != nil {
		obs.PayrollCreditTotal.WithLabelValues(result).Inc()
	}
}

func (w *Workflow) emit(ctx context.Context, topic, aggregateID string, payload any) {
	if w.Events == nil {
		return
	}
	if _, err := w.Events.Emit(ctx, topic, aggregateID, payload); err != nil {
		w.Logger.Warn().Err(err).Str("topic", topic).Msg("emit commission event")
	}
}

func approved(rec domain.CommissionRecord, part Part) bool {
	if part == PartFirst {
		return rec.FirstApproved
	}
	return rec.SecondApproved
}

func partAmount(rec domain.CommissionRecord, part Part) decimal.Decimal {
	if part == PartFirst {
		return rec.FirstCommission
	}
	return rec.SecondCommission
}

// creditKey is the payroll idempotency key for one part of one record.
func creditKey(recordID string, part Part) string {
	return recordID + ":" + string(part)
}
