package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
	"github.com/bibbank/pggateway/internal/domain/valueobject"
	"github.com/bibbank/pggateway/pkg/events"
	pgpkg "github.com/bibbank/pggateway/pkg/postgres"
)

var _ port.PaymentRepository = (*PaymentRepo)(nil)

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	pgpkg.Querier
	pgpkg.TxBeginner
}

const paymentColumns = `
	id, partner_id, amount, applied_fee_rate, fee_amount, net_amount,
	card_bin, card_last4, approval_code, approved_at, status, created_at, updated_at`

// PaymentRepo stores the payment ledger. Save writes the ledger row and its
// domain events to the outbox in one transaction.
type PaymentRepo struct {
	db    DB
	topic string
	now   func() time.Time
}

// NewPaymentRepo returns a repository whose outbox entries are addressed to topic.
func NewPaymentRepo(db DB, topic string) *PaymentRepo {
	return &PaymentRepo{db: db, topic: topic, now: time.Now}
}

// WithClock overrides the source of created_at.
func (r *PaymentRepo) WithClock(now func() time.Time) *PaymentRepo {
	r.now = now
	return r
}

func (r *PaymentRepo) Save(ctx context.Context, payment model.Payment) (model.Payment, error) {
	if payment.IsPersisted() {
		return model.Payment{}, model.InvalidStatef("payment %d is already stored", payment.ID())
	}

	// Cursors carry millisecond precision, so created_at is stored at that precision.
	createdAt := r.now().UTC().Truncate(time.Millisecond)

	var stored model.Payment
	err := pgpkg.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO payment (
				partner_id, amount, applied_fee_rate, fee_amount, net_amount,
				card_bin, card_last4, approval_code, approved_at, status,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
			RETURNING id
		`,
			payment.PartnerID(), payment.Amount(), payment.AppliedFeeRate(),
			payment.FeeAmount(), payment.NetAmount(),
			nullable(payment.CardBin()), nullable(payment.CardLast4()),
			payment.ApprovalCode(), payment.ApprovedAt().UTC(), payment.Status().String(),
			createdAt,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		stored = payment.Persisted(id, createdAt)
		if err := r.writeOutbox(ctx, tx, stored.DomainEvents()); err != nil {
			return fmt.Errorf("write outbox: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Payment{}, err
	}
	return stored, nil
}

func (r *PaymentRepo) writeOutbox(ctx context.Context, tx pgx.Tx, evts []events.DomainEvent) error {
	for _, evt := range evts {
		entry, err := events.NewOutboxEntry(r.topic, evt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, topic, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, entry.ID, entry.AggregateID, entry.AggregateType, entry.EventType, entry.Topic, entry.Payload, entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert outbox event %s: %w", entry.ID, err)
		}
	}
	return nil
}

func (r *PaymentRepo) FindByID(ctx context.Context, id int64) (model.Payment, bool, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payment WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Payment{}, false, nil
		}
		return model.Payment{}, false, fmt.Errorf("query payment %d: %w", id, err)
	}
	return p, true, nil
}

func (r *PaymentRepo) FindPage(ctx context.Context, filter port.PaymentFilter, page port.PageRequest) ([]model.Payment, error) {
	w := (&whereBuilder{}).filter(filter).after(page.After)
	query := `SELECT ` + paymentColumns + ` FROM payment` + w.sql() +
		` ORDER BY created_at DESC, id DESC LIMIT ` + w.arg(page.Limit+1)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	payments := make([]model.Payment, 0, page.Limit+1)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}

func (r *PaymentRepo) Summary(ctx context.Context, filter port.PaymentFilter) (model.PaymentSummary, error) {
	w := (&whereBuilder{}).filter(filter)
	s := model.EmptySummary()
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount), 0), COALESCE(SUM(net_amount), 0)
		FROM payment`+w.sql(), w.args...).Scan(&s.Count, &s.TotalAmount, &s.TotalNetAmount)
	if err != nil {
		return model.PaymentSummary{}, fmt.Errorf("summarize payments: %w", err)
	}
	return s, nil
}

func scanPayment(row pgx.Row) (model.Payment, error) {
	var (
		id, partnerID                         int64
		amount, feeRate, feeAmount, netAmount decimal.Decimal
		cardBin, cardLast4                    *string
		approvalCode, statusStr               string
		approvedAt, createdAt, updatedAt      time.Time
	)
	if err := row.Scan(
		&id, &partnerID, &amount, &feeRate, &feeAmount, &netAmount,
		&cardBin, &cardLast4, &approvalCode, &approvedAt, &statusStr, &createdAt, &updatedAt,
	); err != nil {
		return model.Payment{}, err
	}

	status, err := valueobject.NewPaymentStatus(statusStr)
	if err != nil {
		return model.Payment{}, fmt.Errorf("payment %d: %w", id, err)
	}

	return model.Reconstruct(
		id, partnerID,
		amount, feeRate, feeAmount, netAmount,
		deref(cardBin), deref(cardLast4), approvalCode,
		approvedAt.UTC(), status, createdAt.UTC(), updatedAt.UTC(),
	), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
