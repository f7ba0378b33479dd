package event

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/pggateway/pkg/events"
)

const (
	AggregateTypePayment = "Payment"

	TypePaymentApproved = "payment.approved"
)

// PaymentApprovedData is the body of a payment.approved event.
type PaymentApprovedData struct {
	PaymentID    string          `json:"payment_id"`
	PartnerID    int64           `json:"partner_id"`
	Amount       decimal.Decimal `json:"amount"`
	FeeAmount    decimal.Decimal `json:"fee_amount"`
	NetAmount    decimal.Decimal `json:"net_amount"`
	ApprovalCode string          `json:"approval_code"`
	ApprovedAt   time.Time       `json:"approved_at"`
}

// PaymentApproved is emitted when an approved payment is written to the ledger.
type PaymentApproved struct {
	events.BaseEvent
	Data PaymentApprovedData
}

func NewPaymentApproved(data PaymentApprovedData, occurredAt time.Time) PaymentApproved {
	return PaymentApproved{
		BaseEvent: events.NewBaseEvent(TypePaymentApproved, data.PaymentID, AggregateTypePayment, occurredAt),
		Data:      data,
	}
}

func (e PaymentApproved) Payload() ([]byte, error) {
	return json.Marshal(e.Data)
}
