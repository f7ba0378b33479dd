package valueobject

import "fmt"

// PaymentStatus is the outcome recorded on a ledger row.
type PaymentStatus struct {
	value string
}

var (
	PaymentStatusApproved = PaymentStatus{"APPROVED"}
	PaymentStatusRejected = PaymentStatus{"REJECTED"}
	PaymentStatusCanceled = PaymentStatus{"CANCELED"}
)

var validStatuses = map[string]PaymentStatus{
	"APPROVED": PaymentStatusApproved,
	"REJECTED": PaymentStatusRejected,
	"CANCELED": PaymentStatusCanceled,
}

// NewPaymentStatus validates and creates a PaymentStatus from a string.
func NewPaymentStatus(s string) (PaymentStatus, error) {
	if status, ok := validStatuses[s]; ok {
		return status, nil
	}
	return PaymentStatus{}, fmt.Errorf("invalid payment status: %q", s)
}

// String returns the string representation of the payment status.
func (s PaymentStatus) String() string {
	return s.value
}

// IsApproved reports whether the provider authorized the payment.
func (s PaymentStatus) IsApproved() bool {
	return s == PaymentStatusApproved
}

// IsZero returns true if the payment status is uninitialized.
func (s PaymentStatus) IsZero() bool {
	return s.value == ""
}
