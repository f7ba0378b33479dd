package valueobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/pggateway/internal/domain/valueobject"
)

func TestNewPaymentStatus_ValidStatuses(t *testing.T) {
	tests := []struct {
		input    string
		expected valueobject.PaymentStatus
	}{
		{"APPROVED", valueobject.PaymentStatusApproved},
		{"REJECTED", valueobject.PaymentStatusRejected},
		{"CANCELED", valueobject.PaymentStatusCanceled},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			status, err := valueobject.NewPaymentStatus(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, status)
			assert.Equal(t, tc.input, status.String())
			assert.False(t, status.IsZero())
		})
	}
}

func TestNewPaymentStatus_InvalidStatus(t *testing.T) {
	for _, input := range []string{"", "approved", "DONE", "SETTLED"} {
		t.Run(input, func(t *testing.T) {
			_, err := valueobject.NewPaymentStatus(input)
			assert.ErrorContains(t, err, "invalid payment status")
		})
	}
}

func TestPaymentStatus_IsApproved(t *testing.T) {
	assert.True(t, valueobject.PaymentStatusApproved.IsApproved())
	assert.False(t, valueobject.PaymentStatusCanceled.IsApproved())
	assert.False(t, valueobject.PaymentStatus{}.IsApproved())
}
