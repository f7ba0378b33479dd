package usecase

import (
	"context"
	"fmt"

	"github.com/bibbank/pggateway/internal/application/dto"
	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
)

// GetPayment handles retrieving a single ledger row by id.
type GetPayment struct {
	payments port.PaymentRepository
}

func NewGetPayment(payments port.PaymentRepository) *GetPayment {
	return &GetPayment{payments: payments}
}

func (uc *GetPayment) Execute(ctx context.Context, id int64) (dto.PaymentResponse, error) {
	payment, found, err := uc.payments.FindByID(ctx, id)
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("failed to find payment %d: %w", id, err)
	}
	if !found {
		return dto.PaymentResponse{}, model.NotFoundf("payment not found: %d", id)
	}
	return toPaymentResponse(payment), nil
}
