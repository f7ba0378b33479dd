package usecase

import (
	"github.com/bibbank/pggateway/internal/application/dto"
	"github.com/bibbank/pggateway/internal/domain/model"
)

func toPaymentResponse(p model.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:             p.ID(),
		PartnerID:      p.PartnerID(),
		Amount:         p.Amount(),
		AppliedFeeRate: p.AppliedFeeRate(),
		FeeAmount:      p.FeeAmount(),
		NetAmount:      p.NetAmount(),
		CardBin:        p.CardBin(),
		CardLast4:      p.CardLast4(),
		ApprovalCode:   p.ApprovalCode(),
		ApprovedAt:     p.ApprovedAt(),
		Status:         p.Status().String(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
	}
}
