package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/pggateway/internal/application/dto"
	"github.com/bibbank/pggateway/internal/application/usecase"
	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
	"github.com/bibbank/pggateway/internal/domain/service"
	"github.com/bibbank/pggateway/internal/domain/valueobject"
	"github.com/bibbank/pggateway/pkg/money"
)

type createFixture struct {
	partners *mockPartnerRepository
	policies *mockFeePolicyRepository
	payments *mockPaymentRepository
	provider *mockProvider
	uc       *usecase.CreatePayment
}

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func newCreateFixture() *createFixture {
	f := &createFixture{
		partners: &mockPartnerRepository{partners: map[int64]model.Partner{
			1: {ID: 1, Code: "P1", Name: "Partner One", Active: true},
			4: {ID: 4, Code: "P4", Name: "Dormant", Active: false},
		}},
		policies: &mockFeePolicyRepository{},
		payments: &mockPaymentRepository{},
		provider: &mockProvider{name: "mock", supportsAll: true},
	}
	f.uc = usecase.NewCreatePayment(f.partners, f.policies, f.payments,
		service.NewProviderRouter(f.provider), money.KRW, discardLogger()).
		WithClock(func() time.Time { return fixedNow })
	return f
}

func validCreateRequest() dto.CreatePaymentRequest {
	return dto.CreatePaymentRequest{
		PartnerID:   1,
		Amount:      decimal.NewFromInt(10000),
		CardNumber:  "1111-2222-3333-4444",
		BirthDate:   "19900101",
		Expiry:      "1227",
		Password:    "12",
		ProductName: "coffee",
	}
}

func TestCreatePayment_Success(t *testing.T) {
	f := newCreateFixture()

	resp, err := f.uc.Execute(context.Background(), validCreateRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "APPROVED", resp.Status)
	assert.True(t, resp.FeeAmount.Equal(decimal.NewFromInt(400)))
	assert.True(t, resp.NetAmount.Equal(decimal.NewFromInt(9600)))
	assert.True(t, resp.AppliedFeeRate.Equal(decimal.RequireFromString("0.03")))
	assert.Equal(t, "111122", resp.CardBin)
	assert.Equal(t, "APPROVAL-1", resp.ApprovalCode)

	require.Len(t, f.provider.requests, 1)
	assert.Equal(t, "1111-2222-3333-4444", f.provider.requests[0].CardNumber)
	assert.Equal(t, "coffee", f.provider.requests[0].ProductName)
	require.Len(t, f.payments.saved, 1)
	assert.Equal(t, []time.Time{fixedNow}, f.policies.asOfSeen)
}

func TestCreatePayment_PercentageOnlyPolicy(t *testing.T) {
	f := newCreateFixture()
	f.policies.findEffectiveFunc = func(_ context.Context, partnerID int64, _ time.Time) (model.FeePolicy, bool, error) {
		return model.FeePolicy{ID: 2, PartnerID: partnerID, Percentage: decimal.RequireFromString("0.0250")}, true, nil
	}

	resp, err := f.uc.Execute(context.Background(), validCreateRequest())

	require.NoError(t, err)
	assert.True(t, resp.FeeAmount.Equal(decimal.NewFromInt(250)))
	assert.True(t, resp.NetAmount.Equal(decimal.NewFromInt(9750)))
}

func TestCreatePayment_CardFieldResolution(t *testing.T) {
	tests := []struct {
		name         string
		cardNumber   string
		cardBin      string
		cardLast4    string
		providerLast string
		wantBin      string
		wantLast4    string
	}{
		{"bin from card number, last4 from provider", "4111-1111-1111-1234", "999999", "0000", "1234", "411111", "1234"},
		{"caller bin when no card number", "", "999999", "0000", "", "999999", "0000"},
		{"provider last4 beats caller last4", "", "", "0000", "5678", "", "5678"},
		{"nothing supplied", "", "", "", "", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newCreateFixture()
			f.provider.approveFunc = func(context.Context, port.ApprovalRequest) (port.ApprovalResult, error) {
				return port.ApprovalResult{
					ApprovalCode:    "X",
					ApprovedAt:      fixedNow,
					MaskedCardLast4: tc.providerLast,
					Status:          valueobject.PaymentStatusApproved,
				}, nil
			}
			req := validCreateRequest()
			req.CardNumber, req.CardBin, req.CardLast4 = tc.cardNumber, tc.cardBin, tc.cardLast4

			resp, err := f.uc.Execute(context.Background(), req)

			require.NoError(t, err)
			assert.Equal(t, tc.wantBin, resp.CardBin)
			assert.Equal(t, tc.wantLast4, resp.CardLast4)
		})
	}
}

func TestCreatePayment_Failures(t *testing.T) {
	providerErr := &model.ProviderError{Provider: "mock", Kind: model.ErrProviderRejected, StatusCode: 422, Body: "limit exceeded"}

	tests := []struct {
		name        string
		setup       func(f *createFixture, req *dto.CreatePaymentRequest)
		wantKind    error
		wantMessage string
		wantCalls   int
	}{
		{
			name:        "partner not found",
			setup:       func(_ *createFixture, req *dto.CreatePaymentRequest) { req.PartnerID = 99 },
			wantKind:    model.ErrNotFound,
			wantMessage: "partner not found: 99",
		},
		{
			name:        "partner inactive",
			setup:       func(_ *createFixture, req *dto.CreatePaymentRequest) { req.PartnerID = 4 },
			wantKind:    model.ErrInvalidState,
			wantMessage: "partner is inactive: 4",
		},
		{
			name:        "no provider",
			setup:       func(f *createFixture, _ *dto.CreatePaymentRequest) { f.provider.supportsAll = false },
			wantKind:    model.ErrInvalidState,
			wantMessage: "no provider for partner 1",
		},
		{
			name: "provider rejects",
			setup: func(f *createFixture, _ *dto.CreatePaymentRequest) {
				f.provider.approveFunc = func(context.Context, port.ApprovalRequest) (port.ApprovalResult, error) {
					return port.ApprovalResult{}, providerErr
				}
			},
			wantKind:  model.ErrProviderRejected,
			wantCalls: 1,
		},
		{
			name: "provider returns canceled",
			setup: func(f *createFixture, _ *dto.CreatePaymentRequest) {
				f.provider.approveFunc = func(context.Context, port.ApprovalRequest) (port.ApprovalResult, error) {
					return port.ApprovalResult{ApprovalCode: "X", ApprovedAt: fixedNow, Status: valueobject.PaymentStatusCanceled}, nil
				}
			},
			wantKind:  model.ErrProviderRejected,
			wantCalls: 1,
		},
		{
			name: "no fee policy",
			setup: func(f *createFixture, _ *dto.CreatePaymentRequest) {
				f.policies.findEffectiveFunc = func(context.Context, int64, time.Time) (model.FeePolicy, bool, error) {
					return model.FeePolicy{}, false, nil
				}
			},
			wantKind:    model.ErrInvalidState,
			wantMessage: "no fee policy for partner 1",
			wantCalls:   1,
		},
		{
			name:        "zero amount",
			setup:       func(_ *createFixture, req *dto.CreatePaymentRequest) { req.Amount = decimal.Zero },
			wantKind:    model.ErrValidation,
			wantMessage: "amount must be positive, got: 0",
		},
		{
			name: "last4 wider than the ledger column",
			setup: func(_ *createFixture, req *dto.CreatePaymentRequest) {
				req.CardNumber = ""
				req.CardLast4 = "12345"
			},
			wantKind:    model.ErrValidation,
			wantMessage: "cardLast4 must be exactly 4 digits",
		},
		{
			name:     "bin with letters",
			setup:    func(_ *createFixture, req *dto.CreatePaymentRequest) { req.CardBin = "4111ab" },
			wantKind: model.ErrValidation,
		},
		{
			name:     "fractional amount",
			setup:    func(_ *createFixture, req *dto.CreatePaymentRequest) { req.Amount = decimal.RequireFromString("100.5") },
			wantKind: model.ErrValidation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newCreateFixture()
			req := validCreateRequest()
			tc.setup(f, &req)

			_, err := f.uc.Execute(context.Background(), req)

			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantKind)
			if tc.wantMessage != "" {
				assert.EqualError(t, err, tc.wantMessage)
			}
			assert.Len(t, f.provider.requests, tc.wantCalls, "provider calls")
			assert.Empty(t, f.payments.saved, "nothing may be persisted")
		})
	}
}

func TestCreatePayment_CardFragmentsFromShortInputs(t *testing.T) {
	f := newCreateFixture()
	f.provider.approveFunc = func(context.Context, port.ApprovalRequest) (port.ApprovalResult, error) {
		return port.ApprovalResult{
			ApprovalCode:    "A1",
			ApprovedAt:      fixedNow,
			MaskedCardLast4: "****-9876",
			Status:          valueobject.PaymentStatusApproved,
		}, nil
	}
	req := validCreateRequest()
	req.CardNumber = "4111"
	req.CardBin = "555555"

	resp, err := f.uc.Execute(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "4111", resp.CardBin, "a short card number still yields its prefix")
	assert.Equal(t, "9876", resp.CardLast4, "provider masking is trimmed to four characters")
}

func TestCreatePayment_ProviderErrorPassesThrough(t *testing.T) {
	f := newCreateFixture()
	providerErr := &model.ProviderError{Provider: "toss", Kind: model.ErrProviderAuth, StatusCode: 401}
	f.provider.approveFunc = func(context.Context, port.ApprovalRequest) (port.ApprovalResult, error) {
		return port.ApprovalResult{}, providerErr
	}

	_, err := f.uc.Execute(context.Background(), validCreateRequest())

	var got *model.ProviderError
	require.True(t, errors.As(err, &got))
	assert.Same(t, providerErr, got)
}

func TestCreatePayment_SaveFailure(t *testing.T) {
	f := newCreateFixture()
	f.payments.saveFunc = func(context.Context, model.Payment) (model.Payment, error) {
		return model.Payment{}, errors.New("connection lost")
	}

	_, err := f.uc.Execute(context.Background(), validCreateRequest())

	assert.ErrorContains(t, err, "failed to save payment: connection lost")
}
