package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
	"github.com/bibbank/pggateway/internal/domain/valueobject"
)

// --- Mock implementations ---

type mockPartnerRepository struct {
	partners     map[int64]model.Partner
	findByIDFunc func(ctx context.Context, id int64) (model.Partner, bool, error)
}

func (m *mockPartnerRepository) FindByID(ctx context.Context, id int64) (model.Partner, bool, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	p, ok := m.partners[id]
	return p, ok, nil
}

type mockFeePolicyRepository struct {
	findEffectiveFunc func(ctx context.Context, partnerID int64, asOf time.Time) (model.FeePolicy, bool, error)
	asOfSeen          []time.Time
}

func (m *mockFeePolicyRepository) FindEffective(ctx context.Context, partnerID int64, asOf time.Time) (model.FeePolicy, bool, error) {
	m.asOfSeen = append(m.asOfSeen, asOf)
	if m.findEffectiveFunc != nil {
		return m.findEffectiveFunc(ctx, partnerID, asOf)
	}
	fixed := decimal.NewFromInt(100)
	return model.FeePolicy{ID: 1, PartnerID: partnerID, Percentage: decimal.RequireFromString("0.0300"), FixedFee: &fixed}, true, nil
}

type mockPaymentRepository struct {
	saveFunc     func(ctx context.Context, p model.Payment) (model.Payment, error)
	findByIDFunc func(ctx context.Context, id int64) (model.Payment, bool, error)
	findPageFunc func(ctx context.Context, f port.PaymentFilter, page port.PageRequest) ([]model.Payment, error)
	summaryFunc  func(ctx context.Context, f port.PaymentFilter) (model.PaymentSummary, error)

	saved       []model.Payment
	pageCalls   []port.PageRequest
	filterCalls []port.PaymentFilter
}

func (m *mockPaymentRepository) Save(ctx context.Context, p model.Payment) (model.Payment, error) {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, p)
	}
	stored := p.Persisted(int64(len(m.saved)+1), time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC))
	m.saved = append(m.saved, stored)
	return stored, nil
}

func (m *mockPaymentRepository) FindByID(ctx context.Context, id int64) (model.Payment, bool, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return model.Payment{}, false, nil
}

func (m *mockPaymentRepository) FindPage(ctx context.Context, f port.PaymentFilter, page port.PageRequest) ([]model.Payment, error) {
	m.pageCalls = append(m.pageCalls, page)
	m.filterCalls = append(m.filterCalls, f)
	if m.findPageFunc != nil {
		return m.findPageFunc(ctx, f, page)
	}
	return nil, nil
}

func (m *mockPaymentRepository) Summary(ctx context.Context, f port.PaymentFilter) (model.PaymentSummary, error) {
	if m.summaryFunc != nil {
		return m.summaryFunc(ctx, f)
	}
	return model.EmptySummary(), nil
}

type mockProvider struct {
	name        string
	supportsAll bool
	approveFunc func(ctx context.Context, req port.ApprovalRequest) (port.ApprovalResult, error)
	requests    []port.ApprovalRequest
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Supports(int64) bool { return m.supportsAll }

func (m *mockProvider) Approve(ctx context.Context, req port.ApprovalRequest) (port.ApprovalResult, error) {
	m.requests = append(m.requests, req)
	if m.approveFunc != nil {
		return m.approveFunc(ctx, req)
	}
	return port.ApprovalResult{
		ApprovalCode: "APPROVAL-1",
		ApprovedAt:   time.Date(2025, 3, 14, 8, 59, 59, 0, time.UTC),
		Status:       valueobject.PaymentStatusApproved,
	}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func storedPayment(id int64, createdAt time.Time, amount, net int64) model.Payment {
	return model.Reconstruct(id, 1,
		decimal.NewFromInt(amount), decimal.RequireFromString("0.03"), decimal.NewFromInt(amount-net), decimal.NewFromInt(net),
		"111111", "1111", "A", createdAt, valueobject.PaymentStatusApproved, createdAt, createdAt)
}
