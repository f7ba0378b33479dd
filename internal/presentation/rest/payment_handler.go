package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bibbank/pggateway/internal/application/dto"
	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/presentation/access"
)

// TimeLayout is the wall-clock format used for timestamps in responses and query parameters. Times are UTC.
const TimeLayout = "2006-01-02 15:04:05"

const maxBodyBytes = 64 << 10

type PaymentCreator interface {
	Execute(ctx context.Context, req dto.CreatePaymentRequest) (dto.PaymentResponse, error)
}

type PaymentQuerier interface {
	Execute(ctx context.Context, req dto.QueryPaymentsRequest) (dto.QueryPaymentsResponse, error)
}

type PaymentGetter interface {
	Execute(ctx context.Context, id int64) (dto.PaymentResponse, error)
}

// PaymentHandler serves /api/v1/payments.
type PaymentHandler struct {
	create PaymentCreator
	query  PaymentQuerier
	get    PaymentGetter
	logger *slog.Logger
}

func NewPaymentHandler(create PaymentCreator, query PaymentQuerier, get PaymentGetter, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{create: create, query: query, get: get, logger: logger}
}

// RegisterRoutes attaches the payment routes to r.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/", h.createPayment)
		r.Get("/", h.queryPayments)
		r.Get("/{id}", h.getPayment)
	})
}

type createPaymentRequest struct {
	PartnerID   int64           `json:"partnerId"`
	Amount      decimal.Decimal `json:"amount"`
	CardNumber  string          `json:"cardNumber"`
	BirthDate   string          `json:"birthDate"`
	Expiry      string          `json:"expiry"`
	Password    string          `json:"password"`
	CardBin     string          `json:"cardBin"`
	CardLast4   string          `json:"cardLast4"`
	ProductName string          `json:"productName"`
}

type paymentResponse struct {
	ID             int64       `json:"id"`
	PartnerID      int64       `json:"partnerId"`
	Amount         jsonDecimal `json:"amount"`
	AppliedFeeRate jsonDecimal `json:"appliedFeeRate"`
	FeeAmount      jsonDecimal `json:"feeAmount"`
	NetAmount      jsonDecimal `json:"netAmount"`
	CardLast4      *string     `json:"cardLast4"`
	ApprovalCode   string      `json:"approvalCode"`
	ApprovedAt     string      `json:"approvedAt"`
	Status         string      `json:"status"`
	CreatedAt      string      `json:"createdAt"`
}

type summaryResponse struct {
	Count          int64       `json:"count"`
	TotalAmount    jsonDecimal `json:"totalAmount"`
	TotalNetAmount jsonDecimal `json:"totalNetAmount"`
}

type queryResponse struct {
	Items      []paymentResponse `json:"items"`
	Summary    summaryResponse   `json:"summary"`
	NextCursor *string           `json:"nextCursor"`
	HasNext    bool              `json:"hasNext"`
}

func (h *PaymentHandler) createPayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, h.logger, model.Validationf("invalid request body: %v", err))
		return
	}
	if err := access.CheckPartner(r.Context(), req.PartnerID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp, err := h.create.Execute(r.Context(), dto.CreatePaymentRequest{
		PartnerID:   req.PartnerID,
		Amount:      req.Amount,
		CardNumber:  req.CardNumber,
		BirthDate:   req.BirthDate,
		Expiry:      req.Expiry,
		Password:    req.Password,
		CardBin:     req.CardBin,
		CardLast4:   req.CardLast4,
		ProductName: req.ProductName,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toPaymentResponse(resp))
}

func (h *PaymentHandler) queryPayments(w http.ResponseWriter, r *http.Request) {
	req, err := parseQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.PartnerID, err = access.ScopeQuery(r.Context(), req.PartnerID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.query.Execute(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := queryResponse{
		Items: make([]paymentResponse, 0, len(res.Items)),
		Summary: summaryResponse{
			Count:          res.Summary.Count,
			TotalAmount:    jsonDecimal(res.Summary.TotalAmount),
			TotalNetAmount: jsonDecimal(res.Summary.TotalNetAmount),
		},
		HasNext: res.HasNext,
	}
	for _, item := range res.Items {
		out.Items = append(out.Items, toPaymentResponse(item))
	}
	if res.NextCursor != "" {
		out.NextCursor = &res.NextCursor
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *PaymentHandler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, h.logger, model.Validationf("invalid payment id %q", chi.URLParam(r, "id")))
		return
	}

	resp, err := h.get.Execute(r.Context(), id)
	if err == nil && !access.CanRead(r.Context(), resp.PartnerID) {
		err = model.NotFoundf("payment %d not found", id)
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toPaymentResponse(resp))
}

func parseQuery(r *http.Request) (dto.QueryPaymentsRequest, error) {
	q := r.URL.Query()
	req := dto.QueryPaymentsRequest{
		Status: q.Get("status"),
		Cursor: q.Get("cursor"),
	}

	if v := q.Get("partnerId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, model.Validationf("invalid partnerId %q", v)
		}
		req.PartnerID = &id
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, model.Validationf("invalid limit %q", v)
		}
		req.Limit = n
	}
	var err error
	if req.From, err = parseTimeParam("from", q.Get("from")); err != nil {
		return req, err
	}
	if req.To, err = parseTimeParam("to", q.Get("to")); err != nil {
		return req, err
	}
	return req, nil
}

// parseTimeParam accepts TimeLayout in UTC or RFC 3339.
func parseTimeParam(name, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(TimeLayout, v, time.UTC); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	return nil, model.Validationf("invalid %s %q: want %q or RFC 3339", name, v, TimeLayout)
}

func toPaymentResponse(p dto.PaymentResponse) paymentResponse {
	out := paymentResponse{
		ID:             p.ID,
		PartnerID:      p.PartnerID,
		Amount:         jsonDecimal(p.Amount),
		AppliedFeeRate: jsonDecimal(p.AppliedFeeRate),
		FeeAmount:      jsonDecimal(p.FeeAmount),
		NetAmount:      jsonDecimal(p.NetAmount),
		ApprovalCode:   p.ApprovalCode,
		ApprovedAt:     p.ApprovedAt.UTC().Format(TimeLayout),
		Status:         p.Status,
		CreatedAt:      p.CreatedAt.UTC().Format(TimeLayout),
	}
	if p.CardLast4 != "" {
		last4 := p.CardLast4
		out.CardLast4 = &last4
	}
	return out
}
