package toss_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
	"github.com/bibbank/pggateway/internal/domain/valueobject"
	"github.com/bibbank/pggateway/internal/infrastructure/provider"
	"github.com/bibbank/pggateway/internal/infrastructure/provider/toss"
)

const secretKey = "test_sk_abc"

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func newClient(t *testing.T, handler http.HandlerFunc) *toss.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return toss.NewClient(toss.Config{BaseURL: srv.URL, SecretKey: secretKey}, srv.Client(),
		provider.ModuloMatcher{Divisor: 3, Remainder: 0}).
		WithClock(func() time.Time { return fixedNow })
}

func validRequest() port.ApprovalRequest {
	return port.ApprovalRequest{
		PartnerID:   3,
		Amount:      decimal.NewFromInt(15000),
		CardNumber:  "4330-1234-5678-9012",
		BirthDate:   "19900101",
		Expiry:      "0828",
		Password:    "12",
		ProductName: "Coffee",
	}
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func TestClient_Approve_Success(t *testing.T) {
	var got map[string]any
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/key-in", r.URL.Path)
		wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte(secretKey+":"))
		assert.Equal(t, wantAuth, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		writeJSON(w, `{"paymentKey":"tgen_2025","orderId":"ORDER_1","orderName":"Coffee","status":"DONE",`+
			`"approvedAt":"2025-01-02T12:04:05+09:00","card":{"number":"43301234****901*"},"totalAmount":15000,"method":"카드"}`)
	})

	res, err := c.Approve(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "카드", got["method"])
	assert.EqualValues(t, 15000, got["amount"])
	assert.Equal(t, "Coffee", got["orderName"])
	assert.Equal(t, "4330123456789012", got["cardNumber"])
	assert.Equal(t, "28", got["cardExpirationYear"])
	assert.Equal(t, "08", got["cardExpirationMonth"])
	assert.Equal(t, "12", got["cardPassword"])
	assert.Equal(t, "900101", got["customerIdentityNumber"])
	orderID, _ := got["orderId"].(string)
	assert.True(t, strings.HasPrefix(orderID, "ORDER_1735787045000_"))
	assert.LessOrEqual(t, len(orderID), 64)

	assert.Equal(t, "tgen_2025", res.ApprovalCode)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), res.ApprovedAt)
	assert.Equal(t, "901*", res.MaskedCardLast4)
	assert.Equal(t, valueobject.PaymentStatusApproved, res.Status)
}

func TestClient_Approve_DefaultsWhenOptionalFieldsMissing(t *testing.T) {
	var got map[string]any
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, `{"paymentKey":"pk","orderId":"o","orderName":"결제","status":"DONE","approvedAt":null,"totalAmount":15000}`)
	})

	req := validRequest()
	req.ProductName = ""
	req.BirthDate = "1234567890"
	res, err := c.Approve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "결제", got["orderName"])
	assert.Equal(t, "1234567890", got["customerIdentityNumber"])
	assert.Equal(t, fixedNow, res.ApprovedAt)
	assert.Equal(t, "9012", res.MaskedCardLast4)
}

func TestClient_Approve_StatusMapping(t *testing.T) {
	tests := []struct {
		tossStatus string
		want       valueobject.PaymentStatus
	}{
		{"DONE", valueobject.PaymentStatusApproved},
		{"CANCELED", valueobject.PaymentStatusCanceled},
		{"PARTIAL_CANCELED", valueobject.PaymentStatusCanceled},
		{"ABORTED", valueobject.PaymentStatusCanceled},
		{"EXPIRED", valueobject.PaymentStatusCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.tossStatus, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, `{"paymentKey":"pk","status":"`+tt.tossStatus+`"}`)
			})
			res, err := c.Approve(context.Background(), validRequest())
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Status)
		})
	}
}

func TestClient_Approve_UnknownStatus(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"paymentKey":"pk","status":"WAITING_FOR_DEPOSIT"}`)
	})

	_, err := c.Approve(context.Background(), validRequest())
	assert.ErrorIs(t, err, model.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "WAITING_FOR_DEPOSIT")
}

func TestClient_Approve_HTTPErrors(t *testing.T) {
	tests := []struct {
		status  int
		wantErr error
	}{
		{http.StatusBadRequest, model.ErrProviderBadRequest},
		{http.StatusUnauthorized, model.ErrProviderAuth},
		{http.StatusForbidden, model.ErrProviderAuthz},
		{http.StatusUnprocessableEntity, model.ErrProviderRejected},
		{http.StatusServiceUnavailable, model.ErrProviderUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"code":"X","message":"nope"}`))
			})

			_, err := c.Approve(context.Background(), validRequest())
			assert.ErrorIs(t, err, tt.wantErr)

			var perr *model.ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.status, perr.StatusCode)
			assert.Contains(t, perr.Body, "nope")
		})
	}
}

func TestClient_Approve_Validation(t *testing.T) {
	c := newClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("provider must not be called")
	})

	req := validRequest()
	req.Password = ""
	_, err := c.Approve(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrValidation)

	req = validRequest()
	req.Expiry = "828"
	_, err = c.Approve(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrValidation)

	req = validRequest()
	req.Amount = decimal.RequireFromString("100.5")
	_, err = c.Approve(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrValidation)
}
