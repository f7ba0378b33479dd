//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/pggateway/internal/application/dto"
	"github.com/bibbank/pggateway/internal/application/usecase"
	"github.com/bibbank/pggateway/internal/domain/event"
	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
	"github.com/bibbank/pggateway/internal/domain/service"
	"github.com/bibbank/pggateway/internal/domain/valueobject"
	"github.com/bibbank/pggateway/internal/infrastructure/persistence/postgres"
	"github.com/bibbank/pggateway/internal/infrastructure/provider"
	"github.com/bibbank/pggateway/internal/infrastructure/provider/mockpg"
	"github.com/bibbank/pggateway/pkg/events"
	"github.com/bibbank/pggateway/pkg/money"
	pgpkg "github.com/bibbank/pggateway/pkg/postgres"
	"github.com/bibbank/pggateway/pkg/testutil"
)

const testTopic = "pg.payments.test"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) *testutil.PostgresContainer {
	t.Helper()
	ctx := context.Background()

	pg := testutil.NewPostgresContainer(ctx, t)
	pg.RunMigrations(t, postgres.Migrations, postgres.MigrationsDir)
	return pg
}

func newApprovedPayment(t *testing.T, partnerID int64, amount string) model.Payment {
	t.Helper()
	amt := testutil.D(amount)
	fee := money.KRW.Round(amt.Mul(testutil.D("0.0235")))

	p, err := model.NewPayment(model.NewPaymentParams{
		PartnerID:      partnerID,
		Amount:         amt,
		AppliedFeeRate: testutil.D("0.0235"),
		FeeAmount:      fee,
		NetAmount:      amt.Sub(fee),
		CardBin:        "111111",
		CardLast4:      "1111",
		ApprovalCode:   "03141234",
		ApprovedAt:     testutil.FixedNow,
		Status:         valueobject.PaymentStatusApproved,
	})
	require.NoError(t, err)
	return p
}

func int64Ptr(v int64) *int64 { return &v }

func TestSeededPartnersAndPolicies(t *testing.T) {
	pg := setupTestDB(t)
	ctx := context.Background()

	partners := postgres.NewPartnerRepo(pg.Pool)

	p, found, err := partners.FindByID(ctx, testutil.MockPartnerID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "MOCK1", p.Code)
	assert.True(t, p.Active)

	p, found, err = partners.FindByID(ctx, testutil.InactivePartnerID)
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, p.Active)

	_, found, err = partners.FindByID(ctx, 999)
	require.NoError(t, err)
	assert.False(t, found)

	policies := postgres.NewFeePolicyRepo(pg.Pool)

	policy, found, err := policies.FindEffective(ctx, testutil.TestPGPartnerID, testutil.FixedNow)
	require.NoError(t, err)
	require.True(t, found)
	testutil.AssertDecimalEqual(t, "0.03", policy.Percentage)
	require.NotNil(t, policy.FixedFee)
	testutil.AssertDecimalEqual(t, "100", *policy.FixedFee)

	policy, found, err = policies.FindEffective(ctx, testutil.TossPartnerID, testutil.FixedNow)
	require.NoError(t, err)
	require.True(t, found)
	assert.Nil(t, policy.FixedFee)

	_, found, err = policies.FindEffective(ctx, testutil.MockPartnerID, time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFeePolicyRepo_PicksLatestEffective(t *testing.T) {
	pg := setupTestDB(t)
	ctx := context.Background()

	_, err := pg.Pool.Exec(ctx, `
		INSERT INTO partner_fee_policy (partner_id, effective_from, percentage, fixed_fee)
		VALUES ($1, $2, 0.0100, 50), ($1, $3, 0.0500, NULL)
	`, testutil.MockPartnerID, testutil.FixedNow.Add(-time.Hour), testutil.FixedNow.Add(time.Hour))
	require.NoError(t, err)

	policy, found, err := postgres.NewFeePolicyRepo(pg.Pool).FindEffective(ctx, testutil.MockPartnerID, testutil.FixedNow)
	require.NoError(t, err)
	require.True(t, found)
	testutil.AssertDecimalEqual(t, "0.01", policy.Percentage)
	assert.True(t, policy.EffectiveFrom.Equal(testutil.FixedNow.Add(-time.Hour)))
}

func TestPaymentRepo_SaveAndFind(t *testing.T) {
	pg := setupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewPaymentRepo(pg.Pool, testTopic).WithClock(func() time.Time { return testutil.FixedNow })

	saved, err := repo.Save(ctx, newApprovedPayment(t, testutil.MockPartnerID, "10000"))
	require.NoError(t, err)
	require.Positive(t, saved.ID())
	assert.True(t, saved.CreatedAt().Equal(testutil.FixedNow))

	got, found, err := repo.FindByID(ctx, saved.ID())
	require.NoError(t, err)
	require.True(t, found)
	testutil.AssertDecimalEqual(t, "10000", got.Amount())
	testutil.AssertDecimalEqual(t, "235", got.FeeAmount())
	testutil.AssertDecimalEqual(t, "9765", got.NetAmount())
	assert.Equal(t, "111111", got.CardBin())
	assert.Equal(t, "1111", got.CardLast4())
	assert.Equal(t, valueobject.PaymentStatusApproved, got.Status())
	assert.True(t, got.ApprovedAt().Equal(testutil.FixedNow))
	assert.Empty(t, got.DomainEvents())

	_, err = repo.Save(ctx, got)
	assert.ErrorIs(t, err, model.ErrInvalidState)

	_, found, err = repo.FindByID(ctx, saved.ID()+1000)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPaymentRepo_SaveWritesOutbox(t *testing.T) {
	pg := setupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewPaymentRepo(pg.Pool, testTopic)

	saved, err := repo.Save(ctx, newApprovedPayment(t, testutil.MockPartnerID, "5000"))
	require.NoError(t, err)

	entries, err := postgres.NewOutboxRepo(pg.Pool).FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testTopic, entries[0].Topic)
	assert.Equal(t, "payment.approved", entries[0].EventType)
	assert.Equal(t, strconv.FormatInt(saved.ID(), 10), entries[0].AggregateID)

	var envelope events.Envelope
	require.NoError(t, json.Unmarshal(entries[0].Payload, &envelope))
	var data event.PaymentApprovedData
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, testutil.MockPartnerID, data.PartnerID)
	assert.True(t, data.NetAmount.Equal(saved.NetAmount()))

	require.NoError(t, postgres.NewOutboxRepo(pg.Pool).MarkPublished(ctx, []string{entries[0].ID}))
	entries, err = postgres.NewOutboxRepo(pg.Pool).FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPaymentRepo_KeysetPagination(t *testing.T) {
	pg := setupTestDB(t)
	ctx := context.Background()

	// Two payments share each timestamp so ties are broken by id.
	clock := testutil.FixedNow
	calls := 0
	repo := postgres.NewPaymentRepo(pg.Pool, testTopic).WithClock(func() time.Time {
		calls++
		return clock.Add(time.Duration((calls-1)/2) * time.Second)
	})

	var ids []int64
	for i := 0; i < 5; i++ {
		saved, err := repo.Save(ctx, newApprovedPayment(t, testutil.MockPartnerID, "1000"))
		require.NoError(t, err)
		ids = append(ids, saved.ID())
	}
	_, err := repo.Save(ctx, newApprovedPayment(t, testutil.TestPGPartnerID, "1000"))
	require.NoError(t, err)

	filter := port.PaymentFilter{PartnerID: int64Ptr(testutil.MockPartnerID)}

	first, err := repo.FindPage(ctx, filter, port.PageRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 3, "repository returns limit+1 rows")
	assert.Equal(t, ids[4], first[0].ID())
	assert.Equal(t, ids[3], first[1].ID())

	after := first[1].Cursor()
	second, err := repo.FindPage(ctx, filter, port.PageRequest{After: &after, Limit: 2})
	require.NoError(t, err)
	require.Len(t, second, 3)
	assert.Equal(t, ids[2], second[0].ID())
	assert.Equal(t, ids[1], second[1].ID())

	after = second[1].Cursor()
	third, err := repo.FindPage(ctx, filter, port.PageRequest{After: &after, Limit: 2})
	require.NoError(t, err)
	require.Len(t, third, 1)
	assert.Equal(t, ids[0], third[0].ID())

	summary, err := repo.Summary(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(5), summary.Count)
	testutil.AssertDecimalEqual(t, "5000", summary.TotalAmount)

	to := clock.Add(time.Second)
	windowed, err := repo.Summary(ctx, port.PaymentFilter{From: &clock, To: &to})
	require.NoError(t, err)
	assert.Equal(t, int64(4), windowed.Count, "both bounds are inclusive")

	rejected := valueobject.PaymentStatusRejected
	none, err := repo.Summary(ctx, port.PaymentFilter{Status: &rejected})
	require.NoError(t, err)
	assert.Equal(t, int64(0), none.Count)
	assert.True(t, none.TotalAmount.IsZero())
}

func TestCreatePayment_EndToEnd(t *testing.T) {
	pg := setupTestDB(t)
	ctx := context.Background()

	payments := postgres.NewPaymentRepo(pg.Pool, testTopic)
	router := service.NewProviderRouter(mockpg.NewClient(provider.ModuloMatcher{Divisor: 1, Remainder: 0}))
	create := usecase.NewCreatePayment(
		postgres.NewPartnerRepo(pg.Pool),
		postgres.NewFeePolicyRepo(pg.Pool),
		payments,
		router,
		money.KRW,
		discardLogger(),
	)

	resp, err := create.Execute(ctx, dto.CreatePaymentRequest{
		PartnerID:  testutil.TestPGPartnerID,
		Amount:     testutil.D("10000"),
		CardNumber: testutil.TestCardNumber,
		BirthDate:  testutil.TestBirthDate,
		Expiry:     testutil.TestExpiry,
		Password:   testutil.TestPassword,
	})
	require.NoError(t, err)
	testutil.AssertDecimalEqual(t, "400", resp.FeeAmount)
	testutil.AssertDecimalEqual(t, "9600", resp.NetAmount)
	assert.Equal(t, "APPROVED", resp.Status)

	_, err = create.Execute(ctx, dto.CreatePaymentRequest{
		PartnerID: testutil.InactivePartnerID,
		Amount:    testutil.D("1000"),
		CardLast4: "4242",
	})
	assert.ErrorIs(t, err, model.ErrInvalidState)

	page, err := usecase.NewQueryPayments(payments).Execute(ctx, dto.QueryPaymentsRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, resp.ID, page.Items[0].ID)
	assert.False(t, page.HasNext)
	assert.Equal(t, int64(1), page.Summary.Count)
}

func TestMigrations_DownAndUp(t *testing.T) {
	pg := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, pgpkg.RunMigrationsDown(pg.DSN, postgres.Migrations, postgres.MigrationsDir))

	var exists bool
	require.NoError(t, pg.Pool.QueryRow(ctx, `SELECT to_regclass('public.payment') IS NOT NULL`).Scan(&exists))
	assert.False(t, exists)

	pg.RunMigrations(t, postgres.Migrations, postgres.MigrationsDir)

	_, found, err := postgres.NewPartnerRepo(pg.Pool).FindByID(ctx, testutil.MockPartnerID)
	require.NoError(t, err)
	assert.True(t, found, "seed is reapplied")
}
