package paymentsvc

import (
	"context"
	"errors"
	"testing"

	"bikerental/model"
	gatewayrepo "bikerental/repository/gateway"
	"bikerental/util/database/dbtest"
	"bikerental/util/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type mockReservations struct {
	view      *model.ReservationView
	lockedAs  model.ReservationStatus
	setStatus []model.ReservationStatus
}

func (m *mockReservations) ByID(ctx context.Context, id int64) (*model.ReservationView, error) {
	if m.view == nil {
		return nil, pgx.ErrNoRows
	}
	return m.view, nil
}

func (m *mockReservations) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Reservation, error) {
	r := m.view.Reservation
	if m.lockedAs != "" {
		r.Status = m.lockedAs
	}
	return &r, nil
}

func (m *mockReservations) SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.ReservationStatus) error {
	m.setStatus = append(m.setStatus, status)
	return nil
}

type mockPayments struct{ inserted []*model.Payment }

func (m *mockPayments) Insert(ctx context.Context, tx pgx.Tx, p *model.Payment) error {
	p.ID = 1
	m.inserted = append(m.inserted, p)
	return nil
}

func (m *mockPayments) ByReservation(ctx context.Context, id int64) (*model.Payment, error) {
	return nil, pgx.ErrNoRows
}

type mockGateway struct {
	calls []gatewayrepo.ChargeReq
	err   error
}

func (m *mockGateway) Charge(ctx context.Context, req gatewayrepo.ChargeReq) (*gatewayrepo.ChargeResp, error) {
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}
	return &gatewayrepo.ChargeResp{Reference: "ch_123", Status: "SUCCEEDED"}, nil
}

func pendingView() *model.ReservationView {
	return &model.ReservationView{
		Reservation: model.Reservation{ID: 5, UserID: 7, BikeID: 2, TotalHours: 3, TotalAmount: 150, Status: model.ReservationPending},
		BikeName:    "Roadster",
		UserEmail:   "rider@example.com",
	}
}

type fixture struct {
	db  *dbtest.DB
	res *mockReservations
	pay *mockPayments
	gw  *mockGateway
	m   *metrics.Metrics
	svc Service
}

func newFixture(view *model.ReservationView) *fixture {
	f := &fixture{
		db:  &dbtest.DB{},
		res: &mockReservations{view: view},
		pay: &mockPayments{},
		gw:  &mockGateway{},
		m:   metrics.New(prometheus.NewRegistry()),
	}
	f.svc = New(Deps{DB: f.db, Reservations: f.res, Payments: f.pay, Gateway: f.gw, Metrics: f.m})
	return f
}

func TestPay_CashSkipsGateway(t *testing.T) {
	f := newFixture(pendingView())

	p, err := f.svc.Pay(context.Background(), 7, 5, model.PayCOD)
	require.NoError(t, err)
	require.Equal(t, 150.0, p.Amount)
	require.Equal(t, model.PaymentCompleted, p.Status)
	require.Empty(t, p.ProviderRef)
	require.Empty(t, f.gw.calls)
	require.Equal(t, []model.ReservationStatus{model.ReservationConfirmed}, f.res.setStatus)
	require.True(t, f.db.Last.Committed)
	require.Equal(t, 1.0, testutil.ToFloat64(f.m.Payments.WithLabelValues("cod")))
	require.Equal(t, 150.0, testutil.ToFloat64(f.m.PaymentAmount))
}

func TestPay_CardCharges(t *testing.T) {
	f := newFixture(pendingView())

	p, err := f.svc.Pay(context.Background(), 7, 5, model.PayCard)
	require.NoError(t, err)
	require.Equal(t, "ch_123", p.ProviderRef)
	require.Len(t, f.gw.calls, 1)
	require.Equal(t, "reservation:5", f.gw.calls[0].ExternalID)
	require.Equal(t, 150.0, f.gw.calls[0].Amount)
	require.Equal(t, "rider@example.com", f.gw.calls[0].PayerEmail)
	require.Len(t, f.pay.inserted, 1)
}

func TestPay_ChargeDeclined(t *testing.T) {
	f := newFixture(pendingView())
	f.gw.err = errors.New("card declined")

	_, err := f.svc.Pay(context.Background(), 7, 5, model.PayUPI)
	require.Equal(t, ErrChargeFailed, Code(err))
	require.ErrorContains(t, err, "card declined")
	require.Nil(t, f.db.Last)
	require.Empty(t, f.pay.inserted)
}

func TestPay_Rejections(t *testing.T) {
	notMine := pendingView()
	notMine.UserID = 99

	confirmed := pendingView()
	confirmed.Status = model.ReservationConfirmed

	paid := pendingView()
	st := "completed"
	paid.PaymentStatus = &st

	cases := []struct {
		name   string
		view   *model.ReservationView
		method model.PaymentMethod
		want   ErrCode
	}{
		{"bad method", pendingView(), "bitcoin", ErrBadMethod},
		{"missing", nil, model.PayCOD, ErrNotFound},
		{"not owner", notMine, model.PayCOD, ErrNotOwner},
		{"not pending", confirmed, model.PayCOD, ErrNotPending},
		{"already paid", paid, model.PayCard, ErrAlreadyPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(tc.view)
			_, err := f.svc.Pay(context.Background(), 7, 5, tc.method)
			require.Equal(t, tc.want, Code(err))
			require.Empty(t, f.gw.calls)
			require.Nil(t, f.db.Last)
		})
	}
}

func TestPay_CancelledWhileCharging(t *testing.T) {
	f := newFixture(pendingView())
	f.res.lockedAs = model.ReservationCancelled

	_, err := f.svc.Pay(context.Background(), 7, 5, model.PayCard)
	require.Equal(t, ErrNotPending, Code(err))
	require.True(t, f.db.Last.RolledBack)
	require.Empty(t, f.pay.inserted)
}
