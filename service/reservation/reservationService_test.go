package reservationsvc

import (
	"context"
	"testing"
	"time"

	"bikerental/model"
	"bikerental/repository/events"
	resrepo "bikerental/repository/reservation"
	"bikerental/util/database/dbtest"
	"bikerental/util/lock"
	"bikerental/util/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockRepo struct {
	rows     map[int64]*model.Reservation
	views    map[int64]*model.ReservationView
	inserted []*model.Reservation
	expired  []model.Reservation
	cutoff   time.Time
}

var _ resrepo.Repo = (*mockRepo)(nil)

func newRepo(rows ...*model.Reservation) *mockRepo {
	m := &mockRepo{rows: map[int64]*model.Reservation{}, views: map[int64]*model.ReservationView{}}
	for _, r := range rows {
		m.rows[r.ID] = r
		m.views[r.ID] = &model.ReservationView{Reservation: *r}
	}
	return m
}

func (m *mockRepo) Insert(ctx context.Context, tx pgx.Tx, r *model.Reservation) error {
	r.ID = int64(100 + len(m.inserted))
	m.inserted = append(m.inserted, r)
	return nil
}

func (m *mockRepo) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Reservation, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.ReservationStatus) error {
	m.rows[id].Status = status
	return nil
}

func (m *mockRepo) ListExpiredPending(ctx context.Context, tx pgx.Tx, before time.Time, limit int) ([]model.Reservation, error) {
	m.cutoff = before
	for _, r := range m.expired {
		cp := r
		m.rows[r.ID] = &cp
	}
	return m.expired, nil
}

func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.ReservationView, error) {
	v, ok := m.views[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return v, nil
}

func (m *mockRepo) ListByUser(ctx context.Context, userID int64) ([]model.ReservationView, error) {
	out := []model.ReservationView{}
	for _, v := range m.views {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *mockRepo) List(ctx context.Context, f model.ReservationFilter) ([]model.ReservationView, error) {
	return []model.ReservationView{}, nil
}

type mockBikes struct {
	bikes  map[int64]*model.Bike
	active int64
}

func newBikes(bs ...*model.Bike) *mockBikes {
	m := &mockBikes{bikes: map[int64]*model.Bike{}}
	for _, b := range bs {
		m.bikes[b.ID] = b
	}
	return m
}

func (m *mockBikes) LockBike(ctx context.Context, tx pgx.Tx, id int64) (*model.Bike, error) {
	b, ok := m.bikes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (m *mockBikes) SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.BikeStatus) error {
	m.bikes[id].Status = status
	return nil
}

func (m *mockBikes) CountActiveReservations(ctx context.Context, tx pgx.Tx, bikeID int64) (int64, error) {
	return m.active, nil
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return nil, lock.ErrNotAcquired
}

type recorder struct{ got []events.Event }

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.got = append(r.got, ev)
	return nil
}

type fixture struct {
	db    *dbtest.DB
	repo  *mockRepo
	bikes *mockBikes
	pub   *recorder
	m     *metrics.Metrics
	svc   Service
}

func newFixture(repo *mockRepo, bikes *mockBikes) *fixture {
	f := &fixture{
		db:    &dbtest.DB{},
		repo:  repo,
		bikes: bikes,
		pub:   &recorder{},
		m:     metrics.New(prometheus.NewRegistry()),
	}
	f.svc = New(f.deps())
	return f
}

func (f *fixture) deps() Deps {
	return Deps{DB: f.db, Repo: f.repo, Bikes: f.bikes, Pub: f.pub, Metrics: f.m}
}

func window(hours float64) (time.Time, time.Time) {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return start, start.Add(time.Duration(hours * float64(time.Hour)))
}

// --- booking ---

func TestBook_Success(t *testing.T) {
	f := newFixture(newRepo(), newBikes(&model.Bike{ID: 1, HourlyRate: 50, Status: model.BikeAvailable}))
	start, end := window(3)

	res, err := f.svc.Book(context.Background(), 7, BookInput{
		BikeID: 1, StartTime: start, EndTime: end, PickupLocation: "Station A", DropoffLocation: "Station B",
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), res.TotalHours)
	require.Equal(t, 150.0, res.TotalAmount)
	require.Equal(t, model.ReservationPending, res.Status)
	require.Equal(t, int64(7), res.UserID)
	require.Equal(t, model.BikeReserved, f.bikes.bikes[1].Status)
	require.True(t, f.db.Last.Committed)

	require.Len(t, f.pub.got, 1)
	require.Equal(t, events.ReservationCreated, f.pub.got[0].Type)
	require.Equal(t, 1.0, testutil.ToFloat64(f.m.Reservations.WithLabelValues("pending")))
}

func TestBook_RoundsPartialHoursUp(t *testing.T) {
	f := newFixture(newRepo(), newBikes(&model.Bike{ID: 1, HourlyRate: 12.5, Status: model.BikeAvailable}))
	start, end := window(2.25)

	res, err := f.svc.Book(context.Background(), 7, BookInput{
		BikeID: 1, StartTime: start, EndTime: end, PickupLocation: "a", DropoffLocation: "b",
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), res.TotalHours)
	require.Equal(t, 37.5, res.TotalAmount)
}

func TestBook_Validation(t *testing.T) {
	f := newFixture(newRepo(), newBikes())
	start, end := window(2)

	cases := map[string]BookInput{
		"missing bike":    {StartTime: start, EndTime: end, PickupLocation: "a", DropoffLocation: "b"},
		"end before":      {BikeID: 1, StartTime: end, EndTime: start, PickupLocation: "a", DropoffLocation: "b"},
		"zero window":     {BikeID: 1, StartTime: start, EndTime: start, PickupLocation: "a", DropoffLocation: "b"},
		"missing pickup":  {BikeID: 1, StartTime: start, EndTime: end, PickupLocation: " ", DropoffLocation: "b"},
		"missing dropoff": {BikeID: 1, StartTime: start, EndTime: end, PickupLocation: "a"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Book(context.Background(), 7, in)
			require.Equal(t, ErrBadInput, Code(err))
		})
	}
	require.Nil(t, f.db.Last)
}

func TestBook_AmountOverColumnRange(t *testing.T) {
	f := newFixture(newRepo(), newBikes(&model.Bike{ID: 1, HourlyRate: 500, Status: model.BikeAvailable}))
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	_, err := f.svc.Book(context.Background(), 7, BookInput{
		BikeID: 1, StartTime: start, EndTime: start.AddDate(50, 0, 0), PickupLocation: "a", DropoffLocation: "b",
	})
	require.Equal(t, ErrBadInput, Code(err))
	require.True(t, f.db.Last.RolledBack)
	require.Empty(t, f.repo.inserted)
	require.Equal(t, model.BikeAvailable, f.bikes.bikes[1].Status)
}

func TestBook_BikeNotAvailable(t *testing.T) {
	f := newFixture(newRepo(), newBikes(&model.Bike{ID: 1, HourlyRate: 50, Status: model.BikeReserved}))
	start, end := window(1)

	_, err := f.svc.Book(context.Background(), 7, BookInput{
		BikeID: 1, StartTime: start, EndTime: end, PickupLocation: "a", DropoffLocation: "b",
	})
	require.Equal(t, ErrBikeUnavailable, Code(err))
	require.True(t, f.db.Last.RolledBack)
	require.Empty(t, f.repo.inserted)
	require.Equal(t, 1.0, testutil.ToFloat64(f.m.BookingConflict))
}

func TestBook_ActiveReservationBlocks(t *testing.T) {
	bikes := newBikes(&model.Bike{ID: 1, HourlyRate: 50, Status: model.BikeAvailable})
	bikes.active = 1
	f := newFixture(newRepo(), bikes)
	start, end := window(1)

	_, err := f.svc.Book(context.Background(), 7, BookInput{
		BikeID: 1, StartTime: start, EndTime: end, PickupLocation: "a", DropoffLocation: "b",
	})
	require.Equal(t, ErrBikeUnavailable, Code(err))
	require.Equal(t, model.BikeAvailable, bikes.bikes[1].Status)
}

func TestBook_BikeNotFound(t *testing.T) {
	f := newFixture(newRepo(), newBikes())
	start, end := window(1)

	_, err := f.svc.Book(context.Background(), 7, BookInput{
		BikeID: 9, StartTime: start, EndTime: end, PickupLocation: "a", DropoffLocation: "b",
	})
	require.Equal(t, ErrBikeNotFound, Code(err))
}

func TestBook_LockHeld(t *testing.T) {
	f := newFixture(newRepo(), newBikes(&model.Bike{ID: 1, HourlyRate: 50, Status: model.BikeAvailable}))
	d := f.deps()
	d.Locker = busyLocker{}
	svc := New(d)
	start, end := window(1)

	_, err := svc.Book(context.Background(), 7, BookInput{
		BikeID: 1, StartTime: start, EndTime: end, PickupLocation: "a", DropoffLocation: "b",
	})
	require.Equal(t, ErrBikeUnavailable, Code(err))
	require.Nil(t, f.db.Last)
}

// --- reads ---

func TestGet_Ownership(t *testing.T) {
	f := newFixture(newRepo(&model.Reservation{ID: 5, UserID: 7}), newBikes())

	v, err := f.svc.Get(context.Background(), 7, false, 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), v.ID)

	_, err = f.svc.Get(context.Background(), 8, false, 5)
	require.Equal(t, ErrNotOwner, Code(err))

	_, err = f.svc.Get(context.Background(), 8, true, 5)
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), 7, false, 6)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestAdminList_Validation(t *testing.T) {
	f := newFixture(newRepo(), newBikes())
	_, err := f.svc.AdminList(context.Background(), model.ReservationFilter{Status: "lost"})
	require.Equal(t, ErrBadInput, Code(err))

	from, to := window(1)
	_, err = f.svc.AdminList(context.Background(), model.ReservationFilter{From: &to, To: &from})
	require.Equal(t, ErrBadInput, Code(err))

	require.NoError(t, ValidateFilter(model.ReservationFilter{From: &from, To: &to}))
	require.Equal(t, ErrBadInput, Code(ValidateFilter(model.ReservationFilter{Status: "bogus"})))

	out, err := f.svc.AdminList(context.Background(), model.ReservationFilter{Status: model.ReservationPending})
	require.NoError(t, err)
	require.NotNil(t, out)
}

// --- transitions ---

func TestCancel_ReleasesReservedBike(t *testing.T) {
	f := newFixture(
		newRepo(&model.Reservation{ID: 5, UserID: 7, BikeID: 1, Status: model.ReservationConfirmed}),
		newBikes(&model.Bike{ID: 1, Status: model.BikeReserved}),
	)

	require.NoError(t, f.svc.Cancel(context.Background(), 7, 5))
	require.Equal(t, model.ReservationCancelled, f.repo.rows[5].Status)
	require.Equal(t, model.BikeAvailable, f.bikes.bikes[1].Status)
	require.True(t, f.db.Last.Committed)
	require.Equal(t, events.ReservationCancelled, f.pub.got[0].Type)
}

func TestCancel_KeepsBikeInMaintenance(t *testing.T) {
	f := newFixture(
		newRepo(&model.Reservation{ID: 5, UserID: 7, BikeID: 1, Status: model.ReservationPending}),
		newBikes(&model.Bike{ID: 1, Status: model.BikeMaintenance}),
	)

	require.NoError(t, f.svc.Cancel(context.Background(), 7, 5))
	require.Equal(t, model.BikeMaintenance, f.bikes.bikes[1].Status)
}

func TestCancel_NotOwner(t *testing.T) {
	f := newFixture(
		newRepo(&model.Reservation{ID: 5, UserID: 7, BikeID: 1, Status: model.ReservationPending}),
		newBikes(&model.Bike{ID: 1, Status: model.BikeReserved}),
	)

	require.Equal(t, ErrNotOwner, Code(f.svc.Cancel(context.Background(), 8, 5)))
	require.Equal(t, model.ReservationPending, f.repo.rows[5].Status)
	require.True(t, f.db.Last.RolledBack)
}

func TestCancel_Completed(t *testing.T) {
	f := newFixture(
		newRepo(&model.Reservation{ID: 5, UserID: 7, BikeID: 1, Status: model.ReservationCompleted}),
		newBikes(&model.Bike{ID: 1, Status: model.BikeAvailable}),
	)
	require.Equal(t, ErrInvalidState, Code(f.svc.Cancel(context.Background(), 7, 5)))
}

func TestAdminCancel_AnyOwner(t *testing.T) {
	f := newFixture(
		newRepo(&model.Reservation{ID: 5, UserID: 7, BikeID: 1, Status: model.ReservationPending}),
		newBikes(&model.Bike{ID: 1, Status: model.BikeReserved}),
	)
	require.NoError(t, f.svc.AdminCancel(context.Background(), 5))
	require.Equal(t, model.ReservationCancelled, f.repo.rows[5].Status)
}

func TestConfirm(t *testing.T) {
	f := newFixture(
		newRepo(&model.Reservation{ID: 5, UserID: 7, BikeID: 1, Status: model.ReservationPending}),
		newBikes(&model.Bike{ID: 1, Status: model.BikeReserved}),
	)

	require.NoError(t, f.svc.Confirm(context.Background(), 5))
	require.Equal(t, model.ReservationConfirmed, f.repo.rows[5].Status)
	require.Equal(t, model.BikeReserved, f.bikes.bikes[1].Status)

	require.Equal(t, ErrInvalidState, Code(f.svc.Confirm(context.Background(), 5)))
}

func TestComplete(t *testing.T) {
	f := newFixture(
		newRepo(&model.Reservation{ID: 5, UserID: 7, BikeID: 1, Status: model.ReservationPending}),
		newBikes(&model.Bike{ID: 1, Status: model.BikeReserved}),
	)

	require.Equal(t, ErrInvalidState, Code(f.svc.Complete(context.Background(), 5)))

	f.repo.rows[5].Status = model.ReservationConfirmed
	require.NoError(t, f.svc.Complete(context.Background(), 5))
	require.Equal(t, model.ReservationCompleted, f.repo.rows[5].Status)
	require.Equal(t, model.BikeAvailable, f.bikes.bikes[1].Status)
	require.Equal(t, 1.0, testutil.ToFloat64(f.m.Reservations.WithLabelValues("completed")))
}

func TestComplete_NotFound(t *testing.T) {
	f := newFixture(newRepo(), newBikes())
	require.Equal(t, ErrNotFound, Code(f.svc.Complete(context.Background(), 5)))
}

// --- cleaner ---

func TestCleaner_ReleaseExpired(t *testing.T) {
	repo := newRepo()
	repo.expired = []model.Reservation{
		{ID: 1, UserID: 7, BikeID: 10, Status: model.ReservationPending},
		{ID: 2, UserID: 8, BikeID: 11, Status: model.ReservationPending},
	}
	f := newFixture(repo, newBikes(
		&model.Bike{ID: 10, Status: model.BikeReserved},
		&model.Bike{ID: 11, Status: model.BikeMaintenance},
	))

	c := NewCleaner(f.deps(), 30*time.Minute)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c.(*cleaner).now = func() time.Time { return now }

	n, err := c.ReleaseExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	require.Equal(t, now.Add(-30*time.Minute), repo.cutoff)
	require.Equal(t, model.ReservationCancelled, repo.rows[1].Status)
	require.Equal(t, model.ReservationCancelled, repo.rows[2].Status)
	require.Equal(t, model.BikeAvailable, f.bikes.bikes[10].Status)
	require.Equal(t, model.BikeMaintenance, f.bikes.bikes[11].Status)
	require.True(t, f.db.Last.Committed)
	require.Len(t, f.pub.got, 2)
}

func TestCleaner_RunStopsOnCancel(t *testing.T) {
	f := newFixture(newRepo(), newBikes())
	c := NewCleaner(f.deps(), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, 5*time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleaner did not stop")
	}
}
