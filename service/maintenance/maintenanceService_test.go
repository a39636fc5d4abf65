package maintenancesvc

import (
	"context"
	"testing"
	"time"

	"bikerental/model"
	"bikerental/repository/events"
	mrepo "bikerental/repository/maintenance"
	"bikerental/util/database/dbtest"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	rows      map[int64]*model.Maintenance
	completed []int64
	deleted   []int64
}

var _ mrepo.Repo = (*mockRepo)(nil)

func newRepo(ms ...*model.Maintenance) *mockRepo {
	r := &mockRepo{rows: map[int64]*model.Maintenance{}}
	for _, m := range ms {
		r.rows[m.ID] = m
	}
	return r
}

func (r *mockRepo) Insert(ctx context.Context, tx pgx.Tx, m *model.Maintenance) error {
	m.ID = int64(len(r.rows) + 1)
	r.rows[m.ID] = m
	return nil
}

func (r *mockRepo) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Maintenance, error) {
	m, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *m
	return &cp, nil
}

func (r *mockRepo) SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.MaintenanceStatus) error {
	r.rows[id].Status = status
	return nil
}

func (r *mockRepo) Complete(ctx context.Context, tx pgx.Tx, id int64) error {
	r.rows[id].Status = model.MaintenanceCompleted
	r.completed = append(r.completed, id)
	return nil
}

func (r *mockRepo) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	delete(r.rows, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *mockRepo) CountOpen(ctx context.Context, tx pgx.Tx, bikeID int64) (int64, error) {
	var n int64
	for _, m := range r.rows {
		if m.BikeID == bikeID && m.Status != model.MaintenanceCompleted {
			n++
		}
	}
	return n, nil
}

func (r *mockRepo) List(ctx context.Context, open bool) ([]model.Maintenance, error) {
	out := []model.Maintenance{}
	for _, m := range r.rows {
		if open && m.Status == model.MaintenanceCompleted {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

type mockBikes struct {
	status  map[int64]model.BikeStatus
	active  int64
	damages int64
}

func (b *mockBikes) LockBike(ctx context.Context, tx pgx.Tx, id int64) (*model.Bike, error) {
	st, ok := b.status[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &model.Bike{ID: id, Status: st}, nil
}

func (b *mockBikes) SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.BikeStatus) error {
	b.status[id] = status
	return nil
}

func (b *mockBikes) CountActiveReservations(ctx context.Context, tx pgx.Tx, bikeID int64) (int64, error) {
	return b.active, nil
}

func (b *mockBikes) CountOpenDamages(ctx context.Context, tx pgx.Tx, bikeID int64) (int64, error) {
	return b.damages, nil
}

type recorder struct{ got []events.Event }

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.got = append(r.got, ev)
	return nil
}

func setup(repo *mockRepo, bikes *mockBikes) (Service, *dbtest.DB, *recorder) {
	db := &dbtest.DB{}
	pub := &recorder{}
	return New(Deps{DB: db, Repo: repo, Bikes: bikes, Pub: pub}), db, pub
}

func input() ScheduleInput {
	start := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	return ScheduleInput{BikeID: 1, StartDate: start, EndDate: start.Add(48 * time.Hour), Type: model.MaintenanceRoutine, Description: " brakes "}
}

func TestSchedule(t *testing.T) {
	repo := newRepo()
	bikes := &mockBikes{status: map[int64]model.BikeStatus{1: model.BikeAvailable}}
	svc, db, pub := setup(repo, bikes)

	m, err := svc.Schedule(context.Background(), input())
	require.NoError(t, err)
	require.Equal(t, model.MaintenanceScheduled, m.Status)
	require.Equal(t, "brakes", m.Description)
	require.Equal(t, model.BikeMaintenance, bikes.status[1])
	require.True(t, db.Last.Committed)
	require.Equal(t, events.MaintenanceScheduled, pub.got[0].Type)
}

func TestSchedule_SameDayAllowed(t *testing.T) {
	bikes := &mockBikes{status: map[int64]model.BikeStatus{1: model.BikeAvailable}}
	svc, _, _ := setup(newRepo(), bikes)

	in := input()
	in.EndDate = in.StartDate
	_, err := svc.Schedule(context.Background(), in)
	require.NoError(t, err)
}

func TestSchedule_Validation(t *testing.T) {
	svc, db, _ := setup(newRepo(), &mockBikes{status: map[int64]model.BikeStatus{}})

	bad := input()
	bad.EndDate = bad.StartDate.Add(-time.Hour)
	_, err := svc.Schedule(context.Background(), bad)
	require.Equal(t, ErrBadInput, Code(err))

	bad = input()
	bad.Type = "paint"
	_, err = svc.Schedule(context.Background(), bad)
	require.Equal(t, ErrBadInput, Code(err))
	require.Nil(t, db.Last)

	_, err = svc.Schedule(context.Background(), input())
	require.Equal(t, ErrBikeNotFound, Code(err))
}

func TestSchedule_BikeBusy(t *testing.T) {
	bikes := &mockBikes{status: map[int64]model.BikeStatus{1: model.BikeReserved}, active: 1}
	repo := newRepo()
	svc, db, _ := setup(repo, bikes)

	_, err := svc.Schedule(context.Background(), input())
	require.Equal(t, ErrBikeBusy, Code(err))
	require.Empty(t, repo.rows)
	require.Equal(t, model.BikeReserved, bikes.status[1])
	require.True(t, db.Last.RolledBack)
}

func TestStart(t *testing.T) {
	repo := newRepo(&model.Maintenance{ID: 3, BikeID: 1, Status: model.MaintenanceScheduled})
	svc, _, _ := setup(repo, &mockBikes{status: map[int64]model.BikeStatus{1: model.BikeMaintenance}})

	require.NoError(t, svc.Start(context.Background(), 3))
	require.Equal(t, model.MaintenanceInProgress, repo.rows[3].Status)
	require.Equal(t, ErrInvalidState, Code(svc.Start(context.Background(), 3)))
	require.Equal(t, ErrNotFound, Code(svc.Start(context.Background(), 4)))
}

func TestComplete(t *testing.T) {
	repo := newRepo(&model.Maintenance{ID: 3, BikeID: 1, Status: model.MaintenanceInProgress})
	bikes := &mockBikes{status: map[int64]model.BikeStatus{1: model.BikeMaintenance}}
	svc, _, pub := setup(repo, bikes)

	require.NoError(t, svc.Complete(context.Background(), 3))
	require.Equal(t, []int64{3}, repo.completed)
	require.Equal(t, model.BikeAvailable, bikes.status[1])
	require.Equal(t, events.MaintenanceCompleted, pub.got[0].Type)

	require.Equal(t, ErrInvalidState, Code(svc.Complete(context.Background(), 3)))
}

func TestComplete_ActiveReservationKeepsBikeReserved(t *testing.T) {
	repo := newRepo(&model.Maintenance{ID: 3, BikeID: 1, Status: model.MaintenanceInProgress})
	bikes := &mockBikes{status: map[int64]model.BikeStatus{1: model.BikeMaintenance}, active: 1}
	svc, db, _ := setup(repo, bikes)

	require.NoError(t, svc.Complete(context.Background(), 3))
	require.Equal(t, model.BikeReserved, bikes.status[1])
	require.True(t, db.Last.Committed)
}

func TestComplete_OpenDamageKeepsMaintenance(t *testing.T) {
	repo := newRepo(&model.Maintenance{ID: 3, BikeID: 1, Status: model.MaintenanceInProgress})
	bikes := &mockBikes{status: map[int64]model.BikeStatus{1: model.BikeMaintenance}, damages: 1}
	svc, _, _ := setup(repo, bikes)

	require.NoError(t, svc.Complete(context.Background(), 3))
	require.Equal(t, model.BikeMaintenance, bikes.status[1])
}

func TestComplete_OtherOpenWorkKeepsMaintenance(t *testing.T) {
	repo := newRepo(
		&model.Maintenance{ID: 3, BikeID: 1, Status: model.MaintenanceInProgress},
		&model.Maintenance{ID: 5, BikeID: 1, Status: model.MaintenanceScheduled},
	)
	bikes := &mockBikes{status: map[int64]model.BikeStatus{1: model.BikeMaintenance}}
	svc, _, _ := setup(repo, bikes)

	require.NoError(t, svc.Complete(context.Background(), 3))
	require.Equal(t, model.BikeMaintenance, bikes.status[1])

	require.NoError(t, svc.Complete(context.Background(), 5))
	require.Equal(t, model.BikeAvailable, bikes.status[1])
}

func TestDelete_ActiveReservationKeepsBikeReserved(t *testing.T) {
	repo := newRepo(&model.Maintenance{ID: 4, BikeID: 1, Status: model.MaintenanceScheduled})
	bikes := &mockBikes{status: map[int64]model.BikeStatus{1: model.BikeMaintenance}, active: 1}
	svc, _, _ := setup(repo, bikes)

	require.NoError(t, svc.Delete(context.Background(), 4))
	require.Equal(t, []int64{4}, repo.deleted)
	require.Equal(t, model.BikeReserved, bikes.status[1])
}

func TestDelete_OpenDamageKeepsMaintenance(t *testing.T) {
	repo := newRepo(&model.Maintenance{ID: 4, BikeID: 1, Status: model.MaintenanceScheduled})
	bikes := &mockBikes{status: map[int64]model.BikeStatus{1: model.BikeMaintenance}, damages: 2}
	svc, _, _ := setup(repo, bikes)

	require.NoError(t, svc.Delete(context.Background(), 4))
	require.Equal(t, model.BikeMaintenance, bikes.status[1])
}

func TestDelete_OpenReleasesBike(t *testing.T) {
	repo := newRepo(&model.Maintenance{ID: 3, BikeID: 1, Status: model.MaintenanceScheduled})
	bikes := &mockBikes{status: map[int64]model.BikeStatus{1: model.BikeMaintenance}}
	svc, _, _ := setup(repo, bikes)

	require.NoError(t, svc.Delete(context.Background(), 3))
	require.Equal(t, []int64{3}, repo.deleted)
	require.Equal(t, model.BikeAvailable, bikes.status[1])
}

func TestDelete_CompletedLeavesBike(t *testing.T) {
	repo := newRepo(&model.Maintenance{ID: 3, BikeID: 1, Status: model.MaintenanceCompleted})
	bikes := &mockBikes{status: map[int64]model.BikeStatus{1: model.BikeReserved}}
	svc, _, _ := setup(repo, bikes)

	require.NoError(t, svc.Delete(context.Background(), 3))
	require.Equal(t, model.BikeReserved, bikes.status[1])
}

func TestList(t *testing.T) {
	repo := newRepo(
		&model.Maintenance{ID: 1, Status: model.MaintenanceCompleted},
		&model.Maintenance{ID: 2, Status: model.MaintenanceScheduled},
	)
	svc, _, _ := setup(repo, &mockBikes{})

	open, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, open, 1)

	all, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
