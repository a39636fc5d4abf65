package reservationsvc

import (
	"context"
	"log/slog"
	"time"

	"bikerental/model"
	"bikerental/repository/events"
	resrepo "bikerental/repository/reservation"
	"bikerental/util/database"
	"bikerental/util/metrics"
)

// Cleaner cancels reservations that stayed unpaid past their TTL.
type Cleaner interface {
	ReleaseExpired(ctx context.Context) (int64, error)
	Run(ctx context.Context, every time.Duration)
}

const cleanupBatch = 100

type cleaner struct {
	db    database.TxBeginner
	r     resrepo.Repo
	bikes Bikes
	ttl   time.Duration
	pub   events.Publisher
	m     *metrics.Metrics
	log   *slog.Logger
	now   func() time.Time
}

func NewCleaner(d Deps, ttl time.Duration) Cleaner {
	s := New(d).(*service)
	return &cleaner{
		db:    s.DB,
		r:     s.Repo,
		bikes: s.Bikes,
		ttl:   ttl,
		pub:   s.Pub,
		m:     s.Metrics,
		log:   s.Log,
		now:   time.Now,
	}
}

func (c *cleaner) ReleaseExpired(ctx context.Context) (n int64, err error) {
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	expired, err := c.r.ListExpiredPending(ctx, tx, c.now().UTC().Add(-c.ttl), cleanupBatch)
	if err != nil {
		return 0, err
	}
	for _, res := range expired {
		if err = c.r.SetStatus(ctx, tx, res.ID, model.ReservationCancelled); err != nil {
			return 0, err
		}
		if err = releaseBike(ctx, tx, c.bikes, res.BikeID); err != nil {
			return 0, err
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}

	for _, res := range expired {
		c.m.Reservation(string(model.ReservationCancelled))
		ev := events.Event{
			Type:          events.ReservationCancelled,
			BikeID:        res.BikeID,
			ReservationID: res.ID,
			UserID:        res.UserID,
			Status:        string(model.ReservationCancelled),
			Message:       "payment window expired",
		}
		if perr := c.pub.Publish(ctx, ev); perr != nil {
			c.log.Warn("event publish failed", "type", ev.Type, "err", perr)
		}
	}
	return int64(len(expired)), nil
}

// Run sweeps on every tick until ctx is cancelled.
func (c *cleaner) Run(ctx context.Context, every time.Duration) {
	if every <= 0 || c.ttl <= 0 {
		c.log.Info("reservation cleaner disabled")
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := c.ReleaseExpired(ctx)
			if err != nil {
				c.log.Error("release expired reservations", "err", err)
				continue
			}
			if n > 0 {
				c.log.Info("released expired reservations", "count", n)
			}
		}
	}
}
