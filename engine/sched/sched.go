// Package sched provisions and dispatches recurring query schedules over
// NATS. Creating a schedule publishes an event; the worker subscribes and
// runs the first search immediately, then a periodic sweep picks up
// queries whose interval has elapsed.
package sched

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/DriveScout/drivescout/engine/domain"
	"github.com/DriveScout/drivescout/pkg/natsutil"
)

// SubjectScheduleCreated carries ScheduleCreated events.
const SubjectScheduleCreated = "drivescout.schedule.created"

// ScheduleCreated announces a newly stored recurring query.
type ScheduleCreated struct {
	QueryID   string    `json:"query_id"`
	Frequency string    `json:"frequency"`
	EndDate   *string   `json:"end_date,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Scheduler publishes schedule events.
type Scheduler struct {
	nc  *nats.Conn
	log *slog.Logger
}

func New(nc *nats.Conn, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{nc: nc, log: log}
}

// CreateSchedule validates the schedule and announces it. The frequency
// must already be a rate expression.
func (s *Scheduler) CreateSchedule(ctx context.Context, queryID string, sch domain.Schedule) error {
	if sch.Frequency == nil {
		return fmt.Errorf("schedule for %s has no frequency", queryID)
	}
	if _, err := domain.ParseFrequency(*sch.Frequency); err != nil {
		return err
	}
	evt := ScheduleCreated{
		QueryID:   queryID,
		Frequency: *sch.Frequency,
		EndDate:   sch.EndDate,
		CreatedAt: time.Now().UTC(),
	}
	if err := natsutil.Publish(ctx, s.nc, SubjectScheduleCreated, evt); err != nil {
		return fmt.Errorf("publish schedule created: %w", err)
	}
	s.log.Info("schedule created", "query_id", queryID, "frequency", evt.Frequency)
	return nil
}

// OnScheduleCreated subscribes to new-schedule events.
func OnScheduleCreated(nc *nats.Conn, handler func(context.Context, ScheduleCreated)) (*nats.Subscription, error) {
	return natsutil.Subscribe(nc, SubjectScheduleCreated, handler)
}

// QuerySource lists the recurring queries due at a given time.
type QuerySource interface {
	DueQueries(ctx context.Context, now time.Time) ([]RunnableQuery, error)
}

// RunnableQuery is a due query handed to the dispatch function.
type RunnableQuery struct {
	QueryID  string
	UserID   string
	Criteria domain.Criteria
	Schedule domain.Schedule
}

// Dispatcher periodically sweeps for due queries and runs them.
type Dispatcher struct {
	source   QuerySource
	run      func(context.Context, RunnableQuery)
	interval time.Duration
	log      *slog.Logger
}

func NewDispatcher(source QuerySource, run func(context.Context, RunnableQuery), interval time.Duration, log *slog.Logger) *Dispatcher {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{source: source, run: run, interval: interval, log: log}
}

// Run sweeps until ctx is cancelled. The first sweep happens immediately.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sweep(ctx)
		}
	}
}

func (d *Dispatcher) sweep(ctx context.Context) {
	due, err := d.source.DueQueries(ctx, time.Now().UTC())
	if err != nil {
		d.log.Error("due query sweep failed", "error", err)
		return
	}
	for _, q := range due {
		d.run(ctx, q)
	}
}
