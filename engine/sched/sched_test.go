package sched

import (
	"context"
	"testing"
	"time"

	"github.com/DriveScout/drivescout/engine/domain"
)

type fakeSource struct {
	queries []RunnableQuery
	calls   int
}

func (f *fakeSource) DueQueries(context.Context, time.Time) ([]RunnableQuery, error) {
	f.calls++
	return f.queries, nil
}

func TestDispatcherRunsDueQueries(t *testing.T) {
	source := &fakeSource{queries: []RunnableQuery{
		{QueryID: "a"}, {QueryID: "b"},
	}}
	var ran []string
	d := NewDispatcher(source, func(_ context.Context, q RunnableQuery) {
		ran = append(ran, q.QueryID)
	}, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	if source.calls != 1 {
		t.Fatalf("sweeps = %d, want 1", source.calls)
	}
	if len(ran) != 2 || ran[0] != "a" || ran[1] != "b" {
		t.Fatalf("ran = %v", ran)
	}
}

func TestCreateScheduleRejectsBadFrequency(t *testing.T) {
	s := New(nil, nil)
	err := s.CreateSchedule(context.Background(), "q-1", domain.Schedule{
		Frequency: domain.StringPtr("whenever"),
	})
	if err == nil {
		t.Fatal("expected error for invalid frequency")
	}
	err = s.CreateSchedule(context.Background(), "q-2", domain.Schedule{})
	if err == nil {
		t.Fatal("expected error for missing frequency")
	}
}
