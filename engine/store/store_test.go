package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DriveScout/drivescout/engine/domain"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testCriteria() domain.Criteria {
	return domain.Criteria{
		Make:     domain.StringPtr("Toyota"),
		Model:    domain.StringPtr("Corolla"),
		PriceMax: domain.IntPtr(25000),
	}
}

func weeklySchedule() domain.Schedule {
	return domain.Schedule{
		Email:     domain.StringPtr("jo@example.com"),
		Frequency: domain.StringPtr("rate(7 days)"),
	}
}

func TestStoreSearch(t *testing.T) {
	s := openTest(t)
	if err := s.StoreSearch(context.Background(), "u-1", testCriteria(), "one_time", []domain.Listing{{Name: "2020 Toyota Corolla", URL: "https://example.com/1"}}); err != nil {
		t.Fatalf("store search: %v", err)
	}
}

func TestRecurringQueryRoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	id, err := s.StoreRecurringQuery(ctx, "u-1", testCriteria(), weeklySchedule())
	if err != nil {
		t.Fatalf("store recurring: %v", err)
	}
	if id == "" {
		t.Fatal("empty query id")
	}

	q, err := s.GetRecurringQuery(ctx, id)
	if err != nil {
		t.Fatalf("get recurring: %v", err)
	}
	if q.UserID != "u-1" {
		t.Fatalf("user id = %q, want u-1", q.UserID)
	}
	if q.Criteria.Make == nil || *q.Criteria.Make != "Toyota" {
		t.Fatalf("criteria lost: %+v", q.Criteria)
	}
	if q.Schedule.Email == nil || *q.Schedule.Email != "jo@example.com" {
		t.Fatalf("schedule lost: %+v", q.Schedule)
	}
	if !q.Active || q.LastRunAt != nil {
		t.Fatalf("fresh query state wrong: active=%v lastRun=%v", q.Active, q.LastRunAt)
	}
}

func TestGetRecurringQueryNotFound(t *testing.T) {
	s := openTest(t)
	if _, err := s.GetRecurringQuery(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDueQueries(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	neverRan, err := s.StoreRecurringQuery(ctx, "u-1", testCriteria(), weeklySchedule())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	recent, err := s.StoreRecurringQuery(ctx, "u-1", testCriteria(), weeklySchedule())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.MarkRun(ctx, recent, now.Add(-time.Hour)); err != nil {
		t.Fatalf("mark run: %v", err)
	}
	stale, err := s.StoreRecurringQuery(ctx, "u-1", testCriteria(), weeklySchedule())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.MarkRun(ctx, stale, now.Add(-8*24*time.Hour)); err != nil {
		t.Fatalf("mark run: %v", err)
	}
	inactive, err := s.StoreRecurringQuery(ctx, "u-1", testCriteria(), weeklySchedule())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.Deactivate(ctx, inactive); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	due, err := s.DueQueries(ctx, now)
	if err != nil {
		t.Fatalf("due queries: %v", err)
	}
	ids := map[string]bool{}
	for _, q := range due {
		ids[q.QueryID] = true
	}
	if !ids[neverRan] || !ids[stale] {
		t.Fatalf("expected %s and %s due, got %v", neverRan, stale, ids)
	}
	if ids[recent] || ids[inactive] {
		t.Fatalf("unexpected due queries: %v", ids)
	}
}

func TestMarkRunUnknownID(t *testing.T) {
	s := openTest(t)
	if err := s.MarkRun(context.Background(), "nope", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
