package fn

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestResult(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.UnwrapOr(0) != 42 {
		t.Fatalf("Ok broken: %+v", r)
	}
	e := Err[int](errors.New("boom"))
	if !e.IsErr() || e.UnwrapOr(7) != 7 {
		t.Fatalf("Err broken: %+v", e)
	}
	if v, _ := FromPair(3, nil).Unwrap(); v != 3 {
		t.Fatalf("FromPair lost value")
	}
}

func TestThenShortCircuits(t *testing.T) {
	calls := 0
	first := func(_ context.Context, s string) Result[int] { return Errf[int]("no") }
	second := func(_ context.Context, n int) Result[int] { calls++; return Ok(n) }
	r := Then(first, second)(context.Background(), "x")
	if r.IsOk() || calls != 0 {
		t.Fatalf("second stage ran after error")
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	attempts := 0
	r := Retry(context.Background(), RetryOpts{MaxAttempts: 5, InitialWait: time.Millisecond}, func(context.Context) Result[int] {
		attempts++
		if attempts < 3 {
			return Errf[int]("transient")
		}
		return Ok(attempts)
	})
	if v := r.UnwrapOr(0); v != 3 {
		t.Fatalf("expected success on attempt 3, got %d (attempts=%d)", v, attempts)
	}
}

func TestRetryExhausts(t *testing.T) {
	attempts := 0
	r := Retry(context.Background(), RetryOpts{MaxAttempts: 2, InitialWait: time.Millisecond}, func(context.Context) Result[int] {
		attempts++
		return Errf[int]("always")
	})
	if r.IsOk() || attempts != 2 {
		t.Fatalf("expected 2 failed attempts, got ok=%v attempts=%d", r.IsOk(), attempts)
	}
}

func TestUnique(t *testing.T) {
	got := Unique([]string{"a", "b", "a", "c", "b"})
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected: %v", got)
	}
}

func TestFilterMap(t *testing.T) {
	evens := Filter([]int{1, 2, 3, 4}, func(n int) bool { return n%2 == 0 })
	if len(evens) != 2 {
		t.Fatalf("filter: %v", evens)
	}
	doubled := Map(evens, func(n int) int { return n * 2 })
	if doubled[0] != 4 || doubled[1] != 8 {
		t.Fatalf("map: %v", doubled)
	}
}
