package domain

import "testing"

func TestMergeLastWriteWins(t *testing.T) {
	acc := Criteria{Make: StringPtr("Mazda")}

	acc = acc.Merge(Criteria{PriceMax: IntPtr(20000)})
	if acc.Make == nil || *acc.Make != "Mazda" {
		t.Fatalf("make lost after merge: %+v", acc)
	}
	if acc.PriceMax == nil || *acc.PriceMax != 20000 {
		t.Fatalf("price_max not merged: %+v", acc)
	}

	acc = acc.Merge(Criteria{Make: StringPtr("Toyota")})
	if *acc.Make != "Toyota" {
		t.Fatalf("expected last write to win for make, got %q", *acc.Make)
	}
	if acc.PriceMax == nil || *acc.PriceMax != 20000 {
		t.Fatalf("price_max should survive a later merge: %+v", acc)
	}
}

func TestMergeDoesNotMutateReceiver(t *testing.T) {
	orig := Criteria{Make: StringPtr("Mazda")}
	_ = orig.Merge(Criteria{Make: StringPtr("Ford")})
	if *orig.Make != "Mazda" {
		t.Fatalf("receiver mutated: %q", *orig.Make)
	}
}

func TestCriteriaIsEmpty(t *testing.T) {
	if !(Criteria{}).IsEmpty() {
		t.Fatal("zero criteria should be empty")
	}
	if (Criteria{YearMin: IntPtr(2015)}).IsEmpty() {
		t.Fatal("criteria with year_min should not be empty")
	}
}

func TestScheduleComplete(t *testing.T) {
	s := Schedule{Email: StringPtr("jo@example.com")}
	if s.Complete() {
		t.Fatal("schedule without frequency must not be complete")
	}
	s.Frequency = StringPtr("rate(1 day)")
	if !s.Complete() {
		t.Fatal("schedule with email and frequency should be complete")
	}
	empty := ""
	s.Email = &empty
	if s.Complete() {
		t.Fatal("empty email must not count as present")
	}
}
