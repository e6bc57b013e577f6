package extract

import (
	"context"
	"testing"
)

func TestCriteriaMakeModelYear(t *testing.T) {
	c := NewRules().Criteria(context.Background(), "Looking for a 2018 Toyota Camry")
	if c.Make == nil || *c.Make != "Toyota" {
		t.Fatalf("make = %v, want Toyota", c.Make)
	}
	if c.Model == nil || *c.Model != "Camry" {
		t.Fatalf("model = %v, want Camry", c.Model)
	}
	if c.YearMin == nil || *c.YearMin != 2018 {
		t.Fatalf("year_min = %v, want 2018", c.YearMin)
	}
	if c.YearMax != nil {
		t.Fatalf("year_max = %v, want unset", c.YearMax)
	}
}

func TestCriteriaPriceAndMileage(t *testing.T) {
	c := NewRules().Criteria(context.Background(), "mazda cx-5 under $30,000 with under 100,000 km")
	if c.Make == nil || *c.Make != "Mazda" {
		t.Fatalf("make = %v, want Mazda", c.Make)
	}
	if c.Model == nil || *c.Model != "CX-5" {
		t.Fatalf("model = %v, want CX-5", c.Model)
	}
	if c.PriceMax == nil || *c.PriceMax != 30000 {
		t.Fatalf("price_max = %v, want 30000", c.PriceMax)
	}
	if c.MileageMax == nil || *c.MileageMax != 100000 {
		t.Fatalf("mileage_max = %v, want 100000", c.MileageMax)
	}
	if c.PriceMin != nil {
		t.Fatalf("price_min = %v, want unset", c.PriceMin)
	}
}

func TestCriteriaKSuffixPrice(t *testing.T) {
	c := NewRules().Criteria(context.Background(), "ford ranger under 45k")
	if c.PriceMax == nil || *c.PriceMax != 45000 {
		t.Fatalf("price_max = %v, want 45000", c.PriceMax)
	}
}

func TestCriteriaYearRange(t *testing.T) {
	c := NewRules().Criteria(context.Background(), "hyundai i30 between 2015 and 2020")
	if c.YearMin == nil || *c.YearMin != 2015 {
		t.Fatalf("year_min = %v, want 2015", c.YearMin)
	}
	if c.YearMax == nil || *c.YearMax != 2020 {
		t.Fatalf("year_max = %v, want 2020", c.YearMax)
	}
}

func TestCriteriaLocationNotListingType(t *testing.T) {
	c := NewRules().Criteria(context.Background(), "corolla in new south wales")
	if c.Location == nil || *c.Location != "new south wales" {
		t.Fatalf("location = %v, want new south wales", c.Location)
	}
	if c.ListingType != nil {
		t.Fatalf("listing_type = %v, want unset", c.ListingType)
	}
}

func TestCriteriaShortStateNeedsUpper(t *testing.T) {
	c := NewRules().Criteria(context.Background(), "toyota in WA")
	if c.Location == nil || *c.Location != "WA" {
		t.Fatalf("location = %v, want WA", c.Location)
	}
	c = NewRules().Criteria(context.Background(), "i want a car")
	if c.Location != nil {
		t.Fatalf("location = %v, want unset", c.Location)
	}
}

func TestCriteriaTransmissionAndListingType(t *testing.T) {
	c := NewRules().Criteria(context.Background(), "used manual hilux")
	if c.Transmission == nil || *c.Transmission != "manual" {
		t.Fatalf("transmission = %v, want manual", c.Transmission)
	}
	if c.ListingType == nil || *c.ListingType != "used" {
		t.Fatalf("listing_type = %v, want used", c.ListingType)
	}
	c = NewRules().Criteria(context.Background(), "brand new automatic civic")
	if c.Transmission == nil || *c.Transmission != "automatic" {
		t.Fatalf("transmission = %v, want automatic", c.Transmission)
	}
	if c.ListingType == nil || *c.ListingType != "new" {
		t.Fatalf("listing_type = %v, want new", c.ListingType)
	}
}

func TestCriteriaBareDigitYieldsNothing(t *testing.T) {
	for _, input := range []string{"1", "2", "", "ok thanks"} {
		c := NewRules().Criteria(context.Background(), input)
		if !c.IsEmpty() {
			t.Fatalf("Criteria(%q) = %+v, want empty", input, c)
		}
	}
}

func TestScheduleExtraction(t *testing.T) {
	s := NewRules().Schedule(context.Background(), "email me weekly at jo@example.com until 2026-12-31")
	if s.Email == nil || *s.Email != "jo@example.com" {
		t.Fatalf("email = %v, want jo@example.com", s.Email)
	}
	if s.Frequency == nil || *s.Frequency != "rate(7 days)" {
		t.Fatalf("frequency = %v, want rate(7 days)", s.Frequency)
	}
	if s.EndDate == nil || *s.EndDate != "2026-12-31" {
		t.Fatalf("end_date = %v, want 2026-12-31", s.EndDate)
	}
}

func TestNormalizeFrequency(t *testing.T) {
	cases := map[string]string{
		"daily please":   "rate(1 day)",
		"every day":      "rate(1 day)",
		"weekly":         "rate(7 days)",
		"fortnightly":    "rate(14 days)",
		"monthly":        "rate(30 days)",
		"every 3 days":   "rate(3 days)",
		"every 2 weeks":  "rate(14 days)",
		"no cadence set": "",
	}
	for input, want := range cases {
		if got := normalizeFrequency(input); got != want {
			t.Fatalf("normalizeFrequency(%q) = %q, want %q", input, got, want)
		}
	}
}
