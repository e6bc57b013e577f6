package convo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/DriveScout/drivescout/engine/domain"
)

func TestFormatCriteria(t *testing.T) {
	c := domain.Criteria{
		Make:     domain.StringPtr("Toyota"),
		Model:    domain.StringPtr("Camry"),
		YearMin:  domain.IntPtr(2018),
		PriceMax: domain.IntPtr(30000),
		Location: domain.StringPtr("VIC"),
	}
	got := FormatCriteria(c)
	want := "Toyota Camry 2018 or newer under $30,000 in VIC"
	if got != want {
		t.Fatalf("FormatCriteria = %q, want %q", got, want)
	}
}

func TestFormatCriteriaYearRange(t *testing.T) {
	c := domain.Criteria{YearMin: domain.IntPtr(2015), YearMax: domain.IntPtr(2020)}
	if got := FormatCriteria(c); got != "2015-2020" {
		t.Fatalf("FormatCriteria = %q, want 2015-2020", got)
	}
}

func TestFormatCriteriaEmpty(t *testing.T) {
	if got := FormatCriteria(domain.Criteria{}); got != "any car" {
		t.Fatalf("FormatCriteria = %q, want \"any car\"", got)
	}
}

func TestFormatResultsEmpty(t *testing.T) {
	got := FormatResults(nil)
	if got != "No listings found matching your criteria." {
		t.Fatalf("FormatResults(nil) = %q", got)
	}
}

func TestFormatResultsEntry(t *testing.T) {
	listings := []domain.Listing{{
		Name:     "2020 Mazda CX-5 Touring",
		Price:    32990,
		Year:     2020,
		Mileage:  41000,
		Location: "VIC",
		URL:      "https://www.drive.com.au/cars-for-sale/car/123",
	}}
	got := FormatResults(listings)
	for _, want := range []string{
		"Found 1 listings:",
		"1. 2020 Mazda CX-5 Touring",
		"Price: $32,990",
		"Mileage: 41,000 km",
		"Year: 2020",
		"Location: VIC",
		"https://www.drive.com.au/cars-for-sale/car/123",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("FormatResults missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatResultsPriceUnknown(t *testing.T) {
	got := FormatResults([]domain.Listing{{Name: "Mystery car", URL: "https://example.com"}})
	if !strings.Contains(got, "Price: N/A") {
		t.Fatalf("missing N/A price in:\n%s", got)
	}
}

func TestFormatResultsCap(t *testing.T) {
	var listings []domain.Listing
	for i := 0; i < 11; i++ {
		listings = append(listings, domain.Listing{
			Name: fmt.Sprintf("Car %d", i+1),
			URL:  fmt.Sprintf("https://example.com/%d", i+1),
		})
	}
	got := FormatResults(listings)
	if !strings.Contains(got, "Found 11 listings:") {
		t.Fatalf("missing total count in:\n%s", got)
	}
	if !strings.Contains(got, "10. Car 10") {
		t.Fatalf("10th entry missing in:\n%s", got)
	}
	if strings.Contains(got, "Car 11") {
		t.Fatalf("11th entry should be capped:\n%s", got)
	}
	if !strings.Contains(got, "... and 1 more listings") {
		t.Fatalf("missing overflow note in:\n%s", got)
	}
}

func TestDescribeFrequency(t *testing.T) {
	cases := map[string]string{
		"rate(1 day)":   "daily",
		"rate(7 days)":  "weekly",
		"rate(14 days)": "fortnightly",
		"rate(30 days)": "monthly",
		"rate(3 days)":  "every 3 days",
	}
	for in, want := range cases {
		if got := describeFrequency(in); got != want {
			t.Fatalf("describeFrequency(%q) = %q, want %q", in, got, want)
		}
	}
}
