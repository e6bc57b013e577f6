package scrape

import (
	"net/url"
	"strings"
	"testing"

	"github.com/DriveScout/drivescout/engine/domain"
)

func TestBuildSearchURLEmptyCriteria(t *testing.T) {
	got := BuildSearchURL(domain.Criteria{})
	want := "https://www.drive.com.au/cars-for-sale/search/all/vic/#sortBy=recommended"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if _, err := url.Parse(got); err != nil {
		t.Fatalf("not a valid URL: %v", err)
	}
}

func TestBuildSearchURLFullCriteria(t *testing.T) {
	c := domain.Criteria{
		Make:         domain.StringPtr("Alfa Romeo"),
		Model:        domain.StringPtr("Giulia"),
		YearMin:      domain.IntPtr(2018),
		YearMax:      domain.IntPtr(2022),
		PriceMax:     domain.IntPtr(40000),
		MileageMax:   domain.IntPtr(80000),
		Location:     domain.StringPtr("New South Wales"),
		Transmission: domain.StringPtr("automatic"),
		ListingType:  domain.StringPtr("used"),
	}
	got := BuildSearchURL(c)

	if !strings.Contains(got, "/used/nsw/all/alfa-romeo/giulia/") {
		t.Fatalf("path segments wrong: %q", got)
	}
	frag := got[strings.Index(got, "#")+1:]
	wantFrag := "year=[2018,2022]&price=[0,40000]&transmission=auto&kms=[0,80000]&sortBy=recommended"
	if frag != wantFrag {
		t.Fatalf("fragment = %q, want %q", frag, wantFrag)
	}
}

func TestBuildSearchURLModelWithoutMake(t *testing.T) {
	c := domain.Criteria{Model: domain.StringPtr("Corolla")}
	got := BuildSearchURL(c)
	if strings.Contains(got, "corolla") {
		t.Fatalf("model must be suppressed without a make: %q", got)
	}
}

func TestBuildSearchURLMakeOnly(t *testing.T) {
	c := domain.Criteria{Make: domain.StringPtr("Toyota")}
	got := BuildSearchURL(c)
	if !strings.Contains(got, "/all/vic/all/toyota/") {
		t.Fatalf("make-only path wrong: %q", got)
	}
}

func TestBuildSearchURLYearBounds(t *testing.T) {
	got := BuildSearchURL(domain.Criteria{YearMin: domain.IntPtr(2015)})
	if !strings.Contains(got, "year=[2015,0]") {
		t.Fatalf("missing bound should encode as 0: %q", got)
	}
	got = BuildSearchURL(domain.Criteria{YearMax: domain.IntPtr(2020)})
	if !strings.Contains(got, "year=[0,2020]") {
		t.Fatalf("missing min should encode as 0: %q", got)
	}
}

func TestBuildSearchURLTransmission(t *testing.T) {
	if got := BuildSearchURL(domain.Criteria{Transmission: domain.StringPtr("manual")}); strings.Contains(got, "transmission") {
		t.Fatalf("manual must not emit a transmission filter: %q", got)
	}
	if got := BuildSearchURL(domain.Criteria{Transmission: domain.StringPtr("Auto")}); !strings.Contains(got, "transmission=auto") {
		t.Fatalf("auto synonym should emit the filter: %q", got)
	}
}

func TestBuildSearchURLSortAlwaysLast(t *testing.T) {
	c := domain.Criteria{PriceMax: domain.IntPtr(30000), MileageMax: domain.IntPtr(50000)}
	got := BuildSearchURL(c)
	if !strings.HasSuffix(got, "sortBy=recommended") {
		t.Fatalf("sort directive must be last: %q", got)
	}
}

func TestRegionCode(t *testing.T) {
	cases := map[string]string{
		"Queensland": "qld",
		"qld":        "qld",
		"SYDNEY":     "nsw",
		"nowhere":    "vic",
		"":           "vic",
	}
	for in, want := range cases {
		if got := regionCode(in); got != want {
			t.Errorf("regionCode(%q) = %q, want %q", in, got, want)
		}
	}
}
