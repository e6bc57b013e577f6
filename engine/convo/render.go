package convo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DriveScout/drivescout/engine/domain"
)

const maxRenderedResults = 10

// FormatCriteria renders accumulated criteria as a short human-readable
// phrase, e.g. "Toyota Camry 2018 or newer under $30,000 in VIC".
func FormatCriteria(c domain.Criteria) string {
	var parts []string
	if c.Make != nil {
		parts = append(parts, *c.Make)
	}
	if c.Model != nil {
		parts = append(parts, *c.Model)
	}
	switch {
	case c.YearMin != nil && c.YearMax != nil:
		parts = append(parts, fmt.Sprintf("%d-%d", *c.YearMin, *c.YearMax))
	case c.YearMin != nil:
		parts = append(parts, fmt.Sprintf("%d or newer", *c.YearMin))
	case c.YearMax != nil:
		parts = append(parts, fmt.Sprintf("up to %d", *c.YearMax))
	}
	if c.PriceMax != nil {
		parts = append(parts, "under $"+withCommas(*c.PriceMax))
	}
	if c.MileageMax != nil {
		parts = append(parts, "under "+withCommas(*c.MileageMax)+" km")
	}
	if c.Location != nil {
		parts = append(parts, "in "+*c.Location)
	}
	if len(parts) == 0 {
		return "any car"
	}
	return strings.Join(parts, " ")
}

// FormatResults renders listings for the user, capped at ten entries.
func FormatResults(listings []domain.Listing) string {
	if len(listings) == 0 {
		return "No listings found matching your criteria."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d listings:\n", len(listings))
	shown := listings
	if len(shown) > maxRenderedResults {
		shown = shown[:maxRenderedResults]
	}
	for i, l := range shown {
		name := l.Name
		if name == "" {
			name = "N/A"
		}
		price, mileage, year := "N/A", "N/A", "N/A"
		if l.Price > 0 {
			price = "$" + withCommas(l.Price)
		}
		if l.Mileage > 0 {
			mileage = withCommas(l.Mileage) + " km"
		}
		if l.Year > 0 {
			year = strconv.Itoa(l.Year)
		}
		location := l.Location
		if location == "" {
			location = "N/A"
		}
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, name)
		fmt.Fprintf(&b, "   Price: %s\n", price)
		fmt.Fprintf(&b, "   Mileage: %s\n", mileage)
		fmt.Fprintf(&b, "   Year: %s\n", year)
		fmt.Fprintf(&b, "   Location: %s\n", location)
		fmt.Fprintf(&b, "   %s\n", l.URL)
	}
	if extra := len(listings) - len(shown); extra > 0 {
		fmt.Fprintf(&b, "\n... and %d more listings\n", extra)
	}
	return b.String()
}

// describeFrequency turns a rate expression back into plain words.
func describeFrequency(freq string) string {
	switch freq {
	case "rate(1 day)":
		return "daily"
	case "rate(7 days)":
		return "weekly"
	case "rate(14 days)":
		return "fortnightly"
	case "rate(30 days)":
		return "monthly"
	}
	var n int
	if _, err := fmt.Sscanf(freq, "rate(%d days)", &n); err == nil && n > 0 {
		return "every " + strconv.Itoa(n) + " days"
	}
	return freq
}

// withCommas formats n with thousands separators.
func withCommas(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
