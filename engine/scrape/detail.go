package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/DriveScout/drivescout/engine/domain"
)

// Selector cascades for detail-page fields, tried in order. The upstream
// markup shifts between data-testid attributes and class-based hooks, so
// each field carries a chain of fallbacks.
var (
	priceSelectors    = []string{`[data-testid="price"]`, ".price", ".listing-price", `[class*="price"]`}
	mileageSelectors  = []string{`[data-testid="mileage"]`, ".mileage", `[class*="km"]`, `[class*="mileage"]`}
	locationSelectors = []string{`[data-testid="location"]`, ".location", `[class*="location"]`}
)

// parseDetail extracts one Listing from a detail-page document. Every field
// degrades independently: a missing selector never fails the record.
func parseDetail(doc *goquery.Document, url string) domain.Listing {
	name := "Unknown"
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		name = h1
	} else if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		name = title
	}

	// Price stops at the first selector that matches an element at all;
	// an unparseable value still ends the cascade and yields 0.
	priceText := ""
	for _, sel := range priceSelectors {
		s := doc.Find(sel).First()
		if s.Length() > 0 {
			priceText = strings.TrimSpace(s.Text())
			break
		}
	}

	// Mileage keeps trying selectors until one of them contains a number,
	// then falls back to scanning the whole page for a "N km" figure.
	mileage := 0
	for _, sel := range mileageSelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if n, ok := parseFigure(s.Text()); ok {
			mileage = n
			break
		}
	}
	if mileage == 0 {
		if n, ok := parseKilometres(doc.Text()); ok {
			mileage = n
		}
	}

	location := strings.ToUpper(defaultRegion)
	for _, sel := range locationSelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if txt := strings.TrimSpace(s.Text()); txt != "" {
			location = strings.ToUpper(txt)
			break
		}
	}

	return domain.Listing{
		Name:     name,
		Price:    ParsePrice(priceText),
		Year:     YearFromTitle(name),
		Mileage:  mileage,
		Location: location,
		URL:      url,
		Source:   sourceName,
	}
}

// matchesCriteria re-checks a scraped record against the bounds the search
// URL already requested. The upstream site does not reliably apply filter
// parameters carried in the hash fragment.
func matchesCriteria(l domain.Listing, c domain.Criteria) bool {
	if c.YearMin != nil && l.Year < *c.YearMin {
		return false
	}
	if c.PriceMax != nil && l.Price > *c.PriceMax {
		return false
	}
	return true
}
