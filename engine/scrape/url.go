// Package scrape turns a search Criteria into concrete vehicle listings by
// querying the drive.com.au search surface and each matching detail page.
package scrape

import (
	"fmt"
	"strings"

	"github.com/DriveScout/drivescout/engine/domain"
)

const (
	siteBaseURL   = "https://www.drive.com.au"
	searchPath    = "/cars-for-sale/search/"
	detailMarker  = "/cars-for-sale/car/"
	sourceName    = "drive.com.au"
	defaultRegion = "vic"
)

// regionCodes maps state names, abbreviations, and capital cities to the
// short codes the search path uses. Lookup is case-insensitive; anything
// unrecognized falls back to defaultRegion.
var regionCodes = map[string]string{
	"new south wales":              "nsw",
	"nsw":                          "nsw",
	"sydney":                       "nsw",
	"victoria":                     "vic",
	"vic":                          "vic",
	"melbourne":                    "vic",
	"queensland":                   "qld",
	"qld":                          "qld",
	"brisbane":                     "qld",
	"south australia":              "sa",
	"sa":                           "sa",
	"adelaide":                     "sa",
	"western australia":            "wa",
	"wa":                           "wa",
	"perth":                        "wa",
	"tasmania":                     "tas",
	"tas":                          "tas",
	"hobart":                       "tas",
	"australian capital territory": "act",
	"act":                          "act",
	"canberra":                     "act",
	"northern territory":           "nt",
	"nt":                           "nt",
	"darwin":                       "nt",
}

func regionCode(location string) string {
	if code, ok := regionCodes[strings.ToLower(strings.TrimSpace(location))]; ok {
		return code
	}
	return defaultRegion
}

// BuildSearchURL maps criteria to a search-results URL. Every criteria
// value, including the empty one, yields a valid URL; there is no error
// path. Filter bounds ride in the hash fragment, ending with a fixed sort
// directive.
func BuildSearchURL(c domain.Criteria) string {
	return buildSearchURL(siteBaseURL, c)
}

func buildSearchURL(base string, c domain.Criteria) string {
	state := defaultRegion
	if c.Location != nil {
		state = regionCode(*c.Location)
	}

	listingType := "all"
	if c.ListingType != nil {
		if lt := strings.ToLower(strings.TrimSpace(*c.ListingType)); lt != "" {
			listingType = lt
		}
	}

	make_ := ""
	if c.Make != nil {
		make_ = slugify(*c.Make)
	}
	model := ""
	if c.Model != nil {
		model = slugify(*c.Model)
	}

	var path string
	switch {
	case make_ != "" && model != "":
		path = fmt.Sprintf("%s/%s/all/%s/%s/", listingType, state, make_, model)
	case make_ != "":
		path = fmt.Sprintf("%s/%s/all/%s/", listingType, state, make_)
	default:
		// A model without a make cannot form a path segment.
		path = fmt.Sprintf("%s/%s/", listingType, state)
	}

	var parts []string
	if c.YearMin != nil || c.YearMax != nil {
		parts = append(parts, fmt.Sprintf("year=[%d,%d]", orZero(c.YearMin), orZero(c.YearMax)))
	}
	if c.PriceMin != nil || c.PriceMax != nil {
		parts = append(parts, fmt.Sprintf("price=[%d,%d]", orZero(c.PriceMin), orZero(c.PriceMax)))
	}
	if c.Transmission != nil {
		switch strings.ToLower(strings.TrimSpace(*c.Transmission)) {
		case "auto", "automatic":
			parts = append(parts, "transmission=auto")
		}
	}
	if c.MileageMax != nil {
		parts = append(parts, fmt.Sprintf("kms=[0,%d]", *c.MileageMax))
	}
	parts = append(parts, "sortBy=recommended")

	return base + searchPath + path + "#" + strings.Join(parts, "&")
}

func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

func orZero(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
