package scrape

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	priceRe  = regexp.MustCompile(`\$?([\d,]+)`)
	yearRe   = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	figureRe = regexp.MustCompile(`(\d{1,3}(?:,\d{3})*)`)
	kmRe     = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})*)\s*km`)
)

// ParsePrice converts a display price like "$26,470" or "26k" to a whole
// dollar amount. Returns 0 when nothing parseable is present.
func ParsePrice(text string) int {
	expanded := strings.ReplaceAll(text, "k", "000")
	m := priceRe.FindStringSubmatch(expanded)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// YearFromTitle returns the first 19xx/20xx token in a listing title, 0 if
// none.
func YearFromTitle(text string) int {
	m := yearRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	y, _ := strconv.Atoi(m[1])
	return y
}

// parseFigure extracts the first thousands-grouped number from text.
func parseFigure(text string) (int, bool) {
	m := figureRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseKilometres finds a "N km" figure anywhere in text.
func parseKilometres(text string) (int, bool) {
	m := kmRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}
