package extract

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/DriveScout/drivescout/engine/domain"
)

// makeAliases maps lowercase make mentions to canonical names, covering the
// brands common on the Australian market.
var makeAliases = map[string]string{
	"toyota":        "Toyota",
	"mazda":         "Mazda",
	"ford":          "Ford",
	"holden":        "Holden",
	"hyundai":       "Hyundai",
	"kia":           "Kia",
	"mitsubishi":    "Mitsubishi",
	"nissan":        "Nissan",
	"honda":         "Honda",
	"subaru":        "Subaru",
	"volkswagen":    "Volkswagen",
	"vw":            "Volkswagen",
	"bmw":           "BMW",
	"mercedes":      "Mercedes-Benz",
	"mercedes-benz": "Mercedes-Benz",
	"benz":          "Mercedes-Benz",
	"audi":          "Audi",
	"tesla":         "Tesla",
	"lexus":         "Lexus",
	"jeep":          "Jeep",
	"suzuki":        "Suzuki",
	"isuzu":         "Isuzu",
	"mg":            "MG",
	"ldv":           "LDV",
	"gwm":           "GWM",
	"skoda":         "Skoda",
	"renault":       "Renault",
	"peugeot":       "Peugeot",
	"volvo":         "Volvo",
}

// makeModels lists known models per canonical make, used to pick a model
// mention out of the text once the make is known.
var makeModels = map[string][]string{
	"Toyota":        {"HiLux", "Corolla", "Camry", "RAV4", "LandCruiser", "Prado", "Yaris", "Kluger", "C-HR", "86"},
	"Mazda":         {"Mazda2", "Mazda3", "Mazda6", "CX-3", "CX-30", "CX-5", "CX-8", "CX-9", "BT-50", "MX-5"},
	"Ford":          {"Ranger", "Everest", "Focus", "Falcon", "Mustang", "Escape", "Territory", "Fiesta"},
	"Holden":        {"Commodore", "Astra", "Colorado", "Captiva", "Cruze", "Barina"},
	"Hyundai":       {"i30", "i20", "Tucson", "Santa Fe", "Kona", "Accent", "Elantra", "iLoad", "Venue"},
	"Kia":           {"Cerato", "Sportage", "Sorento", "Picanto", "Carnival", "Stinger", "Seltos", "Rio"},
	"Mitsubishi":    {"Triton", "Outlander", "ASX", "Pajero", "Pajero Sport", "Lancer", "Eclipse Cross", "Mirage"},
	"Nissan":        {"Navara", "X-Trail", "Qashqai", "Patrol", "Pathfinder", "Juke", "Pulsar", "370Z"},
	"Honda":         {"Civic", "CR-V", "HR-V", "Accord", "Jazz", "Odyssey"},
	"Subaru":        {"Forester", "Outback", "XV", "Impreza", "WRX", "Liberty", "BRZ"},
	"Volkswagen":    {"Golf", "Polo", "Tiguan", "Amarok", "Passat", "T-Cross", "Caddy"},
	"BMW":           {"1 Series", "2 Series", "3 Series", "5 Series", "X1", "X3", "X5"},
	"Mercedes-Benz": {"A-Class", "C-Class", "E-Class", "GLA", "GLC", "GLE", "Sprinter", "Vito"},
	"Audi":          {"A1", "A3", "A4", "A5", "Q2", "Q3", "Q5", "Q7"},
	"Tesla":         {"Model 3", "Model Y", "Model S", "Model X"},
	"Lexus":         {"IS", "ES", "NX", "RX", "UX"},
	"Jeep":          {"Wrangler", "Grand Cherokee", "Cherokee", "Compass", "Gladiator"},
	"Suzuki":        {"Swift", "Vitara", "Jimny", "Baleno", "Ignis"},
	"Isuzu":         {"D-Max", "MU-X"},
	"MG":            {"MG3", "ZS", "HS", "MG4"},
	"LDV":           {"T60", "D90", "G10"},
	"GWM":           {"Cannon", "Haval H6", "Haval Jolion"},
	"Skoda":         {"Octavia", "Fabia", "Kodiaq", "Karoq", "Superb"},
	"Renault":       {"Clio", "Megane", "Koleos", "Captur"},
	"Peugeot":       {"208", "308", "2008", "3008", "5008"},
	"Volvo":         {"XC40", "XC60", "XC90", "S60", "V60"},
}

// locationTerms are recognized location mentions, longest first so
// multi-word names win over their substrings.
var locationTerms []string

// shortLocationTerms must appear upper-cased in the source text to count,
// since "sa", "wa", and "act" collide with ordinary words.
var shortLocationTerms = map[string]bool{
	"nsw": false, "vic": false, "qld": false, "tas": false,
	"sa": true, "wa": true, "nt": true, "act": true,
}

func init() {
	for _, term := range []string{
		"australian capital territory", "new south wales",
		"northern territory", "south australia", "western australia",
		"queensland", "tasmania", "victoria",
		"melbourne", "brisbane", "adelaide", "canberra",
		"sydney", "hobart", "darwin", "perth",
		"nsw", "vic", "qld", "tas", "act", "nt", "sa", "wa",
	} {
		locationTerms = append(locationTerms, term)
	}
	sort.Slice(locationTerms, func(i, j int) bool {
		return len(locationTerms[i]) > len(locationTerms[j])
	})
}

var (
	yearRangeRe   = regexp.MustCompile(`(?i)\b(?:between\s+)?(19\d{2}|20\d{2})\s*(?:-|–|to|and)\s*(19\d{2}|20\d{2})\b`)
	yearMinRe     = regexp.MustCompile(`(?i)\b(?:from|since|after|newer than)\s+(19\d{2}|20\d{2})\b|\b(19\d{2}|20\d{2})\s*(?:\+|onwards?\b|or newer\b|or later\b)`)
	yearMaxRe     = regexp.MustCompile(`(?i)\b(?:before|until|up to|older than)\s+(19\d{2}|20\d{2})\b|\b(19\d{2}|20\d{2})\s+or older\b`)
	bareYearRe    = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	mileageMaxRe  = regexp.MustCompile(`(?i)\b(?:under|below|less than|at most|max(?:imum)?|up to)\s+\$?([\d,]+)\s*(k?)\s*(?:km|kms|kilometres|kilometers|ks)\b`)
	priceMaxRe    = regexp.MustCompile(`(?i)\b(?:under|below|less than|at most|max(?:imum)?|up to|budget of)\s+\$?\s*([\d,]+)\s*(k?)\b`)
	priceMinRe    = regexp.MustCompile(`(?i)\b(?:over|above|at least|min(?:imum)?|more than|starting (?:at|from)|from)\s+\$\s*([\d,]+)\s*(k?)\b`)
	manualRe      = regexp.MustCompile(`(?i)\bmanual\b`)
	automaticRe   = regexp.MustCompile(`(?i)\b(?:automatic|auto)\b`)
	usedRe        = regexp.MustCompile(`(?i)\b(?:used|second[- ]?hand|pre[- ]?owned)\b`)
	newRe         = regexp.MustCompile(`(?i)\b(?:brand\s+)?new\b`)
	emailRe       = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	isoDateRe     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	everyNDaysRe  = regexp.MustCompile(`(?i)\bevery\s+(\d+)\s+days?\b`)
	everyNWeeksRe = regexp.MustCompile(`(?i)\bevery\s+(\d+)\s+weeks?\b`)
)

type rulesExtractor struct{}

// Criteria extracts any stated search fields. Fields not mentioned are left
// unset; a message with nothing recognizable yields the empty Criteria.
func (rulesExtractor) Criteria(_ context.Context, text string) domain.Criteria {
	var c domain.Criteria
	work := text

	// Locations go first: "New South Wales" must not feed the listing-type
	// matcher, and removing recognized spans keeps later patterns honest.
	if loc, ok := takeLocation(&work); ok {
		c.Location = &loc
	}
	// Mileage before price, so "under 100,000 km" is not read as a budget.
	if m := takeMatch(&work, mileageMaxRe); m != nil {
		if n, ok := parseAmount(m[1], m[2] != ""); ok {
			c.MileageMax = &n
		}
	}
	takeYears(&work, &c)
	if m := takeMatch(&work, priceMaxRe); m != nil {
		if n, ok := parseAmount(m[1], m[2] != ""); ok {
			c.PriceMax = &n
		}
	}
	if m := takeMatch(&work, priceMinRe); m != nil {
		if n, ok := parseAmount(m[1], m[2] != ""); ok {
			c.PriceMin = &n
		}
	}

	mk, md := findMakeModel(work)
	if mk != "" {
		c.Make = &mk
	}
	if md != "" {
		c.Model = &md
	}

	// A bare model year alongside a make ("2018 Toyota Camry") reads as a
	// lower bound.
	if mk != "" && c.YearMin == nil && c.YearMax == nil {
		if m := bareYearRe.FindStringSubmatch(work); m != nil {
			if y, err := strconv.Atoi(m[1]); err == nil {
				c.YearMin = &y
			}
		}
	}

	if manualRe.MatchString(work) {
		c.Transmission = domain.StringPtr("manual")
	} else if automaticRe.MatchString(work) {
		c.Transmission = domain.StringPtr("automatic")
	}

	if usedRe.MatchString(work) {
		c.ListingType = domain.StringPtr("used")
	} else if newRe.MatchString(work) {
		c.ListingType = domain.StringPtr("new")
	}

	return c
}

// Schedule extracts delivery details: an email address, a normalized
// frequency expression, and an optional ISO end date.
func (rulesExtractor) Schedule(_ context.Context, text string) domain.Schedule {
	var s domain.Schedule
	if m := emailRe.FindString(text); m != "" {
		s.Email = &m
	}
	if f := normalizeFrequency(text); f != "" {
		s.Frequency = &f
	}
	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		s.EndDate = &m[1]
	}
	return s
}

// normalizeFrequency maps spoken recurrence to the stored rate expression.
func normalizeFrequency(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "daily"), strings.Contains(lower, "every day"), strings.Contains(lower, "each day"):
		return "rate(1 day)"
	case strings.Contains(lower, "fortnight"):
		return "rate(14 days)"
	case strings.Contains(lower, "weekly"), strings.Contains(lower, "every week"), strings.Contains(lower, "each week"):
		return "rate(7 days)"
	case strings.Contains(lower, "monthly"), strings.Contains(lower, "every month"):
		return "rate(30 days)"
	}
	if m := everyNDaysRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return rateExpr(n)
	}
	if m := everyNWeeksRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return rateExpr(n * 7)
	}
	return ""
}

func rateExpr(days int) string {
	if days <= 0 {
		return ""
	}
	if days == 1 {
		return "rate(1 day)"
	}
	return "rate(" + strconv.Itoa(days) + " days)"
}

// takeMatch finds re in *work, removes the matched span, and returns the
// submatches (index 0 is the whole match).
func takeMatch(work *string, re *regexp.Regexp) []string {
	loc := re.FindStringSubmatchIndex(*work)
	if loc == nil {
		return nil
	}
	n := len(loc) / 2
	groups := make([]string, n)
	for i := 0; i < n; i++ {
		if loc[2*i] >= 0 {
			groups[i] = (*work)[loc[2*i]:loc[2*i+1]]
		}
	}
	*work = (*work)[:loc[0]] + " " + (*work)[loc[1]:]
	return groups
}

func takeYears(work *string, c *domain.Criteria) {
	if m := takeMatch(work, yearRangeRe); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if lo > hi {
			lo, hi = hi, lo
		}
		c.YearMin = &lo
		c.YearMax = &hi
		return
	}
	if m := takeMatch(work, yearMinRe); m != nil {
		if y := firstYearGroup(m); y != 0 {
			c.YearMin = &y
		}
	}
	if m := takeMatch(work, yearMaxRe); m != nil {
		if y := firstYearGroup(m); y != 0 {
			c.YearMax = &y
		}
	}
}

// firstYearGroup returns the first non-empty capture as a year.
func firstYearGroup(groups []string) int {
	for _, g := range groups[1:] {
		if g == "" {
			continue
		}
		if y, err := strconv.Atoi(g); err == nil {
			return y
		}
	}
	return 0
}

// parseAmount converts "25,000" or "25"+k into an integer amount.
func parseAmount(digits string, thousands bool) (int, bool) {
	n, err := strconv.Atoi(strings.ReplaceAll(digits, ",", ""))
	if err != nil {
		return 0, false
	}
	if thousands {
		n *= 1000
	}
	return n, true
}

// takeLocation scans for a recognized location term and removes it from
// *work, returning the matched text as written by the user.
func takeLocation(work *string) (string, bool) {
	lower := strings.ToLower(*work)
	for _, term := range locationTerms {
		idx := strings.Index(lower, term)
		if idx < 0 || !wordBounded(lower, idx, len(term)) {
			continue
		}
		matched := (*work)[idx : idx+len(term)]
		if shortLocationTerms[term] && matched != strings.ToUpper(matched) {
			continue
		}
		*work = (*work)[:idx] + " " + (*work)[idx+len(term):]
		return matched, true
	}
	return "", false
}

func findMakeModel(text string) (string, string) {
	lower := strings.ToLower(text)

	canonical := ""
	for alias, name := range makeAliases {
		idx := strings.Index(lower, alias)
		if idx < 0 || !wordBounded(lower, idx, len(alias)) {
			continue
		}
		// Short marques ("MG") must be upper-cased in the source text.
		if len(alias) <= 2 && text[idx:idx+len(alias)] != strings.ToUpper(alias) {
			continue
		}
		if canonical == "" || len(alias) > 3 {
			canonical = name
		}
	}
	if canonical == "" {
		return "", ""
	}

	models := append([]string(nil), makeModels[canonical]...)
	sort.Slice(models, func(i, j int) bool { return len(models[i]) > len(models[j]) })
	for _, m := range models {
		ml := strings.ToLower(m)
		idx := strings.Index(lower, ml)
		if idx >= 0 && wordBounded(lower, idx, len(ml)) {
			return canonical, m
		}
	}
	return canonical, ""
}

// wordBounded reports whether s[idx:idx+n] sits on word boundaries.
func wordBounded(s string, idx, n int) bool {
	if idx > 0 {
		prev := rune(s[idx-1])
		if unicode.IsLetter(prev) || unicode.IsDigit(prev) {
			return false
		}
	}
	end := idx + n
	if end < len(s) {
		next := rune(s[end])
		if unicode.IsLetter(next) || unicode.IsDigit(next) {
			return false
		}
	}
	return true
}
