// Package domain defines the core value objects shared by the conversation
// engine, the scraping pipeline, and the storage layer: search criteria,
// delivery schedules, and vehicle listings.
package domain

// Criteria is a car search. Every field is optional; a nil pointer means
// "unconstrained", never a default. Absent fields are omitted from the JSON
// encoding so stored criteria stay minimal.
type Criteria struct {
	Make         *string `json:"make,omitempty"`
	Model        *string `json:"model,omitempty"`
	YearMin      *int    `json:"year_min,omitempty"`
	YearMax      *int    `json:"year_max,omitempty"`
	MileageMax   *int    `json:"mileage_max,omitempty"`
	PriceMin     *int    `json:"price_min,omitempty"`
	PriceMax     *int    `json:"price_max,omitempty"`
	Location     *string `json:"location,omitempty"`
	Transmission *string `json:"transmission,omitempty"` // "manual" or "automatic"
	ListingType  *string `json:"listing_type,omitempty"` // "new" or "used"
}

// Schedule is a recurring-delivery request. Frequency is a normalized
// recurrence expression such as "rate(7 days)".
type Schedule struct {
	Email     *string `json:"email,omitempty"`
	Frequency *string `json:"frequency,omitempty"`
	EndDate   *string `json:"end_date,omitempty"` // YYYY-MM-DD
}

// Listing is one vehicle record produced by the scraping pipeline.
// Uniqueness key is URL. Immutable once constructed.
type Listing struct {
	Name     string `json:"name"`
	Price    int    `json:"price"`   // 0 when unknown
	Year     int    `json:"year"`    // 0 when unknown
	Mileage  int    `json:"mileage"` // km, 0 when unknown
	Location string `json:"location"`
	URL      string `json:"url"`
	Source   string `json:"source"`
}
