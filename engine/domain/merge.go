package domain

// Merge returns a new Criteria combining c with fresh: any field set in
// fresh replaces the same field in c (last write wins), fields absent from
// fresh keep their accumulated value. Neither input is mutated.
func (c Criteria) Merge(fresh Criteria) Criteria {
	out := c
	if fresh.Make != nil {
		out.Make = fresh.Make
	}
	if fresh.Model != nil {
		out.Model = fresh.Model
	}
	if fresh.YearMin != nil {
		out.YearMin = fresh.YearMin
	}
	if fresh.YearMax != nil {
		out.YearMax = fresh.YearMax
	}
	if fresh.MileageMax != nil {
		out.MileageMax = fresh.MileageMax
	}
	if fresh.PriceMin != nil {
		out.PriceMin = fresh.PriceMin
	}
	if fresh.PriceMax != nil {
		out.PriceMax = fresh.PriceMax
	}
	if fresh.Location != nil {
		out.Location = fresh.Location
	}
	if fresh.Transmission != nil {
		out.Transmission = fresh.Transmission
	}
	if fresh.ListingType != nil {
		out.ListingType = fresh.ListingType
	}
	return out
}

// IsEmpty reports whether no field has been set.
func (c Criteria) IsEmpty() bool {
	return c.Make == nil && c.Model == nil &&
		c.YearMin == nil && c.YearMax == nil &&
		c.MileageMax == nil && c.PriceMin == nil && c.PriceMax == nil &&
		c.Location == nil && c.Transmission == nil && c.ListingType == nil
}

// Merge returns a new Schedule combining s with fresh, last write wins.
func (s Schedule) Merge(fresh Schedule) Schedule {
	out := s
	if fresh.Email != nil {
		out.Email = fresh.Email
	}
	if fresh.Frequency != nil {
		out.Frequency = fresh.Frequency
	}
	if fresh.EndDate != nil {
		out.EndDate = fresh.EndDate
	}
	return out
}

// IsEmpty reports whether no schedule field has been set.
func (s Schedule) IsEmpty() bool {
	return s.Email == nil && s.Frequency == nil && s.EndDate == nil
}

// Complete reports whether the schedule can be committed: both email and
// frequency must be present. EndDate stays optional.
func (s Schedule) Complete() bool {
	return s.Email != nil && *s.Email != "" && s.Frequency != nil && *s.Frequency != ""
}

// StringPtr returns a pointer to s. Convenience for building criteria.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }
