package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var rateRe = regexp.MustCompile(`^rate\((\d+) days?\)$`)

// ParseFrequency converts a stored rate expression like "rate(7 days)"
// into a duration.
func ParseFrequency(freq string) (time.Duration, error) {
	m := rateRe.FindStringSubmatch(freq)
	if m == nil {
		return 0, fmt.Errorf("invalid frequency %q", freq)
	}
	days, err := strconv.Atoi(m[1])
	if err != nil || days <= 0 {
		return 0, fmt.Errorf("invalid frequency %q", freq)
	}
	return time.Duration(days) * 24 * time.Hour, nil
}
