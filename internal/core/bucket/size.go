package bucket

import (
	"fmt"
	"strconv"
	"time"
)

// ParseSize parses a bucket size expressed either as a plain number of axis
// units ("30") or as a duration ("30m", "2h", "2d", "1w") and converts it to
// a whole number of units. Durations must be an exact multiple of unit.
func ParseSize(s string, unit time.Duration) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("bucket_size must not be empty")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("bucket_size must be positive, got %q", s)
		}
		return n, nil
	}
	if unit <= 0 {
		return 0, fmt.Errorf("bucket_size %q needs a positive axis unit", s)
	}

	d, err := parseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("bucket_size must be positive, got %q", s)
	}
	if d%unit != 0 {
		return 0, fmt.Errorf("bucket_size %q is not a whole number of %s", s, unit)
	}
	return int(d / unit), nil
}

// parseDuration extends time.ParseDuration with "Xd" and "Xw" suffixes.
func parseDuration(s string) (time.Duration, error) {
	if len(s) > 1 {
		var mult time.Duration
		switch s[len(s)-1] {
		case 'd':
			mult = 24 * time.Hour
		case 'w':
			mult = 7 * 24 * time.Hour
		}
		if mult > 0 {
			n, err := strconv.Atoi(s[:len(s)-1])
			if err != nil {
				return 0, fmt.Errorf("invalid bucket_size %q: %w", s, err)
			}
			return time.Duration(n) * mult, nil
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid bucket_size %q: %w", s, err)
	}
	return d, nil
}
