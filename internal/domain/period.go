package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var periodRe = regexp.MustCompile(`^([0-9]{4})-(0[1-9]|1[0-2])$`)

// Period identifies one calendar month, the unit of aggregation.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a strict YYYY-MM string (zero-padded month 01-12).
// Any other shape returns ErrInvalidPeriod.
func ParsePeriod(s string) (Period, error) {
	m := periodRe.FindStringSubmatch(s)
	if m == nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	return Period{Year: year, Month: time.Month(month)}, nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Bounds returns the UTC month boundaries: inclusive start, exclusive end.
// Every range query in the pipeline uses this convention.
func (p Period) Bounds() (start, end time.Time) {
	start = time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// Days returns the number of calendar days in the month.
func (p Period) Days() int {
	start, end := p.Bounds()
	return int(end.Sub(start).Hours() / 24)
}
