package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MonthKey identifies one calendar month (e.g. "2024-03"). The zero value
// means "no month": callers use it for unbounded window edges and for
// "no data available".
type MonthKey struct {
	Year  int
	Month int // 1-12
}

var ErrInvalidMonthKey = errors.New("invalid month key")

// ParseMonthKey parses a YYYY-MM string.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	return MonthKey{Year: year, Month: month}, nil
}

// MustMonthKey parses a YYYY-MM string and panics on failure. For tests and
// fixed literals only.
func MustMonthKey(s string) MonthKey {
	m, err := ParseMonthKey(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m MonthKey) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// IsZero reports whether m is the "no month" value.
func (m MonthKey) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// index maps the month onto a continuous integer scale so that arithmetic
// and ordering are plain int operations.
func (m MonthKey) index() int {
	return m.Year*12 + (m.Month - 1)
}

func monthFromIndex(idx int) MonthKey {
	return MonthKey{Year: idx / 12, Month: idx%12 + 1}
}

// AddMonths returns the month n months after m (n may be negative).
func (m MonthKey) AddMonths(n int) MonthKey {
	if m.IsZero() {
		return MonthKey{}
	}
	return monthFromIndex(m.index() + n)
}

func (m MonthKey) Before(other MonthKey) bool {
	return m.index() < other.index()
}

func (m MonthKey) After(other MonthKey) bool {
	return m.index() > other.index()
}

// Compare returns -1, 0 or 1; usable with slices.SortFunc.
func (m MonthKey) Compare(other MonthKey) int {
	switch {
	case m.index() < other.index():
		return -1
	case m.index() > other.index():
		return 1
	default:
		return 0
	}
}

// QuarterStart returns the first month of m's calendar quarter.
func (m MonthKey) QuarterStart() MonthKey {
	if m.IsZero() {
		return MonthKey{}
	}
	q := ((m.Month - 1) / 3) * 3
	return MonthKey{Year: m.Year, Month: q + 1}
}

// YearStart returns January of m's year.
func (m MonthKey) YearStart() MonthKey {
	if m.IsZero() {
		return MonthKey{}
	}
	return MonthKey{Year: m.Year, Month: 1}
}
