package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar day with no time of day or zone attached.
//
// The zero value is NoDate. Valid dates cover years 1 through 9999 of the
// proleptic Gregorian calendar and are stored as a day number counted from
// 0000-03-01, so ordering two dates is an integer compare.
type Date struct {
	n int32
}

// NoDate is the "not a date" sentinel.
var NoDate = Date{}

// AddDays saturates at these bounds.
var (
	firstDay = daysFromCivil(minYear, time.January, 1) + 1
	lastDay  = daysFromCivil(maxYear, time.December, 31) + 1
)

const (
	minYear = 1
	maxYear = 9999

	// days between 0000-03-01 and 1970-01-01
	unixEpochShift = 719468
)

// NewDate returns the date for year y, month m, day d.
func NewDate(y int, m time.Month, d int) (Date, error) {
	if y < minYear || y > maxYear {
		return NoDate, fmt.Errorf("year %d out of range", y)
	}
	if m < time.January || m > time.December {
		return NoDate, fmt.Errorf("month %d out of range", m)
	}
	if d < 1 || d > DaysIn(y, m) {
		return NoDate, fmt.Errorf("day %d out of range for %04d-%02d", d, y, m)
	}
	return Date{n: int32(daysFromCivil(y, m, d)) + 1}, nil
}

// MustDate is NewDate for literals known to be valid. It panics otherwise.
func MustDate(y int, m time.Month, d int) Date {
	dt, err := NewDate(y, m, d)
	if err != nil {
		panic(err)
	}
	return dt
}

// DateOf returns the UTC calendar date of t.
func DateOf(t time.Time) Date {
	t = t.UTC()
	dt, err := NewDate(t.Year(), t.Month(), t.Day())
	if err != nil {
		return NoDate
	}
	return dt
}

// ParseDate accepts YYYY-MM-DD, YYYY/MM/DD (one or two digit month and day)
// and YYYYMMDD.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoDate, fmt.Errorf("empty date")
	}

	var parts []string
	switch {
	case strings.ContainsRune(s, '-'):
		parts = strings.Split(s, "-")
	case strings.ContainsRune(s, '/'):
		parts = strings.Split(s, "/")
	case len(s) == 8:
		parts = []string{s[:4], s[4:6], s[6:]}
	default:
		return NoDate, fmt.Errorf("bad date %q", s)
	}
	if len(parts) != 3 || len(parts[0]) != 4 || !between(len(parts[1]), 1, 2) || !between(len(parts[2]), 1, 2) {
		return NoDate, fmt.Errorf("bad date %q", s)
	}

	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return NoDate, fmt.Errorf("bad date %q", s)
		}
		v[i] = n
	}

	dt, err := NewDate(v[0], time.Month(v[1]), v[2])
	if err != nil {
		return NoDate, fmt.Errorf("bad date %q: %w", s, err)
	}
	return dt, nil
}

func between(n, lo, hi int) bool { return n >= lo && n <= hi }

// IsZero reports whether d is NoDate.
func (d Date) IsZero() bool { return d.n == 0 }

// AddDays returns d shifted by n calendar days. NoDate stays NoDate.
func (d Date) AddDays(n int) Date {
	if d.IsZero() {
		return d
	}
	v := int64(d.n) + int64(n)
	switch {
	case v < firstDay:
		v = firstDay
	case v > lastDay:
		v = lastDay
	}
	return Date{n: int32(v)}
}

// Sub returns the number of days from o to d.
func (d Date) Sub(o Date) int { return int(d.n) - int(o.n) }

// Compare returns -1, 0 or +1 as d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.n < o.n:
		return -1
	case d.n > o.n:
		return 1
	}
	return 0
}

// Before, After and Equal compare d with o.
func (d Date) Before(o Date) bool { return d.n < o.n }
func (d Date) After(o Date) bool  { return d.n > o.n }
func (d Date) Equal(o Date) bool  { return d.n == o.n }

// Civil returns the year, month and day of d.
func (d Date) Civil() (int, time.Month, int) {
	if d.IsZero() {
		return 0, 0, 0
	}
	return civilFromDays(int64(d.n) - 1)
}

// Year returns the calendar year of d.
func (d Date) Year() int {
	y, _, _ := d.Civil()
	return y
}

// Month returns the month of d.
func (d Date) Month() time.Month {
	_, m, _ := d.Civil()
	return m
}

// Day returns the day of the month of d.
func (d Date) Day() int {
	_, _, dd := d.Civil()
	return dd
}

// Weekday returns the day of the week. 1970-01-01 was a Thursday.
func (d Date) Weekday() time.Weekday {
	unix := int64(d.n) - 1 - unixEpochShift
	w := (unix + 4) % 7
	if w < 0 {
		w += 7
	}
	return time.Weekday(w)
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	if d.IsZero() {
		return time.Time{}
	}
	y, m, dd := d.Civil()
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

// String formats d as YYYY-MM-DD, or "not-a-date" for NoDate.
func (d Date) String() string {
	if d.IsZero() {
		return "not-a-date"
	}
	y, m, dd := d.Civil()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), dd)
}

// MarshalText encodes d as YYYY-MM-DD and NoDate as empty.
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

// UnmarshalText accepts any layout ParseDate does.
func (d *Date) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*d = NoDate
		return nil
	}
	dt, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = dt
	return nil
}

// IsLeap reports whether y is a Gregorian leap year.
func IsLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// DaysIn returns the number of days in month m of year y.
func DaysIn(y int, m time.Month) int {
	switch m {
	case time.April, time.June, time.September, time.November:
		return 30
	case time.February:
		if IsLeap(y) {
			return 29
		}
		return 28
	}
	return 31
}

// daysFromCivil returns days since 0000-03-01 (Howard Hinnant's algorithm,
// shifted so the result is never negative for years >= 1).
func daysFromCivil(y int, m time.Month, d int) int64 {
	yy := int64(y)
	if m <= time.February {
		yy--
	}
	era := yy / 400
	yoe := yy - era*400
	mm := int64(m)
	if mm > 2 {
		mm -= 3
	} else {
		mm += 9
	}
	doy := (153*mm+2)/5 + int64(d) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe
}

func civilFromDays(z int64) (int, time.Month, int) {
	era := z / 146097
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if mp >= 10 {
		m = mp - 9
	}
	if m <= 2 {
		y++
	}
	return int(y), time.Month(m), int(d)
}
