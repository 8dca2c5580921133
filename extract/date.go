package extract

import (
	"strings"
	"time"

	si "github.com/gofhir/searchindex"
)

// Format strings for precision aware parsing of FHIR date, dateTime and
// instant values.
const (
	layoutYear   = "2006"
	layoutMonth  = "2006-01"
	layoutDay    = "2006-01-02"
	layoutLocal  = "2006-01-02T15:04:05"
	layoutOffset = "2006-01-02T15:04:05Z07:00"
)

// dateValue is a parsed temporal value: the inclusive [from, to] span
// implied by the stated precision, and that precision.
type dateValue struct {
	from      time.Time
	to        time.Time
	precision si.DatePrecision
}

// parseDate parses a FHIR date, dateTime or instant string at whatever
// precision it states. Values without an offset are anchored in loc.
// The span runs from the first to the last second of the stated period;
// second precision has from == to.
func parseDate(s string, loc *time.Location) (dateValue, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.ParseInLocation(layoutYear, s, loc); err == nil {
		return spanned(t, t.AddDate(1, 0, 0), si.PrecisionYear), nil
	}
	if t, err := time.ParseInLocation(layoutMonth, s, loc); err == nil {
		return spanned(t, t.AddDate(0, 1, 0), si.PrecisionMonth), nil
	}
	if t, err := time.ParseInLocation(layoutDay, s, loc); err == nil {
		return spanned(t, t.AddDate(0, 0, 1), si.PrecisionDay), nil
	}
	if t, err := time.ParseInLocation(layoutLocal, s, loc); err == nil {
		return instant(t), nil
	}
	if t, err := time.Parse(layoutOffset, s); err == nil {
		return instant(t), nil
	}
	// Instants may carry fractional seconds.
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return instant(t), nil
	}

	return dateValue{}, &time.ParseError{Layout: layoutOffset, Value: s}
}

// spanned builds a dateValue covering [start, next) as an inclusive
// span ending one second before next.
func spanned(start, next time.Time, p si.DatePrecision) dateValue {
	return dateValue{
		from:      start,
		to:        next.Add(-time.Second),
		precision: p,
	}
}

// instant builds a second-precision dateValue. Fractional seconds are
// dropped: the span of an instant is the second it falls in.
func instant(t time.Time) dateValue {
	t = t.Truncate(time.Second)
	return dateValue{from: t, to: t, precision: si.PrecisionSecond}
}
