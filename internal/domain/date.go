package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DisplayDateLayout is the DD/MM/YYYY form used by periods and segments.
	DisplayDateLayout = "02/01/2006"
	// ReportDateLayout is the DD.MM.YYYY form printed in the source report.
	ReportDateLayout = "02.01.2006"

	// displayParseLayout also accepts single-digit day and month (1/1/2020).
	displayParseLayout = "2/1/2006"
)

// ParsedDate is the outcome of parsing a calendar date. Valid is false when
// the input was empty or did not match the expected layout.
type ParsedDate struct {
	Time  time.Time
	Valid bool
}

// ParseDate parses s with layout into a UTC calendar date.
func ParseDate(layout, s string) ParsedDate {
	s = strings.TrimSpace(s)
	if s == "" {
		return ParsedDate{}
	}
	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return ParsedDate{}
	}
	return ParsedDate{Time: t, Valid: true}
}

// ParseDisplayDate parses a D/M/YYYY or DD/MM/YYYY date.
func ParseDisplayDate(s string) ParsedDate {
	return ParseDate(displayParseLayout, s)
}

// FormatDisplayDate formats t as DD/MM/YYYY.
func FormatDisplayDate(t time.Time) string {
	return t.Format(DisplayDateLayout)
}

// CalendarDate drops the clock part of t, keeping the date as seen in t's
// location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ResolveReferenceDate returns the date open-ended contracts are closed at:
// raw when given (DD/MM/YYYY), otherwise today's date in loc.
func ResolveReferenceDate(raw string, loc *time.Location, now time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return CalendarDate(now.In(loc)), nil
	}
	d := ParseDisplayDate(raw)
	if !d.Valid {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidReferenceDate, raw)
	}
	return d.Time, nil
}
