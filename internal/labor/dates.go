package labor

import (
	"strings"

	"vidalaboral/internal/domain"
)

// ReformatDate converts a DD.MM.YYYY report date to DD/MM/YYYY. Anything that
// does not parse, including the empty string, yields "".
func ReformatDate(raw string) string {
	d := parseReportDate(raw)
	if !d.Valid {
		return ""
	}
	return domain.FormatDisplayDate(d.Time)
}

// NormalizeDate accepts a date written with '.', '/' or '-' separators and
// returns it as DD/MM/YYYY, or "" when it cannot be read.
func NormalizeDate(raw string) string {
	s := strings.NewReplacer(".", "/", "-", "/").Replace(strings.TrimSpace(raw))
	d := domain.ParseDisplayDate(s)
	if !d.Valid {
		return ""
	}
	return domain.FormatDisplayDate(d.Time)
}

func parseReportDate(raw string) domain.ParsedDate {
	return domain.ParseDate("2.1.2006", raw)
}
