package labor

import (
	"strings"
	"unicode"

	"vidalaboral/internal/domain"
)

var headerPrefixes = []string{"RÉGIMEN", "SITUACIÓN"}

type rowKind int

const (
	rowHeader rowKind = iota
	rowNoise
	rowContinuation
	rowStart
)

// assembly is the fold accumulator. current indexes the record that
// continuation rows extend, or is -1 before the first record.
type assembly struct {
	current int
	records []domain.Record
}

// Assemble folds the rows of every page, in order, into logical records.
// A record starts at each row with a non-empty first cell; rows with an empty
// first cell and a numeric second cell only extend the company name of the
// current record. Headers and other rows are dropped.
func Assemble(pages []domain.Page) []domain.Record {
	acc := assembly{current: -1}
	for _, page := range pages {
		for _, raw := range page {
			acc = acc.step(NormalizeRow(raw))
		}
	}
	return acc.records
}

func (a assembly) step(row []string) assembly {
	switch kindOf(row) {
	case rowContinuation:
		if text := cell(row, 2); a.current >= 0 && text != "" {
			a.records[a.current].CompanyName += " " + text
		}
	case rowStart:
		a.records = append(a.records, newRecord(row))
		a.current = len(a.records) - 1
	}
	return a
}

func kindOf(row []string) rowKind {
	first := cell(row, 0)
	upper := strings.ToUpper(first)
	for _, p := range headerPrefixes {
		if strings.HasPrefix(upper, p) {
			return rowHeader
		}
	}
	if first == "" {
		if !isDigits(cell(row, 1)) {
			return rowNoise
		}
		return rowContinuation
	}
	return rowStart
}

func newRecord(row []string) domain.Record {
	padded := make([]string, domain.RecordWidth)
	copy(padded, row)
	return domain.Record{
		Regime:            padded[0],
		CompanyCode:       padded[1],
		CompanyName:       padded[2],
		StartDateRaw:      padded[3],
		EffectDateRaw:     padded[4],
		EndDateRaw:        padded[5],
		ContractType:      padded[6],
		PartTimeRatio:     padded[7],
		ContributionGroup: padded[8],
		Days:              padded[9],
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
