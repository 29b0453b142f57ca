package labor

import "strings"

// NormalizeCell collapses every whitespace run, line breaks included, into a
// single space and trims both ends.
func NormalizeCell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeRow returns a new row with every cell normalized.
func NormalizeRow(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = NormalizeCell(c)
	}
	return out
}
