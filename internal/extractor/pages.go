// Package extractor holds helpers shared by table extractors.
package extractor

import (
	"fmt"
	"strconv"
	"strings"

	"vidalaboral/internal/domain"
)

// NormalizePages validates a page selector such as "2-5", "1,3" or "all"
// and returns it without whitespace. Empty input yields def.
func NormalizePages(sel, def string) (string, error) {
	sel = strings.ReplaceAll(strings.TrimSpace(sel), " ", "")
	if sel == "" {
		sel = def
	}
	if sel == "" || strings.EqualFold(sel, "all") {
		return strings.ToLower(sel), nil
	}

	for _, part := range strings.Split(sel, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := pageNumber(lo)
		if err != nil {
			return "", fmt.Errorf("%w: %q", domain.ErrInvalidPageRange, sel)
		}
		if !isRange {
			continue
		}
		// camelot accepts an open "end" upper bound.
		if hi == "end" {
			continue
		}
		last, err := pageNumber(hi)
		if err != nil || last < first {
			return "", fmt.Errorf("%w: %q", domain.ErrInvalidPageRange, sel)
		}
	}
	return sel, nil
}

func pageNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("page %d out of range", n)
	}
	return n, nil
}
