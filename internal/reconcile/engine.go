// Package reconcile computes how many vacation days are not covered by any
// contract.
package reconcile

import (
	"sort"
	"time"

	"vidalaboral/internal/domain"
)

// interval is an inclusive calendar-date range.
type interval struct {
	start time.Time
	end   time.Time
}

func (iv interval) days() int {
	return daysBetween(iv.start, iv.end) + 1
}

// Compute subtracts every contract from every vacation and returns the
// uncovered segments and their total day count. Contracts with no end date
// are treated as running through ref. Periods whose required dates are
// missing, unparseable or inverted are ignored.
//
// Segments are ordered chronologically within each vacation, vacations in
// input order. Compute never fails.
func Compute(periods []domain.Period, ref time.Time) domain.Summary {
	today := domain.CalendarDate(ref)

	var contracts []interval
	for _, p := range periods {
		if p.IsVacation {
			continue
		}
		if c, ok := contractInterval(p, today); ok {
			contracts = append(contracts, c)
		}
	}

	summary := domain.Summary{Segments: []domain.Segment{}}
	for _, p := range periods {
		if !p.IsVacation {
			continue
		}
		v, ok := vacationInterval(p)
		if !ok {
			continue
		}
		for _, seg := range uncovered(v, overlaps(v, contracts)) {
			summary.TotalDays += seg.days()
			summary.Segments = append(summary.Segments, domain.Segment{
				Start: domain.FormatDisplayDate(seg.start),
				End:   domain.FormatDisplayDate(seg.end),
				Days:  seg.days(),
			})
		}
	}
	return summary
}

// CountPeriods returns how many vacation and contract periods are present.
func CountPeriods(periods []domain.Period) (vacations, contracts int) {
	for _, p := range periods {
		if p.IsVacation {
			vacations++
		} else {
			contracts++
		}
	}
	return vacations, contracts
}

func vacationInterval(p domain.Period) (interval, bool) {
	start := domain.ParseDisplayDate(p.Start)
	end := domain.ParseDisplayDate(p.End)
	if !start.Valid || !end.Valid || end.Time.Before(start.Time) {
		return interval{}, false
	}
	return interval{start: start.Time, end: end.Time}, true
}

func contractInterval(p domain.Period, today time.Time) (interval, bool) {
	start := domain.ParseDisplayDate(p.Start)
	if !start.Valid {
		return interval{}, false
	}
	end := today
	if d := domain.ParseDisplayDate(p.End); d.Valid {
		end = d.Time
	}
	if end.Before(start.Time) {
		return interval{}, false
	}
	return interval{start: start.Time, end: end}, true
}

// overlaps intersects v with each contract and merges the intersections.
func overlaps(v interval, contracts []interval) []interval {
	var hits []interval
	for _, c := range contracts {
		if v.start.After(c.end) || v.end.Before(c.start) {
			continue
		}
		hits = append(hits, interval{start: maxTime(v.start, c.start), end: minTime(v.end, c.end)})
	}
	return merge(hits)
}

// merge sorts intervals by start and joins any that overlap or share an
// endpoint.
func merge(ivs []interval) []interval {
	if len(ivs) == 0 {
		return nil
	}
	sort.SliceStable(ivs, func(i, j int) bool {
		if ivs[i].start.Equal(ivs[j].start) {
			return ivs[i].end.Before(ivs[j].end)
		}
		return ivs[i].start.Before(ivs[j].start)
	})
	merged := []interval{ivs[0]}
	for _, iv := range ivs[1:] {
		last := &merged[len(merged)-1]
		if !iv.start.After(last.end) {
			last.end = maxTime(last.end, iv.end)
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// uncovered walks the merged overlaps and returns the gaps of v between them.
func uncovered(v interval, covered []interval) []interval {
	if len(covered) == 0 {
		return []interval{v}
	}
	var gaps []interval
	cursor := v.start
	for _, c := range covered {
		if cursor.Before(c.start) {
			gap := interval{start: cursor, end: c.start.AddDate(0, 0, -1)}
			if gap.days() > 0 {
				gaps = append(gaps, gap)
			}
		}
		cursor = c.end.AddDate(0, 0, 1)
	}
	if !cursor.After(v.end) {
		gaps = append(gaps, interval{start: cursor, end: v.end})
	}
	return gaps
}

const secondsPerDay = 24 * 60 * 60

// daysBetween counts whole days from a to b. Both are UTC midnights, so Unix
// seconds divide exactly and stay clear of time.Duration's range.
func daysBetween(a, b time.Time) int {
	return int((b.Unix() - a.Unix()) / secondsPerDay)
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
