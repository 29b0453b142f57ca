package labor

import (
	"strings"
	"time"

	"vidalaboral/internal/domain"
)

// MatchMode selects how a Rule compares a company name.
type MatchMode int

const (
	MatchPrefix MatchMode = iota
	MatchExact
)

// Rule maps company names to a record kind.
type Rule struct {
	Kind    domain.RecordKind
	Mode    MatchMode
	Pattern string
}

func (r Rule) matches(name string) bool {
	if r.Mode == MatchExact {
		return name == r.Pattern
	}
	return strings.HasPrefix(name, r.Pattern)
}

// DefaultRules is the allow-list applied when NewClassifier gets no rules.
// The health-service name is listed both exact and as a prefix: reports
// print it either bare or followed by "DE ASTURIAS".
var DefaultRules = []Rule{
	{Kind: domain.KindVacation, Mode: MatchPrefix, Pattern: "VACACIONES RETRIBUIDAS Y NO"},
	{Kind: domain.KindContract, Mode: MatchExact, Pattern: "SERVICIO DE SALUD DEL PRINCIPADO"},
	{Kind: domain.KindContract, Mode: MatchPrefix, Pattern: "SERVICIO DE SALUD DEL PRINCIPADO"},
}

// Options tune classification of assembled records.
type Options struct {
	// StartedBefore, when non-zero, keeps only records whose start date
	// parses and falls strictly before it.
	StartedBefore time.Time
}

// Classifier turns records into periods using an ordered rule list; the
// first matching rule wins.
type Classifier struct {
	rules []Rule
	opts  Options
}

// NewClassifier creates a Classifier. With no rules, DefaultRules is used.
func NewClassifier(opts Options, rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules, opts: opts}
}

// Kind classifies a company name.
func (c *Classifier) Kind(companyName string) domain.RecordKind {
	for _, r := range c.rules {
		if r.matches(companyName) {
			return r.Kind
		}
	}
	return domain.KindUnclassified
}

// Classify emits one period per vacation or contract record, in input order.
// Unclassified and filtered-out records are dropped.
func (c *Classifier) Classify(records []domain.Record) []domain.Period {
	periods := make([]domain.Period, 0, len(records))
	for i := range records {
		rec := &records[i]
		if !c.keep(rec) {
			continue
		}
		kind := c.Kind(rec.CompanyName)
		if kind == domain.KindUnclassified {
			continue
		}
		periods = append(periods, domain.Period{
			IsVacation: kind == domain.KindVacation,
			Start:      ReformatDate(rec.StartDateRaw),
			End:        ReformatDate(rec.EndDateRaw),
		})
	}
	return periods
}

// FromOCR normalizes the dates of vision-parser rows. The parser has
// already decided which rows are vacations.
func (c *Classifier) FromOCR(records []domain.OCRRecord) []domain.Period {
	periods := make([]domain.Period, 0, len(records))
	for _, r := range records {
		periods = append(periods, domain.Period{
			IsVacation: r.IsVacation,
			Start:      NormalizeDate(r.Start),
			End:        NormalizeDate(r.End),
		})
	}
	return periods
}

func (c *Classifier) keep(rec *domain.Record) bool {
	if c.opts.StartedBefore.IsZero() {
		return true
	}
	d := parseReportDate(rec.StartDateRaw)
	return d.Valid && d.Time.Before(c.opts.StartedBefore)
}
