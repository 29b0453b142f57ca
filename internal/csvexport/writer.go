package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"vidalaboral/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

var segmentColumns = []string{"Fecha Inicio", "Fecha Fin", "Días"}

var periodColumns = []string{"isVacaciones", "fechaAlta", "fechaBaja"}

// Writer wraps csv.Writer for exporting report tables as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteBOM writes the UTF-8 byte order mark. Call it before any row.
func WriteBOM(w io.Writer) error {
	_, err := w.Write(BOM)
	return err
}

// WriteSegments writes the uncovered vacation segments under a header row,
// followed by a TOTAL row when there is at least one segment.
func (w *Writer) WriteSegments(summary domain.Summary) error {
	if err := w.csv.Write(segmentColumns); err != nil {
		return err
	}
	for _, seg := range summary.Segments {
		if err := w.csv.Write([]string{seg.Start, seg.End, strconv.Itoa(seg.Days)}); err != nil {
			return err
		}
	}
	if len(summary.Segments) > 0 {
		return w.csv.Write([]string{"", "TOTAL:", strconv.Itoa(summary.TotalDays)})
	}
	return nil
}

// WriteRecords writes assembled situaciones rows, one column per field.
func (w *Writer) WriteRecords(records []domain.Record) error {
	if err := w.csv.Write(domain.RecordColumns); err != nil {
		return err
	}
	for i := range records {
		if err := w.csv.Write(records[i].Fields()); err != nil {
			return err
		}
	}
	return nil
}

// WritePeriods writes classified periods.
func (w *Writer) WritePeriods(periods []domain.Period) error {
	if err := w.csv.Write(periodColumns); err != nil {
		return err
	}
	for _, p := range periods {
		if err := w.csv.Write([]string{strconv.FormatBool(p.IsVacation), p.Start, p.End}); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "report"
	}
	return s
}

// BuildFilename returns {sanitized_name}_{YYYY-MM-DD}.csv.
func BuildFilename(name string, day time.Time) string {
	return fmt.Sprintf("%s_%s.csv", SanitizeFilename(name), day.Format("2006-01-02"))
}
