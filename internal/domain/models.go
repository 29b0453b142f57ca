package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RecordWidth is the fixed number of columns in a situaciones table row.
const RecordWidth = 10

// Page is one extracted table grid, row-major.
type Page [][]string

// Record is one logical row of the situaciones table, possibly assembled
// from several physical rows.
type Record struct {
	Regime            string `json:"Regimen"`
	CompanyCode       string `json:"Codigo_Empresa"`
	CompanyName       string `json:"Empresa"`
	StartDateRaw      string `json:"Fecha_Alta"`
	EffectDateRaw     string `json:"Fecha_Efecto_Alta"`
	EndDateRaw        string `json:"Fecha_Baja"`
	ContractType      string `json:"C.T."`
	PartTimeRatio     string `json:"CTP_%"`
	ContributionGroup string `json:"G.C."`
	Days              string `json:"Dias"`
}

// Fields returns the record columns in table order.
func (r *Record) Fields() []string {
	return []string{
		r.Regime, r.CompanyCode, r.CompanyName, r.StartDateRaw, r.EffectDateRaw,
		r.EndDateRaw, r.ContractType, r.PartTimeRatio, r.ContributionGroup, r.Days,
	}
}

// RecordColumns are the header names matching Record.Fields.
var RecordColumns = []string{
	"Regimen", "Codigo_Empresa", "Empresa", "Fecha_Alta", "Fecha_Efecto_Alta",
	"Fecha_Baja", "C.T.", "CTP_%", "G.C.", "Dias",
}

// Period is a vacation or contract interval. Dates are DD/MM/YYYY or empty.
type Period struct {
	IsVacation bool   `json:"isVacaciones"`
	Start      string `json:"fechaAlta"`
	End        string `json:"fechaBaja"`
}

// OCRRecord is a row returned by a vision parser. Dates are as recognized,
// either DD.MM.YYYY or DD/MM/YYYY.
type OCRRecord struct {
	IsVacation bool   `json:"isVacaciones"`
	Start      string `json:"fechaAlta"`
	End        string `json:"fechaBaja"`
}

// Segment is a maximal sub-range of a vacation not covered by any contract.
type Segment struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// Summary is the result of reconciling vacations against contracts.
type Summary struct {
	TotalDays int       `json:"total_non_overlapping_vacation_days"`
	Segments  []Segment `json:"non_overlapping_vacation_periods"`
}

// Report is the stored outcome of one computation run. Only the final
// summary is kept; grids, records and periods are not.
type Report struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	Source        ReportSource    `db:"source" json:"source"`
	SourceName    string          `db:"source_name" json:"source_name"`
	ReferenceDate time.Time       `db:"reference_date" json:"reference_date"`
	VacationCount int             `db:"vacation_count" json:"vacation_count"`
	ContractCount int             `db:"contract_count" json:"contract_count"`
	TotalDays     int             `db:"total_days" json:"total_non_overlapping_vacation_days"`
	Segments      json.RawMessage `db:"segments" json:"non_overlapping_vacation_periods"`
	ReportBucket  string          `db:"report_bucket" json:"-"`
	ReportKey     string          `db:"report_key" json:"report_key,omitempty"`
	CreatedBy     string          `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Result is what a processing run returns: the classified periods under
// "data" next to the summary fields.
type Result struct {
	ReportID string   `json:"id,omitempty"`
	Periods  []Period `json:"data"`
	Summary
	ReportURL string `json:"report_url,omitempty"`
}
