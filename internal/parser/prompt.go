package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"vidalaboral/internal/domain"
)

// SchemaName is the name under which RecordsSchema is sent to providers
// that support strict structured output.
const SchemaName = "vida_laboral_simplified"

// BuildSituacionesPrompt returns the extraction prompt for one page image of
// an "Informe de Vida Laboral - Situaciones".
func BuildSituacionesPrompt() string {
	return `You are an expert OCR system for Spanish labor documents. Analyze this "INFORME DE VIDA LABORAL - SITUACIONES" document image and extract ONLY the relevant rows.

DOCUMENT TABLE STRUCTURE:
The table has these columns from LEFT TO RIGHT:
1. RÉGIMEN (regime)
2. CÓD. EMPRESA (company code)
3. EMPRESA (company name)
4. FECHA ALTA (start date)
5. FECHA EFECTO ALTA (effect date) - DO NOT USE THIS
6. FECHA DE BAJA (end date)

There are TWO date columns right after the company name. Column 4 "FECHA ALTA" is the start date. Column 5 "FECHA EFECTO ALTA" must be ignored. The end date is column 6 "FECHA DE BAJA", the rightmost date column, not the column immediately after FECHA ALTA.

ONLY extract rows where the EMPRESA column contains:
- "VACACIONES RETRIBUIDAS Y NO DISFRUTADAS" (or close variations): vacation rows
- "SERVICIO DE SALUD DEL PRINCIPADO DE ASTURIAS" (or close variations): contract rows

For each relevant row return:
- isVacaciones: true for vacation rows, false for contract rows
- fechaAlta: the column 4 date in DD/MM/YYYY format
- fechaBaja: the column 6 date in DD/MM/YYYY format, or "" when the row has no end date

Dates are printed as DD.MM.YYYY; convert them to DD/MM/YYYY.

Return ONLY a JSON object of the form {"records": [{"isVacaciones": true, "fechaAlta": "", "fechaBaja": ""}]} with no markdown and no explanation.`
}

// RecordsSchema is the JSON schema of the object BuildSituacionesPrompt asks for.
func RecordsSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"records": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"isVacaciones": map[string]interface{}{
							"type":        "boolean",
							"description": "true for vacation records, false for contract records",
						},
						"fechaAlta": map[string]interface{}{
							"type":        "string",
							"description": "Start date in DD/MM/YYYY format",
						},
						"fechaBaja": map[string]interface{}{
							"type":        "string",
							"description": "End date in DD/MM/YYYY format, empty string if no end date",
						},
					},
					"required":             []string{"isVacaciones", "fechaAlta", "fechaBaja"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"records"},
		"additionalProperties": false,
	}
}

// DecodeRecords reads the {"records": [...]} object out of a model reply.
// Markdown code fences around the JSON are tolerated.
func DecodeRecords(text string) ([]domain.OCRRecord, error) {
	text = stripCodeFence(text)

	var parsed struct {
		Records []domain.OCRRecord `json:"records"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("parsing LLM JSON output: %w (raw: %s)", err, Truncate(text, 500))
	}
	if parsed.Records == nil {
		parsed.Records = []domain.OCRRecord{}
	}
	return parsed.Records, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// Truncate shortens s for log and error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
