package csvexport

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidalaboral/internal/domain"
)

func readAll(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	r := csv.NewReader(buf)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteSegments(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteSegments(domain.Summary{
		TotalDays: 8,
		Segments: []domain.Segment{
			{Start: "01/01/2020", End: "05/01/2020", Days: 5},
			{Start: "10/01/2020", End: "12/01/2020", Days: 3},
		},
	}))
	w.Flush()
	require.NoError(t, w.Error())

	assert.Equal(t, [][]string{
		{"Fecha Inicio", "Fecha Fin", "Días"},
		{"01/01/2020", "05/01/2020", "5"},
		{"10/01/2020", "12/01/2020", "3"},
		{"", "TOTAL:", "8"},
	}, readAll(t, &buf))
}

func TestWriteSegments_Empty(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteSegments(domain.Summary{}))
	w.Flush()

	assert.Equal(t, [][]string{{"Fecha Inicio", "Fecha Fin", "Días"}}, readAll(t, &buf))
}

func TestWriteRecords(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteRecords([]domain.Record{{
		Regime:       "GENERAL",
		CompanyCode:  "0111 33",
		CompanyName:  "SERVICIO DE SALUD DEL PRINCIPADO DE ASTURIAS",
		StartDateRaw: "01.02.2020",
		EndDateRaw:   "29.02.2020",
		Days:         "29",
	}}))
	w.Flush()

	rows := readAll(t, &buf)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.RecordColumns, rows[0])
	assert.Len(t, rows[1], domain.RecordWidth)
	assert.Equal(t, "SERVICIO DE SALUD DEL PRINCIPADO DE ASTURIAS", rows[1][2])
	assert.Equal(t, "29", rows[1][9])
}

func TestWritePeriods(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WritePeriods([]domain.Period{{IsVacation: true, Start: "01/01/2020", End: ""}}))
	w.Flush()

	assert.Equal(t, [][]string{
		{"isVacaciones", "fechaAlta", "fechaBaja"},
		{"true", "01/01/2020", ""},
	}, readAll(t, &buf))
}

func TestWriteBOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBOM(&buf))
	assert.Equal(t, BOM, buf.Bytes())
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"vida laboral (2).pdf", "vida_laboral_2_pdf"},
		{"Informe   Situaciones", "Informe_Situaciones"},
		{"___", "report"},
		{"", "report"},
		{"ok-name_1", "ok-name_1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, SanitizeFilename(tt.input), tt.input)
	}

	long := SanitizeFilename(string(bytes.Repeat([]byte("a"), 150)))
	assert.Len(t, long, 100)
}

func TestBuildFilename(t *testing.T) {
	day := time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "vida_laboral_2024-03-09.csv", BuildFilename("vida laboral", day))
}
