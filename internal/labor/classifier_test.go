package labor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidalaboral/internal/domain"
	"vidalaboral/internal/labor"
)

func record(name, alta, baja string) domain.Record {
	return domain.Record{Regime: "GENERAL", CompanyName: name, StartDateRaw: alta, EndDateRaw: baja}
}

func TestReformatDate(t *testing.T) {
	assert.Equal(t, "01/02/2020", labor.ReformatDate("01.02.2020"))
	assert.Equal(t, "01/02/2020", labor.ReformatDate("1.2.2020"))
	assert.Equal(t, "", labor.ReformatDate(""))
	assert.Equal(t, "", labor.ReformatDate("01/02/2020"))
	assert.Equal(t, "", labor.ReformatDate("31.02.2020"))
	assert.Equal(t, "", labor.ReformatDate("---"))
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "01/02/2020", labor.NormalizeDate("01.02.2020"))
	assert.Equal(t, "01/02/2020", labor.NormalizeDate("01/02/2020"))
	assert.Equal(t, "01/02/2020", labor.NormalizeDate(" 1-2-2020 "))
	assert.Equal(t, "", labor.NormalizeDate(""))
	assert.Equal(t, "", labor.NormalizeDate("2020.02.01"))
}

func TestClassifier_Kind(t *testing.T) {
	c := labor.NewClassifier(labor.Options{})

	assert.Equal(t, domain.KindVacation, c.Kind("VACACIONES RETRIBUIDAS Y NO DISFRUTADAS"))
	assert.Equal(t, domain.KindContract, c.Kind("SERVICIO DE SALUD DEL PRINCIPADO"))
	assert.Equal(t, domain.KindContract, c.Kind("SERVICIO DE SALUD DEL PRINCIPADO DE ASTURIAS"))
	assert.Equal(t, domain.KindUnclassified, c.Kind("ACME SL"))
	assert.Equal(t, domain.KindUnclassified, c.Kind("vacaciones retribuidas y no disfrutadas"))
	assert.Equal(t, domain.KindUnclassified, c.Kind(""))
}

func TestClassifier_Classify(t *testing.T) {
	c := labor.NewClassifier(labor.Options{})
	records := []domain.Record{
		record("VACACIONES RETRIBUIDAS Y NO DISFRUTADAS", "01.01.2020", "05.01.2020"),
		record("ACME SL", "01.01.2019", "01.01.2020"),
		record("SERVICIO DE SALUD DEL PRINCIPADO DE ASTURIAS", "03.01.2020", ""),
		record("SERVICIO DE SALUD DEL PRINCIPADO", "bad", "07.01.2020"),
	}

	got := c.Classify(records)

	assert.Equal(t, []domain.Period{
		{IsVacation: true, Start: "01/01/2020", End: "05/01/2020"},
		{IsVacation: false, Start: "03/01/2020", End: ""},
		{IsVacation: false, Start: "", End: "07/01/2020"},
	}, got)
}

func TestClassifier_CustomRules(t *testing.T) {
	c := labor.NewClassifier(labor.Options{},
		labor.Rule{Kind: domain.KindContract, Mode: labor.MatchExact, Pattern: "ACME"},
	)

	got := c.Classify([]domain.Record{
		record("ACME", "01.01.2020", "02.01.2020"),
		record("ACME SL", "01.01.2020", "02.01.2020"),
		record("VACACIONES RETRIBUIDAS Y NO", "01.01.2020", "02.01.2020"),
	})

	require.Len(t, got, 1)
	assert.False(t, got[0].IsVacation)
}

func TestClassifier_StartedBefore(t *testing.T) {
	c := labor.NewClassifier(labor.Options{StartedBefore: time.Date(2008, time.January, 1, 0, 0, 0, 0, time.UTC)})

	got := c.Classify([]domain.Record{
		record("VACACIONES RETRIBUIDAS Y NO", "31.12.2007", "02.01.2008"),
		record("VACACIONES RETRIBUIDAS Y NO", "01.01.2008", "02.01.2008"),
		record("VACACIONES RETRIBUIDAS Y NO", "", "02.01.2008"),
	})

	require.Len(t, got, 1)
	assert.Equal(t, "31/12/2007", got[0].Start)
}

func TestClassifier_FromOCR(t *testing.T) {
	c := labor.NewClassifier(labor.Options{})

	got := c.FromOCR([]domain.OCRRecord{
		{IsVacation: true, Start: "01.01.2020", End: "05/01/2020"},
		{IsVacation: false, Start: "03/01/2020", End: ""},
		{IsVacation: false, Start: "N/A", End: "garbage"},
	})

	assert.Equal(t, []domain.Period{
		{IsVacation: true, Start: "01/01/2020", End: "05/01/2020"},
		{IsVacation: false, Start: "03/01/2020", End: ""},
		{IsVacation: false, Start: "", End: ""},
	}, got)
}
