package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vidalaboral/internal/config"
	"vidalaboral/internal/domain"
	"vidalaboral/internal/service"
	"vidalaboral/internal/xlsxreport"
)

func TestParseFlags_RequiresOneSource(t *testing.T) {
	_, err := parseFlags([]string{"--out", "x"})
	assert.Error(t, err)

	_, err = parseFlags([]string{"--grid", "a.json", "--periods", "p.json"})
	assert.Error(t, err)

	opts, err := parseFlags([]string{"--grid", "a.json", "--filter-2008", "-o", "out"})
	require.NoError(t, err)
	assert.Equal(t, "a.json", opts.gridPath)
	assert.True(t, opts.filter2008)
	assert.Equal(t, "out", opts.outDir)
}

func TestOptions_StartedBefore(t *testing.T) {
	got, err := (&options{filter2008: true}).startedBefore()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = (&options{filterBefore: "15/03/2010"}).startedBefore()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2010, 3, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = (&options{}).startedBefore()
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = (&options{filterBefore: "2010-03-15"}).startedBefore()
	assert.Error(t, err)
}

func TestParseFlags_RejectsFiltersOnImages(t *testing.T) {
	_, err := parseFlags([]string{"--images", "pages", "--filter-2008"})
	assert.Error(t, err)

	_, err = parseFlags([]string{"--images", "pages", "--filter-before", "01/01/2010"})
	assert.Error(t, err)

	opts, err := parseFlags([]string{"--images", "pages"})
	require.NoError(t, err)
	assert.Equal(t, "pages", opts.imagesDir)
}

func TestRun_UnpaddedPeriodDates(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "periods.json")
	require.NoError(t, os.WriteFile(in, []byte(`[{"isVacaciones": true, "fechaAlta": "1/1/2020", "fechaBaja": "5/1/2020"}]`), 0o644))
	out := filepath.Join(dir, "out")

	require.NoError(t, run(context.Background(), &config.Config{}, &options{
		periodsPath:   in,
		referenceDate: "31/12/2024",
		outDir:        out,
	}))

	data, err := os.ReadFile(filepath.Join(out, summaryFile))
	require.NoError(t, err)
	var got domain.Result
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 5, got.TotalDays)
	require.Len(t, got.Segments, 1)
	assert.Equal(t, domain.Segment{Start: "01/01/2020", End: "05/01/2020", Days: 5}, got.Segments[0])
}

func TestLoadImages_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.JPG", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	images, err := loadImages(dir)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "a.JPG", images[0].Name)
	assert.Equal(t, "image/jpeg", images[0].ContentType)
	assert.Equal(t, "b.png", images[1].Name)
	assert.Equal(t, "image/png", images[1].ContentType)
}

func TestLoadImages_Empty(t *testing.T) {
	_, err := loadImages(t.TempDir())
	assert.ErrorIs(t, err, domain.ErrNoImages)
}

func TestWriteOutputs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	ext := &service.Extraction{
		Records: []domain.Record{},
		Periods: []domain.Period{{IsVacation: true, Start: "01/01/2020", End: "05/01/2020"}},
	}
	summary := domain.Summary{
		TotalDays: 5,
		Segments:  []domain.Segment{{Start: "01/01/2020", End: "05/01/2020", Days: 5}},
	}

	require.NoError(t, writeOutputs(dir, ext, summary))

	data, err := os.ReadFile(filepath.Join(dir, summaryFile))
	require.NoError(t, err)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.EqualValues(t, 5, got["total_non_overlapping_vacation_days"])
	assert.Len(t, got["data"], 1)
	assert.Len(t, got["non_overlapping_vacation_periods"], 1)

	assert.FileExists(t, filepath.Join(dir, periodsFile))
	assert.NoFileExists(t, filepath.Join(dir, recordsFile))

	f, err := excelize.OpenFile(filepath.Join(dir, xlsxreport.FileName))
	require.NoError(t, err)
	defer f.Close()
	assert.NotEmpty(t, f.GetSheetList())
}

func TestRun_FromPeriodsFile(t *testing.T) {
	dir := t.TempDir()
	periods := `[
		{"isVacaciones": true, "fechaAlta": "01/01/2020", "fechaBaja": "10/01/2020"},
		{"isVacaciones": false, "fechaAlta": "06/01/2020", "fechaBaja": "20/01/2020"}
	]`
	in := filepath.Join(dir, "periods.json")
	require.NoError(t, os.WriteFile(in, []byte(periods), 0o644))
	out := filepath.Join(dir, "out")

	err := run(context.Background(), &config.Config{}, &options{
		periodsPath:   in,
		referenceDate: "31/12/2024",
		outDir:        out,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, summaryFile))
	require.NoError(t, err)
	var got domain.Result
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 5, got.TotalDays)
	require.Len(t, got.Segments, 1)
	assert.Equal(t, "01/01/2020", got.Segments[0].Start)
	assert.Equal(t, "05/01/2020", got.Segments[0].End)
}
