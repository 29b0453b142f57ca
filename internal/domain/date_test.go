package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidalaboral/internal/domain"
)

func TestParseDisplayDate(t *testing.T) {
	want := time.Date(2020, time.January, 5, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"05/01/2020", "5/1/2020", "5/01/2020", " 05/1/2020 "} {
		d := domain.ParseDisplayDate(in)
		require.True(t, d.Valid, in)
		assert.Equal(t, want, d.Time, in)
	}

	for _, in := range []string{"", "2020-01-05", "05.01.2020", "32/01/2020", "05/13/2020", "05/01/20"} {
		assert.False(t, domain.ParseDisplayDate(in).Valid, in)
	}
}

func TestFormatDisplayDate_Pads(t *testing.T) {
	assert.Equal(t, "01/02/2020", domain.FormatDisplayDate(time.Date(2020, time.February, 1, 0, 0, 0, 0, time.UTC)))
}

func TestResolveReferenceDate(t *testing.T) {
	now := time.Date(2024, time.June, 30, 23, 30, 0, 0, time.UTC)
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	got, err := domain.ResolveReferenceDate("", madrid, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = domain.ResolveReferenceDate("31/12/2023", madrid, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), got)

	got, err = domain.ResolveReferenceDate("1/3/2023", time.UTC, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = domain.ResolveReferenceDate("31-12-2023", madrid, now)
	assert.ErrorIs(t, err, domain.ErrInvalidReferenceDate)
}
