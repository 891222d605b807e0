package marketdata

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantsim/pkg/database"
)

func TestGenerateSample(t *testing.T) {
	s, err := GenerateSample(SampleConfig{Days: 100, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, 100, s.Len())
	assert.Equal(t, "SAMPLE", s.Symbol())

	for i := 0; i < s.Len(); i++ {
		b := s.At(i)
		assert.NotEqual(t, time.Saturday, b.Date.Weekday())
		assert.NotEqual(t, time.Sunday, b.Date.Weekday())
		assert.Greater(t, b.Close, 0.0)
		assert.GreaterOrEqual(t, b.High, b.Low)
	}
}

func TestGenerateSample_Deterministic(t *testing.T) {
	a, err := GenerateSample(SampleConfig{Days: 50, Seed: 42})
	require.NoError(t, err)
	b, err := GenerateSample(SampleConfig{Days: 50, Seed: 42})
	require.NoError(t, err)
	c, err := GenerateSample(SampleConfig{Days: 50, Seed: 43})
	require.NoError(t, err)

	assert.Equal(t, a.Closes(), b.Closes())
	assert.NotEqual(t, a.Closes(), c.Closes())
}

func TestSampleSource_FiltersRange(t *testing.T) {
	src := SampleSource{Config: SampleConfig{Days: 30, Seed: 1}}
	from := time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 1, 13, 0, 0, 0, 0, time.UTC)

	s, err := src.LoadSeries(context.Background(), "QQQ", from, to)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, "QQQ", s.Symbol())
}

func TestPriceRepository_LoadSeries(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err, "database connection failed")
	defer pool.Close()

	ctx := context.Background()
	require.NoError(t, database.EnsureSchema(ctx, pool))

	repo := NewPriceRepository(pool)

	sample, err := GenerateSample(SampleConfig{Days: 20, Seed: 3})
	require.NoError(t, err)
	require.NoError(t, repo.SaveBars(ctx, "TEST_SAMPLE", sample.Bars()))

	first, last := sample.At(0).Date, sample.At(sample.Len()-1).Date
	s, err := repo.LoadSeries(ctx, "TEST_SAMPLE", first, last)
	require.NoError(t, err)
	assert.Equal(t, sample.Len(), s.Len())
	assert.InDeltaSlice(t, sample.Closes(), s.Closes(), 1e-9)

	latest, err := repo.GetLatestDate(ctx, "TEST_SAMPLE")
	require.NoError(t, err)
	assert.True(t, latest.Equal(last))
}
