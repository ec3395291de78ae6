package plotting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "workoutcli/internal/errors"
	"workoutcli/internal/frame"
)

func loadFixture(t *testing.T) *frame.Dataset {
	t.Helper()
	ds, err := frame.LoadCSV("../frame/testdata/data.csv")
	require.NoError(t, err)
	return ds
}

func TestLine(t *testing.T) {
	ds := loadFixture(t)

	p, err := Line(ds, Options{Title: "sessions"})
	require.NoError(t, err)
	assert.Equal(t, "sessions", p.Title.Text)

	path := filepath.Join(t.TempDir(), "out", "line.png")
	require.NoError(t, Save(p, path, DefaultOptions()))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestLine_NoNumericColumns(t *testing.T) {
	ds, err := frame.ReadCSV(strings.NewReader("name\nann\nbob\n"))
	require.NoError(t, err)

	_, err = Line(ds, DefaultOptions())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestScatter(t *testing.T) {
	ds := loadFixture(t)

	pts, err := ScatterPoints(ds, "Duration", "Calories")
	require.NoError(t, err)
	assert.Len(t, pts, 30, "rows without Calories are skipped")
	assert.Equal(t, 60.0, pts[0].X)
	assert.Equal(t, 409.1, pts[0].Y)

	p, err := Scatter(ds, "Duration", "Calories", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Duration", p.X.Label.Text)
	assert.Equal(t, "Calories", p.Y.Label.Text)

	path := filepath.Join(t.TempDir(), "scatter.svg")
	require.NoError(t, Save(p, path, DefaultOptions()))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "<svg")

	_, err = Scatter(ds, "Duration", "Date", DefaultOptions())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeType))

	_, err = Scatter(ds, "Duration", "Weight", DefaultOptions())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestHistogram(t *testing.T) {
	ds := loadFixture(t)

	bins, err := Bins(ds, "Duration", 10)
	require.NoError(t, err)
	require.Len(t, bins, 10)
	assert.Equal(t, 30.0, bins[0].Min)
	assert.Equal(t, 450.0, bins[9].Max)
	assert.Equal(t, 31.0, bins[0].Weight)
	assert.Equal(t, 1.0, bins[9].Weight)

	total := 0.0
	for _, b := range bins {
		total += b.Weight
	}
	assert.Equal(t, 32.0, total)

	bins, err = Bins(ds, "Calories", 0)
	require.NoError(t, err)
	assert.Len(t, bins, DefaultBins)

	p, err := Histogram(ds, "Duration", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Frequency", p.Y.Label.Text)

	_, err = Histogram(ds, "Date", DefaultOptions())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeType))
}

func TestHistogram_ConstantColumn(t *testing.T) {
	ds, err := frame.ReadCSV(strings.NewReader("Duration\n60\n60\n60\n"))
	require.NoError(t, err)

	bins, err := Bins(ds, "Duration", 10)
	require.NoError(t, err)
	require.Len(t, bins, 10)
	assert.InDelta(t, 59.5, bins[0].Min, 1e-9)
	assert.InDelta(t, 60.5, bins[9].Max, 1e-9)

	total := 0.0
	for i, b := range bins {
		total += b.Weight
		if b.Weight > 0 {
			assert.Equal(t, 5, i)
			assert.True(t, b.Min <= 60 && 60 <= b.Max)
		}
	}
	assert.Equal(t, 3.0, total)

	_, err = Histogram(ds, "Duration", Options{Bins: 4})
	require.NoError(t, err)
}

func TestSave_UnsupportedFormat(t *testing.T) {
	p, err := Histogram(loadFixture(t), "Pulse", DefaultOptions())
	require.NoError(t, err)

	err = Save(p, filepath.Join(t.TempDir(), "hist.txt"), DefaultOptions())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	err = Save(p, filepath.Join(t.TempDir(), "hist"), DefaultOptions())
	assert.Error(t, err)
}
