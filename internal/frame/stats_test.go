package frame

import (
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "workoutcli/internal/errors"
)

func stringsReader(s string) io.Reader { return strings.NewReader(s) }

func TestStatistics(t *testing.T) {
	ds := loadFixture(t)

	mean, err := ds.Mean("Calories")
	require.NoError(t, err)
	assert.InDelta(t, 304.68, mean, 1e-9)

	median, err := ds.Median("Calories")
	require.NoError(t, err)
	assert.InDelta(t, 291.2, median, 1e-9)

	modes, err := ds.Mode("Calories")
	require.NoError(t, err)
	assert.Equal(t, []float64{300}, modes)

	mean, err = ds.Mean("Duration")
	require.NoError(t, err)
	assert.InDelta(t, 68.4375, mean, 1e-9)

	std, err := ds.Std("Duration")
	require.NoError(t, err)
	assert.InDelta(t, 70.03959133831886, std, 1e-9)

	_, err = ds.Mean("Date")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeType))
	_, err = ds.Median("Date")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeType))
}

func TestMode_Multiple(t *testing.T) {
	ds, err := ReadCSV(stringsReader("v\n3\n1\n3\n1\n2\n"))
	require.NoError(t, err)

	modes, err := ds.Mode("v")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, modes)
}

func TestMean_AllMissing(t *testing.T) {
	ds, err := ReadCSV(stringsReader("a,b\n1,\n2,\n"))
	require.NoError(t, err)
	out, err := ds.ToNumeric("b", true)
	require.NoError(t, err)

	mean, err := out.Mean("b")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(mean))

	_, _, err = out.FillNAWith("b", Strategy{Method: FillMean})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.25, 1.75},
		{0.5, 2.5},
		{0.75, 3.25},
		{1, 4},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Quantile(sorted, tt.p), 1e-12, "p=%v", tt.p)
	}

	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.3))
}

func TestDropNaN(t *testing.T) {
	assert.Equal(t, []float64{1, 3}, DropNaN([]float64{1, math.NaN(), 3}))
	assert.Empty(t, DropNaN(nil))
}
