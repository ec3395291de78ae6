package analysis

import (
	"bytes"
	"math"
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

func TestCorrelate_Pearson(t *testing.T) {
	ds := loadFixture(t)

	m, err := Correlate(ds, Pearson)
	require.NoError(t, err)
	assert.Equal(t, []string{"Duration", "Pulse", "Maxpulse", "Calories"}, m.Columns)

	want := map[[2]string]float64{
		{"Duration", "Pulse"}:    0.00441,
		{"Duration", "Maxpulse"}: 0.049959,
		{"Duration", "Calories"}: -0.114169,
		{"Pulse", "Maxpulse"}:    0.276583,
		{"Pulse", "Calories"}:    0.513186,
		{"Maxpulse", "Calories"}: 0.35746,
	}
	for pair, r := range want {
		got, ok := m.Get(pair[0], pair[1])
		require.True(t, ok)
		assert.InDelta(t, r, got, 1e-6, "%s/%s", pair[0], pair[1])
	}

	n := len(m.Columns)
	for i := 0; i < n; i++ {
		assert.Equal(t, 1.0, m.Values[i][i])
		for j := 0; j < n; j++ {
			assert.Equal(t, m.Values[i][j], m.Values[j][i])
		}
	}

	assert.Equal(t, 30, m.Counts[0][3])
	assert.Equal(t, 32, m.Counts[0][1])

	_, ok := m.Get("Date", "Pulse")
	assert.False(t, ok, "non-numeric columns are ignored")
}

func TestCorrelate_Spearman(t *testing.T) {
	ds := loadFixture(t)

	m, err := Correlate(ds, Spearman)
	require.NoError(t, err)
	assert.Equal(t, Spearman, m.Method)

	r, ok := m.Get("Pulse", "Maxpulse")
	require.True(t, ok)
	assert.InDelta(t, 0.658599, r, 1e-6)

	r, _ = m.Get("Duration", "Calories")
	assert.InDelta(t, 0.193246, r, 1e-6)
}

func TestCorrelate_Degenerate(t *testing.T) {
	ds, err := frame.ReadCSV(strings.NewReader("a,b,c\n1,5,2\n2,5,\n3,5,\n"))
	require.NoError(t, err)

	m, err := Correlate(ds, Pearson)
	require.NoError(t, err)

	aa, _ := m.Get("a", "a")
	assert.Equal(t, 1.0, aa)

	bb, _ := m.Get("b", "b")
	assert.True(t, math.IsNaN(bb), "constant column has no defined correlation")

	ac, _ := m.Get("a", "c")
	assert.True(t, math.IsNaN(ac), "a single complete pair is not enough")

	assert.Empty(t, m.Pairs())
}

func TestCorrelate_UnknownMethod(t *testing.T) {
	_, err := Correlate(loadFixture(t), "kendall")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	_, err = ParseMethod("kendall")
	assert.Error(t, err)

	m, err := ParseMethod(" Spearman ")
	require.NoError(t, err)
	assert.Equal(t, Spearman, m)

	m, err = ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, Pearson, m)
}

func TestPairs(t *testing.T) {
	m, err := Correlate(loadFixture(t), Pearson)
	require.NoError(t, err)

	pairs := m.Pairs()
	require.Len(t, pairs, 6)
	assert.Equal(t, "Pulse", pairs[0].A)
	assert.Equal(t, "Calories", pairs[0].B)
	assert.Equal(t, 30, pairs[0].N)
	for i := 1; i < len(pairs); i++ {
		assert.GreaterOrEqual(t, math.Abs(pairs[i-1].R), math.Abs(pairs[i].R))
	}
}

func TestRank(t *testing.T) {
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, Rank([]float64{1, 5, 5, 9}))
	assert.Equal(t, []float64{3, 1, 2}, Rank([]float64{30, 10, 20}))
	assert.Empty(t, Rank(nil))
}

func TestCorrMatrix_RenderAndRecords(t *testing.T) {
	m, err := Correlate(loadFixture(t), Pearson)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, m.Render(&buf))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "Maxpulse")
	assert.Contains(t, lines[1], "1.000000")
	assert.Contains(t, lines[4], "0.513186")

	records := m.Records()
	require.Len(t, records, 5)
	assert.Equal(t, []string{"", "Duration", "Pulse", "Maxpulse", "Calories"}, records[0])
	assert.Equal(t, "Duration", records[1][0])
	assert.Equal(t, "1", records[1][1])
}
